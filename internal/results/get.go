package results

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/arena/internal/resolver"
	"github.com/dyluth/arena/pkg/ledger"
)

// GetMatch resolves a full or short match ID and writes the record. With
// transcriptOnly it writes just the stored transcript text, which can be fed
// straight back into replay.
func GetMatch(ctx context.Context, client *ledger.Client, id string, transcriptOnly bool, w io.Writer) error {
	fullID, err := resolver.ResolveMatchID(ctx, client, id)
	if err != nil {
		return err
	}

	r, err := client.GetMatch(ctx, fullID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return &resolver.NotFoundError{ShortID: id}
		}
		return fmt.Errorf("failed to fetch match: %w", err)
	}

	if transcriptOnly {
		_, err := io.WriteString(w, r.Transcript)
		return err
	}
	return FormatSingleJSON(w, r)
}
