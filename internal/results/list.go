// Package results lists, fetches and formats match records from the ledger
// for the arena CLI.
package results

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/arena/pkg/ledger"
)

// OutputFormat selects how match lists are written.
type OutputFormat string

const (
	// OutputFormatDefault is a human-readable table.
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL is one JSON record per line.
	OutputFormatJSONL OutputFormat = "jsonl"
)

// FilterCriteria narrows a listing. All filters are ANDed together and zero
// values disable a filter.
type FilterCriteria struct {
	SinceTimestampMs int64
	UntilTimestampMs int64
	Bot              string // matches either side's identity
	Outcome          string // exact terminal outcome token
}

func (fc *FilterCriteria) matches(r *ledger.MatchRecord) bool {
	if fc.SinceTimestampMs > 0 && r.CreatedAtMs < fc.SinceTimestampMs {
		return false
	}
	if fc.UntilTimestampMs > 0 && r.CreatedAtMs > fc.UntilTimestampMs {
		return false
	}
	if fc.Bot != "" && !r.Involves(fc.Bot) {
		return false
	}
	if fc.Outcome != "" && r.Outcome != fc.Outcome {
		return false
	}
	return true
}

// ListMatches writes every record in the client's namespace that passes
// filters, oldest first. Records that cannot be loaded are reported to warn
// and skipped.
func ListMatches(ctx context.Context, client *ledger.Client, format OutputFormat, filters *FilterCriteria, w, warn io.Writer) error {
	records, skipped, err := client.ListMatches(ctx)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(warn, "Skipping malformed match: %v\n", s)
	}

	var kept []*ledger.MatchRecord
	for _, r := range records {
		if filters == nil || filters.matches(r) {
			kept = append(kept, r)
		}
	}

	switch format {
	case OutputFormatDefault, "":
		_, err := FormatTable(w, kept, client.Namespace())
		return err
	case OutputFormatJSONL:
		if err := FormatJSONL(w, kept); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
