package results

import (
	"time"

	"github.com/dyluth/arena/internal/arbiter"
	"github.com/dyluth/arena/pkg/ledger"
)

// RecordFromResult builds the ledger record for a finished match.
func RecordFromResult(res *arbiter.Result, redName, blueName, transcript string, endedAt time.Time) *ledger.MatchRecord {
	return &ledger.MatchRecord{
		ID:            res.MatchID,
		RedName:       redName,
		BlueName:      blueName,
		Winner:        res.WinnerName,
		WinnerColor:   res.Winner.String(),
		Outcome:       res.Outcome,
		Reason:        res.Reason,
		Turns:         res.Turns,
		RedRemaining:  res.RedRemaining,
		BlueRemaining: res.BlueRemaining,
		Transcript:    transcript,
		CreatedAtMs:   endedAt.UnixMilli(),
	}
}
