package results

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/dyluth/arena/pkg/ledger"
)

// FormatTable writes records as a table with columns ID, RED, BLUE, WINNER,
// OUTCOME, TURNS, MARGIN and AGE. Returns the number of records written.
func FormatTable(w io.Writer, records []*ledger.MatchRecord, namespace string) (int, error) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No matches found in namespace '%s'\n", namespace)
		return 0, nil
	}

	fmt.Fprintf(w, "Matches in namespace '%s':\n\n", namespace)

	table := tablewriter.NewWriter(w)
	table.Header("ID", "RED", "BLUE", "WINNER", "OUTCOME", "TURNS", "MARGIN", "AGE")
	for _, r := range records {
		row := []string{
			formatID(r.ID),
			r.RedName,
			r.BlueName,
			formatWinner(r),
			r.Outcome,
			fmt.Sprintf("%d", r.Turns),
			fmt.Sprintf("%d-%d", r.RedRemaining, r.BlueRemaining),
			formatTimestamp(r.CreatedAtMs),
		}
		if err := table.Append(row); err != nil {
			return 0, fmt.Errorf("failed to add table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return 0, fmt.Errorf("failed to render table: %w", err)
	}

	noun := "match"
	if len(records) != 1 {
		noun = "matches"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(records), noun)
	return len(records), nil
}

// FormatJSONL writes one compact JSON record per line, without transcripts.
func FormatJSONL(w io.Writer, records []*ledger.MatchRecord) error {
	for _, r := range records {
		summary := *r
		summary.Transcript = ""
		data, err := json.Marshal(&summary)
		if err != nil {
			return fmt.Errorf("failed to marshal match to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one record as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, r *ledger.MatchRecord) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal match to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates a match ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatWinner(r *ledger.MatchRecord) string {
	return fmt.Sprintf("%s (%s)", r.Winner, r.WinnerColor)
}

// formatTimestamp renders Unix milliseconds as a relative age like "2m ago".
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := time.Since(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
