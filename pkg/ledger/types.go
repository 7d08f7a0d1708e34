package ledger

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// MatchRecord is the stored summary of one finished match.
type MatchRecord struct {
	ID            string `json:"id"`             // UUID of the match
	RedName       string `json:"red_name"`       // RED bot identity (or @human)
	BlueName      string `json:"blue_name"`      // BLUE bot identity
	Winner        string `json:"winner"`         // Identity of the winning side
	WinnerColor   string `json:"winner_color"`   // "RED" or "BLUE"
	Outcome       string `json:"outcome"`        // Terminal outcome token (VICTORY_FLAG, ILLEGAL, ...)
	Reason        string `json:"reason"`         // Human-readable termination reason
	Turns         int    `json:"turns"`          // Executed moves
	RedRemaining  int    `json:"red_remaining"`  // RED pieces on the final board
	BlueRemaining int    `json:"blue_remaining"` // BLUE pieces on the final board
	Transcript    string `json:"transcript"`     // Full transcript text
	CreatedAtMs   int64  `json:"created_at_ms"`  // Unix milliseconds when the match ended
}

// Loser returns the identity of the side that did not win.
func (r *MatchRecord) Loser() string {
	if r.WinnerColor == "RED" {
		return r.BlueName
	}
	return r.RedName
}

// Involves reports whether name played either side.
func (r *MatchRecord) Involves(name string) bool {
	return r.RedName == name || r.BlueName == name
}

// Validate checks the record before it is written.
func (r *MatchRecord) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("invalid match ID: %w", err)
	}
	if r.RedName == "" || r.BlueName == "" {
		return fmt.Errorf("both bot names are required")
	}
	switch r.WinnerColor {
	case "RED":
		if r.Winner != r.RedName {
			return fmt.Errorf("winner %q does not match RED bot %q", r.Winner, r.RedName)
		}
	case "BLUE":
		if r.Winner != r.BlueName {
			return fmt.Errorf("winner %q does not match BLUE bot %q", r.Winner, r.BlueName)
		}
	default:
		return fmt.Errorf("invalid winner color %q", r.WinnerColor)
	}
	if r.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if r.Turns < 0 || r.RedRemaining < 0 || r.BlueRemaining < 0 {
		return fmt.Errorf("turns and remaining counts must not be negative")
	}
	return nil
}

// RecordToHash converts a record to Redis hash fields.
func RecordToHash(r *MatchRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":             r.ID,
		"red_name":       r.RedName,
		"blue_name":      r.BlueName,
		"winner":         r.Winner,
		"winner_color":   r.WinnerColor,
		"outcome":        r.Outcome,
		"reason":         r.Reason,
		"turns":          r.Turns,
		"red_remaining":  r.RedRemaining,
		"blue_remaining": r.BlueRemaining,
		"transcript":     r.Transcript,
		"created_at_ms":  r.CreatedAtMs,
	}
}

// HashToRecord converts Redis hash fields back to a record.
func HashToRecord(hash map[string]string) (*MatchRecord, error) {
	ints := map[string]int{}
	for _, field := range []string{"turns", "red_remaining", "blue_remaining"} {
		v, err := strconv.Atoi(hash[field])
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", field, err)
		}
		ints[field] = v
	}
	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)

	return &MatchRecord{
		ID:            hash["id"],
		RedName:       hash["red_name"],
		BlueName:      hash["blue_name"],
		Winner:        hash["winner"],
		WinnerColor:   hash["winner_color"],
		Outcome:       hash["outcome"],
		Reason:        hash["reason"],
		Turns:         ints["turns"],
		RedRemaining:  ints["red_remaining"],
		BlueRemaining: ints["blue_remaining"],
		Transcript:    hash["transcript"],
		CreatedAtMs:   createdAtMs,
	}, nil
}
