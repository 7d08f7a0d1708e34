// Package watch streams finished matches from the ledger as they are saved.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/arena/pkg/ledger"
)

// OutputFormat selects how streamed matches are printed.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// formatter renders one event per line.
type formatter interface {
	FormatMatch(r *ledger.MatchRecord) error
	FormatError(err error) error
}

type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatMatch(r *ledger.MatchRecord) error {
	ts := time.UnixMilli(r.CreatedAtMs).Format("15:04:05")
	_, err := fmt.Fprintf(f.writer, "[%s] 🏁 Match finished: %s vs %s, winner=%s (%s) outcome=%s turns=%d remaining=%d-%d id=%s\n",
		ts, r.RedName, r.BlueName, r.Winner, r.WinnerColor, r.Outcome, r.Turns, r.RedRemaining, r.BlueRemaining, r.ID)
	return err
}

func (f *defaultFormatter) FormatError(err error) error {
	_, werr := fmt.Fprintf(f.writer, "⚠️  %v\n", err)
	return werr
}

type jsonFormatter struct {
	writer io.Writer
}

type jsonEvent struct {
	Event string              `json:"event"`
	Match *ledger.MatchRecord `json:"match,omitempty"`
	Error string              `json:"error,omitempty"`
}

func (f *jsonFormatter) FormatMatch(r *ledger.MatchRecord) error {
	stripped := *r
	stripped.Transcript = ""
	return f.write(jsonEvent{Event: "match_finished", Match: &stripped})
}

func (f *jsonFormatter) FormatError(err error) error {
	return f.write(jsonEvent{Event: "error", Error: err.Error()})
}

func (f *jsonFormatter) write(e jsonEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

func newFormatter(format OutputFormat, w io.Writer) (formatter, error) {
	switch format {
	case OutputFormatDefault, "":
		return &defaultFormatter{writer: w}, nil
	case OutputFormatJSON:
		return &jsonFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// StreamMatches prints every match saved in the client's namespace until ctx
// is cancelled. When bot is non-empty only matches involving it are printed.
// Undecodable events are reported inline and do not stop the stream.
func StreamMatches(ctx context.Context, client *ledger.Client, format OutputFormat, bot string, w io.Writer) error {
	f, err := newFormatter(format, w)
	if err != nil {
		return err
	}

	sub, err := client.SubscribeMatchEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	if format != OutputFormatJSON {
		fmt.Fprintf(w, "Watching matches in namespace '%s'...\n", client.Namespace())
	}

	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-events:
			if !ok {
				return nil
			}
			if bot != "" && !r.Involves(bot) {
				continue
			}
			if err := f.FormatMatch(r); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err := f.FormatError(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
	}
}

// PollForMatch polls for a saved match record.
// Returns the record or an error if timeout occurs.
// Polls every 200ms for the specified timeout duration.
func PollForMatch(ctx context.Context, client *ledger.Client, matchID string, timeout time.Duration) (*ledger.MatchRecord, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for match %s after %v", matchID, timeout)

		case <-ticker.C:
			r, err := client.GetMatch(ctx, matchID)
			if err != nil {
				if ledger.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query for match: %w", err)
			}
			return r, nil
		}
	}
}
