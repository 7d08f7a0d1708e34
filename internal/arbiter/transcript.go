package arbiter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/pkg/stratego"
)

// Transcript is the append-only match log. Every line is written through to
// the underlying writer as soon as it is produced, so a crash mid-match
// leaves a valid partial log.
type Transcript struct {
	mu   sync.Mutex
	w    io.Writer
	text strings.Builder
	err  error

	closeOnce sync.Once
	closeErr  error
}

// NewTranscript writes to w. Close closes w when it is an io.Closer.
func NewTranscript(w io.Writer) *Transcript {
	return &Transcript{w: w}
}

// CreateTranscript creates (or truncates) the file at path.
func CreateTranscript(path string) (*Transcript, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript %s: %w", path, err)
	}
	return NewTranscript(f), nil
}

// WriteLine appends one line. The first write error is kept and later
// lines are still recorded in memory.
func (t *Transcript) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.text.WriteString(line)
	t.text.WriteByte('\n')
	if t.err != nil || t.w == nil {
		return
	}
	if _, err := io.WriteString(t.w, line+"\n"); err != nil {
		t.err = err
		return
	}
	if f, ok := t.w.(interface{ Flush() error }); ok {
		t.err = f.Flush()
	}
}

// SetupBlock writes a side's header followed by its placement rows.
func (t *Transcript) SetupBlock(color stratego.Player, identity string, rows []string) {
	t.WriteLine(codec.FormatSetupHeader(color, identity))
	for _, r := range rows {
		t.WriteLine(r)
	}
}

// Turn writes one executed turn.
func (t *Transcript) Turn(turn int, color stratego.Player, move stratego.Move, outcome string) {
	t.WriteLine(codec.FormatTurnLine(turn, color, move, outcome))
}

// Attempt writes a terminating attempt that was not executed.
func (t *Transcript) Attempt(turn int, color stratego.Player, outcome, raw string) {
	t.WriteLine(codec.FormatAttemptLine(turn, color, outcome, raw))
}

// Result writes the final line.
func (t *Transcript) Result(r codec.ResultLine) {
	t.WriteLine(codec.FormatResultLine(r))
}

// Text returns everything written so far.
func (t *Transcript) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text.String()
}

// Err returns the first write error, if any.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close closes the underlying writer once.
func (t *Transcript) Close() error {
	t.closeOnce.Do(func() {
		if c, ok := t.w.(io.Closer); ok {
			t.closeErr = c.Close()
		}
	})
	return t.closeErr
}
