package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds how long a bot may take to start answering a request.
	DefaultTimeout = 2 * time.Second

	// DefaultExitGrace is how long a bot gets to exit after QUIT before it is killed.
	DefaultExitGrace = 500 * time.Millisecond

	// maxStderrSize caps how much bot stderr is retained for diagnostics (64KB).
	maxStderrSize = 64 * 1024
)

var (
	// ErrUnresponsive is the parent of every failure that ends the protocol
	// exchange with a bot.
	ErrUnresponsive = errors.New("bot unresponsive")

	// ErrTimeout is returned when a bot does not answer within its window.
	ErrTimeout = fmt.Errorf("%w: timed out", ErrUnresponsive)

	// ErrClosed is returned when a bot's output stream has ended or its input
	// pipe is broken.
	ErrClosed = fmt.Errorf("%w: stream closed", ErrUnresponsive)
)

// Process is a running bot with line-oriented standard streams.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader

	// Stderr returns whatever diagnostic output the bot has produced so far.
	Stderr() string

	// Terminate stops the bot, waiting up to grace for a clean exit.
	Terminate(grace time.Duration) error
}

// Launcher starts a bot process.
type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

// StderrBuffer keeps a bot's diagnostic output up to a size limit. Writes
// past the limit are discarded but still reported as written, so the bot's
// stderr never blocks. It is safe for concurrent use.
type StderrBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

// NewStderrBuffer keeps at most limit bytes; limit <= 0 means 64KB.
func NewStderrBuffer(limit int) *StderrBuffer {
	if limit <= 0 {
		limit = maxStderrSize
	}
	return &StderrBuffer{limit: limit}
}

func (b *StderrBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

// String returns everything retained so far.
func (b *StderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// truncate shortens s to maxLen bytes for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
