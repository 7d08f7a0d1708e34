package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dyluth/arena/pkg/stratego"
)

// maxLineSize bounds a single protocol line read from a bot (1MB).
const maxLineSize = 1024 * 1024

// SetupRequest describes the placement a bot is asked for.
type SetupRequest struct {
	Color    stratego.Player
	Opponent string
	Width    int
	Height   int

	// Rows is the number of placement rows expected back.
	Rows int
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the per-request response window.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithExitGrace sets how long a bot may take to exit after QUIT.
func WithExitGrace(d time.Duration) Option {
	return func(c *Controller) { c.grace = d }
}

// WithLogger attaches a logger for protocol traffic.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller speaks the line protocol to one bot process. A single goroutine
// drains the bot's stdout so reads can be bounded by a timer.
type Controller struct {
	name    string
	proc    Process
	timeout time.Duration
	grace   time.Duration
	logger  zerolog.Logger

	stdin *bufio.Writer
	lines chan string
	stop  chan struct{}

	readErr  error // valid once lines is closed
	dead     atomic.Bool
	stopOnce sync.Once
}

// Start launches a bot and wraps it in a Controller.
func Start(ctx context.Context, name string, launcher Launcher, opts ...Option) (*Controller, error) {
	proc, err := launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch bot %s: %w", name, err)
	}
	return NewController(name, proc, opts...), nil
}

// NewController wraps an already running process.
func NewController(name string, proc Process, opts ...Option) *Controller {
	c := &Controller{
		name:    name,
		proc:    proc,
		timeout: DefaultTimeout,
		grace:   DefaultExitGrace,
		logger:  zerolog.Nop(),
		stdin:   bufio.NewWriter(proc.Stdin()),
		lines:   make(chan string, 16),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("bot", name).Logger()

	go c.readLoop(proc.Stdout())
	return c
}

func (c *Controller) readLoop(r io.Reader) {
	defer close(c.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.stop:
			return
		}
	}
	c.readErr = scanner.Err()
}

// Name returns the bot's display name.
func (c *Controller) Name() string {
	return c.name
}

// Alive reports whether the bot's streams are still usable.
func (c *Controller) Alive() bool {
	return !c.dead.Load()
}

// Send writes one line and flushes. A write failure marks the controller
// dead; the next read reports it.
func (c *Controller) Send(line string) {
	if c.dead.Load() {
		return
	}
	c.logger.Debug().Str("dir", "send").Msg(line)
	if _, err := c.stdin.WriteString(line + "\n"); err != nil {
		c.markDead(err)
		return
	}
	if err := c.stdin.Flush(); err != nil {
		c.markDead(err)
	}
}

// ReadLine waits up to timeout for the next line. A timeout of zero waits
// indefinitely.
func (c *Controller) ReadLine(ctx context.Context, timeout time.Duration) (string, error) {
	if c.dead.Load() {
		return "", fmt.Errorf("%w: %s is no longer running", ErrClosed, c.name)
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			c.markDead(c.readErr)
			return "", fmt.Errorf("%w: %s ended its output", ErrClosed, c.name)
		}
		line = strings.TrimRight(line, "\r")
		c.logger.Debug().Str("dir", "recv").Msg(line)
		return line, nil
	case <-expired:
		c.logStderr()
		return "", fmt.Errorf("%w: %s gave no response within %s", ErrTimeout, c.name, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReadLines waits up to timeout for the first line, then reads the rest
// without a per-line deadline.
func (c *Controller) ReadLines(ctx context.Context, count int, timeout time.Duration) ([]string, error) {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		wait := time.Duration(0)
		if i == 0 {
			wait = timeout
		}
		line, err := c.ReadLine(ctx, wait)
		if err != nil {
			return lines, fmt.Errorf("reading line %d of %d: %w", i+1, count, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Setup sends "<COLOR> <opponent> <width> <height>" and returns the bot's
// placement block joined by newlines.
func (c *Controller) Setup(ctx context.Context, req SetupRequest) (string, error) {
	rows := req.Rows
	if rows <= 0 {
		rows = req.Height / 2
	}
	c.Send(fmt.Sprintf("%s %s %d %d", req.Color, req.Opponent, req.Width, req.Height))
	lines, err := c.ReadLines(ctx, rows, c.timeout)
	if err != nil {
		return "", err
	}
	c.logger.Debug().Strs("setup", lines).Msg("received placement")
	return strings.Join(lines, "\n"), nil
}

// RequestMove sends the previous move and its outcome (or START), then the
// board rows, and reads exactly one line back.
func (c *Controller) RequestMove(ctx context.Context, lastMove, outcome string, board []string) (string, error) {
	if lastMove == "" || lastMove == "START" {
		c.Send("START")
	} else {
		c.Send(strings.TrimSpace(lastMove + " " + outcome))
	}
	for _, row := range board {
		c.Send(row)
	}
	return c.ReadLine(ctx, c.timeout)
}

// ConfirmResult reports the outcome of the bot's own move. No answer is read.
func (c *Controller) ConfirmResult(move, outcome string) {
	c.Send(strings.TrimSpace(move + " " + outcome))
}

// EndGame sends QUIT with an optional result and stops the process. Errors
// from stopping are logged, never returned to the match.
func (c *Controller) EndGame(result string) error {
	c.Send(strings.TrimSpace("QUIT " + result))
	c.markDead(nil)
	if err := c.proc.Terminate(c.grace); err != nil {
		c.logger.Debug().Err(err).Msg("terminate")
	}
	return nil
}

func (c *Controller) markDead(err error) {
	if err != nil {
		c.logger.Warn().Err(err).Msg("bot stream failed")
	}
	c.dead.Store(true)
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Controller) logStderr() {
	if tail := strings.TrimSpace(c.proc.Stderr()); tail != "" {
		c.logger.Warn().Str("stderr", truncate(tail, 500)).Msg("bot stderr")
	}
}
