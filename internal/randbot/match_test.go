package randbot_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/arena/internal/arbiter"
	"github.com/dyluth/arena/internal/randbot"
	"github.com/dyluth/arena/internal/replay"
	"github.com/dyluth/arena/internal/sandbox"
	"github.com/dyluth/arena/internal/transport"
)

// botProcess runs a randbot in-process behind transport.Process.
type botProcess struct {
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	done    chan struct{}
}

func startBot(t *testing.T, seed int64) *botProcess {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	p := &botProcess{stdinW: inW, stdoutR: outR, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		randbot.New(seed, zerolog.Nop()).Run(context.Background(), inR, outW)
		outW.Close()
		// Keep accepting writes until the controller lets go.
		io.Copy(io.Discard, inR)
	}()
	t.Cleanup(func() { p.Terminate(time.Second) })
	return p
}

func (p *botProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *botProcess) Stdout() io.Reader     { return p.stdoutR }
func (p *botProcess) Stderr() string        { return "" }

func (p *botProcess) Terminate(grace time.Duration) error {
	p.stdinW.Close()
	select {
	case <-p.done:
	case <-time.After(grace):
		p.stdoutR.Close()
	}
	return nil
}

func TestRandbotsPlayAReplayableMatch(t *testing.T) {
	opts := sandbox.DefaultOptions()
	opts.MaxTurns = 300
	opts.Seed = 11
	engine, err := sandbox.New(opts)
	require.NoError(t, err)

	red := transport.NewController("rand-red", startBot(t, 1))
	blue := transport.NewController("rand-blue", startBot(t, 2))

	buf := &bytes.Buffer{}
	m, err := arbiter.New(arbiter.DefaultConfig(), engine, red, blue, arbiter.WithTranscript(arbiter.NewTranscript(buf)))
	require.NoError(t, err)

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, []string{
		arbiter.ReasonFlagCaptured, arbiter.ReasonEngineEnded, arbiter.ReasonTruncated,
		arbiter.ReasonSurrender, arbiter.ReasonTwoSquare,
	}, res.Reason, "single steps onto empty or enemy cells never fail otherwise")
	assert.Greater(t, res.Turns, 0)

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "RED rand-red\n"))

	seq, err := replay.Parse(strings.NewReader(text), replay.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, res.Turns, seq.Turns)

	fresh, err := sandbox.New(opts)
	require.NoError(t, err)
	_, err = seq.Apply(fresh)
	require.NoError(t, err)
	assert.True(t, res.Board.Equal(fresh.Board()))
}
