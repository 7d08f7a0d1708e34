package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// HumanIdentity names a human side in transcripts and on the command line.
const HumanIdentity = "@human"

var (
	ownColor   = color.New(color.FgCyan, color.Bold)
	enemyColor = color.New(color.FgRed)
	lakeColor  = color.New(color.FgBlue)
	dimColor   = color.New(color.Faint)
)

// Terminal lets a person play one side from a text terminal. It has no
// response deadline and always leaves placement to the engine.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	// One reader goroutine owns in for the terminal's lifetime, so a line
	// typed after an abandoned request is handed to the next one.
	readOnce sync.Once
	lines    chan terminalLine
}

type terminalLine struct {
	text string
	err  error
}

// NewTerminal reads moves from in and writes prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, lines: make(chan terminalLine)}
}

// Name returns HumanIdentity.
func (t *Terminal) Name() string {
	return HumanIdentity
}

// Setup returns an empty block so the engine samples the placement.
func (t *Terminal) Setup(_ context.Context, req SetupRequest) (string, error) {
	fmt.Fprintf(t.out, "You are %s against %s. Your pieces will be placed randomly.\n", req.Color, req.Opponent)
	return "", nil
}

// RequestMove prints the board in the player's own frame and reads one line.
func (t *Terminal) RequestMove(ctx context.Context, lastMove, outcome string, board []string) (string, error) {
	fmt.Fprintln(t.out)
	if lastMove == "" || lastMove == "START" {
		fmt.Fprintln(t.out, "Opening move.")
	} else {
		fmt.Fprintf(t.out, "Opponent: %s %s\n", lastMove, outcome)
	}
	t.printBoard(board)
	fmt.Fprint(t.out, "Your move (x y DIRECTION [n]) or SURRENDER: ")

	t.readOnce.Do(func() { go t.readLines() })
	select {
	case l := <-t.lines:
		if l.err != nil && strings.TrimSpace(l.text) == "" {
			return "", fmt.Errorf("%w: terminal input ended: %v", ErrClosed, l.err)
		}
		return strings.TrimSpace(l.text), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readLines feeds t.lines until the input fails. The final error is
// repeated so every later request sees it.
func (t *Terminal) readLines() {
	for {
		text, err := t.in.ReadString('\n')
		t.lines <- terminalLine{text: text, err: err}
		if err != nil {
			for {
				t.lines <- terminalLine{err: err}
			}
		}
	}
}

// ConfirmResult prints the outcome of the player's move.
func (t *Terminal) ConfirmResult(move, outcome string) {
	fmt.Fprintf(t.out, "%s -> %s\n", move, outcome)
}

func (t *Terminal) printBoard(board []string) {
	if len(board) == 0 {
		return
	}
	var header strings.Builder
	header.WriteString("   ")
	for x := range board[0] {
		header.WriteString(fmt.Sprintf("%d", x%10))
	}
	dimColor.Fprintln(t.out, header.String())

	for y, row := range board {
		dimColor.Fprintf(t.out, "%2d ", y)
		for _, ch := range row {
			switch ch {
			case '.':
				dimColor.Fprint(t.out, string(ch))
			case '+':
				lakeColor.Fprint(t.out, string(ch))
			case '#':
				enemyColor.Fprint(t.out, string(ch))
			default:
				ownColor.Fprint(t.out, string(ch))
			}
		}
		fmt.Fprintln(t.out)
	}
}
