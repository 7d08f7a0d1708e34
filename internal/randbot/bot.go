// Package randbot is a reference bot for the arena line protocol. It places a
// fixed (optionally shuffled) block and moves a random movable piece one
// square per turn.
package randbot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dyluth/arena/pkg/stratego"
)

// ClassicBlock is placed when no other block is configured.
var ClassicBlock = []string{"FBBBBBB8s1", "2334445555", "6666777788", "8899999999"}

// Cell characters in a rendered board.
const (
	hiddenCell = '#'
	lakeCell   = '+'
	emptyCell  = '.'
)

// Bot answers setup and move requests read from one stream on another.
type Bot struct {
	Block   []string
	Shuffle bool
	Tokens  *stratego.TokenTable
	Logger  zerolog.Logger

	rng    *rand.Rand
	width  int
	height int
}

// New returns a bot with the classic block and a seeded random source.
func New(seed int64, logger zerolog.Logger) *Bot {
	return &Bot{
		Block:  ClassicBlock,
		Tokens: stratego.ClassicTokens(),
		Logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Run plays one match: the setup exchange, then moves until QUIT or end of
// input.
func (b *Bot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	w := bufio.NewWriter(out)
	read := func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}
	send := func(lines ...string) error {
		for _, l := range lines {
			if _, err := w.WriteString(l + "\n"); err != nil {
				return err
			}
		}
		return w.Flush()
	}

	header, err := read()
	if err != nil {
		return fmt.Errorf("waiting for setup: %w", err)
	}
	if err := b.parseHeader(header); err != nil {
		return err
	}
	if err := send(b.placement()...); err != nil {
		return fmt.Errorf("failed to send placement: %w", err)
	}

	for {
		line, err := read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if isQuit(line) {
			b.Logger.Info().Str("result", strings.TrimSpace(strings.TrimPrefix(line, "QUIT"))).Msg("match over")
			return nil
		}

		board := make([]string, 0, b.height)
		for len(board) < b.height {
			row, err := read()
			if err != nil {
				return fmt.Errorf("reading board: %w", err)
			}
			board = append(board, row)
		}

		move := b.ChooseMove(board)
		b.Logger.Debug().Str("prompt", line).Str("move", move).Msg("moving")
		if err := send(move); err != nil {
			return fmt.Errorf("failed to send move: %w", err)
		}

		// The arbiter echoes the move with its outcome unless the match
		// ended on it.
		confirm, err := read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if isQuit(confirm) {
			return nil
		}
		b.Logger.Debug().Str("result", confirm).Msg("confirmed")
	}
}

func isQuit(line string) bool {
	return line == "QUIT" || strings.HasPrefix(line, "QUIT ")
}

// parseHeader reads "<COLOR> <opponent> <width> <height>".
func (b *Bot) parseHeader(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return fmt.Errorf("malformed setup request %q", line)
	}
	if _, err := stratego.ParsePlayer(fields[0]); err != nil {
		return fmt.Errorf("malformed setup request %q: %w", line, err)
	}
	width, werr := strconv.Atoi(fields[2])
	height, herr := strconv.Atoi(fields[3])
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return fmt.Errorf("malformed board size in %q", line)
	}
	b.width, b.height = width, height
	b.Logger.Info().Str("color", fields[0]).Str("opponent", fields[1]).Msg("setup requested")
	return nil
}

// placement returns the block, shuffled when requested.
func (b *Bot) placement() []string {
	if !b.Shuffle {
		return b.Block
	}
	var cells []rune
	for _, row := range b.Block {
		cells = append(cells, []rune(row)...)
	}
	b.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	out := make([]string, len(b.Block))
	for i, row := range b.Block {
		n := len([]rune(row))
		out[i], cells = string(cells[:n]), cells[n:]
	}
	return out
}

// ChooseMove picks a random own movable piece and a random orthogonal step
// onto an empty or enemy cell. It surrenders when there is none.
func (b *Bot) ChooseMove(board []string) string {
	type candidate struct {
		x, y int
		dir  stratego.Direction
	}
	steps := []struct {
		dx, dy int
		dir    stratego.Direction
	}{
		{0, -1, stratego.UP}, {0, 1, stratego.DOWN}, {-1, 0, stratego.LEFT}, {1, 0, stratego.RIGHT},
	}

	cell := func(x, y int) (rune, bool) {
		if y < 0 || y >= len(board) {
			return 0, false
		}
		row := []rune(board[y])
		if x < 0 || x >= len(row) {
			return 0, false
		}
		return row[x], true
	}

	var moves []candidate
	for y, row := range board {
		for x, c := range []rune(row) {
			piece, ok := b.Tokens.Piece(c)
			if !ok || !piece.Movable() {
				continue
			}
			for _, s := range steps {
				target, ok := cell(x+s.dx, y+s.dy)
				if ok && (target == emptyCell || target == hiddenCell) {
					moves = append(moves, candidate{x: x, y: y, dir: s.dir})
				}
			}
		}
	}
	if len(moves) == 0 {
		return "SURRENDER"
	}
	m := moves[b.rng.Intn(len(moves))]
	return fmt.Sprintf("%d %d %s", m.x, m.y, m.dir)
}
