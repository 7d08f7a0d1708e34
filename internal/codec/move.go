package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/arena/pkg/stratego"
)

var (
	// ErrMalformedMove is returned for move text that is neither a control
	// keyword nor a well-formed "x y DIRECTION [mult]" line.
	ErrMalformedMove = errors.New("malformed move")

	// ErrUnknownDirection is returned for a direction outside UP/DOWN/LEFT/RIGHT.
	ErrUnknownDirection = errors.New("unknown direction")
)

// Control keywords a bot may answer with instead of a move.
const (
	KeywordSurrender = "SURRENDER"
	KeywordQuit      = "QUIT"
	KeywordNoMove    = "NO_MOVE"
	KeywordStart     = "START"
)

// CommandKind distinguishes a real move from a control keyword.
type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandSurrender
	CommandQuit
	CommandNoMove
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "MOVE"
	case CommandSurrender:
		return KeywordSurrender
	case CommandQuit:
		return KeywordQuit
	case CommandNoMove:
		return KeywordNoMove
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is a parsed bot answer. Move is only set for CommandMove.
type Command struct {
	Kind CommandKind
	Move stratego.Move
}

// ParseMove parses a single move line. Control keywords are matched
// case-insensitively on the first token. Anything else needs at least three
// tokens; the multiplier defaults to 1.
func ParseMove(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrMalformedMove)
	}

	switch strings.ToUpper(fields[0]) {
	case KeywordSurrender:
		return Command{Kind: CommandSurrender}, nil
	case KeywordQuit:
		return Command{Kind: CommandQuit}, nil
	case KeywordNoMove:
		return Command{Kind: CommandNoMove}, nil
	}

	if len(fields) < 3 {
		return Command{}, fmt.Errorf("%w: expected \"x y DIRECTION [mult]\", got %q", ErrMalformedMove, text)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return Command{}, fmt.Errorf("%w: bad x %q", ErrMalformedMove, fields[0])
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return Command{}, fmt.Errorf("%w: bad y %q", ErrMalformedMove, fields[1])
	}
	dir := stratego.Direction(strings.ToUpper(fields[2]))
	if _, ok := dir.Opposite(); !ok {
		return Command{}, fmt.Errorf("%w: %w: %q", ErrMalformedMove, ErrUnknownDirection, fields[2])
	}
	mult := 1
	if len(fields) > 3 {
		mult, err = strconv.Atoi(fields[3])
		if err != nil || mult < 1 {
			return Command{}, fmt.Errorf("%w: bad multiplier %q", ErrMalformedMove, fields[3])
		}
	}

	return Command{
		Kind: CommandMove,
		Move: stratego.Move{X: x, Y: y, Direction: dir, Multiplier: mult},
	}, nil
}

// RotateMove turns a move through 180 degrees into the opposite frame.
// Applying it twice returns the original move.
func RotateMove(m stratego.Move, height, width int) (stratego.Move, error) {
	dir, ok := m.Direction.Opposite()
	if !ok {
		return stratego.Move{}, fmt.Errorf("%w: %q", ErrUnknownDirection, m.Direction)
	}
	return stratego.Move{
		X:          width - 1 - m.X,
		Y:          height - 1 - m.Y,
		Direction:  dir,
		Multiplier: m.Multiplier,
	}, nil
}

// DestFromMove applies the directional offset to (x, y) and returns the
// destination in (row, col) order.
func DestFromMove(x, y int, dir stratego.Direction, mult int) (stratego.Pos, error) {
	dx, dy := 0, 0
	switch dir {
	case stratego.UP:
		dy = -mult
	case stratego.DOWN:
		dy = mult
	case stratego.LEFT:
		dx = -mult
	case stratego.RIGHT:
		dx = mult
	default:
		return stratego.Pos{}, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}
	return stratego.Pos{Row: y + dy, Col: x + dx}, nil
}

// SrcDestFromMove converts a move in the mover's frame to engine-global
// origin and destination cells. RED moves are rotated first; BLUE's frame
// already matches the engine.
func SrcDestFromMove(m stratego.Move, player stratego.Player, height, width int) (src, dst stratego.Pos, err error) {
	if player == stratego.RED {
		m, err = RotateMove(m, height, width)
		if err != nil {
			return src, dst, err
		}
	}
	src = stratego.Pos{Row: m.Y, Col: m.X}
	dst, err = DestFromMove(m.X, m.Y, m.Direction, m.Multiplier)
	return src, dst, err
}

// MoveFromSrcDest is the inverse of SrcDestFromMove: it expresses an
// engine-global step in the given player's own frame.
func MoveFromSrcDest(src, dst stratego.Pos, player stratego.Player, height, width int) (stratego.Move, error) {
	dr, dc := dst.Row-src.Row, dst.Col-src.Col
	m := stratego.Move{X: src.Col, Y: src.Row}
	switch {
	case dr == 0 && dc < 0:
		m.Direction, m.Multiplier = stratego.LEFT, -dc
	case dr == 0 && dc > 0:
		m.Direction, m.Multiplier = stratego.RIGHT, dc
	case dc == 0 && dr < 0:
		m.Direction, m.Multiplier = stratego.UP, -dr
	case dc == 0 && dr > 0:
		m.Direction, m.Multiplier = stratego.DOWN, dr
	default:
		return stratego.Move{}, fmt.Errorf("%w: %s to %s is not a straight line", ErrMalformedMove, src, dst)
	}
	if player == stratego.RED {
		return RotateMove(m, height, width)
	}
	return m, nil
}

// FormatMove renders "x y DIRECTION" and appends the multiplier when it is
// greater than 1.
func FormatMove(m stratego.Move) string {
	if m.Multiplier > 1 {
		return fmt.Sprintf("%d %d %s %d", m.X, m.Y, m.Direction, m.Multiplier)
	}
	return fmt.Sprintf("%d %d %s", m.X, m.Y, m.Direction)
}
