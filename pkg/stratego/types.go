package stratego

import (
	"fmt"
	"strings"
)

// Player identifies one side of a match. The numeric value doubles as the
// ownership sign used on the board.
type Player int

const (
	// RED owns positive board cells. Its home rows are the far side of the global board.
	RED Player = 1

	// BLUE owns negative board cells. Its home rows are the near side of the global board.
	BLUE Player = -1
)

// Opponent returns the other side.
func (p Player) Opponent() Player {
	return -p
}

// Owns encodes a piece as a signed board value owned by p.
func (p Player) Owns(piece Piece) int {
	return int(p) * int(piece)
}

// String returns "RED" or "BLUE".
func (p Player) String() string {
	switch p {
	case RED:
		return "RED"
	case BLUE:
		return "BLUE"
	default:
		return fmt.Sprintf("Player(%d)", int(p))
	}
}

// Tag returns the three-letter color used on transcript turn lines.
func (p Player) Tag() string {
	if p == BLUE {
		return "BLU"
	}
	return "RED"
}

// ParsePlayer accepts RED, BLUE or BLU in any case.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RED":
		return RED, nil
	case "BLUE", "BLU":
		return BLUE, nil
	default:
		return 0, fmt.Errorf("unknown player color: %q", s)
	}
}

// Piece is a rank identifier. Placeable ranks run from FLAG to MARSHAL in
// ascending id order, which is also the order an engine places them in.
type Piece int

const (
	EMPTY Piece = iota
	LAKE
	FLAG
	BOMB
	SPY
	SCOUT
	MINER
	SERGEANT
	LIEUTENANT
	CAPTAIN
	MAJOR
	COLONEL
	GENERAL
	MARSHAL
)

var pieceNames = [...]string{
	"EMPTY", "LAKE", "FLAG", "BOMB", "SPY", "SCOUT", "MINER", "SERGEANT",
	"LIEUTENANT", "CAPTAIN", "MAJOR", "COLONEL", "GENERAL", "MARSHAL",
}

// PlaceableRanks lists FLAG..MARSHAL in ascending id order.
func PlaceableRanks() []Piece {
	ranks := make([]Piece, 0, MARSHAL-FLAG+1)
	for p := FLAG; p <= MARSHAL; p++ {
		ranks = append(ranks, p)
	}
	return ranks
}

// String returns the rank name.
func (p Piece) String() string {
	if p >= 0 && int(p) < len(pieceNames) {
		return pieceNames[p]
	}
	return fmt.Sprintf("Piece(%d)", int(p))
}

// Placeable reports whether p is a rank that can appear in an army.
func (p Piece) Placeable() bool {
	return p >= FLAG && p <= MARSHAL
}

// Movable reports whether p can ever leave its cell.
func (p Piece) Movable() bool {
	return p.Placeable() && p != FLAG && p != BOMB
}

// Pos is a cell in (row, col) order on the engine-global board.
type Pos struct {
	Row int
	Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Board is a snapshot of the engine's integer matrix.
type Board [][]int

// NewBoard allocates an empty height×width board.
func NewBoard(height, width int) Board {
	b := make(Board, height)
	for r := range b {
		b[r] = make([]int, width)
	}
	return b
}

// Height returns the number of rows.
func (b Board) Height() int {
	return len(b)
}

// Width returns the number of columns.
func (b Board) Width() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Contains reports whether pos lies on the board.
func (b Board) Contains(pos Pos) bool {
	return pos.Row >= 0 && pos.Row < b.Height() && pos.Col >= 0 && pos.Col < b.Width()
}

// At returns the raw signed value at pos, or 0 when pos is off the board.
func (b Board) At(pos Pos) int {
	if !b.Contains(pos) {
		return 0
	}
	return b[pos.Row][pos.Col]
}

// Set writes a raw signed value.
func (b Board) Set(pos Pos, v int) {
	b[pos.Row][pos.Col] = v
}

// PieceAt decodes the cell at pos. Lakes and empty cells report owner 0.
func (b Board) PieceAt(pos Pos) (Piece, Player) {
	v := b.At(pos)
	piece := Piece(abs(v))
	if v == 0 || piece == LAKE {
		return piece, 0
	}
	if v > 0 {
		return piece, RED
	}
	return piece, BLUE
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for r := range b {
		out[r] = append([]int(nil), b[r]...)
	}
	return out
}

// Remaining counts the pieces each side still has on the board. Lakes are
// excluded on both signs.
func (b Board) Remaining() (red, blue int) {
	for _, row := range b {
		for _, v := range row {
			if v == 0 || Piece(abs(v)) == LAKE {
				continue
			}
			if v > 0 {
				red++
			} else {
				blue++
			}
		}
	}
	return red, blue
}

// Equal reports whether two snapshots hold identical values.
func (b Board) Equal(other Board) bool {
	if len(b) != len(other) {
		return false
	}
	for r := range b {
		if len(b[r]) != len(other[r]) {
			return false
		}
		for c := range b[r] {
			if b[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// Mask is a boolean matrix over board cells returned by legality queries.
type Mask [][]bool

// NewMask allocates an all-false height×width mask.
func NewMask(height, width int) Mask {
	m := make(Mask, height)
	for r := range m {
		m[r] = make([]bool, width)
	}
	return m
}

// At reports the mask value at pos. Off-board cells are false.
func (m Mask) At(pos Pos) bool {
	if pos.Row < 0 || pos.Row >= len(m) || pos.Col < 0 || pos.Col >= len(m[pos.Row]) {
		return false
	}
	return m[pos.Row][pos.Col]
}

// Any reports whether at least one cell is set.
func (m Mask) Any() bool {
	for _, row := range m {
		for _, v := range row {
			if v {
				return true
			}
		}
	}
	return false
}

// Direction is a move direction in the mover's own frame.
type Direction string

const (
	UP    Direction = "UP"
	DOWN  Direction = "DOWN"
	LEFT  Direction = "LEFT"
	RIGHT Direction = "RIGHT"
)

// Opposite swaps a direction along its own axis. Unknown directions are
// returned unchanged with ok=false.
func (d Direction) Opposite() (Direction, bool) {
	switch d {
	case UP:
		return DOWN, true
	case DOWN:
		return UP, true
	case LEFT:
		return RIGHT, true
	case RIGHT:
		return LEFT, true
	default:
		return d, false
	}
}

// Move is expressed in the mover's own rotated frame: X is the column, Y the
// row, and the destination lies Multiplier cells along Direction.
type Move struct {
	X          int
	Y          int
	Direction  Direction
	Multiplier int
}

// Setup is one player's placement grid, row 0 first, in that player's frame.
type Setup [][]Piece

// Rows returns the number of rows in the block.
func (s Setup) Rows() int {
	return len(s)
}

// Cols returns the width of the first row.
func (s Setup) Cols() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Counts tallies each piece in the grid. EMPTY cells are counted too.
func (s Setup) Counts() map[Piece]int {
	counts := make(map[Piece]int)
	for _, row := range s {
		for _, p := range row {
			counts[p]++
		}
	}
	return counts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
