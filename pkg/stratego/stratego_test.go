package stratego

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer(t *testing.T) {
	assert.Equal(t, BLUE, RED.Opponent())
	assert.Equal(t, RED, BLUE.Opponent())
	assert.Equal(t, "RED", RED.String())
	assert.Equal(t, "BLUE", BLUE.String())
	assert.Equal(t, "BLU", BLUE.Tag())
	assert.Equal(t, 2, RED.Owns(FLAG))
	assert.Equal(t, -3, BLUE.Owns(BOMB))

	for _, s := range []string{"red", "RED", " Red "} {
		p, err := ParsePlayer(s)
		require.NoError(t, err)
		assert.Equal(t, RED, p)
	}
	for _, s := range []string{"blue", "BLU"} {
		p, err := ParsePlayer(s)
		require.NoError(t, err)
		assert.Equal(t, BLUE, p)
	}
	_, err := ParsePlayer("green")
	assert.Error(t, err)
}

func TestPieceIDs(t *testing.T) {
	assert.Equal(t, 0, int(EMPTY))
	assert.Equal(t, 1, int(LAKE))
	assert.Equal(t, 2, int(FLAG))
	assert.Equal(t, 13, int(MARSHAL))
	assert.Len(t, PlaceableRanks(), 12)
	assert.True(t, SCOUT.Movable())
	assert.False(t, BOMB.Movable())
	assert.False(t, FLAG.Movable())
	assert.False(t, LAKE.Placeable())
	assert.Equal(t, "GENERAL", GENERAL.String())
}

func TestBoard(t *testing.T) {
	board := NewBoard(10, 10)
	board.Set(Pos{Row: 9, Col: 0}, RED.Owns(FLAG))
	board.Set(Pos{Row: 0, Col: 3}, BLUE.Owns(MARSHAL))
	board.Set(Pos{Row: 4, Col: 2}, int(LAKE))

	p, owner := board.PieceAt(Pos{Row: 9, Col: 0})
	assert.Equal(t, FLAG, p)
	assert.Equal(t, RED, owner)

	p, owner = board.PieceAt(Pos{Row: 0, Col: 3})
	assert.Equal(t, MARSHAL, p)
	assert.Equal(t, BLUE, owner)

	p, owner = board.PieceAt(Pos{Row: 4, Col: 2})
	assert.Equal(t, LAKE, p)
	assert.Equal(t, Player(0), owner)

	assert.Equal(t, 0, board.At(Pos{Row: -1, Col: 0}))
	assert.False(t, board.Contains(Pos{Row: 10, Col: 0}))

	red, blue := board.Remaining()
	assert.Equal(t, 1, red)
	assert.Equal(t, 1, blue)

	clone := board.Clone()
	clone.Set(Pos{Row: 9, Col: 0}, 0)
	assert.Equal(t, 2, board.At(Pos{Row: 9, Col: 0}), "clone must not alias")
	assert.False(t, board.Equal(clone))
}

func TestRemainingIgnoresNegativeLakes(t *testing.T) {
	board := NewBoard(2, 2)
	board.Set(Pos{Row: 0, Col: 0}, -int(LAKE))
	board.Set(Pos{Row: 0, Col: 1}, int(LAKE))
	board.Set(Pos{Row: 1, Col: 1}, BLUE.Owns(SCOUT))

	red, blue := board.Remaining()
	assert.Equal(t, 0, red)
	assert.Equal(t, 1, blue)
}

func TestMask(t *testing.T) {
	m := NewMask(2, 3)
	assert.False(t, m.Any())
	m[1][2] = true
	assert.True(t, m.Any())
	assert.True(t, m.At(Pos{Row: 1, Col: 2}))
	assert.False(t, m.At(Pos{Row: 5, Col: 5}))
}

func TestDirectionOpposite(t *testing.T) {
	tests := map[Direction]Direction{UP: DOWN, DOWN: UP, LEFT: RIGHT, RIGHT: LEFT}
	for in, want := range tests {
		got, ok := in.Opposite()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := Direction("SIDEWAYS").Opposite()
	assert.False(t, ok)
}

func TestClassicTokens(t *testing.T) {
	tokens := ClassicTokens()
	for _, p := range append([]Piece{EMPTY, LAKE}, PlaceableRanks()...) {
		tok, ok := tokens.Token(p)
		require.True(t, ok, "no token for %s", p)
		back, ok := tokens.Piece(tok)
		require.True(t, ok)
		assert.Equal(t, p, back)
	}

	p, ok := tokens.Piece('s')
	require.True(t, ok)
	assert.Equal(t, SPY, p)
	p, ok = tokens.Piece('1')
	require.True(t, ok)
	assert.Equal(t, MARSHAL, p)
	_, ok = tokens.Piece('x')
	assert.False(t, ok)
	assert.Equal(t, "?", tokens.MustToken(Piece(99)))
}

func TestNewTokenTableRejectsDuplicates(t *testing.T) {
	_, err := NewTokenTable(map[Piece]rune{FLAG: 'F', BOMB: 'F'})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assigned to both")
}

func TestArmy(t *testing.T) {
	army := ClassicArmy()
	assert.Equal(t, 40, army.Total())
	require.NoError(t, army.Validate())

	bad := ClassicArmy()
	bad[FLAG] = 0
	assert.Error(t, bad.Validate())

	withLake := Army{FLAG: 1, LAKE: 2}
	assert.Error(t, withLake.Validate())
}

func TestSetupRows(t *testing.T) {
	rows, err := SetupRows(ClassicArmy(), ClassicArmy(), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, rows)

	small := Army{FLAG: 1, SCOUT: 9}
	_, err = SetupRows(ClassicArmy(), small, 10, 10)
	assert.ErrorIs(t, err, ErrArmyMismatch)

	_, err = SetupRows(Army{FLAG: 1, SCOUT: 6}, Army{FLAG: 1, SCOUT: 6}, 10, 10)
	assert.ErrorIs(t, err, ErrArmyMismatch, "7 pieces do not fill a row of 10")

	_, err = SetupRows(ClassicArmy(), ClassicArmy(), 6, 10)
	assert.ErrorIs(t, err, ErrArmyMismatch, "4 rows do not fit in half of 6")
}

func TestAlwaysPermit(t *testing.T) {
	assert.True(t, AlwaysPermit.ValidateMove(RED, SCOUT, Pos{}, Pos{Row: 1}))
	deny := DetectorFunc(func(Player, Piece, Pos, Pos) bool { return false })
	assert.False(t, deny.ValidateMove(BLUE, MARSHAL, Pos{}, Pos{}))
}
