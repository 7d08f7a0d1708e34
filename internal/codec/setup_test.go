package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/arena/pkg/stratego"
)

const classicBlock = "FBBBBBB8s1\n2334445555\n6666777788\n8899999999"

func TestParseSetup(t *testing.T) {
	tokens := stratego.ClassicTokens()

	setup, err := ParseSetup("\n"+classicBlock+"\n", tokens)
	require.NoError(t, err)
	assert.Equal(t, 4, setup.Rows())
	assert.Equal(t, 10, setup.Cols())
	assert.Equal(t, stratego.FLAG, setup[0][0])
	assert.Equal(t, stratego.SPY, setup[0][8])
	assert.Equal(t, stratego.MARSHAL, setup[0][9])
	require.NoError(t, ValidateSetup(setup, stratego.ClassicArmy(), 4, 10))

	assert.Equal(t, []string{"FBBBBBB8s1", "2334445555", "6666777788", "8899999999"}, FormatSetup(setup, tokens))
}

func TestParseSetupRejectsUnknownTokens(t *testing.T) {
	_, err := ParseSetup("F..\n.xz", stratego.ClassicTokens())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSetup)
	assert.Contains(t, err.Error(), `"x"`)
	assert.Contains(t, err.Error(), "row 1")

	_, err = ParseSetup("   ", stratego.ClassicTokens())
	assert.ErrorIs(t, err, ErrInvalidSetup)
}

func TestValidateSetup(t *testing.T) {
	tokens := stratego.ClassicTokens()
	army := stratego.ClassicArmy()

	tests := []struct {
		name  string
		block string
		want  string
	}{
		{"too few rows", "FBBBBBB8s1\n2334445555\n6666777788", "expected 4 rows"},
		{"short row", "FBBBBBB8s1\n2334445555\n6666777788\n889999999", "row 3 has 9 cells"},
		{"wrong counts", "FBBBBBB8s1\n2334445555\n6666777778\n8899999999", "expected 5 MINER, got 4"},
		{"empty cell", "FBBBBBB8s1\n2334445555\n6666777788\n889999999.", "expected 8 SCOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup, err := ParseSetup(tt.block, tokens)
			require.NoError(t, err)
			err = ValidateSetup(setup, army, 4, 10)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSetup)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetupToActionFirstTurns(t *testing.T) {
	setup, err := ParseSetup("F........\nB........\n.........\n.........", stratego.ClassicTokens())
	require.NoError(t, err)
	army := stratego.Army{stratego.FLAG: 1, stratego.BOMB: 1}

	x, y, err := SetupToAction(setup, 0, army)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})

	x, y, err = SetupToAction(setup, 1, army)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 1}, [2]int{x, y})

	_, _, err = SetupToAction(setup, 2, army)
	assert.ErrorIs(t, err, ErrInvalidSetup)
}

func TestSetupToActionVisitsEveryCellOnce(t *testing.T) {
	setup, err := ParseSetup(classicBlock, stratego.ClassicTokens())
	require.NoError(t, err)
	army := stratego.ClassicArmy()

	seen := make(map[[2]int]bool)
	lastByRank := make(map[stratego.Piece]int)
	prevRank := stratego.EMPTY
	for turn := 0; turn < army.Total(); turn++ {
		x, y, err := SetupToAction(setup, turn, army)
		require.NoError(t, err)
		cell := [2]int{x, y}
		require.False(t, seen[cell], "cell %v visited twice", cell)
		seen[cell] = true

		rank := setup[y][x]
		require.GreaterOrEqual(t, rank, prevRank, "ranks must ascend")
		if rank == prevRank {
			assert.Greater(t, y*10+x, lastByRank[rank], "row-major within %s", rank)
		}
		lastByRank[rank] = y*10 + x
		prevRank = rank
	}
	assert.Len(t, seen, 40)
}

func TestSetupToActionMissingPiece(t *testing.T) {
	setup, err := ParseSetup("F...\n....", stratego.ClassicTokens())
	require.NoError(t, err)
	_, _, err = SetupToAction(setup, 1, stratego.Army{stratego.FLAG: 1, stratego.BOMB: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no BOMB found")
}

func TestPlacementCell(t *testing.T) {
	assert.Equal(t, stratego.Pos{Row: 1, Col: 2}, PlacementCell(stratego.BLUE, 2, 1, 10, 10))
	assert.Equal(t, stratego.Pos{Row: 8, Col: 7}, PlacementCell(stratego.RED, 2, 1, 10, 10))
	assert.Equal(t, stratego.Pos{Row: 9, Col: 9}, PlacementCell(stratego.RED, 0, 0, 10, 10))
}

func TestPlacementSchedule(t *testing.T) {
	order := PlacementSchedule(3, 3)
	assert.Equal(t, []stratego.Player{
		stratego.RED, stratego.BLUE, stratego.RED, stratego.BLUE, stratego.RED, stratego.BLUE,
	}, order)

	order = PlacementSchedule(3, 1)
	assert.Equal(t, []stratego.Player{stratego.RED, stratego.BLUE, stratego.RED, stratego.RED}, order)

	order = PlacementSchedule(1, 3)
	assert.Equal(t, []stratego.Player{stratego.RED, stratego.BLUE, stratego.BLUE, stratego.BLUE}, order)
}

func TestSetupFromBoardRoundTrip(t *testing.T) {
	tokens := stratego.ClassicTokens()
	army := stratego.ClassicArmy()
	setup, err := ParseSetup(classicBlock, tokens)
	require.NoError(t, err)

	for _, player := range []stratego.Player{stratego.RED, stratego.BLUE} {
		board := stratego.NewBoard(10, 10)
		actions, err := PlacementActions(player, setup, army, 10, 10)
		require.NoError(t, err)
		require.Len(t, actions, 40)
		for i, pos := range actions {
			x, y, err := SetupToAction(setup, i, army)
			require.NoError(t, err)
			board.Set(pos, player.Owns(setup[y][x]))
		}
		assert.Equal(t, setup, SetupFromBoard(board, player, 4), player.String())
	}
}
