package randbot

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classicBoard() []string {
	return []string{
		"FBBBBBB8s1",
		"2334445555",
		"6666777788",
		"8899999999",
		"..++..++..",
		"..++..++..",
		"##########",
		"##########",
		"##########",
		"##########",
	}
}

func TestChooseMoveOnlyUsesFrontRowSteps(t *testing.T) {
	bot := New(1, zerolog.Nop())
	for i := 0; i < 50; i++ {
		move := bot.ChooseMove(classicBoard())
		fields := strings.Fields(move)
		require.Len(t, fields, 3, move)
		assert.Equal(t, "3", fields[1], "only the front row can move")
		assert.Equal(t, "DOWN", fields[2])
		assert.Contains(t, []string{"0", "1", "4", "5", "8", "9"}, fields[0], "never into a lake")
	}
}

func TestChooseMoveAttacksAndSurrenders(t *testing.T) {
	bot := New(1, zerolog.Nop())
	assert.Equal(t, "1 0 LEFT", bot.ChooseMove([]string{"#2B"}))
	assert.Equal(t, "SURRENDER", bot.ChooseMove([]string{"FB", "B+"}))
	assert.Equal(t, "SURRENDER", bot.ChooseMove([]string{"99", "99"}), "own pieces block each other")
}

func TestShufflePreservesPieces(t *testing.T) {
	bot := New(7, zerolog.Nop())
	bot.Shuffle = true
	block := bot.placement()
	require.Len(t, block, 4)

	sorted := func(rows []string) string {
		r := []rune(strings.Join(rows, ""))
		sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
		return string(r)
	}
	for _, row := range block {
		assert.Len(t, row, 10)
	}
	assert.Equal(t, sorted(ClassicBlock), sorted(block))
	assert.NotEqual(t, ClassicBlock, block)
}

func TestRunProtocol(t *testing.T) {
	board := strings.Join(classicBoard(), "\n")
	in := strings.Join([]string{
		"RED opponent 10 10",
		"START", board,
		"4 3 DOWN OK",
		"5 6 UP OK", board,
		"QUIT SURRENDER",
	}, "\n") + "\n"

	out := &bytes.Buffer{}
	require.NoError(t, New(3, zerolog.Nop()).Run(context.Background(), strings.NewReader(in), out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6, "four setup rows and two moves")
	assert.Equal(t, ClassicBlock, lines[:4])
	for _, move := range lines[4:] {
		assert.Regexp(t, `^\d \d (UP|DOWN|LEFT|RIGHT)$`, move)
	}
}

func TestRunEndsOnEOF(t *testing.T) {
	out := &bytes.Buffer{}
	err := New(3, zerolog.Nop()).Run(context.Background(), strings.NewReader("BLUE x 10 10\n"), out)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(ClassicBlock, "\n")+"\n", out.String())
}

func TestRunRejectsBadSetupRequest(t *testing.T) {
	tests := []string{"", "RED x 10\n", "GREEN x 10 10\n", "RED x ten 10\n"}
	for _, in := range tests {
		err := New(1, zerolog.Nop()).Run(context.Background(), strings.NewReader(in), io.Discard)
		assert.Error(t, err, "%q", in)
	}
}

func TestRunTruncatedBoard(t *testing.T) {
	in := "RED x 10 10\nSTART\n..........\n"
	err := New(1, zerolog.Nop()).Run(context.Background(), strings.NewReader(in), io.Discard)
	assert.ErrorContains(t, err, "reading board")
}
