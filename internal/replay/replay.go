// Package replay turns a match transcript back into the flat action sequence
// that drives an engine from a fresh reset to the recorded position.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/pkg/stratego"
)

var (
	// ErrNoPlacement is returned when a transcript lacks a usable setup
	// block, for example after a setup forfeit.
	ErrNoPlacement = errors.New("transcript has no placement")

	// ErrOutOfTurn is returned when a turn line's color breaks the strict
	// RED/BLUE alternation, or when an action is applied to an engine that
	// expects the other player.
	ErrOutOfTurn = errors.New("action out of turn")
)

// Options describes the board the transcript was played on.
type Options struct {
	Height int
	Width  int
	Tokens *stratego.TokenTable
}

// DefaultOptions is the classic 10x10 board with classic tokens.
func DefaultOptions() Options {
	return Options{Height: 10, Width: 10, Tokens: stratego.ClassicTokens()}
}

// Sequence is a parsed transcript. Actions and Players have equal length:
// one entry per placement, then two per move (select, destination).
type Sequence struct {
	RedName  string
	BlueName string
	Actions  []stratego.Pos
	Players  []stratego.Player

	// Placements is the number of leading placement actions.
	Placements int
	// Turns is the number of executed moves read.
	Turns int
	// Result is the final line, when the transcript ended with one.
	Result *codec.ResultLine
}

// ParseFile parses the transcript at path.
func ParseFile(path string, opts Options) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse reads the two setup blocks, rebuilds the interleaved placement
// sequence and then converts each turn line into a select/destination pair.
// It stops at the first line that is not a turn line.
func Parse(r io.Reader, opts Options) (*Sequence, error) {
	if opts.Tokens == nil {
		opts.Tokens = stratego.ClassicTokens()
	}
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	seq := &Sequence{}
	redSetup, rest, err := readBlock(lines, stratego.RED, &seq.RedName, 0, opts.Tokens)
	if err != nil {
		return nil, err
	}
	blueSetup, rest, err := readBlock(rest, stratego.BLUE, &seq.BlueName, redSetup.Rows(), opts.Tokens)
	if err != nil {
		return nil, err
	}

	if err := seq.addPlacements(redSetup, blueSetup, opts); err != nil {
		return nil, err
	}
	return seq, seq.addTurns(rest, opts)
}

// readBlock consumes a setup header and its rows. With rows == 0 the block
// extends to the next setup header.
func readBlock(lines []string, color stratego.Player, name *string, rows int, tokens *stratego.TokenTable) (stratego.Setup, []string, error) {
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: missing %s header", ErrNoPlacement, color)
	}
	got, identity, ok := codec.ParseSetupHeader(lines[0])
	if !ok || got != color {
		return nil, nil, fmt.Errorf("%w: expected %s header, got %q", ErrNoPlacement, color, lines[0])
	}
	*name = identity
	lines = lines[1:]

	n := rows
	if n == 0 {
		for n < len(lines) {
			if _, _, isHeader := codec.ParseSetupHeader(lines[n]); isHeader {
				break
			}
			n++
		}
	}
	if n == 0 || n > len(lines) {
		return nil, nil, fmt.Errorf("%w: %s block is empty or truncated", ErrNoPlacement, color)
	}
	setup, err := codec.ParseSetupLines(lines[:n], tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s block: %v", ErrNoPlacement, color, err)
	}
	return setup, lines[n:], nil
}

func (s *Sequence) addPlacements(red, blue stratego.Setup, opts Options) error {
	armies := map[stratego.Player]stratego.Army{
		stratego.RED:  armyOf(red),
		stratego.BLUE: armyOf(blue),
	}
	actions := map[stratego.Player][]stratego.Pos{}
	for color, setup := range map[stratego.Player]stratego.Setup{stratego.RED: red, stratego.BLUE: blue} {
		acts, err := codec.PlacementActions(color, setup, armies[color], opts.Height, opts.Width)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrNoPlacement, color, err)
		}
		actions[color] = acts
	}

	next := map[stratego.Player]int{}
	for _, color := range codec.PlacementSchedule(armies[stratego.RED].Total(), armies[stratego.BLUE].Total()) {
		s.Actions = append(s.Actions, actions[color][next[color]])
		s.Players = append(s.Players, color)
		next[color]++
	}
	s.Placements = len(s.Actions)
	return nil
}

func armyOf(setup stratego.Setup) stratego.Army {
	army := stratego.Army{}
	for piece, n := range setup.Counts() {
		if piece.Placeable() {
			army[piece] = n
		}
	}
	return army
}

func (s *Sequence) addTurns(lines []string, opts Options) error {
	player := stratego.RED
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if res, ok := codec.ParseResultLine(lines[i]); ok {
			s.Result = &res
		}
		break
	}

	for _, line := range lines {
		tl, ok := codec.ParseTurnLine(line)
		if !ok {
			return nil
		}
		if tl.Player != player {
			return fmt.Errorf("%w: turn %d is tagged %s, expected %s", ErrOutOfTurn, tl.Turn, tl.Player, player)
		}
		src, dst, err := codec.SrcDestFromMove(tl.Move, player, opts.Height, opts.Width)
		if err != nil {
			return fmt.Errorf("turn %d: %w", tl.Turn, err)
		}
		s.Actions = append(s.Actions, src, dst)
		s.Players = append(s.Players, player, player)
		s.Turns++
		player = player.Opponent()
	}
	return nil
}

// Apply resets engine and feeds it every action, checking that the engine
// expects the recorded player before each step. It returns the last step
// result.
func (s *Sequence) Apply(engine stratego.Engine) (stratego.StepResult, error) {
	if err := engine.Reset(); err != nil {
		return stratego.StepResult{}, fmt.Errorf("failed to reset engine: %w", err)
	}
	var last stratego.StepResult
	for i, action := range s.Actions {
		if got := engine.Player(); got != s.Players[i] {
			return last, fmt.Errorf("%w: action %d belongs to %s but engine expects %s", ErrOutOfTurn, i, s.Players[i], got)
		}
		step, err := engine.Step(action)
		if err != nil {
			return last, fmt.Errorf("action %d (%s at %s): %w", i, s.Players[i], action, err)
		}
		last = step
	}
	return last, nil
}
