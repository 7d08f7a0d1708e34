// Package sandbox is a compact in-process Stratego rules engine. It stands in
// for the external engine so matches can be played, replayed and tested
// without one.
package sandbox

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/pkg/stratego"
)

// ErrInvalidAction is returned when Step receives an action that is not
// legal in the current phase.
var ErrInvalidAction = errors.New("invalid action")

// Options configures the board, armies and limits.
type Options struct {
	Height   int
	Width    int
	Lakes    []stratego.Pos
	RedArmy  stratego.Army
	BlueArmy stratego.Army

	// MaxTurns truncates the game after this many executed moves. Zero
	// means no limit.
	MaxTurns int
	Seed     int64
}

// ClassicLakes are the eight lake cells of the standard 10x10 board.
func ClassicLakes() []stratego.Pos {
	return []stratego.Pos{
		{Row: 4, Col: 2}, {Row: 4, Col: 3}, {Row: 5, Col: 2}, {Row: 5, Col: 3},
		{Row: 4, Col: 6}, {Row: 4, Col: 7}, {Row: 5, Col: 6}, {Row: 5, Col: 7},
	}
}

// DefaultOptions is the classic game.
func DefaultOptions() Options {
	return Options{
		Height:   10,
		Width:    10,
		Lakes:    ClassicLakes(),
		RedArmy:  stratego.ClassicArmy(),
		BlueArmy: stratego.ClassicArmy(),
		MaxTurns: 2000,
	}
}

type phase int

const (
	phasePlacement phase = iota
	phasePlay
	phaseOver
)

// Engine implements stratego.Engine.
type Engine struct {
	opts Options
	rows int
	rng  *rand.Rand

	board    stratego.Board
	phase    phase
	schedule []stratego.Player
	placed   int
	queue    map[stratego.Player][]stratego.Piece
	player   stratego.Player
	selected *stratego.Pos
	turns    int
}

var _ stratego.Engine = (*Engine)(nil)

// New validates opts and returns a reset engine.
func New(opts Options) (*Engine, error) {
	rows, err := stratego.SetupRows(opts.RedArmy, opts.BlueArmy, opts.Height, opts.Width)
	if err != nil {
		return nil, err
	}
	for _, lake := range opts.Lakes {
		if lake.Row < rows || lake.Row >= opts.Height-rows || lake.Col < 0 || lake.Col >= opts.Width {
			return nil, fmt.Errorf("lake %s must lie between the home zones", lake)
		}
	}
	e := &Engine{opts: opts, rows: rows}
	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset clears the board and restarts placement. The random source is
// re-seeded so sampled placements repeat for the same seed.
func (e *Engine) Reset() error {
	e.rng = rand.New(rand.NewSource(e.opts.Seed))
	e.board = stratego.NewBoard(e.opts.Height, e.opts.Width)
	for _, lake := range e.opts.Lakes {
		e.board.Set(lake, int(stratego.LAKE))
	}
	e.phase = phasePlacement
	e.schedule = codec.PlacementSchedule(e.opts.RedArmy.Total(), e.opts.BlueArmy.Total())
	e.placed = 0
	e.queue = map[stratego.Player][]stratego.Piece{
		stratego.RED:  expand(e.opts.RedArmy),
		stratego.BLUE: expand(e.opts.BlueArmy),
	}
	e.player = e.schedule[0]
	e.selected = nil
	e.turns = 0
	return nil
}

// expand lists an army's pieces in ascending rank order.
func expand(army stratego.Army) []stratego.Piece {
	pieces := make([]stratego.Piece, 0, army.Total())
	for _, rank := range stratego.PlaceableRanks() {
		for i := 0; i < army.Count(rank); i++ {
			pieces = append(pieces, rank)
		}
	}
	return pieces
}

// Board returns a copy of the current board.
func (e *Engine) Board() stratego.Board {
	return e.board.Clone()
}

// Player returns the side expected to act next.
func (e *Engine) Player() stratego.Player {
	return e.player
}

// Turns returns the number of executed moves.
func (e *Engine) Turns() int {
	return e.turns
}

// Step applies one action: a placement cell, a selection or a destination.
func (e *Engine) Step(action stratego.Pos) (stratego.StepResult, error) {
	switch e.phase {
	case phasePlacement:
		return e.stepPlacement(action)
	case phasePlay:
		if e.selected == nil {
			return e.stepSelect(action)
		}
		return e.stepMove(action)
	default:
		return stratego.StepResult{}, fmt.Errorf("%w: game is over", ErrInvalidAction)
	}
}

func (e *Engine) stepPlacement(action stratego.Pos) (stratego.StepResult, error) {
	if !e.placementMask().At(action) {
		return stratego.StepResult{}, fmt.Errorf("%w: %s cannot place at %s", ErrInvalidAction, e.player, action)
	}
	q := e.queue[e.player]
	e.board.Set(action, e.player.Owns(q[0]))
	e.queue[e.player] = q[1:]

	e.placed++
	if e.placed < len(e.schedule) {
		e.player = e.schedule[e.placed]
	} else {
		e.phase = phasePlay
		e.player = stratego.RED
	}
	return e.result(0, false, false), nil
}

func (e *Engine) stepSelect(action stratego.Pos) (stratego.StepResult, error) {
	if !e.ValidPiecesToSelect().At(action) {
		return stratego.StepResult{}, fmt.Errorf("%w: %s cannot select %s", ErrInvalidAction, e.player, action)
	}
	sel := action
	e.selected = &sel
	return e.result(0, false, false), nil
}

func (e *Engine) stepMove(action stratego.Pos) (stratego.StepResult, error) {
	src := *e.selected
	if !e.ValidDestinations().At(action) {
		return stratego.StepResult{}, fmt.Errorf("%w: %s cannot move %s to %s", ErrInvalidAction, e.player, src, action)
	}
	e.selected = nil

	flagTaken := e.resolve(src, action)
	e.turns++
	mover := e.player
	e.player = mover.Opponent()

	reward := 0.0
	terminated := flagTaken || !e.hasMove(e.player)
	if terminated {
		reward = 1
		e.phase = phaseOver
	}
	truncated := !terminated && e.opts.MaxTurns > 0 && e.turns >= e.opts.MaxTurns
	if truncated {
		e.phase = phaseOver
	}
	return e.result(reward, terminated, truncated), nil
}

// resolve moves the piece at src onto dst, fighting when dst is occupied.
// It reports whether a flag was captured.
func (e *Engine) resolve(src, dst stratego.Pos) bool {
	attackerVal := e.board.At(src)
	defenderVal := e.board.At(dst)
	e.board.Set(src, 0)
	if defenderVal == 0 {
		e.board.Set(dst, attackerVal)
		return false
	}

	attacker := stratego.Piece(abs(attackerVal))
	defender := stratego.Piece(abs(defenderVal))
	switch fight(attacker, defender) {
	case attackerWins:
		e.board.Set(dst, attackerVal)
	case bothDie:
		e.board.Set(dst, 0)
	}
	return defender == stratego.FLAG
}

type verdict int

const (
	attackerWins verdict = iota
	defenderWins
	bothDie
)

func fight(attacker, defender stratego.Piece) verdict {
	switch {
	case defender == stratego.FLAG:
		return attackerWins
	case defender == stratego.BOMB:
		if attacker == stratego.MINER {
			return attackerWins
		}
		return defenderWins
	case attacker == stratego.SPY && defender == stratego.MARSHAL:
		return attackerWins
	case attacker == defender:
		return bothDie
	case attacker > defender:
		return attackerWins
	default:
		return defenderWins
	}
}

// ValidPiecesToSelect is the set of empty home cells during placement, or
// the current player's pieces that have somewhere to go during play.
func (e *Engine) ValidPiecesToSelect() stratego.Mask {
	switch e.phase {
	case phasePlacement:
		return e.placementMask()
	case phasePlay:
		return e.selectableMask(e.player)
	default:
		return stratego.NewMask(e.opts.Height, e.opts.Width)
	}
}

// ValidDestinations is the set of cells the selected piece can reach.
func (e *Engine) ValidDestinations() stratego.Mask {
	m := stratego.NewMask(e.opts.Height, e.opts.Width)
	if e.phase != phasePlay || e.selected == nil {
		return m
	}
	for _, dst := range e.destinations(*e.selected) {
		m[dst.Row][dst.Col] = true
	}
	return m
}

// SampleAction draws a random legal action for the current phase. It
// returns (-1,-1) when there is none.
func (e *Engine) SampleAction() stratego.Pos {
	var mask stratego.Mask
	if e.phase == phasePlay && e.selected != nil {
		mask = e.ValidDestinations()
	} else {
		mask = e.ValidPiecesToSelect()
	}
	var cells []stratego.Pos
	for r, row := range mask {
		for c, ok := range row {
			if ok {
				cells = append(cells, stratego.Pos{Row: r, Col: c})
			}
		}
	}
	if len(cells) == 0 {
		return stratego.Pos{Row: -1, Col: -1}
	}
	return cells[e.rng.Intn(len(cells))]
}

func (e *Engine) placementMask() stratego.Mask {
	m := stratego.NewMask(e.opts.Height, e.opts.Width)
	lo, hi := 0, e.rows
	if e.player == stratego.RED {
		lo, hi = e.opts.Height-e.rows, e.opts.Height
	}
	for r := lo; r < hi; r++ {
		for c := 0; c < e.opts.Width; c++ {
			if e.board[r][c] == 0 {
				m[r][c] = true
			}
		}
	}
	return m
}

func (e *Engine) selectableMask(player stratego.Player) stratego.Mask {
	m := stratego.NewMask(e.opts.Height, e.opts.Width)
	for r := range e.board {
		for c := range e.board[r] {
			pos := stratego.Pos{Row: r, Col: c}
			piece, owner := e.board.PieceAt(pos)
			if owner == player && piece.Movable() && len(e.destinations(pos)) > 0 {
				m[r][c] = true
			}
		}
	}
	return m
}

func (e *Engine) hasMove(player stratego.Player) bool {
	return e.selectableMask(player).Any()
}

var steps = []stratego.Pos{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}

// destinations lists where the piece at src may move. Scouts slide any
// number of empty cells and may attack at the end of the slide.
func (e *Engine) destinations(src stratego.Pos) []stratego.Pos {
	piece, owner := e.board.PieceAt(src)
	if owner == 0 || !piece.Movable() {
		return nil
	}
	var out []stratego.Pos
	for _, d := range steps {
		pos := src
		for {
			pos = stratego.Pos{Row: pos.Row + d.Row, Col: pos.Col + d.Col}
			if !e.board.Contains(pos) {
				break
			}
			target, targetOwner := e.board.PieceAt(pos)
			if target == stratego.LAKE || targetOwner == owner {
				break
			}
			out = append(out, pos)
			if targetOwner != 0 || piece != stratego.SCOUT {
				break
			}
		}
	}
	return out
}

func (e *Engine) result(reward float64, terminated, truncated bool) stratego.StepResult {
	return stratego.StepResult{
		Observation: e.board.Clone(),
		Reward:      reward,
		Terminated:  terminated,
		Truncated:   truncated,
		Info:        map[string]any{"turn": e.turns, "player": e.player.String()},
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
