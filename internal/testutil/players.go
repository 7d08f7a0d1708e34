// Package testutil provides scripted and simple automatic players plus
// detector doubles for arbiter and replay tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dyluth/arena/internal/transport"
	"github.com/dyluth/arena/pkg/stratego"
)

// ClassicBlock is a legal placement for the classic 40-piece army. Row 0 is
// the back row.
const ClassicBlock = "FBBBBBB8s1\n2334445555\n6666777788\n8899999999"

// Prompt is one move request as a player saw it.
type Prompt struct {
	LastMove string
	Outcome  string
	Board    []string
}

// ScriptedPlayer answers setup with a fixed block and moves from a list.
// When the list is exhausted it surrenders. It records everything it was sent.
type ScriptedPlayer struct {
	PlayerName string
	Block      string
	Moves      []string

	// SetupErr and MoveErr, when set, are returned instead of an answer.
	// MoveErrAt selects which move request (0-based) fails.
	SetupErr  error
	MoveErr   error
	MoveErrAt int

	mu         sync.Mutex
	setupReq   *transport.SetupRequest
	prompts    []Prompt
	confirms   []string
	endResults []string
}

// Name returns PlayerName.
func (p *ScriptedPlayer) Name() string {
	return p.PlayerName
}

// Setup records the request and returns Block.
func (p *ScriptedPlayer) Setup(_ context.Context, req transport.SetupRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setupReq = &req
	if p.SetupErr != nil {
		return "", p.SetupErr
	}
	return p.Block, nil
}

// RequestMove records the prompt and returns the next scripted move.
func (p *ScriptedPlayer) RequestMove(_ context.Context, lastMove, outcome string, board []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := len(p.prompts)
	p.prompts = append(p.prompts, Prompt{LastMove: lastMove, Outcome: outcome, Board: board})
	if p.MoveErr != nil && i == p.MoveErrAt {
		return "", p.MoveErr
	}
	if i >= len(p.Moves) {
		return "SURRENDER", nil
	}
	return p.Moves[i], nil
}

// ConfirmResult records "<move> <outcome>".
func (p *ScriptedPlayer) ConfirmResult(move, outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, move+" "+outcome)
}

// EndGame records the result.
func (p *ScriptedPlayer) EndGame(result string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endResults = append(p.endResults, result)
	return nil
}

// SetupRequest returns the setup request received, if any.
func (p *ScriptedPlayer) SetupRequest() *transport.SetupRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setupReq
}

// Prompts returns the move requests received so far.
func (p *ScriptedPlayer) Prompts() []Prompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Prompt(nil), p.prompts...)
}

// Confirms returns the "<move> <outcome>" notifications received.
func (p *ScriptedPlayer) Confirms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.confirms...)
}

// EndResults returns the results passed to EndGame.
func (p *ScriptedPlayer) EndResults() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.endResults...)
}

// HumanLike wraps a player and hides EndGame, the way a human terminal has
// no process to stop.
type HumanLike struct {
	Inner interface {
		Name() string
		Setup(ctx context.Context, req transport.SetupRequest) (string, error)
		RequestMove(ctx context.Context, lastMove, outcome string, board []string) (string, error)
		ConfirmResult(move, outcome string)
	}
}

func (h HumanLike) Name() string { return h.Inner.Name() }

func (h HumanLike) Setup(ctx context.Context, req transport.SetupRequest) (string, error) {
	return h.Inner.Setup(ctx, req)
}

func (h HumanLike) RequestMove(ctx context.Context, lastMove, outcome string, board []string) (string, error) {
	return h.Inner.RequestMove(ctx, lastMove, outcome, board)
}

func (h HumanLike) ConfirmResult(move, outcome string) { h.Inner.ConfirmResult(move, outcome) }

// GreedyPlayer pushes its pieces toward the opponent using only the board
// it is shown. It prefers attacks, then advancing, then sideways steps.
type GreedyPlayer struct {
	PlayerName string
	Block      string
}

// Name returns PlayerName.
func (g *GreedyPlayer) Name() string {
	return g.PlayerName
}

// Setup returns Block.
func (g *GreedyPlayer) Setup(context.Context, transport.SetupRequest) (string, error) {
	return g.Block, nil
}

// RequestMove picks a move from the rendered board.
func (g *GreedyPlayer) RequestMove(_ context.Context, _, _ string, board []string) (string, error) {
	if move, ok := GreedyMove(board); ok {
		return move, nil
	}
	return "SURRENDER", nil
}

// ConfirmResult is a no-op.
func (g *GreedyPlayer) ConfirmResult(string, string) {}

// GreedyMove chooses a single-step move for the side whose pieces are drawn
// by token on board. Any attack wins, then an advance, then a sideways or
// backward step. Rows nearer the opponent are tried first.
func GreedyMove(board []string) (string, bool) {
	type step struct {
		dir    string
		dx, dy int
	}
	order := []step{{"DOWN", 0, 1}, {"LEFT", -1, 0}, {"RIGHT", 1, 0}, {"UP", 0, -1}}

	var advance, other string
	for y := len(board) - 1; y >= 0; y-- {
		for x := 0; x < len(board[y]); x++ {
			if !movable(board[y][x]) {
				continue
			}
			for _, s := range order {
				nx, ny := x+s.dx, y+s.dy
				if ny < 0 || ny >= len(board) || nx < 0 || nx >= len(board[ny]) {
					continue
				}
				move := fmt.Sprintf("%d %d %s", x, y, s.dir)
				switch board[ny][nx] {
				case '#':
					return move, true
				case '.':
					if s.dir == "DOWN" && advance == "" {
						advance = move
					} else if other == "" {
						other = move
					}
				}
			}
		}
	}
	if advance != "" {
		return advance, true
	}
	return other, other != ""
}

func movable(ch byte) bool {
	switch ch {
	case '.', '+', '#', 'F', 'B':
		return false
	}
	return true
}

// ScriptedDetector returns queued verdicts and then permits everything.
type ScriptedDetector struct {
	mu       sync.Mutex
	Verdicts []bool
	calls    int
}

// ValidateMove pops the next verdict.
func (d *ScriptedDetector) ValidateMove(stratego.Player, stratego.Piece, stratego.Pos, stratego.Pos) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.Verdicts) {
		return d.Verdicts[i]
	}
	return true
}

// Calls returns how many moves were checked.
func (d *ScriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
