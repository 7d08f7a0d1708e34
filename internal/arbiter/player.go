package arbiter

import (
	"context"

	"github.com/dyluth/arena/internal/transport"
)

// Player is one side of a match: a bot behind a transport.Controller or a
// human behind a transport.Terminal.
type Player interface {
	Name() string

	// Setup returns a placement block. An empty block leaves placement to
	// the engine's random sampler.
	Setup(ctx context.Context, req transport.SetupRequest) (string, error)

	RequestMove(ctx context.Context, lastMove, outcome string, board []string) (string, error)
	ConfirmResult(move, outcome string)
}

// Quitter is implemented by players that hold a process which must be told
// the game is over. Humans do not implement it.
type Quitter interface {
	EndGame(result string) error
}
