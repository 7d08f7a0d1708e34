package stratego

// StepResult mirrors the (observation, reward, terminated, truncated, info)
// tuple an engine returns after applying an action.
type StepResult struct {
	Observation Board
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        map[string]any
}

// Done reports whether the engine ended the game on this step.
func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

// Engine is the authoritative rules engine. Actions are engine-global cells:
// during placement a cell receives the next piece of the current player;
// during play one move is two steps, select the origin and then the
// destination.
type Engine interface {
	Reset() error
	Step(action Pos) (StepResult, error)

	// ValidPiecesToSelect is the mask of origins the current player may select.
	ValidPiecesToSelect() Mask

	// ValidDestinations is only meaningful immediately after selecting an origin.
	ValidDestinations() Mask

	Board() Board
	Player() Player

	// SampleAction draws a random valid action for the current phase.
	SampleAction() Pos
}

// Detector validates a move against a repetition rule such as the
// two-square rule or the chasing rule.
type Detector interface {
	ValidateMove(player Player, piece Piece, from, to Pos) bool
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(player Player, piece Piece, from, to Pos) bool

// ValidateMove calls f.
func (f DetectorFunc) ValidateMove(player Player, piece Piece, from, to Pos) bool {
	return f(player, piece, from, to)
}

// AlwaysPermit is a Detector that accepts every move.
var AlwaysPermit Detector = DetectorFunc(func(Player, Piece, Pos, Pos) bool { return true })
