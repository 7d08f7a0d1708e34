package arbiter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/internal/transport"
	"github.com/dyluth/arena/pkg/stratego"
)

// maxTwoSquareRetries is the number of consecutive two-square violations
// that ends the match.
const maxTwoSquareRetries = 2

// Termination reasons recorded on a Result.
const (
	ReasonFlagCaptured  = "flag captured"
	ReasonEngineEnded   = "engine terminated"
	ReasonTruncated     = "turn limit reached"
	ReasonSurrender     = "surrender"
	ReasonMalformed     = "malformed move"
	ReasonNoMove        = "no move"
	ReasonIllegalSource = "illegal source"
	ReasonIllegalDest   = "illegal destination"
	ReasonTwoSquare     = "two-square rule"
	ReasonUnresponsive  = "unresponsive"
	ReasonInvalidSetup  = "invalid setup"
)

// Config fixes the board and armies for a match.
type Config struct {
	Height   int
	Width    int
	RedArmy  stratego.Army
	BlueArmy stratego.Army
	Tokens   *stratego.TokenTable

	// RedSetup and BlueSetup are used when a side answers the setup request
	// with an empty block. A nil setup is sampled from the engine.
	RedSetup  stratego.Setup
	BlueSetup stratego.Setup
}

// DefaultConfig is the classic 10x10 game with two classic armies.
func DefaultConfig() Config {
	return Config{
		Height:   10,
		Width:    10,
		RedArmy:  stratego.ClassicArmy(),
		BlueArmy: stratego.ClassicArmy(),
		Tokens:   stratego.ClassicTokens(),
	}
}

// Result summarises a finished match.
type Result struct {
	MatchID       string
	Winner        stratego.Player
	WinnerName    string
	Loser         stratego.Player
	Outcome       string
	Reason        string
	Turns         int
	RedRemaining  int
	BlueRemaining int
	Board         stratego.Board
}

// Option configures a Match.
type Option func(*Match)

// WithDetector injects the two-square detector. Defaults to stratego.AlwaysPermit.
func WithDetector(d stratego.Detector) Option {
	return func(m *Match) { m.detector = d }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Match) { m.logger = l }
}

// WithTranscript sets the transcript the match writes to. Run closes it.
func WithTranscript(t *Transcript) Option {
	return func(m *Match) { m.transcript = t }
}

// WithMatchID overrides the generated match id.
func WithMatchID(id string) Option {
	return func(m *Match) { m.id = id }
}

// Match arbitrates one game between two players over an engine. A Match
// runs once.
type Match struct {
	id         string
	cfg        Config
	rows       int
	engine     stratego.Engine
	detector   stratego.Detector
	players    map[stratego.Player]Player
	transcript *Transcript
	logger     zerolog.Logger

	turn    int
	retries map[stratego.Player]int
	noMove  map[stratego.Player]bool
	outcome string
	last    *executedMove
	ran     bool
}

type executedMove struct {
	src stratego.Pos
	dst stratego.Pos
}

// New validates the configuration and prepares a match. A mismatch between
// the configured armies is reported here, before any player is contacted.
func New(cfg Config, engine stratego.Engine, red, blue Player, opts ...Option) (*Match, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if red == nil || blue == nil {
		return nil, errors.New("both players are required")
	}
	if cfg.Tokens == nil {
		cfg.Tokens = stratego.ClassicTokens()
	}
	if err := cfg.RedArmy.Validate(); err != nil {
		return nil, fmt.Errorf("red army: %w", err)
	}
	if err := cfg.BlueArmy.Validate(); err != nil {
		return nil, fmt.Errorf("blue army: %w", err)
	}
	rows, err := stratego.SetupRows(cfg.RedArmy, cfg.BlueArmy, cfg.Height, cfg.Width)
	if err != nil {
		return nil, err
	}
	if cfg.RedSetup != nil {
		if err := codec.ValidateSetup(cfg.RedSetup, cfg.RedArmy, rows, cfg.Width); err != nil {
			return nil, fmt.Errorf("red setup: %w", err)
		}
	}
	if cfg.BlueSetup != nil {
		if err := codec.ValidateSetup(cfg.BlueSetup, cfg.BlueArmy, rows, cfg.Width); err != nil {
			return nil, fmt.Errorf("blue setup: %w", err)
		}
	}

	m := &Match{
		id:         uuid.NewString(),
		cfg:        cfg,
		rows:       rows,
		engine:     engine,
		detector:   stratego.AlwaysPermit,
		players:    map[stratego.Player]Player{stratego.RED: red, stratego.BLUE: blue},
		transcript: NewTranscript(nil),
		logger:     zerolog.Nop(),
		retries:    make(map[stratego.Player]int),
		noMove:     make(map[stratego.Player]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("match_id", m.id).Logger()
	return m, nil
}

// ID returns the match id.
func (m *Match) ID() string {
	return m.id
}

// Transcript returns the match transcript.
func (m *Match) Transcript() *Transcript {
	return m.transcript
}

// Run plays the match to completion. Violations, surrenders and bad setups
// end the match with a Result and a nil error. A player that stops
// responding also yields a Result, together with an error wrapping
// transport.ErrUnresponsive.
func (m *Match) Run(ctx context.Context) (*Result, error) {
	defer m.transcript.Close()

	if m.ran {
		return nil, errors.New("match has already been played")
	}
	m.ran = true
	if err := m.engine.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset engine: %w", err)
	}

	result, err := m.setupPhase(ctx)
	if result != nil || err != nil {
		return result, err
	}
	return m.playPhase(ctx)
}

type setupAnswer struct {
	block string
	err   error
}

// solicitSetups asks both players for their placement at once. Setups are
// independent, so this is the only place the match talks to both sides
// concurrently.
func (m *Match) solicitSetups(ctx context.Context) map[stratego.Player]setupAnswer {
	answers := make(map[stratego.Player]*setupAnswer, 2)
	var g errgroup.Group
	for _, color := range []stratego.Player{stratego.RED, stratego.BLUE} {
		ans := &setupAnswer{}
		answers[color] = ans
		p, opponent := m.players[color], m.players[color.Opponent()]
		req := transport.SetupRequest{
			Color:    color,
			Opponent: opponent.Name(),
			Width:    m.cfg.Width,
			Height:   m.cfg.Height,
			Rows:     m.rows,
		}
		g.Go(func() error {
			m.logger.Info().Str("player", req.Color.String()).Str("bot", p.Name()).Msg("requesting setup")
			ans.block, ans.err = p.Setup(ctx, req)
			return ans.err
		})
	}
	_ = g.Wait()

	out := make(map[stratego.Player]setupAnswer, 2)
	for color, ans := range answers {
		out[color] = *ans
	}
	return out
}

func (m *Match) setupPhase(ctx context.Context) (*Result, error) {
	answers := m.solicitSetups(ctx)

	setups := map[stratego.Player]stratego.Setup{}
	for _, color := range []stratego.Player{stratego.RED, stratego.BLUE} {
		ans := answers[color]
		if ans.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, m.abort(ctxErr)
			}
			m.writeHeaders(nil)
			res := m.forfeit(color, OutcomeIllegal, ReasonUnresponsive)
			return res, fmt.Errorf("%s setup: %w", m.players[color].Name(), ans.err)
		}

		setup, err := m.resolveSetup(color, ans.block)
		if err != nil {
			m.logger.Warn().Err(err).Str("player", color.String()).Msg("rejected setup")
			m.writeHeaders(nil)
			return m.forfeit(color, OutcomeIllegal, ReasonInvalidSetup), nil
		}
		setups[color] = setup
	}

	if err := m.place(setups); err != nil {
		return nil, m.abort(err)
	}

	board := m.engine.Board()
	for color, setup := range setups {
		if setup == nil {
			setups[color] = codec.SetupFromBoard(board, color, m.rows)
		}
	}
	m.writeHeaders(setups)
	return nil, nil
}

// resolveSetup parses a player's block, falling back to the configured
// setup and then to sampling when the block is empty.
func (m *Match) resolveSetup(color stratego.Player, block string) (stratego.Setup, error) {
	army := m.army(color)
	if strings.TrimSpace(block) == "" {
		if color == stratego.RED {
			return m.cfg.RedSetup, nil
		}
		return m.cfg.BlueSetup, nil
	}
	setup, err := codec.ParseSetup(block, m.cfg.Tokens)
	if err != nil {
		return nil, err
	}
	if err := codec.ValidateSetup(setup, army, m.rows, m.cfg.Width); err != nil {
		return nil, err
	}
	return setup, nil
}

func (m *Match) place(setups map[stratego.Player]stratego.Setup) error {
	actions := map[stratego.Player][]stratego.Pos{}
	for color, setup := range setups {
		if setup == nil {
			continue
		}
		acts, err := codec.PlacementActions(color, setup, m.army(color), m.cfg.Height, m.cfg.Width)
		if err != nil {
			return err
		}
		actions[color] = acts
	}

	next := map[stratego.Player]int{}
	for _, color := range codec.PlacementSchedule(m.cfg.RedArmy.Total(), m.cfg.BlueArmy.Total()) {
		var action stratego.Pos
		if acts, ok := actions[color]; ok {
			action = acts[next[color]]
		} else {
			action = m.engine.SampleAction()
		}
		next[color]++
		if _, err := m.engine.Step(action); err != nil {
			return fmt.Errorf("engine rejected %s placement at %s: %w", color, action, err)
		}
	}
	return nil
}

func (m *Match) writeHeaders(setups map[stratego.Player]stratego.Setup) {
	for _, color := range []stratego.Player{stratego.RED, stratego.BLUE} {
		var rows []string
		if setup := setups[color]; setup != nil {
			rows = codec.FormatSetup(setup, m.cfg.Tokens)
		}
		m.transcript.SetupBlock(color, m.players[color].Name(), rows)
	}
}

func (m *Match) playPhase(ctx context.Context) (*Result, error) {
	for {
		mover := m.engine.Player()
		p := m.players[mover]
		log := m.logger.With().Str("player", mover.String()).Int("turn", m.turn+1).Logger()

		prompt, promptOutcome := m.prompt(mover)
		board := RenderBoard(m.engine.Board(), mover, m.cfg.Tokens)

		raw, err := p.RequestMove(ctx, prompt, promptOutcome, board)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, m.abort(ctxErr)
			}
			log.Warn().Err(err).Msg("no move received")
			m.transcript.Attempt(m.turn+1, mover, OutcomeIllegal, "")
			return m.forfeit(mover, OutcomeIllegal, ReasonUnresponsive), fmt.Errorf("%s move: %w", p.Name(), err)
		}

		cmd, err := codec.ParseMove(raw)
		if err != nil {
			log.Info().Err(err).Str("move", raw).Msg("malformed move")
			return m.reject(mover, OutcomeIllegal, ReasonMalformed, raw), nil
		}
		switch cmd.Kind {
		case codec.CommandSurrender, codec.CommandQuit:
			return m.reject(mover, OutcomeSurrender, ReasonSurrender, ""), nil
		case codec.CommandNoMove:
			return m.reject(mover, OutcomeIllegal, ReasonNoMove, raw), nil
		}

		moveText := codec.FormatMove(cmd.Move)
		src, dst, err := codec.SrcDestFromMove(cmd.Move, mover, m.cfg.Height, m.cfg.Width)
		if err != nil {
			return m.reject(mover, OutcomeIllegal, ReasonMalformed, raw), nil
		}
		before := m.engine.Board().Clone()
		if !before.Contains(src) || !m.engine.ValidPiecesToSelect().At(src) {
			log.Info().Str("move", moveText).Msg("illegal source")
			return m.reject(mover, OutcomeIllegal, ReasonIllegalSource, raw), nil
		}
		if !before.Contains(dst) {
			log.Info().Str("move", moveText).Msg("destination off board")
			return m.reject(mover, OutcomeIllegal, ReasonIllegalDest, raw), nil
		}

		piece, _ := before.PieceAt(src)
		if !m.detector.ValidateMove(mover, piece, src, dst) {
			m.retries[mover]++
			p.ConfirmResult(moveText, OutcomeIllegal)
			log.Warn().Str("move", moveText).Int("retries", m.retries[mover]).Msg("(2-square) rejected move")
			if m.retries[mover] >= maxTwoSquareRetries {
				return m.reject(mover, OutcomeIllegal, ReasonTwoSquare, raw), nil
			}
			m.outcome = OutcomeOK
			m.noMove[mover.Opponent()] = true
			continue
		}

		if _, err := m.engine.Step(src); err != nil {
			return nil, m.abort(fmt.Errorf("engine rejected selection %s: %w", src, err))
		}
		if !m.engine.ValidDestinations().At(dst) {
			log.Info().Str("move", moveText).Msg("illegal destination")
			return m.reject(mover, OutcomeIllegal, ReasonIllegalDest, raw), nil
		}
		before = m.engine.Board().Clone()
		step, err := m.engine.Step(dst)
		if err != nil {
			return nil, m.abort(fmt.Errorf("engine rejected destination %s: %w", dst, err))
		}
		after := m.engine.Board().Clone()

		outcome := DeriveOutcome(before, after, src, dst, m.cfg.Tokens)
		m.retries[mover] = 0
		m.turn++
		m.outcome = outcome
		m.last = &executedMove{src: src, dst: dst}
		m.transcript.Turn(m.turn, mover, cmd.Move, outcome)
		log.Debug().Str("move", moveText).Str("outcome", outcome).Msg("turn executed")

		switch {
		case outcome == OutcomeVictoryFlag:
			return m.conclude(mover, outcome, ReasonFlagCaptured), nil
		case step.Terminated:
			return m.conclude(mover, outcome, ReasonEngineEnded), nil
		case step.Truncated:
			return m.conclude(mover, outcome, ReasonTruncated), nil
		}
		p.ConfirmResult(moveText, outcome)
	}
}

// prompt returns the last-move text and outcome shown to mover.
func (m *Match) prompt(mover stratego.Player) (string, string) {
	if m.noMove[mover] {
		m.noMove[mover] = false
		return codec.KeywordNoMove, m.outcome
	}
	if m.last == nil {
		return codec.KeywordStart, ""
	}
	mv, err := codec.MoveFromSrcDest(m.last.src, m.last.dst, mover, m.cfg.Height, m.cfg.Width)
	if err != nil {
		return codec.KeywordNoMove, m.outcome
	}
	return codec.FormatMove(mv), m.outcome
}

// reject ends the match on an attempt that was not executed; the mover loses.
func (m *Match) reject(mover stratego.Player, outcome, reason, raw string) *Result {
	m.transcript.Attempt(m.turn+1, mover, outcome, raw)
	return m.forfeit(mover, outcome, reason)
}

// forfeit ends the match in favour of loser's opponent, who made the last
// executed move.
func (m *Match) forfeit(loser stratego.Player, outcome, reason string) *Result {
	return m.conclude(loser.Opponent(), outcome, reason)
}

func (m *Match) conclude(winner stratego.Player, outcome, reason string) *Result {
	board := m.engine.Board().Clone()
	red, blue := board.Remaining()
	res := &Result{
		MatchID:       m.id,
		Winner:        winner,
		WinnerName:    m.players[winner].Name(),
		Loser:         winner.Opponent(),
		Outcome:       outcome,
		Reason:        reason,
		Turns:         m.turn,
		RedRemaining:  red,
		BlueRemaining: blue,
		Board:         board,
	}
	m.transcript.Result(codec.ResultLine{
		Winner:        res.WinnerName,
		Color:         winner,
		Turns:         res.Turns,
		RedRemaining:  red,
		BlueRemaining: blue,
	})
	m.endAll(outcome)

	m.logger.Info().
		Str("winner", winner.String()).
		Str("bot", res.WinnerName).
		Str("outcome", outcome).
		Str("reason", reason).
		Int("turns", res.Turns).
		Msg("match finished")
	return res
}

// abort stops both players after an error that leaves no definitive winner.
func (m *Match) abort(err error) error {
	m.logger.Error().Err(err).Msg("match aborted")
	m.endAll("")
	return err
}

func (m *Match) endAll(result string) {
	for _, color := range []stratego.Player{stratego.RED, stratego.BLUE} {
		q, ok := m.players[color].(Quitter)
		if !ok {
			continue
		}
		if err := q.EndGame(result); err != nil {
			m.logger.Debug().Err(err).Str("player", color.String()).Msg("end game")
		}
	}
}

func (m *Match) army(color stratego.Player) stratego.Army {
	if color == stratego.RED {
		return m.cfg.RedArmy
	}
	return m.cfg.BlueArmy
}
