package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/arbiter"
	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/internal/config"
	dockerpkg "github.com/dyluth/arena/internal/docker"
	"github.com/dyluth/arena/internal/logging"
	"github.com/dyluth/arena/internal/printer"
	"github.com/dyluth/arena/internal/results"
	"github.com/dyluth/arena/internal/sandbox"
	"github.com/dyluth/arena/internal/transport"
	"github.com/dyluth/arena/pkg/ledger"
	"github.com/dyluth/arena/pkg/stratego"
)

var (
	playConfigPath string
	playRed        string
	playBlue       string
	playRedSetup   string
	playBlueSetup  string
	playLog        string
	playTimeout    time.Duration
	playEngine     string
	playSeed       int64
	playMaxTurns   int
	playNoLedger   bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one match",
	Long: `Play one match between two sides and write its transcript.

Sides come from arena.yml and can be overridden on the command line. A side
is a local executable, a bot image (configured in arena.yml) or @human to
play from this terminal.

Examples:
  # Two local bots
  arena play --red ./bots/alpha --blue ./bots/beta

  # Play against a bot yourself
  arena play --red @human --blue ./bots/beta

  # Use arena.yml, but give RED a fixed placement
  arena play --red-setup setups/classic.txt --log match.log`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.StringVarP(&playConfigPath, "config", "c", config.DefaultConfigFile, "Path to arena.yml")
	f.StringVar(&playRed, "red", "", "RED side: bot executable path or @human")
	f.StringVar(&playBlue, "blue", "", "BLUE side: bot executable path or @human")
	f.StringVar(&playRedSetup, "red-setup", "", "File with RED's placement block, used when RED answers setup with nothing")
	f.StringVar(&playBlueSetup, "blue-setup", "", "File with BLUE's placement block, used when BLUE answers setup with nothing")
	f.StringVar(&playLog, "log", "", "Transcript path (default \"game.log\")")
	f.DurationVar(&playTimeout, "timeout", config.DefaultMoveTimeout, "How long a bot may take to answer")
	f.StringVar(&playEngine, "engine", "sandbox", "Rules engine (sandbox)")
	f.Int64Var(&playSeed, "seed", 0, "Seed for sampled placements (0 picks one)")
	f.IntVar(&playMaxTurns, "max-turns", 0, "Truncate the match after this many moves (0 means no limit)")
	f.BoolVar(&playNoLedger, "no-ledger", false, "Do not record the result even when a ledger is configured")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadArenaConfig(cmd, playConfigPath)
	if err != nil {
		return err
	}
	applyPlayFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid configuration", err.Error(), nil)
	}
	if err := cfg.RequireSides(); err != nil {
		return printer.Error(
			"sides not configured",
			err.Error(),
			[]string{"Pass both sides:\n  arena play --red ./bot-a --blue ./bot-b", "Configure red and blue in arena.yml"},
		)
	}

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return printer.Error("invalid log level", err.Error(), nil)
	}

	matchCfg, err := matchConfig(cfg)
	if err != nil {
		return printer.Error("invalid setup file", err.Error(), nil)
	}
	engine, err := newEngine(playEngine, cfg, logger)
	if err != nil {
		return printer.Error("failed to create engine", err.Error(), nil)
	}

	matchID := uuid.NewString()
	logger = logger.With().Str("match_id", matchID).Logger()

	players, err := startPlayers(ctx, cfg, matchID, logger, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer players.release()

	transcript, err := arbiter.CreateTranscript(cfg.Transcript)
	if err != nil {
		players.abandon()
		return printer.Error("failed to create transcript", err.Error(), nil)
	}

	m, err := arbiter.New(matchCfg, engine, players.red, players.blue,
		arbiter.WithLogger(logger),
		arbiter.WithTranscript(transcript),
		arbiter.WithMatchID(matchID),
	)
	if err != nil {
		transcript.Close()
		players.abandon()
		return printer.Error("invalid match configuration", err.Error(), nil)
	}

	printer.Step("Match %s: %s (RED) vs %s (BLUE)\n", matchID, players.red.Name(), players.blue.Name())
	res, runErr := m.Run(ctx)
	if res == nil {
		return printer.ErrorWithContext("match aborted", runErr.Error(), map[string]string{"Match": matchID}, nil)
	}

	printer.MatchResult(printer.Outcome{
		Winner:        res.WinnerName,
		Color:         res.Winner.String(),
		Outcome:       res.Outcome,
		Reason:        res.Reason,
		Turns:         res.Turns,
		RedRemaining:  res.RedRemaining,
		BlueRemaining: res.BlueRemaining,
	})
	if err := m.Transcript().Err(); err != nil {
		printer.Warning("Transcript %s is incomplete: %v\n", cfg.Transcript, err)
	} else {
		printer.Info("Transcript written to %s\n", cfg.Transcript)
	}

	if cfg.Ledger != nil && !playNoLedger {
		record := results.RecordFromResult(res, players.red.Name(), players.blue.Name(), m.Transcript().Text(), time.Now())
		if err := saveRecord(ctx, cfg, record); err != nil {
			printer.Warning("Result not recorded: %v\n", err)
		} else {
			printer.Success("Recorded match %s in namespace '%s'\n", matchID, cfg.Ledger.Namespace)
		}
	}

	if runErr != nil {
		return printer.ErrorWithContext(
			"bot unresponsive",
			runErr.Error(),
			map[string]string{"Match": matchID},
			[]string{"Check the bot's stderr in the log output above", "Raise timeouts.move in arena.yml or pass --timeout if the bot is slow"},
		)
	}
	return nil
}

// applyPlayFlags overrides configuration with the flags that were set.
func applyPlayFlags(cmd *cobra.Command, cfg *config.ArenaConfig) {
	if playRed != "" {
		cfg.Red = config.SideFromArg(playRed)
	}
	if playBlue != "" {
		cfg.Blue = config.SideFromArg(playBlue)
	}
	if playRedSetup != "" {
		cfg.Red.Setup = playRedSetup
	}
	if playBlueSetup != "" {
		cfg.Blue.Setup = playBlueSetup
	}
	if playLog != "" {
		cfg.Transcript = playLog
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeouts.Move = playTimeout
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = playSeed
	}
	if cmd.Flags().Changed("max-turns") {
		cfg.SetMaxTurns(playMaxTurns)
	}
}

// matchConfig builds the arbiter configuration, reading any preset
// placements.
func matchConfig(cfg *config.ArenaConfig) (arbiter.Config, error) {
	red, blue, err := cfg.Armies()
	if err != nil {
		return arbiter.Config{}, err
	}
	tokens := stratego.ClassicTokens()
	mc := arbiter.Config{
		Height:   cfg.Board.Height,
		Width:    cfg.Board.Width,
		RedArmy:  red,
		BlueArmy: blue,
		Tokens:   tokens,
	}
	if mc.RedSetup, err = readSetupFile(cfg.Red.Setup, tokens); err != nil {
		return arbiter.Config{}, fmt.Errorf("red: %w", err)
	}
	if mc.BlueSetup, err = readSetupFile(cfg.Blue.Setup, tokens); err != nil {
		return arbiter.Config{}, fmt.Errorf("blue: %w", err)
	}
	return mc, nil
}

func readSetupFile(path string, tokens *stratego.TokenTable) (stratego.Setup, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup: %w", err)
	}
	setup, err := codec.ParseSetup(string(data), tokens)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return setup, nil
}

// newEngine builds the named rules engine for cfg. A zero seed is replaced
// with a time-based one and logged so the match can be reproduced.
func newEngine(name string, cfg *config.ArenaConfig, logger zerolog.Logger) (*sandbox.Engine, error) {
	if name != "sandbox" {
		return nil, fmt.Errorf("unknown engine %q (available: sandbox)", name)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug().Int64("seed", seed).Msg("engine seed")

	red, blue, err := cfg.Armies()
	if err != nil {
		return nil, err
	}
	return sandbox.New(sandbox.Options{
		Height:   cfg.Board.Height,
		Width:    cfg.Board.Width,
		Lakes:    cfg.LakePositions(),
		RedArmy:  red,
		BlueArmy: blue,
		MaxTurns: cfg.TurnLimit(),
		Seed:     seed,
	})
}

// matchPlayers holds both sides and whatever they need released afterwards.
type matchPlayers struct {
	red    arbiter.Player
	blue   arbiter.Player
	docker interface{ Close() error }
}

// abandon stops both bots when the match never ran.
func (p *matchPlayers) abandon() {
	for _, player := range []arbiter.Player{p.red, p.blue} {
		if q, ok := player.(arbiter.Quitter); ok {
			q.EndGame("")
		}
	}
}

func (p *matchPlayers) release() {
	if p.docker != nil {
		p.docker.Close()
	}
}

// startPlayers launches both sides. The Docker client is only created when a
// side runs from an image.
func startPlayers(ctx context.Context, cfg *config.ArenaConfig, matchID string, logger zerolog.Logger, in io.Reader, out io.Writer) (*matchPlayers, error) {
	players := &matchPlayers{}

	var api dockerpkg.ContainerAPI
	if cfg.Red.Image != "" || cfg.Blue.Image != "" {
		cli, err := dockerpkg.NewClient(ctx)
		if err != nil {
			return nil, printer.Error("Docker unavailable", err.Error(), []string{"Run the bot as a local command instead of an image"})
		}
		if err := dockerpkg.CheckImages(ctx, cli, cfg.Red.Image, cfg.Blue.Image); err != nil {
			cli.Close()
			return nil, printer.Error("bot image missing", err.Error(), nil)
		}
		players.docker = cli
		api = cli
	}

	var err error
	if players.red, err = startPlayer(ctx, cfg, cfg.Red, stratego.RED, matchID, api, logger, in, out); err != nil {
		players.release()
		return nil, err
	}
	if players.blue, err = startPlayer(ctx, cfg, cfg.Blue, stratego.BLUE, matchID, api, logger, in, out); err != nil {
		if q, ok := players.red.(arbiter.Quitter); ok {
			q.EndGame("")
		}
		players.release()
		return nil, err
	}
	return players, nil
}

func startPlayer(ctx context.Context, cfg *config.ArenaConfig, side config.Side, color stratego.Player, matchID string, api dockerpkg.ContainerAPI, logger zerolog.Logger, in io.Reader, out io.Writer) (arbiter.Player, error) {
	identity := side.Identity()
	if side.Human {
		return transport.NewTerminal(in, out), nil
	}

	var launcher transport.Launcher
	if side.Image != "" {
		launcher = dockerpkg.NewLauncher(api, side.Image, side.Command, matchID, color.String(), identity)
	} else {
		launcher = transport.ExecLauncher{Command: side.Command, Dir: side.Dir, Env: side.Environment}
	}

	c, err := transport.Start(ctx, identity, launcher,
		transport.WithTimeout(cfg.Timeouts.Move),
		transport.WithExitGrace(cfg.Timeouts.ExitGrace),
		transport.WithLogger(logging.ForSide(logger, color.String(), identity)),
	)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"failed to start bot",
			err.Error(),
			map[string]string{"Side": color.String(), "Bot": identity},
			[]string{"Check that the bot path is correct and executable"},
		)
	}
	return c, nil
}

// saveRecord stores a finished match in the configured ledger.
func saveRecord(ctx context.Context, cfg *config.ArenaConfig, record *ledger.MatchRecord) error {
	client, err := ledger.NewClientFromURL(cfg.Ledger.RedisURL, cfg.Ledger.Namespace)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.SaveMatch(ctx, record)
}
