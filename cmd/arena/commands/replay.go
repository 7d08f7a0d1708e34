package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/arbiter"
	"github.com/dyluth/arena/internal/config"
	"github.com/dyluth/arena/internal/logging"
	"github.com/dyluth/arena/internal/printer"
	"github.com/dyluth/arena/internal/replay"
	"github.com/dyluth/arena/pkg/stratego"
)

var (
	replayConfigPath string
	replayVerify     bool
	replayMaxTurns   int
)

var replayCmd = &cobra.Command{
	Use:   "replay <transcript>",
	Short: "Rebuild the action sequence of a recorded match",
	Long: `Parse a match transcript into the flat action sequence that reproduces it.

With --verify the actions are applied to a fresh sandbox engine, both sides'
views of the final board are printed and the remaining piece counts are
checked against the transcript's result line.

The board and armies come from arena.yml when present.

Examples:
  arena replay game.log
  arena replay game.log --verify
  arena replay game.log --verify --max-turns 0`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "c", config.DefaultConfigFile, "Path to arena.yml")
	replayCmd.Flags().BoolVar(&replayVerify, "verify", false, "Apply the actions to a sandbox engine and check the result")
	replayCmd.Flags().IntVar(&replayMaxTurns, "max-turns", 0, "Turn limit the match was played with (0 means no limit; default from arena.yml)")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadArenaConfig(cmd, replayConfigPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("max-turns") {
		cfg.SetMaxTurns(replayMaxTurns)
	}

	opts := replay.Options{Height: cfg.Board.Height, Width: cfg.Board.Width, Tokens: stratego.ClassicTokens()}
	seq, err := replay.ParseFile(args[0], opts)
	if err != nil {
		return printer.ErrorWithContext("failed to parse transcript", err.Error(), map[string]string{"File": args[0]}, nil)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (RED) vs %s (BLUE)\n", seq.RedName, seq.BlueName)
	fmt.Fprintf(out, "%d actions: %d placements, %d turns\n", len(seq.Actions), seq.Placements, seq.Turns)
	if seq.Result != nil {
		fmt.Fprintf(out, "Result: %s (%s) after %d turns, remaining %d-%d\n",
			seq.Result.Winner, seq.Result.Color, seq.Result.Turns, seq.Result.RedRemaining, seq.Result.BlueRemaining)
	}

	if !replayVerify {
		return nil
	}

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return printer.Error("invalid log level", err.Error(), nil)
	}
	// Replay never samples, so the seed only has to be fixed.
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	engine, err := newEngine("sandbox", cfg, logger)
	if err != nil {
		return printer.Error("failed to create engine", err.Error(), nil)
	}
	if _, err := seq.Apply(engine); err != nil {
		return printer.ErrorWithContext("replay failed", err.Error(), map[string]string{"File": args[0]}, nil)
	}

	board := engine.Board()
	for _, viewer := range []stratego.Player{stratego.RED, stratego.BLUE} {
		fmt.Fprintf(out, "\n%s view:\n", viewer)
		for _, row := range arbiter.RenderBoard(board, viewer, opts.Tokens) {
			fmt.Fprintf(out, "  %s\n", row)
		}
	}

	red, blue := board.Remaining()
	fmt.Fprintf(out, "\nRemaining: RED %d, BLUE %d\n", red, blue)
	if seq.Result != nil && (seq.Result.RedRemaining != red || seq.Result.BlueRemaining != blue) {
		return printer.ErrorWithContext(
			"replay diverges from transcript",
			"The replayed board does not match the recorded result line.",
			map[string]string{
				"Recorded": fmt.Sprintf("%d-%d", seq.Result.RedRemaining, seq.Result.BlueRemaining),
				"Replayed": fmt.Sprintf("%d-%d", red, blue),
			},
			[]string{"Check that arena.yml describes the board and armies the match was played with"},
		)
	}
	printer.Success("Replay verified\n")
	return nil
}
