package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/config"
	"github.com/dyluth/arena/internal/printer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	envFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Arena - match arbiter for Stratego bots",
	Long: `Arena runs Stratego matches between two bots, or a bot and a human,
speaking a line protocol over stdin/stdout.

It enforces turn order, the two-square rule and response deadlines, writes a
replayable transcript, and can record results in Redis.`,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return printer.Error("failed to load environment file", err.Error(), nil)
		}
		return nil
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil && !printer.IsReported(err) {
		// Argument and flag errors from cobra itself.
		printer.Error(err.Error(), "", []string{"Run 'arena --help' for usage."})
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file with ARENA_* overrides (ignored when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level and ARENA_LOG_LEVEL)")
}
