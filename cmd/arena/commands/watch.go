package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/printer"
	"github.com/dyluth/arena/internal/watch"
)

var (
	watchConfigPath   string
	watchRedisURL     string
	watchNamespace    string
	watchOutputFormat string
	watchBot          string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream match results as they are recorded",
	Long: `Stream finished matches as 'arena play' records them in the ledger.

Output Formats:
  default - One human-readable line per match
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch every match in the default namespace
  arena watch

  # Only matches involving alpha, as JSON
  arena watch --bot alpha --output=json > alpha.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addLedgerFlags(watchCmd, &watchConfigPath, &watchRedisURL, &watchNamespace)
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchBot, "bot", "", "Only show matches involving this bot identity")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadArenaConfig(cmd, watchConfigPath)
	if err != nil {
		return err
	}
	client, err := openLedger(ctx, cfg, watchRedisURL, watchNamespace)
	if err != nil {
		return err
	}
	defer client.Close()

	return watch.StreamMatches(ctx, client, outputFormat, watchBot, cmd.OutOrStdout())
}
