package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/printer"
	"github.com/dyluth/arena/internal/resolver"
	"github.com/dyluth/arena/internal/results"
	"github.com/dyluth/arena/internal/timespec"
	"github.com/dyluth/arena/pkg/ledger"
)

var (
	resultsConfigPath   string
	resultsRedisURL     string
	resultsNamespace    string
	resultsOutputFormat string
	resultsSince        string
	resultsUntil        string
	resultsBot          string
	resultsOutcome      string
	resultsTranscript   bool
)

var resultsCmd = &cobra.Command{
	Use:   "results [MATCH_ID]",
	Short: "Inspect recorded match results",
	Long: `Inspect matches recorded in the result ledger.

List Mode (no MATCH_ID):
  Displays matches matching filters as a table or JSONL stream, oldest first.

Get Mode (with MATCH_ID):
  Displays one match as pretty-printed JSON, or with --transcript just its
  transcript. Supports short IDs (at least 6 characters of the UUID).

Output Formats (list mode only):
  default - Table with ID, sides, winner, outcome, turns and margin
  jsonl   - Line-delimited JSON, one match per line (transcripts omitted)

Filters (list mode only):
  --since/--until - Duration ("2h", "7d") or RFC3339 / YYYY-MM-DD
  --bot           - Matches where either side has this identity
  --outcome       - Exact outcome, e.g. VICTORY_FLAG or SURRENDER

Examples:
  # Everything alpha played in the last day
  arena results --bot=alpha --since=24h

  # Pipe to jq
  arena results --output=jsonl | jq -r 'select(.winner=="alpha") | .id'

  # Save a transcript and replay it
  arena results 3f2a9c --transcript > match.log && arena replay match.log --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	addLedgerFlags(resultsCmd, &resultsConfigPath, &resultsRedisURL, &resultsNamespace)
	resultsCmd.Flags().StringVarP(&resultsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	resultsCmd.Flags().StringVar(&resultsSince, "since", "", "Show matches after time (duration or RFC3339)")
	resultsCmd.Flags().StringVar(&resultsUntil, "until", "", "Show matches before time (duration or RFC3339)")
	resultsCmd.Flags().StringVar(&resultsBot, "bot", "", "Filter by bot identity (either side)")
	resultsCmd.Flags().StringVar(&resultsOutcome, "outcome", "", "Filter by outcome (exact match)")
	resultsCmd.Flags().BoolVar(&resultsTranscript, "transcript", false, "Get mode: print only the stored transcript")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	isGetMode := len(args) > 0

	var outputFormat results.OutputFormat
	if !isGetMode {
		switch resultsOutputFormat {
		case "default":
			outputFormat = results.OutputFormatDefault
		case "jsonl":
			outputFormat = results.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", resultsOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}
	}

	cfg, err := loadArenaConfig(cmd, resultsConfigPath)
	if err != nil {
		return err
	}
	client, err := openLedger(ctx, cfg, resultsRedisURL, resultsNamespace)
	if err != nil {
		return err
	}
	defer client.Close()

	if isGetMode {
		return getResult(ctx, cmd, client, args[0])
	}

	sinceMS, untilMS, err := timespec.ParseRange(resultsSince, resultsUntil, time.Now())
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use a duration like '1h30m' or '7d', or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	filters := &results.FilterCriteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		Bot:              resultsBot,
		Outcome:          resultsOutcome,
	}
	if err := results.ListMatches(ctx, client, outputFormat, filters, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		return printer.Error("failed to list matches", err.Error(), nil)
	}
	return nil
}

func getResult(ctx context.Context, cmd *cobra.Command, client *ledger.Client, shortID string) error {
	err := results.GetMatch(ctx, client, shortID, resultsTranscript, cmd.OutOrStdout())
	if err == nil {
		return nil
	}

	var ambiguous *resolver.AmbiguousError
	switch {
	case resolver.IsNotFoundError(err):
		return printer.Error(
			fmt.Sprintf("match with ID '%s' not found", shortID),
			fmt.Sprintf("No match in namespace '%s' has this ID.", client.Namespace()),
			[]string{"List recorded matches:\n  arena results"},
		)
	case errors.As(err, &ambiguous):
		return printer.Error("ambiguous short ID", resolver.FormatAmbiguousError(ambiguous), nil)
	default:
		return printer.Error("failed to get match", err.Error(), nil)
	}
}
