package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/arena/internal/codec"
	"github.com/dyluth/arena/internal/logging"
	"github.com/dyluth/arena/internal/randbot"
)

func main() {
	os.Exit(run())
}

// run contains the main logic and returns an exit code.
// Stdout carries the protocol, so every diagnostic goes to stderr.
func run() int {
	seed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	setupFile := flag.String("setup", "", "File with the placement block to answer setup with")
	shuffle := flag.Bool("shuffle", false, "Shuffle the placement block before answering")
	level := flag.String("log-level", "warn", "Log level for stderr diagnostics")
	flag.Parse()

	logger, err := logging.New(*level, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "randbot: %v\n", err)
		return 1
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	bot := randbot.New(*seed, logger)
	bot.Shuffle = *shuffle

	if *setupFile != "" {
		data, err := os.ReadFile(*setupFile)
		if err != nil {
			logger.Error().Err(err).Msg("failed to read setup")
			return 1
		}
		setup, err := codec.ParseSetup(string(data), bot.Tokens)
		if err != nil {
			logger.Error().Err(err).Str("file", *setupFile).Msg("invalid setup")
			return 1
		}
		bot.Block = codec.FormatSetup(setup, bot.Tokens)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("protocol error")
		return 1
	}
	return 0
}
