package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/config"
	"github.com/dyluth/arena/internal/printer"
	"github.com/dyluth/arena/pkg/ledger"
)

// loadArenaConfig reads arena.yml when present and applies environment
// overrides. A missing file is only an error when --config was given.
func loadArenaConfig(cmd *cobra.Command, path string) (*config.ArenaConfig, error) {
	var cfg *config.ArenaConfig
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, printer.ErrorWithContext(
				"invalid configuration",
				err.Error(),
				map[string]string{"File": path},
				[]string{"Fix the file, or run 'arena init --force' to start from a fresh template"},
			)
		}
	} else if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg = config.Default()
	} else {
		return nil, printer.Error(
			"configuration file not found",
			fmt.Sprintf("Could not read %s: %v", path, err),
			[]string{"Create one with:\n  arena init", "Or pass the sides directly:\n  arena play --red ./bot-a --blue ./bot-b"},
		)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, printer.Error("invalid environment override", err.Error(), nil)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// openLedger connects to the configured ledger. Flags take precedence over
// the file and the environment.
func openLedger(ctx context.Context, cfg *config.ArenaConfig, redisURL, namespace string) (*ledger.Client, error) {
	if redisURL == "" && cfg.Ledger != nil {
		redisURL = cfg.Ledger.RedisURL
	}
	if namespace == "" && cfg.Ledger != nil {
		namespace = cfg.Ledger.Namespace
	}
	if namespace == "" {
		namespace = config.DefaultNamespace
	}
	if redisURL == "" {
		return nil, printer.Error(
			"no ledger configured",
			"Match results are stored in Redis, but no Redis URL was given.",
			[]string{
				"Set ledger.redis_url in arena.yml",
				"Export ARENA_REDIS_URL=redis://localhost:6379/0",
				"Pass --redis-url redis://localhost:6379/0",
			},
		)
	}

	client, err := ledger.NewClientFromURL(redisURL, namespace)
	if err != nil {
		return nil, printer.Error("invalid ledger configuration", err.Error(), nil)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis: %v", err),
			map[string]string{"URL": redisURL, "Namespace": namespace},
			[]string{"Check that Redis is running and reachable from this machine"},
		)
	}
	return client, nil
}

// addLedgerFlags registers the flags shared by commands that read the ledger.
func addLedgerFlags(cmd *cobra.Command, configPath, redisURL, namespace *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", config.DefaultConfigFile, "Path to arena.yml")
	cmd.Flags().StringVar(redisURL, "redis-url", "", "Redis URL of the result ledger (overrides config and ARENA_REDIS_URL)")
	cmd.Flags().StringVarP(namespace, "namespace", "n", "", "Ledger namespace (default \"default\")")
}
