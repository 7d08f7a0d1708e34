package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/arena/internal/printer"
	"github.com/dyluth/arena/internal/scaffold"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter arena.yml",
	Long: `Create a starter arena configuration in the current directory.

Creates:
  • arena.yml - Match configuration with two reference bots
  • setups/classic.txt - A legal placement for the classic army
  • bots/README.md - The line protocol bots speak

Use --force to reinitialize (WARNING: destroys existing configuration).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (removes existing arena.yml, setups/ and bots/)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return printer.Error("arena already initialized", err.Error(), nil)
		}
	}

	if err := scaffold.Initialize(forceInit, cmd.OutOrStdout()); err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout())
	return nil
}
