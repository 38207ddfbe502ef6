// Package commands contains the CLI command implementations.
package commands

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	vcrebase "github.com/mndrix/vcrebase"
)

// configKey is the context key for runtime config.
type configKey struct{}

// Config holds runtime configuration for commands.
type Config struct {
	WorkDir  string
	JSONOut  bool
	LogLevel string
}

// getConfig retrieves config from context, or returns defaults.
func getConfig(ctx context.Context) Config {
	if cfg, ok := ctx.Value(configKey{}).(Config); ok {
		return cfg
	}

	return Config{}
}

// openRepo builds a Repository using cfg's working directory and a
// logger at cfg's configured level. An unrecognised level falls back
// to warn, rather than failing a command over a typo'd flag.
func openRepo(cfg Config) *vcrebase.Repository {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}

	logger.SetLevel(level)

	return vcrebase.Open(cfg.WorkDir, logrus.NewEntry(logger))
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var (
		workDir  string
		jsonOut  bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:     "hunk",
		Short:   "Sparse partial commits for AI agents",
		Version: Version,
		Long: `Hunk enables precise, line-level staging for git commits.

Designed for AI agents that need to make surgical changes to codebases,
hunk provides a simple interface for selecting and staging specific lines
from a diff.

Examples:
  # Show all changes with line numbers
  hunk diff

  # Show changes in JSON format (for agents)
  hunk diff --json

  # Stage specific lines from a file
  hunk stage main.go:10-20

  # Stage multiple ranges from multiple files
  hunk stage main.go:10-20,30-40 utils.go:5-15

  # Preview what's staged
  hunk preview

  # Commit staged changes
  hunk commit -m "add error handling"

  # Apply a patch directly to staging
  hunk apply-patch < changes.diff`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Store config in context for subcommands.
			cfg := Config{
				WorkDir:  workDir,
				JSONOut:  jsonOut,
				LogLevel: logLevel,
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)
		},
	}

	cmd.PersistentFlags().StringVarP(
		&workDir, "dir", "C", "",
		"run as if git was started in this directory",
	)
	cmd.PersistentFlags().BoolVar(
		&jsonOut, "json", false,
		"output in JSON format (for machine consumption)",
	)
	cmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "warn",
		"log verbosity: debug, info, warn, error",
	)

	// Add subcommands.
	cmd.AddCommand(NewDiffCmd())
	cmd.AddCommand(NewStageCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewCommitCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewApplyPatchCmd())
	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewRebaseCmd())
	cmd.AddCommand(NewCherryPickCmd())
	cmd.AddCommand(NewMergeCmd())
	cmd.AddCommand(NewBranchCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
