package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mndrix/vcrebase/rebase"
	"github.com/spf13/cobra"
)

// rebaseControlOutput is the JSON output for rebase control commands.
type rebaseControlOutput struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	InProgress bool   `json:"in_progress"`
	StopReason string `json:"stop_reason,omitempty"`
	Head       string `json:"head,omitempty"`
}

// NewRebaseContinueCmd creates the rebase continue command.
func NewRebaseContinueCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Continue an in-progress rebase",
		Long: `Continue an interactive rebase after resolving conflicts, or
finish an edit/reword/squash stop.

Before running this command:
  1. Resolve any conflicts in the affected files
  2. Stage the resolved files with 'git add <file>'

If there are still unresolved conflicts, this command will fail.

Use --message to supply a commit message when continuing past a
reword or squash stop.`,
		Example: `  # After resolving conflicts
  git add resolved-file.go
  hunk rebase continue

  # Supply a message while continuing past a reword stop
  hunk rebase continue --message "Better commit message"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebaseContinue(cmd.Context(), cmd.OutOrStdout(), message)
		},
	}

	cmd.Flags().StringVarP(
		&message, "message", "m", "",
		"commit message override for a reword/squash stop",
	)

	return cmd
}

// NewRebaseAbortCmd creates the rebase abort command.
func NewRebaseAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort an in-progress rebase",
		Long: `Abort the current interactive rebase and restore the original branch.

This will discard all progress made during the rebase and return
the branch to its original state before the rebase started.`,
		Example: `  # Abort the current rebase
  hunk rebase abort`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebaseAbort(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// NewRebaseSkipCmd creates the rebase skip command.
func NewRebaseSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Skip the current commit during rebase",
		Long: `Skip the current commit and continue with the next one.

Use this when a commit cannot be applied cleanly and you want
to drop it from the rebased history rather than resolving conflicts.`,
		Example: `  # Skip the problematic commit
  hunk rebase skip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebaseSkip(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runRebaseContinue(ctx context.Context, w io.Writer, message string) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	var messagePtr *string
	if message != "" {
		messagePtr = &message
	}

	final, stop, err := repo.Rebase.Continue(ctx, messagePtr, nil)
	if err != nil {
		return err
	}

	return reportRebaseControl(w, cfg.JSONOut, "continue", final, stop)
}

func runRebaseAbort(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	if err := repo.Rebase.Abort(ctx); err != nil {
		return err
	}

	return reportRebaseControl(w, cfg.JSONOut, "abort", "", rebase.StopNone)
}

func runRebaseSkip(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	final, stop, err := repo.Rebase.Skip(ctx)
	if err != nil {
		return err
	}

	return reportRebaseControl(w, cfg.JSONOut, "skip", final, stop)
}

func reportRebaseControl(
	w io.Writer, jsonOut bool, action, head string, stop rebase.StopReason,
) error {
	if jsonOut {
		return formatRebaseControlJSON(w, action, head, stop)
	}

	return formatRebaseControlText(w, action, head, stop)
}

func formatRebaseControlJSON(
	w io.Writer, action, head string, stop rebase.StopReason,
) error {
	output := rebaseControlOutput{
		Success:    true,
		InProgress: stop != rebase.StopNone,
		StopReason: string(stop),
		Head:       head,
	}

	output.Message = controlMessage(action, stop)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(output)
}

func formatRebaseControlText(
	w io.Writer, action, head string, stop rebase.StopReason,
) error {
	fmt.Fprintln(w, controlMessage(action, stop))

	return nil
}

func controlMessage(action string, stop rebase.StopReason) string {
	if action == "abort" {
		return "Rebase aborted. Branch restored to original state."
	}

	verb := "Continued"
	if action == "skip" {
		verb = "Skipped commit"
	}

	switch stop {
	case rebase.StopNone:
		return fmt.Sprintf("%s. Rebase completed successfully.", verb)
	case rebase.StopConflict:
		return fmt.Sprintf("%s. Paused again due to conflicts.", verb)
	case rebase.StopEdit:
		return fmt.Sprintf("%s. Paused for edit.", verb)
	case rebase.StopReword:
		return fmt.Sprintf("%s. Paused to reword.", verb)
	case rebase.StopSquash:
		return fmt.Sprintf("%s. Paused to finalize squash message.", verb)
	case rebase.StopBreak:
		return fmt.Sprintf("%s. Paused at break.", verb)
	default:
		return fmt.Sprintf("%s.", verb)
	}
}
