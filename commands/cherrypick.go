package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mndrix/vcrebase/cherrypick"
	"github.com/spf13/cobra"
)

// cherryPickOutput is the JSON output for cherry-pick.
type cherryPickOutput struct {
	Outcome string `json:"outcome"`
	Head    string `json:"head,omitempty"`
}

// NewCherryPickCmd creates the cherry-pick parent command.
func NewCherryPickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cherry-pick",
		Short: "Replay a single commit onto the current head",
		Long: `Apply a commit's content change onto the current head and commit
it, reusing the source commit's message and authorship.

If applying the commit conflicts, resolve the conflict and use
'hunk cherry-pick continue', or 'hunk cherry-pick abort' to cancel.`,
		Example: `  # Cherry-pick a commit
  hunk cherry-pick abc123

  # After resolving a conflict
  git add resolved-file.go
  hunk cherry-pick continue`,
	}

	cmd.AddCommand(newCherryPickApplyCmd())
	cmd.AddCommand(newCherryPickContinueCmd())
	cmd.AddCommand(newCherryPickAbortCmd())

	return cmd
}

func newCherryPickApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick COMMIT",
		Short: "Cherry-pick a single commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCherryPick(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func newCherryPickContinueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Continue a cherry-pick after resolving conflicts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCherryPickContinue(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newCherryPickAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort an in-progress cherry-pick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCherryPickAbort(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runCherryPick(ctx context.Context, w io.Writer, hash string) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	outcome, head, err := repo.CherryPick.CherryPick(ctx, hash)
	if err != nil {
		return err
	}

	return reportCherryPick(w, cfg.JSONOut, outcome, head)
}

func runCherryPickContinue(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	outcome, head, err := repo.CherryPick.Continue(ctx)
	if err != nil {
		return err
	}

	return reportCherryPick(w, cfg.JSONOut, outcome, head)
}

func runCherryPickAbort(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	if err := repo.CherryPick.Abort(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w, "Cherry-pick aborted.")

	return nil
}

func reportCherryPick(
	w io.Writer, jsonOut bool, outcome cherrypick.Outcome, head string,
) error {
	label := cherryPickOutcomeLabel(outcome)

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(cherryPickOutput{Outcome: label, Head: head})
	}

	switch outcome {
	case cherrypick.Applied:
		fmt.Fprintf(w, "Cherry-picked as %s.\n", head)
	case cherrypick.Conflict:
		fmt.Fprintln(w, "Cherry-pick paused due to conflicts.")
		fmt.Fprintln(w, "Resolve conflicts, stage with 'git add', then:")
		fmt.Fprintln(w, "  hunk cherry-pick continue  # to continue")
		fmt.Fprintln(w, "  hunk cherry-pick abort     # to abort")
	case cherrypick.EmptyCommit:
		fmt.Fprintln(w, "Nothing to commit; source change already present.")
	}

	return nil
}

func cherryPickOutcomeLabel(outcome cherrypick.Outcome) string {
	switch outcome {
	case cherrypick.Applied:
		return "applied"
	case cherrypick.Conflict:
		return "conflict"
	case cherrypick.EmptyCommit:
		return "empty"
	default:
		return "unknown"
	}
}
