package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mndrix/vcrebase/merge"
	"github.com/spf13/cobra"
)

// mergeOutput is the JSON output for merge.
type mergeOutput struct {
	Outcome string `json:"outcome"`
	Head    string `json:"head,omitempty"`
}

// NewMergeCmd creates the merge parent command.
func NewMergeCmd() *cobra.Command {
	var (
		ffOnly bool
		noFF   bool
	)

	cmd := &cobra.Command{
		Use:   "merge BRANCH",
		Short: "Merge a branch into the current head",
		Args:  cobra.ExactArgs(1),
		Long: `Merge branch into the current head.

By default a fast-forward is taken when possible, otherwise a merge
commit is created. --ff-only refuses the merge unless a fast-forward
is possible; --no-ff always creates a merge commit.

If the merge conflicts, resolve the conflict and use 'hunk merge
continue', or 'hunk merge abort' to cancel.`,
		Example: `  # Merge a feature branch
  hunk merge feature/foo

  # Require a fast-forward
  hunk merge --ff-only main

  # After resolving a conflict
  git add resolved-file.go
  hunk merge continue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ffOnly && noFF {
				return fmt.Errorf("--ff-only and --no-ff are mutually exclusive")
			}

			mode := merge.FFAuto
			switch {
			case ffOnly:
				mode = merge.FFOnly
			case noFF:
				mode = merge.FFNever
			}

			return runMerge(cmd.Context(), cmd.OutOrStdout(), args[0], mode)
		},
	}

	cmd.Flags().BoolVar(&ffOnly, "ff-only", false, "refuse unless a fast-forward is possible")
	cmd.Flags().BoolVar(&noFF, "no-ff", false, "always create a merge commit")

	cmd.AddCommand(newMergeContinueCmd())
	cmd.AddCommand(newMergeAbortCmd())

	return cmd
}

func newMergeContinueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Continue a merge after resolving conflicts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMergeContinue(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newMergeAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort an in-progress merge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMergeAbort(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runMerge(ctx context.Context, w io.Writer, branch string, mode merge.FFMode) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	outcome, head, err := repo.Merge.Merge(ctx, branch, mode)
	if err != nil {
		return err
	}

	return reportMerge(w, cfg.JSONOut, outcome, head)
}

func runMergeContinue(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	outcome, head, err := repo.Merge.Continue(ctx)
	if err != nil {
		return err
	}

	return reportMerge(w, cfg.JSONOut, outcome, head)
}

func runMergeAbort(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	if err := repo.Merge.Abort(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w, "Merge aborted.")

	return nil
}

func reportMerge(w io.Writer, jsonOut bool, outcome merge.Outcome, head string) error {
	label := mergeOutcomeLabel(outcome)

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(mergeOutput{Outcome: label, Head: head})
	}

	switch outcome {
	case merge.Merged:
		fmt.Fprintf(w, "Merged, now at %s.\n", head)
	case merge.NothingToMerge:
		fmt.Fprintln(w, "Already up to date.")
	case merge.Conflict:
		fmt.Fprintln(w, "Merge paused due to conflicts.")
		fmt.Fprintln(w, "Resolve conflicts, stage with 'git add', then:")
		fmt.Fprintln(w, "  hunk merge continue  # to continue")
		fmt.Fprintln(w, "  hunk merge abort     # to abort")
	case merge.DivergedFFOnly:
		fmt.Fprintln(w, "Branches have diverged; fast-forward not possible.")
	}

	return nil
}

func mergeOutcomeLabel(outcome merge.Outcome) string {
	switch outcome {
	case merge.Merged:
		return "merged"
	case merge.NothingToMerge:
		return "up_to_date"
	case merge.Conflict:
		return "conflict"
	case merge.DivergedFFOnly:
		return "diverged"
	default:
		return "unknown"
	}
}
