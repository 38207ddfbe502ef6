package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	vcrebase "github.com/mndrix/vcrebase"
	"github.com/mndrix/vcrebase/rebase"
	"github.com/spf13/cobra"
)

// rebaseStatusOutput is the JSON output for rebase status.
type rebaseStatusOutput struct {
	InProgress     bool     `json:"in_progress"`
	Head           string   `json:"head,omitempty"`
	TotalCommits   int      `json:"total_commits,omitempty"`
	DoneCommits    int      `json:"done_commits,omitempty"`
	Conflicts      []string `json:"conflicts,omitempty"`
	OriginalBranch string   `json:"original_branch,omitempty"`
	OntoRef        string   `json:"onto_ref,omitempty"`
	Instructions   []string `json:"instructions,omitempty"`
}

// NewRebaseStatusCmd creates the rebase status command.
func NewRebaseStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current rebase status",
		Long: `Show the current status of an interactive rebase.

If a rebase is in progress, this shows:
- Whether there are conflicts
- How many commits remain
- What files have conflicts

Use --json for machine-readable output.`,
		Example: `  # Check rebase status
  hunk rebase status

  # JSON output for agents
  hunk rebase status --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRebaseStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}

	return cmd
}

// rebaseStatus is the view assembled from the rebase-merge control
// files, replacing a single monolithic status struct with one built
// straight off the checkpoint.
type rebaseStatus struct {
	InProgress     bool
	Head           string
	TotalCommits   int
	DoneCommits    int
	Conflicts      []string
	OriginalBranch string
	OntoRef        string
}

func runRebaseStatus(ctx context.Context, w io.Writer) error {
	cfg := getConfig(ctx)
	repo := openRepo(cfg)

	status, err := buildRebaseStatus(ctx, repo)
	if err != nil {
		return err
	}

	if cfg.JSONOut {
		return formatRebaseStatusJSON(w, status)
	}

	return formatRebaseStatusText(w, status)
}

func buildRebaseStatus(ctx context.Context, repo *vcrebase.Repository) (*rebaseStatus, error) {
	if !repo.Rebase.IsInProgress() {
		return &rebaseStatus{}, nil
	}

	checkpoint := repo.Rebase.Checkpoint

	status := &rebaseStatus{InProgress: true}

	if headName, ok, err := checkpoint.Get("head-name"); err == nil && ok {
		status.OriginalBranch = strings.TrimSpace(headName)
	}

	if onto, ok, err := checkpoint.Get("onto"); err == nil && ok {
		status.OntoRef = strings.TrimSpace(onto)
	}

	if todo, ok, err := checkpoint.Get("git-rebase-todo"); err == nil && ok {
		status.TotalCommits = len(rebase.ParseTodoFile(todo))
	}

	if done, ok, err := checkpoint.Get("done"); err == nil && ok {
		status.DoneCommits = len(rebase.ParseTodoFile(done))
	}

	// The todo file holds only what remains; the total includes what is done.
	status.TotalCommits += status.DoneCommits

	if head, ok, err := checkpoint.RebaseHead(); err == nil && ok {
		status.Head = head
	}

	conflicts, err := repo.Index.ConflictedPaths(ctx)
	if err != nil {
		return nil, err
	}

	status.Conflicts = conflicts

	return status, nil
}

func formatRebaseStatusJSON(w io.Writer, status *rebaseStatus) error {
	output := rebaseStatusOutput{
		InProgress:     status.InProgress,
		Head:           status.Head,
		TotalCommits:   status.TotalCommits,
		DoneCommits:    status.DoneCommits,
		Conflicts:      status.Conflicts,
		OriginalBranch: status.OriginalBranch,
		OntoRef:        status.OntoRef,
	}

	if len(status.Conflicts) > 0 {
		output.Instructions = []string{
			"Resolve conflicts in the listed files",
			"Stage resolved files with 'git add <file>'",
			"Continue with 'hunk rebase continue'",
			"Or abort with 'hunk rebase abort'",
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(output)
}

func formatRebaseStatusText(w io.Writer, status *rebaseStatus) error {
	if !status.InProgress {
		fmt.Fprintln(w, "No rebase in progress.")

		return nil
	}

	fmt.Fprintf(w, "Rebase in progress on %s\n", status.OriginalBranch)
	fmt.Fprintf(w, "  Rebasing onto: %s\n", status.OntoRef)
	fmt.Fprintf(w, "  Progress: %d/%d commits\n",
		status.DoneCommits, status.TotalCommits)

	if len(status.Conflicts) > 0 {
		fmt.Fprintln(w, "\nConflicts:")

		for _, path := range status.Conflicts {
			fmt.Fprintf(w, "  - %s\n", path)
		}

		fmt.Fprintln(w, "\nResolve conflicts, stage with 'git add', then:")
		fmt.Fprintln(w, "  hunk rebase continue  # to continue")
		fmt.Fprintln(w, "  hunk rebase skip      # to skip this commit")
		fmt.Fprintln(w, "  hunk rebase abort     # to abort")
	}

	return nil
}
