package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mndrix/vcrebase/rebase"
	"github.com/spf13/cobra"
)

// rebaseRunOutput is the JSON output for rebase run.
type rebaseRunOutput struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	InProgress  bool   `json:"in_progress,omitempty"`
	HasConflict bool   `json:"has_conflict,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
	Head        string `json:"head,omitempty"`
}

// NewRebaseRunCmd creates the rebase run command.
func NewRebaseRunCmd() *cobra.Command {
	var (
		onto     string
		specFile string
	)

	cmd := &cobra.Command{
		Use:   "run [ACTIONS]",
		Short: "Execute an interactive rebase with specified actions",
		Long: `Execute an interactive rebase using a declarative specification.

Actions can be specified either as command-line arguments or via a JSON file.

CLI Syntax:
  Comma-separated list of actions. Each action can be:
  - A commit hash (defaults to 'pick')
  - ACTION:COMMIT (e.g., squash:abc123)
  - ACTION:COMMIT:MESSAGE (e.g., reword:abc123:Better message)

Available actions:
  pick    - Use commit as-is
  reword  - Use commit but change message
  edit    - Use commit but stop for amending
  squash  - Combine with previous commit (concat messages)
  fixup   - Combine with previous commit (discard message)
  drop    - Remove commit from history
  exec    - Run shell command (e.g., exec:make test)

JSON Syntax (with --spec):
  {
    "actions": [
      {"action": "pick", "commit": "abc123"},
      {"action": "squash", "commit": "def456", "message": "Combined"}
    ]
  }

Squash actions, and reword actions carrying a message, run to completion
without stopping: the message is applied automatically (a squash with no
message keeps the combined original messages). A reword with no message
stops so that one can be supplied with 'hunk rebase continue --message'.
Otherwise a rebase only stops early on a conflict, an edit, or a break.`,
		Example: `  # Rebase all commits as picks
  hunk rebase run --onto main abc123,def456,ghi789

  # Squash second and third commits into first
  hunk rebase run --onto main pick:abc123,squash:def456,squash:ghi789

  # Drop a commit
  hunk rebase run --onto main pick:abc123,drop:def456,pick:ghi789

  # Reword a commit
  hunk rebase run --onto main "reword:abc123:Better commit message"

  # From JSON file
  hunk rebase run --onto main --spec rebase-plan.json

  # From stdin
  echo '{"actions":[...]}' | hunk rebase run --onto main --spec -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if onto == "" {
				return fmt.Errorf("--onto is required")
			}

			return runRebaseRun(
				cmd.Context(), cmd.OutOrStdout(),
				onto, specFile, args,
			)
		},
	}

	cmd.Flags().StringVar(
		&onto, "onto", "",
		"base reference to rebase onto (required)",
	)
	cmd.Flags().StringVar(
		&specFile, "spec", "",
		"JSON file containing rebase specification (use - for stdin)",
	)

	_ = cmd.MarkFlagRequired("onto")

	return cmd
}

func runRebaseRun(
	ctx context.Context, w io.Writer,
	onto, specFile string, args []string,
) error {
	cfg := getConfig(ctx)

	spec, err := parseRebaseSpec(specFile, args)
	if err != nil {
		return err
	}

	repo := openRepo(cfg)

	original, err := repo.Rebase.GetDefaultTodo(ctx, onto)
	if err != nil {
		return fmt.Errorf("failed to list commits: %w", err)
	}

	if len(original) == 0 {
		return fmt.Errorf(
			"no commits to rebase: HEAD is already at or behind %s", onto,
		)
	}

	if err := spec.ValidateAgainstCommits(original); err != nil {
		return err
	}

	entries, err := rebase.ReorderToMatchSpec(spec, original)
	if err != nil {
		return err
	}

	overrides := messageOverrides(spec)

	final, stop, err := repo.Rebase.InteractiveRebase(ctx, onto, entries)
	if err != nil {
		return err
	}

	final, stop, err = driveToStop(ctx, repo.Rebase, final, stop, overrides)
	if err != nil {
		return err
	}

	if cfg.JSONOut {
		return formatRebaseRunJSON(w, final, stop)
	}

	return formatRebaseRunText(w, final, stop)
}

// messageOverrides maps a spec's reword/squash actions to their
// message, keyed by the commit hash or prefix the CLI caller supplied.
func messageOverrides(spec *rebase.Spec) map[string]string {
	overrides := make(map[string]string)

	for _, action := range spec.Actions {
		if action.Message == "" {
			continue
		}

		if action.Action == rebase.ActionReword || action.Action == rebase.ActionSquash {
			overrides[action.Commit] = action.Message
		}
	}

	return overrides
}

// driveToStop auto-continues through squash stops, and through reword
// stops for which the caller supplied a message override, substituting
// that override for the commit currently stopped on. It returns control
// to the caller on a reword stop with no override and on any other stop
// reason, including StopNone (the rebase finished).
func driveToStop(
	ctx context.Context, engine *rebase.Engine,
	final string, stop rebase.StopReason, overrides map[string]string,
) (string, rebase.StopReason, error) {
	for stop == rebase.StopReword || stop == rebase.StopSquash {
		var messagePtr *string

		if head, ok, err := engine.Checkpoint.RebaseHead(); err == nil && ok {
			if message, found := lookupOverride(overrides, head); found {
				messagePtr = &message
			}
		}

		if stop == rebase.StopReword && messagePtr == nil {
			return final, stop, nil
		}

		var err error

		final, stop, err = engine.Continue(ctx, messagePtr, nil)
		if err != nil {
			return "", rebase.StopNone, err
		}
	}

	return final, stop, nil
}

// lookupOverride finds an override message for hash, allowing the
// caller to have supplied a short prefix.
func lookupOverride(overrides map[string]string, hash string) (string, bool) {
	if message, ok := overrides[hash]; ok {
		return message, true
	}

	for key, message := range overrides {
		if strings.HasPrefix(hash, key) || strings.HasPrefix(key, hash) {
			return message, true
		}
	}

	return "", false
}

func parseRebaseSpec(specFile string, args []string) (*rebase.Spec, error) {
	// If spec file provided, use that.
	if specFile != "" {
		var data []byte
		var err error

		if specFile == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(specFile)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read spec file: %w", err)
		}

		return rebase.ParseSpec(data)
	}

	// Otherwise parse CLI args.
	if len(args) == 0 {
		return nil, fmt.Errorf("no actions specified; provide commits/actions or --spec")
	}

	return rebase.ParseCLISpec(args)
}

func formatRebaseRunJSON(w io.Writer, head string, stop rebase.StopReason) error {
	output := rebaseRunOutput{
		Success:     stop == rebase.StopNone,
		InProgress:  stop != rebase.StopNone,
		HasConflict: stop == rebase.StopConflict,
		StopReason:  string(stop),
		Head:        head,
	}

	switch stop {
	case rebase.StopNone:
		output.Message = "Rebase completed successfully"
	case rebase.StopConflict:
		output.Message = "Rebase paused due to conflicts"
	case rebase.StopEdit:
		output.Message = "Rebase paused for edit"
	case rebase.StopBreak:
		output.Message = "Rebase paused at break"
	default:
		output.Message = "Rebase in progress"
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(output)
}

func formatRebaseRunText(w io.Writer, head string, stop rebase.StopReason) error {
	switch stop {
	case rebase.StopNone:
		fmt.Fprintln(w, "Rebase completed successfully.")

		return nil
	case rebase.StopConflict:
		fmt.Fprintln(w, "Rebase paused due to conflicts.")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Resolve conflicts, stage with 'git add', then:")
		fmt.Fprintln(w, "  hunk rebase continue  # to continue")
		fmt.Fprintln(w, "  hunk rebase skip      # to drop this commit")
		fmt.Fprintln(w, "  hunk rebase abort     # to abort")
	case rebase.StopEdit:
		fmt.Fprintf(w, "Rebase paused for edit at %s.\n", head)
		fmt.Fprintln(w, "Amend as needed, then 'hunk rebase continue'.")
	case rebase.StopBreak:
		fmt.Fprintln(w, "Rebase paused at break instruction.")
		fmt.Fprintln(w, "'hunk rebase continue' to resume.")
	default:
		fmt.Fprintln(w, "Rebase in progress.")
	}

	return nil
}
