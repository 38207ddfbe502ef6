// Package vcrebase drives a git repository through a resumable
// interactive rebase engine, standalone cherry-pick, and merge. The
// rebase engine keeps its own todo list and control files rather than
// shelling out to `git rebase -i`; changes are applied with
// `git cherry-pick -n`, and merge drives `git merge`.
package vcrebase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mndrix/vcrebase/cherrypick"
	"github.com/mndrix/vcrebase/diff"
	"github.com/mndrix/vcrebase/git"
	"github.com/mndrix/vcrebase/merge"
	"github.com/mndrix/vcrebase/rebase"
)

// Repository is the single entry point onto one git working
// directory. It holds one git.Runner and forwards to each
// component's constructor; it carries no logic of its own beyond
// construction.
type Repository struct {
	runner *git.Runner

	Rebase     *rebase.Engine
	CherryPick *cherrypick.Picker
	Merge      *merge.Merger

	Branches *git.Branches
	Index    *git.Index
	Reset    *git.Reset
	History  *git.History
}

// Open creates a Repository rooted at dir. log may be nil, in which
// case the rebase engine discards its log output.
func Open(dir string, log *logrus.Entry) *Repository {
	runner := git.NewRunner(dir)
	checkpoint := rebase.NewCheckpoint(gitDirOrDefault(runner, dir))

	return &Repository{
		runner:     runner,
		Rebase:     rebase.New(runner, checkpoint, log),
		CherryPick: cherrypick.New(runner),
		Merge:      merge.New(runner),
		Branches:   git.NewBranches(runner),
		Index:      git.NewIndex(runner),
		Reset:      git.NewReset(runner),
		History:    git.NewHistory(runner),
	}
}

// gitDirOrDefault resolves the repository's git directory via
// `rev-parse --absolute-git-dir`, falling back to "<dir>/.git" for a
// repository this process has not been able to reach (the fallback
// is used when git fails to start or exits non-zero, for example
// when dir is not inside a repository).
func gitDirOrDefault(runner *git.Runner, dir string) string {
	result, err := runner.RunArgs(
		context.Background(), nil, "rev-parse", "--absolute-git-dir",
	)
	if err != nil || result.ExitCode != 0 {
		return dir + "/.git"
	}

	return trimTrailingNewline(result.Stdout)
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}

// Diff returns the parsed unstaged diff, optionally limited to paths.
func (r *Repository) Diff(ctx context.Context, paths ...string) (*diff.ParsedDiff, error) {
	return r.diff(ctx, false, paths)
}

// DiffCached returns the parsed staged diff, optionally limited to
// paths.
func (r *Repository) DiffCached(ctx context.Context, paths ...string) (*diff.ParsedDiff, error) {
	return r.diff(ctx, true, paths)
}

func (r *Repository) diff(
	ctx context.Context, cached bool, paths []string,
) (*diff.ParsedDiff, error) {
	args := []string{"diff", "--no-color"}
	if cached {
		args = append(args, "--cached")
	}

	args = append(args, paths...)

	result, err := r.runner.RunArgs(ctx, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("diffing: %w", err)
	}

	if result.ExitCode != 0 {
		return nil, fmt.Errorf("diffing: %s", result.Stderr)
	}

	return diff.Parse(result.Stdout)
}
