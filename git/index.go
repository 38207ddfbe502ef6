package git

import (
	"context"
	"fmt"
	"strings"
)

// Index is a thin wrapper over staging-area porcelain commands,
// generalizing the teacher's RepoStatus parsing to a standalone
// component rather than one method on a monolithic executor.
type Index struct {
	Runner *Runner
}

// NewIndex creates an Index over r.
func NewIndex(r *Runner) *Index {
	return &Index{Runner: r}
}

// Status reports the repository's staged, unstaged, and untracked
// files, parsed from `git status --porcelain -z`.
func (i *Index) Status(ctx context.Context) (*RepoStatus, error) {
	result, err := i.Runner.RunArgs(ctx, nil, "status", "--porcelain", "-z")
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}

	if result.ExitCode != 0 {
		return nil, fmt.Errorf("reading status: %s", result.Stderr)
	}

	status := &RepoStatus{}

	for _, entry := range strings.Split(result.Stdout, "\x00") {
		if len(entry) < 3 {
			continue
		}

		staged := entry[0]
		unstaged := entry[1]
		path := entry[3:]

		switch {
		case staged == '?' && unstaged == '?':
			status.UntrackedFiles = append(status.UntrackedFiles, path)
		case staged != ' ' && staged != '?':
			status.StagedFiles = append(status.StagedFiles, path)
		case unstaged != ' ':
			status.UnstagedFiles = append(status.UnstagedFiles, path)
		}
	}

	return status, nil
}

// Stage adds paths to the index.
func (i *Index) Stage(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)

	result, err := i.Runner.RunArgs(ctx, nil, args...)
	if err != nil {
		return fmt.Errorf("staging: %w", err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("staging: %s", result.Stderr)
	}

	return nil
}

// ConflictedPaths lists files with unresolved merge conflicts.
func (i *Index) ConflictedPaths(ctx context.Context) ([]string, error) {
	result, err := i.Runner.RunArgs(
		ctx, nil, "diff", "--diff-filter=U", "--name-only",
	)
	if err != nil {
		return nil, fmt.Errorf("listing conflicts: %w", err)
	}

	if result.ExitCode != 0 {
		return nil, fmt.Errorf("listing conflicts: %s", result.Stderr)
	}

	output := strings.TrimSpace(result.Stdout)
	if output == "" {
		return nil, nil
	}

	return strings.Split(output, "\n"), nil
}

// Unstage removes paths from the index without touching the working
// tree, leaving HEAD untouched.
func (i *Index) Unstage(ctx context.Context, paths ...string) error {
	args := append([]string{"reset", "HEAD", "--"}, paths...)

	result, err := i.Runner.RunArgs(ctx, nil, args...)
	if err != nil {
		return fmt.Errorf("unstaging: %w", err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("unstaging: %s", result.Stderr)
	}

	return nil
}
