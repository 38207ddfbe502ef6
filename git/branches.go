package git

import (
	"context"
	"fmt"
	"strings"
)

// Branches is a thin wrapper over branch-level porcelain commands. It
// carries no rewrite logic of its own.
type Branches struct {
	Runner *Runner
}

// NewBranches creates a Branches over r.
func NewBranches(r *Runner) *Branches {
	return &Branches{Runner: r}
}

// List returns every local branch name.
func (b *Branches) List(ctx context.Context) ([]string, error) {
	result, err := b.Runner.RunArgs(
		ctx, nil, "for-each-ref", "--format=%(refname:short)", "refs/heads/",
	)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	if result.ExitCode != 0 {
		return nil, fmt.Errorf("listing branches: %s", result.Stderr)
	}

	output := strings.TrimSpace(result.Stdout)
	if output == "" {
		return nil, nil
	}

	return strings.Split(output, "\n"), nil
}

// Current returns the branch HEAD is attached to. detached is true if
// HEAD does not point at a branch.
func (b *Branches) Current(ctx context.Context) (name string, detached bool, err error) {
	result, err := b.Runner.RunArgs(ctx, nil, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		return "", false, fmt.Errorf("reading current branch: %w", err)
	}

	if result.ExitCode != 0 {
		return "", true, nil
	}

	return strings.TrimSpace(result.Stdout), false, nil
}

// Create makes a new branch named name at startPoint.
func (b *Branches) Create(ctx context.Context, name, startPoint string) error {
	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}

	result, err := b.Runner.RunArgs(ctx, nil, args...)
	if err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("creating branch %s: %s", name, result.Stderr)
	}

	return nil
}

// Delete removes a branch. force allows deleting one not fully merged.
func (b *Branches) Delete(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}

	result, err := b.Runner.RunArgs(ctx, nil, "branch", flag, name)
	if err != nil {
		return fmt.Errorf("deleting branch %s: %w", name, err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("deleting branch %s: %s", name, result.Stderr)
	}

	return nil
}

// Checkout switches HEAD and the working tree to name.
func (b *Branches) Checkout(ctx context.Context, name string) error {
	result, err := b.Runner.RunArgs(ctx, nil, "checkout", name)
	if err != nil {
		return fmt.Errorf("checking out %s: %w", name, err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("checking out %s: %s", name, result.Stderr)
	}

	return nil
}
