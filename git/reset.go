package git

import (
	"context"
	"fmt"
)

// ResetMode selects how far a reset moves the index and working tree,
// generalizing the teacher's single hard-coded `reset HEAD`.
type ResetMode int

const (
	// ResetSoft moves HEAD only, leaving the index and working tree
	// untouched.
	ResetSoft ResetMode = iota

	// ResetMixed moves HEAD and resets the index, leaving the working
	// tree untouched. This is git's default reset mode.
	ResetMixed

	// ResetHard moves HEAD and resets both the index and working tree.
	ResetHard
)

func (m ResetMode) flag() string {
	switch m {
	case ResetSoft:
		return "--soft"
	case ResetHard:
		return "--hard"
	default:
		return "--mixed"
	}
}

// Reset is a thin wrapper over `git reset`.
type Reset struct {
	Runner *Runner
}

// NewReset creates a Reset over r.
func NewReset(r *Runner) *Reset {
	return &Reset{Runner: r}
}

// To moves HEAD to ref under the given mode.
func (r *Reset) To(ctx context.Context, mode ResetMode, ref string) error {
	result, err := r.Runner.RunArgs(ctx, nil, "reset", mode.flag(), ref)
	if err != nil {
		return fmt.Errorf("reset %s: %w", ref, err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("reset %s: %s", ref, result.Stderr)
	}

	return nil
}

// Path unstages a single path without moving HEAD.
func (r *Reset) Path(ctx context.Context, path string) error {
	result, err := r.Runner.RunArgs(ctx, nil, "reset", "HEAD", "--", path)
	if err != nil {
		return fmt.Errorf("reset %s: %w", path, err)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf("reset %s: %s", path, result.Stderr)
	}

	return nil
}
