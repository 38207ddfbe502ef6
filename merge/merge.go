// Package merge drives `git merge` and classifies its outcome, without
// ever performing the three-way merge itself.
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/mndrix/vcrebase/git"
)

// FFMode controls whether a merge may, must, or must not fast-forward.
type FFMode int

const (
	// FFAuto fast-forwards when possible, otherwise creates a merge
	// commit.
	FFAuto FFMode = iota

	// FFOnly refuses to merge unless a fast-forward is possible.
	FFOnly

	// FFNever always creates a merge commit, even when a fast-forward
	// is possible.
	FFNever
)

// Outcome classifies the result of one merge attempt.
type Outcome int

const (
	// Merged indicates the merge completed, either by fast-forward or
	// by a new merge commit.
	Merged Outcome = iota

	// NothingToMerge indicates the target branch was already an
	// ancestor of HEAD.
	NothingToMerge

	// Conflict indicates the merge left conflict markers and
	// MERGE_HEAD in place for Continue/Abort.
	Conflict

	// DivergedFFOnly indicates FFOnly was requested but the branches
	// had diverged, so no fast-forward was possible.
	DivergedFFOnly
)

// Merger drives merges against one repository.
type Merger struct {
	Runner *git.Runner
}

// New creates a Merger over r.
func New(r *git.Runner) *Merger {
	return &Merger{Runner: r}
}

// Merge attempts to merge branch into the current head under the
// given fast-forward policy.
func (m *Merger) Merge(
	ctx context.Context, branch string, ff FFMode,
) (Outcome, string, error) {
	args := []string{"merge"}

	switch ff {
	case FFOnly:
		args = append(args, "--ff-only")
	case FFNever:
		args = append(args, "--no-ff")
	}

	args = append(args, branch)

	result, err := m.Runner.RunArgs(ctx, nil, args...)
	if err != nil {
		return 0, "", NewEnvironmentError("merging", err)
	}

	if result.ExitCode == 0 {
		if strings.Contains(result.Stdout, "Already up to date") {
			return NothingToMerge, "", nil
		}

		newHash, err := m.revParse(ctx, "HEAD")
		if err != nil {
			return 0, "", err
		}

		return Merged, newHash, nil
	}

	if ff == FFOnly &&
		strings.Contains(result.Stderr, "Not possible to fast-forward") {
		return DivergedFFOnly, "", nil
	}

	inProgress, err := m.IsInProgress(ctx)
	if err != nil {
		return 0, "", err
	}

	if inProgress {
		return Conflict, "", nil
	}

	return 0, "", NewEnvironmentError(
		"merging", fmt.Errorf("%s", result.Stderr),
	)
}

// IsInProgress reports whether a merge is stopped on a conflict,
// defined as the existence of MERGE_HEAD.
func (m *Merger) IsInProgress(ctx context.Context) (bool, error) {
	result, err := m.Runner.RunArgs(
		ctx, nil, "rev-parse", "-q", "--verify", "MERGE_HEAD",
	)
	if err != nil {
		return false, NewEnvironmentError("checking MERGE_HEAD", err)
	}

	return result.ExitCode == 0, nil
}

// Continue finishes a merge that stopped on a conflict, committing the
// now-resolved index with MERGE_MSG as the message.
func (m *Merger) Continue(ctx context.Context) (Outcome, string, error) {
	inProgress, err := m.IsInProgress(ctx)
	if err != nil {
		return 0, "", err
	}

	if !inProgress {
		return 0, "", ErrNoMergeInProgress
	}

	result, err := m.Runner.RunArgs(ctx, nil, "commit", "--no-edit")
	if err != nil {
		return 0, "", NewEnvironmentError("completing merge", err)
	}

	if result.ExitCode != 0 {
		return 0, "", NewEnvironmentError(
			"completing merge", fmt.Errorf("%s", result.Stderr),
		)
	}

	newHash, err := m.revParse(ctx, "HEAD")
	if err != nil {
		return 0, "", err
	}

	return Merged, newHash, nil
}

// Abort discards the in-progress merge, restoring the index and
// working tree to the pre-merge head.
func (m *Merger) Abort(ctx context.Context) error {
	inProgress, err := m.IsInProgress(ctx)
	if err != nil {
		return err
	}

	if !inProgress {
		return ErrNoMergeInProgress
	}

	result, err := m.Runner.RunArgs(ctx, nil, "merge", "--abort")
	if err != nil {
		return NewEnvironmentError("aborting merge", err)
	}

	if result.ExitCode != 0 {
		return NewEnvironmentError(
			"aborting merge", fmt.Errorf("%s", result.Stderr),
		)
	}

	return nil
}

func (m *Merger) revParse(ctx context.Context, ref string) (string, error) {
	result, err := m.Runner.RunArgs(ctx, nil, "rev-parse", ref)
	if err != nil {
		return "", NewEnvironmentError("rev-parse "+ref, err)
	}

	if result.ExitCode != 0 {
		return "", NewEnvironmentError(
			"rev-parse "+ref, fmt.Errorf("%s", result.Stderr),
		)
	}

	return strings.TrimSpace(result.Stdout), nil
}
