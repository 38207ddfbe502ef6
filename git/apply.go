package git

import (
	"context"
	"fmt"
	"strings"
)

// ApplyOutcome classifies the result of replaying one commit's content
// change on top of the current head.
type ApplyOutcome int

const (
	// ApplyClean indicates the commit applied without conflicts; the
	// working tree and index were updated but no commit was made.
	ApplyClean ApplyOutcome = iota

	// ApplyNoChanges indicates the commit's tree already equals the
	// head's tree.
	ApplyNoChanges

	// ApplyEmptyDiff indicates the commit had no tree change relative
	// to its own parent.
	ApplyEmptyDiff

	// ApplyConflict indicates replay left conflict markers in the
	// working tree and unresolved index entries.
	ApplyConflict
)

// Applier drives git's cherry-pick machinery as the apply-diff
// primitive: it never performs the three-way merge itself.
type Applier struct {
	Runner *Runner
}

// NewApplier creates an Applier over r.
func NewApplier(r *Runner) *Applier {
	return &Applier{Runner: r}
}

// Apply attempts to replay hash's content change onto the current
// head. It is idempotent in the sense that re-invoking after a
// conflict, without the caller resolving it, returns ApplyConflict
// again (git's index still holds the unresolved entries).
func (a *Applier) Apply(ctx context.Context, hash string) (ApplyOutcome, error) {
	headTree, err := a.revParseTree(ctx, "HEAD")
	if err != nil {
		return 0, err
	}

	commitTree, err := a.revParseTree(ctx, hash)
	if err != nil {
		return 0, err
	}

	if headTree == commitTree {
		return ApplyNoChanges, nil
	}

	parentTree, err := a.revParseTree(ctx, hash+"^")
	if err != nil {
		return 0, err
	}

	if parentTree == commitTree {
		return ApplyEmptyDiff, nil
	}

	result, err := a.Runner.RunArgs(
		ctx, nil, "cherry-pick", "-n", "--allow-empty", hash,
	)
	if err != nil {
		return 0, fmt.Errorf("cherry-pick -n %s: %w", hash, err)
	}

	if result.ExitCode == 0 {
		return ApplyClean, nil
	}

	conflicts, err := a.Runner.RunArgs(
		ctx, nil, "diff", "--diff-filter=U", "--name-only",
	)
	if err != nil {
		return 0, fmt.Errorf("detecting conflicts after cherry-pick: %w", err)
	}

	if strings.TrimSpace(conflicts.Stdout) != "" {
		return ApplyConflict, nil
	}

	return 0, fmt.Errorf(
		"cherry-pick -n %s: non-zero exit with no conflicted paths: %s",
		hash, result.Stderr,
	)
}

// revParseTree resolves ref^{tree} to a tree hash.
func (a *Applier) revParseTree(ctx context.Context, ref string) (string, error) {
	result, err := a.Runner.RunArgs(ctx, nil, "rev-parse", ref+"^{tree}")
	if err != nil {
		return "", fmt.Errorf("rev-parse %s^{tree}: %w", ref, err)
	}

	if result.ExitCode != 0 {
		return "", fmt.Errorf(
			"rev-parse %s^{tree}: exit %d: %s",
			ref, result.ExitCode, result.Stderr,
		)
	}

	return strings.TrimSpace(result.Stdout), nil
}
