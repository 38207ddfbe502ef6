package git

import (
	"context"
	"fmt"
	"strings"
)

// CommitWriter constructs commits from the current index, without
// advancing any reference.
type CommitWriter struct {
	Runner *Runner
}

// NewCommitWriter creates a CommitWriter over r.
func NewCommitWriter(r *Runner) *CommitWriter {
	return &CommitWriter{Runner: r}
}

// CommitSpec describes one commit to construct.
type CommitSpec struct {
	// Message is the commit's first line.
	Message string

	// Description is the optional multi-line body.
	Description string

	// Parents lists the parent commit hashes, in order.
	Parents []string

	// Env carries author/committer overrides
	// (GIT_AUTHOR_NAME=..., etc.), appended to the child's
	// environment for this invocation only.
	Env []string
}

// fullMessage joins Message and Description the way git itself
// separates a commit's subject from its body: a blank line.
func (s CommitSpec) fullMessage() string {
	if s.Description == "" {
		return s.Message
	}

	return s.Message + "\n\n" + s.Description
}

// Write creates a single commit over the current index tree and
// returns its hash. The caller is responsible for moving the head.
func (w *CommitWriter) Write(ctx context.Context, spec CommitSpec) (string, error) {
	treeResult, err := w.Runner.RunArgs(ctx, spec.Env, "write-tree")
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}

	if treeResult.ExitCode != 0 {
		return "", fmt.Errorf(
			"write-tree: exit %d: %s", treeResult.ExitCode, treeResult.Stderr,
		)
	}

	tree := strings.TrimSpace(treeResult.Stdout)

	args := []string{"commit-tree", tree}
	for _, parent := range spec.Parents {
		args = append(args, "-p", parent)
	}

	args = append(args, "-m", spec.fullMessage())

	commitResult, err := w.Runner.RunArgs(ctx, spec.Env, args...)
	if err != nil {
		return "", fmt.Errorf("commit-tree: %w", err)
	}

	if commitResult.ExitCode != 0 {
		return "", fmt.Errorf(
			"commit-tree: exit %d: %s",
			commitResult.ExitCode, commitResult.Stderr,
		)
	}

	return strings.TrimSpace(commitResult.Stdout), nil
}
