package git

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// History is a thin wrapper over log-formatting and ancestry porcelain
// commands, generalizing the teacher's RebaseList (which only ever
// listed base..HEAD) to arbitrary ranges.
type History struct {
	Runner *Runner
}

// NewHistory creates a History over r.
func NewHistory(r *Runner) *History {
	return &History{Runner: r}
}

// Log lists commits in rangeExpr (e.g. "base..HEAD"), oldest first.
func (h *History) Log(ctx context.Context, rangeExpr string) ([]CommitInfo, error) {
	format := "%H|%h|%s|%an <%ae>|%aI"

	result, err := h.Runner.RunArgs(
		ctx, nil, "log", "--format="+format, "--reverse", rangeExpr,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", rangeExpr, err)
	}

	if result.ExitCode != 0 {
		return nil, fmt.Errorf("listing %s: %s", rangeExpr, result.Stderr)
	}

	output := strings.TrimSpace(result.Stdout)
	if output == "" {
		return nil, nil
	}

	var commits []CommitInfo

	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 {
			continue
		}

		date, _ := time.Parse(time.RFC3339, parts[4])

		commits = append(commits, CommitInfo{
			Hash:      parts[0],
			ShortHash: parts[1],
			Subject:   parts[2],
			Author:    parts[3],
			Date:      date,
		})
	}

	return commits, nil
}

// MergeBase resolves the best common ancestor of a and b.
func (h *History) MergeBase(ctx context.Context, a, b string) (string, error) {
	result, err := h.Runner.RunArgs(ctx, nil, "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("merge-base %s %s: %w", a, b, err)
	}

	if result.ExitCode != 0 {
		return "", fmt.Errorf("merge-base %s %s: %s", a, b, result.Stderr)
	}

	return strings.TrimSpace(result.Stdout), nil
}

// Show returns the patch text for a single commit.
func (h *History) Show(ctx context.Context, ref string) (string, error) {
	result, err := h.Runner.RunArgs(ctx, nil, "show", ref)
	if err != nil {
		return "", fmt.Errorf("show %s: %w", ref, err)
	}

	if result.ExitCode != 0 {
		return "", fmt.Errorf("show %s: %s", ref, result.Stderr)
	}

	return result.Stdout, nil
}
