// Package cherrypick drives a single, standalone cherry-pick: applying
// one commit's content change onto the current head and committing it,
// distinct from the rebase engine's non-interactive PICK step in how it
// surfaces an empty diff (see Outcome).
package cherrypick

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mndrix/vcrebase/git"
)

// Outcome classifies the result of a standalone cherry-pick.
type Outcome int

const (
	// Applied indicates a new commit was created.
	Applied Outcome = iota

	// Conflict indicates C5 left conflict markers and unresolved index
	// entries; CherryPick writes CHERRY_PICK_HEAD, the file git's own
	// cherry-pick uses, for Continue/Abort.
	Conflict

	// EmptyCommit indicates the source commit contributed no tree
	// change, either because its content already matches the current
	// head or because the commit itself was empty relative to its own
	// parent. Nothing is committed.
	EmptyCommit
)

// Picker drives standalone cherry-picks against one repository.
type Picker struct {
	Runner    *git.Runner
	Applier   *git.Applier
	Committer *git.CommitWriter
}

// New creates a Picker over r.
func New(r *git.Runner) *Picker {
	return &Picker{
		Runner:    r,
		Applier:   git.NewApplier(r),
		Committer: git.NewCommitWriter(r),
	}
}

// CherryPick replays hash's content change onto the current head and,
// on a clean apply, commits it with hash's original message and
// authorship. Unlike the rebase engine's PICK step, an empty diff is
// surfaced to the caller rather than silently skipped: standalone
// cherry-pick is a single user-requested operation, not one step of a
// driven sequence.
func (p *Picker) CherryPick(ctx context.Context, hash string) (Outcome, string, error) {
	outcome, err := p.Applier.Apply(ctx, hash)
	if err != nil {
		return 0, "", NewEnvironmentError("applying cherry-pick", err)
	}

	switch outcome {
	case git.ApplyNoChanges, git.ApplyEmptyDiff:
		return EmptyCommit, "", nil
	case git.ApplyConflict:
		// `cherry-pick -n` leaves no CHERRY_PICK_HEAD, so record it here.
		full, err := p.revParse(ctx, hash)
		if err != nil {
			return 0, "", err
		}

		path, err := p.cherryPickHeadPath(ctx)
		if err != nil {
			return 0, "", err
		}

		if err := os.WriteFile(path, []byte(full+"\n"), 0o644); err != nil {
			return 0, "", NewEnvironmentError("writing CHERRY_PICK_HEAD", err)
		}

		return Conflict, "", nil
	}

	head, err := p.revParse(ctx, "HEAD")
	if err != nil {
		return 0, "", err
	}

	newHash, err := p.commitFrom(ctx, hash, head)
	if err != nil {
		return 0, "", err
	}

	return Applied, newHash, nil
}

// IsInProgress reports whether a cherry-pick is stopped on a conflict,
// defined as the existence of CHERRY_PICK_HEAD.
func (p *Picker) IsInProgress(ctx context.Context) (bool, error) {
	result, err := p.Runner.RunArgs(
		ctx, nil, "rev-parse", "-q", "--verify", "CHERRY_PICK_HEAD",
	)
	if err != nil {
		return false, NewEnvironmentError("checking CHERRY_PICK_HEAD", err)
	}

	return result.ExitCode == 0, nil
}

// Continue finishes a cherry-pick that stopped on a conflict: it reads
// CHERRY_PICK_HEAD for the original commit's message and authorship,
// commits the now-resolved index, and removes CHERRY_PICK_HEAD.
func (p *Picker) Continue(ctx context.Context) (Outcome, string, error) {
	inProgress, err := p.IsInProgress(ctx)
	if err != nil {
		return 0, "", err
	}

	if !inProgress {
		return 0, "", ErrNoCherryPickInProgress
	}

	origHash, err := p.revParse(ctx, "CHERRY_PICK_HEAD")
	if err != nil {
		return 0, "", err
	}

	head, err := p.revParse(ctx, "HEAD")
	if err != nil {
		return 0, "", err
	}

	newHash, err := p.commitFrom(ctx, origHash, head)
	if err != nil {
		return 0, "", err
	}

	if err := p.removeCherryPickHead(ctx); err != nil {
		return 0, "", err
	}

	return Applied, newHash, nil
}

// Abort discards the in-progress cherry-pick, restoring the index and
// working tree to the pre-cherry-pick head. Delegated to git's own
// `cherry-pick --abort`, which resets to HEAD and removes the
// CHERRY_PICK_HEAD that CherryPick wrote.
func (p *Picker) Abort(ctx context.Context) error {
	inProgress, err := p.IsInProgress(ctx)
	if err != nil {
		return err
	}

	if !inProgress {
		return ErrNoCherryPickInProgress
	}

	result, err := p.Runner.RunArgs(ctx, nil, "cherry-pick", "--abort")
	if err != nil {
		return NewEnvironmentError("aborting cherry-pick", err)
	}

	if result.ExitCode != 0 {
		return NewEnvironmentError(
			"aborting cherry-pick", fmt.Errorf("%s", result.Stderr),
		)
	}

	return nil
}

// commitFrom writes a new commit over the current index, reusing
// source's message and authorship, with parent as its sole parent.
func (p *Picker) commitFrom(ctx context.Context, source, parent string) (string, error) {
	subject, description, err := p.commitMessage(ctx, source)
	if err != nil {
		return "", err
	}

	env, err := p.authorEnv(ctx, source)
	if err != nil {
		return "", err
	}

	newHash, err := p.Committer.Write(ctx, git.CommitSpec{
		Message:     subject,
		Description: description,
		Parents:     []string{parent},
		Env:         env,
	})
	if err != nil {
		return "", NewEnvironmentError("committing cherry-pick", err)
	}

	result, err := p.Runner.RunArgs(ctx, nil, "update-ref", "HEAD", newHash)
	if err != nil {
		return "", NewEnvironmentError("moving HEAD", err)
	}

	if result.ExitCode != 0 {
		return "", NewEnvironmentError(
			"moving HEAD", fmt.Errorf("%s", result.Stderr),
		)
	}

	return newHash, nil
}

func (p *Picker) commitMessage(ctx context.Context, ref string) (string, string, error) {
	result, err := p.Runner.RunArgs(
		ctx, nil, "log", "-1", "--format=%s%x00%b", ref,
	)
	if err != nil {
		return "", "", NewEnvironmentError("reading commit message", err)
	}

	if result.ExitCode != 0 {
		return "", "", NewEnvironmentError(
			"reading commit message", fmt.Errorf("%s", result.Stderr),
		)
	}

	parts := strings.SplitN(strings.TrimRight(result.Stdout, "\n"), "\x00", 2)

	subject := parts[0]

	description := ""
	if len(parts) > 1 {
		description = strings.TrimRight(parts[1], "\n")
	}

	return subject, description, nil
}

func (p *Picker) authorEnv(ctx context.Context, ref string) ([]string, error) {
	result, err := p.Runner.RunArgs(
		ctx, nil, "log", "-1", "--format=%an%x00%ae%x00%ad", "--date=raw", ref,
	)
	if err != nil {
		return nil, NewEnvironmentError("reading authorship", err)
	}

	if result.ExitCode != 0 {
		return nil, NewEnvironmentError(
			"reading authorship", fmt.Errorf("%s", result.Stderr),
		)
	}

	parts := strings.SplitN(strings.TrimRight(result.Stdout, "\n"), "\x00", 3)
	if len(parts) != 3 {
		return nil, NewEnvironmentError(
			"reading authorship",
			fmt.Errorf("unexpected log output: %q", result.Stdout),
		)
	}

	return []string{
		"GIT_AUTHOR_NAME=" + parts[0],
		"GIT_AUTHOR_EMAIL=" + parts[1],
		"GIT_AUTHOR_DATE=" + parts[2],
	}, nil
}

func (p *Picker) revParse(ctx context.Context, ref string) (string, error) {
	result, err := p.Runner.RunArgs(ctx, nil, "rev-parse", ref)
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

// cherryPickHeadPath returns CHERRY_PICK_HEAD's absolute path, kept
// only for callers that need the on-disk location directly.
func (p *Picker) cherryPickHeadPath(ctx context.Context) (string, error) {
	result, err := p.Runner.RunArgs(ctx, nil, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", NewEnvironmentError("resolving git dir", err)
	}

	if result.ExitCode != 0 {
		return "", NewEnvironmentError(
			"resolving git dir", fmt.Errorf("%s", result.Stderr),
		)
	}

	return filepath.Join(strings.TrimSpace(result.Stdout), "CHERRY_PICK_HEAD"), nil
}

func (p *Picker) removeCherryPickHead(ctx context.Context) error {
	path, err := p.cherryPickHeadPath(ctx)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return NewEnvironmentError("removing CHERRY_PICK_HEAD", err)
	}

	return nil
}
