package rebase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mndrix/vcrebase/git"
)

// detachedHeadName is the head-name slot value used when a rebase was
// started from a detached HEAD rather than a branch.
const detachedHeadName = "detached HEAD"

// Engine drives an instruction list against a repository: it invokes
// the apply-diff and commit-writer primitives, persists progress
// through a Checkpoint, and surfaces conflicts and stop reasons rather
// than raising them as errors.
type Engine struct {
	Runner     *git.Runner
	Checkpoint *Checkpoint
	Applier    *git.Applier
	Committer  *git.CommitWriter
	Log        *logrus.Entry
}

// New creates an Engine. A nil log discards all engine log output.
func New(runner *git.Runner, checkpoint *Checkpoint, log *logrus.Entry) *Engine {
	if log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		log = logrus.NewEntry(logger)
	}

	return &Engine{
		Runner:     runner,
		Checkpoint: checkpoint,
		Applier:    git.NewApplier(runner),
		Committer:  git.NewCommitWriter(runner),
		Log:        log,
	}
}

// IsInProgress reports whether a rebase checkpoint exists on disk.
func (e *Engine) IsInProgress() bool {
	return e.Checkpoint.Exists()
}

// GetStoppedMessage reads the pending commit message left by the last
// stop. It returns the empty string if no rebase is stopped on a
// message-bearing instruction.
func (e *Engine) GetStoppedMessage() (string, error) {
	content, ok, err := e.Checkpoint.Get(slotMessage)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", nil
	}

	return content, nil
}

// GetDefaultTodo computes the PICK list for upstream..head in
// chronological order.
func (e *Engine) GetDefaultTodo(
	ctx context.Context, upstream string,
) ([]TodoEntry, error) {
	head, err := e.revParse(ctx, "HEAD")
	if err != nil {
		return nil, err
	}

	onto, err := e.revParse(ctx, upstream)
	if err != nil {
		return nil, err
	}

	base, err := e.mergeBase(ctx, head, onto)
	if err != nil {
		return nil, err
	}

	return e.logRange(ctx, base, head)
}

// Rebase computes the default instruction list from the merge-base of
// head and upstream to head, then drives it.
func (e *Engine) Rebase(
	ctx context.Context, upstream string,
) (string, StopReason, error) {
	entries, err := e.GetDefaultTodo(ctx, upstream)
	if err != nil {
		return "", StopNone, err
	}

	return e.InteractiveRebase(ctx, upstream, entries)
}

// InteractiveRebase drives the caller-supplied instruction list.
func (e *Engine) InteractiveRebase(
	ctx context.Context, upstream string, instructions []TodoEntry,
) (string, StopReason, error) {
	if e.Checkpoint.Exists() {
		return "", StopNone, ErrRebaseInProgress
	}

	clean, err := e.isWorktreeClean(ctx)
	if err != nil {
		return "", StopNone, err
	}

	if !clean {
		return "", StopNone, NewDirtyWorktreeError()
	}

	onto, err := e.revParse(ctx, upstream)
	if err != nil {
		return "", StopNone, err
	}

	headName, detached, err := e.currentBranchRef(ctx)
	if err != nil {
		return "", StopNone, err
	}

	origHead, err := e.revParse(ctx, "HEAD")
	if err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Init(); err != nil {
		return "", StopNone, err
	}

	if detached {
		headName = detachedHeadName
	}

	if err := e.Checkpoint.Set(slotHeadName, headName); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Set(slotOnto, onto); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Set(slotOrigHead, origHead); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Set(
		slotTodo, GenerateTodoFromEntries(instructions),
	); err != nil {
		return "", StopNone, err
	}

	if err := e.checkoutDetach(ctx, onto); err != nil {
		return "", StopNone, err
	}

	e.Log.WithField("upstream", upstream).Info("rebase started")

	return e.runLoop(ctx)
}

// Continue resumes from a checkpoint, finishing whatever commit last
// stopped before re-entering the main loop.
func (e *Engine) Continue(
	ctx context.Context, message, description *string,
) (string, StopReason, error) {
	if !e.Checkpoint.Exists() {
		return "", StopNone, ErrNoRebaseInProgress
	}

	doneContent, ok, err := e.Checkpoint.Get(slotDone)
	if err != nil {
		return "", StopNone, err
	}

	if !ok {
		return "", StopNone, NewMissingControlFileError(slotDone)
	}

	lastLine := lastNonEmptyLine(doneContent)
	if lastLine == "" {
		return "", StopNone, NewMissingControlFileError(slotDone)
	}

	lastEntry, err := ParseTodoLine(lastLine)
	if err != nil {
		return "", StopNone, NewEnvironmentError("parsing done list", err)
	}

	if lastEntry.Action != ActionBreak {
		if err := e.finishStoppedCommit(
			ctx, lastEntry, message, description,
		); err != nil {
			return "", StopNone, err
		}
	}

	if err := e.Checkpoint.RemoveRebaseHead(); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Remove(slotMessage); err != nil {
		return "", StopNone, err
	}

	e.Log.Info("rebase continued")

	return e.runLoop(ctx)
}

// Skip discards whatever instruction last stopped the rebase, as if it
// had been a DROP, and resumes the loop from the next instruction. The
// worktree and index are reset to HEAD first, which is untouched by a
// conflicting PICK/REWORD/EDIT/FIXUP/SQUASH since none of those commit
// until the apply is clean.
func (e *Engine) Skip(ctx context.Context) (string, StopReason, error) {
	if !e.Checkpoint.Exists() {
		return "", StopNone, ErrNoRebaseInProgress
	}

	head, err := e.revParse(ctx, "HEAD")
	if err != nil {
		return "", StopNone, err
	}

	if err := e.resetHard(ctx, head); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Remove(slotMessage); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Remove(slotAmend); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Remove(slotAuthorScript); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.Remove(slotCurrentFixups); err != nil {
		return "", StopNone, err
	}

	if err := e.Checkpoint.RemoveRebaseHead(); err != nil {
		return "", StopNone, err
	}

	e.Log.Info("rebase instruction skipped")

	return e.runLoop(ctx)
}

// Abort restores the index and working tree to orig-head, restores
// the original branch, and removes the control directory.
func (e *Engine) Abort(ctx context.Context) error {
	if !e.Checkpoint.Exists() {
		return ErrNoRebaseInProgress
	}

	origHead, ok, err := e.Checkpoint.Get(slotOrigHead)
	if err != nil {
		return err
	}

	if !ok {
		return NewMissingControlFileError(slotOrigHead)
	}

	if err := e.resetHard(ctx, strings.TrimSpace(origHead)); err != nil {
		return err
	}

	headName, ok, err := e.Checkpoint.Get(slotHeadName)
	if err != nil {
		return err
	}

	if ok {
		headName = strings.TrimSpace(headName)
		if headName != detachedHeadName {
			result, err := e.Runner.RunArgs(
				ctx, nil, "symbolic-ref", "HEAD", headName,
			)
			if err != nil {
				return NewEnvironmentError("restoring symbolic HEAD", err)
			}

			if result.ExitCode != 0 {
				return NewEnvironmentError(
					"restoring symbolic HEAD",
					fmt.Errorf("%s", result.Stderr),
				)
			}
		}
	}

	e.Log.Info("rebase aborted")

	return e.Checkpoint.RemoveAll()
}

// runLoop pops and dispatches instructions until the todo list is
// exhausted or an instruction leaves the engine in a stopped state.
func (e *Engine) runLoop(ctx context.Context) (string, StopReason, error) {
	for {
		entry, ok, err := e.popTodo(ctx)
		if err != nil {
			return "", StopNone, err
		}

		if !ok {
			final, err := e.endSequence(ctx)

			return final, StopNone, err
		}

		if err := e.Checkpoint.AppendDone(entry.Serialise()); err != nil {
			return "", StopNone, err
		}

		if entry.Action != ActionBreak {
			if err := e.Checkpoint.SetRebaseHead(entry.Commit); err != nil {
				return "", StopNone, err
			}
		}

		e.Log.WithFields(logrus.Fields{
			"action": entry.Action,
			"commit": entry.Commit,
		}).Debug("dispatching instruction")

		stop, err := e.dispatch(ctx, entry)
		if err != nil {
			return "", StopNone, err
		}

		if stop == StopNone {
			if err := e.Checkpoint.RemoveRebaseHead(); err != nil {
				return "", StopNone, err
			}

			continue
		}

		e.Log.WithField("reason", stop).Info("rebase stopped")

		return "", stop, nil
	}
}

// dispatch executes a single instruction, following §4.7's table.
func (e *Engine) dispatch(
	ctx context.Context, entry TodoEntry,
) (StopReason, error) {
	switch entry.Action {
	case ActionPick:
		return e.dispatchPick(ctx, entry)
	case ActionReword:
		return e.dispatchRewordOrEdit(ctx, entry, StopReword)
	case ActionEdit:
		return e.dispatchRewordOrEdit(ctx, entry, StopEdit)
	case ActionDrop:
		return StopNone, nil
	case ActionFixup:
		return e.dispatchFixup(ctx, entry)
	case ActionSquash:
		return e.dispatchSquash(ctx, entry)
	case ActionBreak:
		return StopBreak, nil
	default:
		// EXEC, LABEL, RESET, MERGE, UPDATE_REF are serialisable-only:
		// the core carries them through the todo/done lists without
		// executing their git-native effect (an EXEC command is not run).
		e.Log.WithField("action", entry.Action).
			Warn("instruction not executed by the core")

		return StopNone, nil
	}
}

// dispatchPick implements §4.7's PICK arm.
func (e *Engine) dispatchPick(
	ctx context.Context, entry TodoEntry,
) (StopReason, error) {
	head, err := e.revParse(ctx, "HEAD")
	if err != nil {
		return StopNone, err
	}

	parent, sole, err := e.soleParent(ctx, entry.Commit)
	if err != nil {
		return StopNone, err
	}

	if sole && parent == head {
		if err := e.resetHard(ctx, entry.Commit); err != nil {
			return StopNone, err
		}

		return StopNone, nil
	}

	outcome, err := e.Applier.Apply(ctx, entry.Commit)
	if err != nil {
		return StopNone, NewEnvironmentError("applying pick", err)
	}

	switch outcome {
	case git.ApplyNoChanges, git.ApplyEmptyDiff:
		return StopNone, nil

	case git.ApplyConflict:
		if err := e.persistConflictState(ctx, entry.Commit); err != nil {
			return StopNone, err
		}

		return StopConflict, nil
	}

	subject, description, err := e.commitMessage(ctx, entry.Commit)
	if err != nil {
		return StopNone, err
	}

	env, err := e.authorEnv(ctx, entry.Commit)
	if err != nil {
		return StopNone, err
	}

	newHash, err := e.Committer.Write(ctx, git.CommitSpec{
		Message:     subject,
		Description: description,
		Parents:     []string{head},
		Env:         env,
	})
	if err != nil {
		return StopNone, NewEnvironmentError("committing pick", err)
	}

	if err := e.updateHeadRef(ctx, newHash); err != nil {
		return StopNone, err
	}

	next, hasNext, err := e.peekTodo(ctx)
	if err != nil {
		return StopNone, err
	}

	switch {
	case hasNext && next.Action.IsFixupOrSquash():
		if err := e.Checkpoint.AppendPending(entry.Commit); err != nil {
			return StopNone, err
		}
	case newHash != entry.Commit:
		if err := e.Checkpoint.AppendRewrittenEntry(
			entry.Commit, newHash,
		); err != nil {
			return StopNone, err
		}
	}

	return StopNone, nil
}

// dispatchRewordOrEdit implements §4.7's REWORD and EDIT arms, which
// share the same apply-then-commit-with-original-message path and
// differ only in the stop reason they report.
func (e *Engine) dispatchRewordOrEdit(
	ctx context.Context, entry TodoEntry, stop StopReason,
) (StopReason, error) {
	outcome, err := e.Applier.Apply(ctx, entry.Commit)
	if err != nil {
		return StopNone, NewEnvironmentError("applying "+string(stop), err)
	}

	if outcome == git.ApplyConflict {
		if err := e.persistConflictState(ctx, entry.Commit); err != nil {
			return StopNone, err
		}

		return StopConflict, nil
	}

	if outcome != git.ApplyClean {
		// Same path as PICK: nothing changed, nothing to reword or edit.
		return StopNone, nil
	}

	head, err := e.revParse(ctx, "HEAD")
	if err != nil {
		return StopNone, err
	}

	subject, description, err := e.commitMessage(ctx, entry.Commit)
	if err != nil {
		return StopNone, err
	}

	env, err := e.authorEnv(ctx, entry.Commit)
	if err != nil {
		return StopNone, err
	}

	newHash, err := e.Committer.Write(ctx, git.CommitSpec{
		Message:     subject,
		Description: description,
		Parents:     []string{head},
		Env:         env,
	})
	if err != nil {
		return StopNone, NewEnvironmentError("committing "+string(stop), err)
	}

	if err := e.updateHeadRef(ctx, newHash); err != nil {
		return StopNone, err
	}

	if err := e.Checkpoint.Set(
		slotMessage, buildMessage(subject, description),
	); err != nil {
		return StopNone, err
	}

	if err := e.Checkpoint.Set(slotAmend, newHash); err != nil {
		return StopNone, err
	}

	return stop, nil
}

// dispatchFixup implements §4.7's FIXUP arm.
func (e *Engine) dispatchFixup(
	ctx context.Context, entry TodoEntry,
) (StopReason, error) {
	outcome, err := e.Applier.Apply(ctx, entry.Commit)
	if err != nil {
		return StopNone, NewEnvironmentError("applying fixup", err)
	}

	if outcome == git.ApplyConflict {
		head, err := e.revParse(ctx, "HEAD")
		if err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotAmend, head); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.AppendFixup(
			"fixup " + entry.Commit,
		); err != nil {
			return StopNone, err
		}

		subject, description, err := e.commitMessage(ctx, "HEAD")
		if err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(
			slotMessage, buildMessage(subject, description),
		); err != nil {
			return StopNone, err
		}

		return StopConflict, nil
	}

	next, hasNext, err := e.peekTodo(ctx)
	if err != nil {
		return StopNone, err
	}

	headSubject, headDescription, err := e.commitMessage(ctx, "HEAD")
	if err != nil {
		return StopNone, err
	}

	headMessage := buildMessage(headSubject, headDescription)

	if hasNext && next.Action.IsFixupOrSquash() {
		if err := e.Checkpoint.AppendFixup(
			"fixup " + entry.Commit,
		); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.AppendPending(entry.Commit); err != nil {
			return StopNone, err
		}

		if _, err := e.amendHead(ctx, headMessage); err != nil {
			return StopNone, err
		}

		return StopNone, nil
	}

	containsSquash, err := e.Checkpoint.CurrentFixupsContainsSquash()
	if err != nil {
		return StopNone, err
	}

	if containsSquash {
		head, err := e.revParse(ctx, "HEAD")
		if err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotAmend, head); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.AppendFixup(
			"fixup " + entry.Commit,
		); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotMessage, headMessage); err != nil {
			return StopNone, err
		}

		return StopSquash, nil
	}

	newHash, err := e.amendHead(ctx, headMessage)
	if err != nil {
		return StopNone, err
	}

	if err := e.Checkpoint.AppendPending(entry.Commit); err != nil {
		return StopNone, err
	}

	if err := e.Checkpoint.FlushPending(newHash); err != nil {
		return StopNone, err
	}

	if err := e.Checkpoint.Remove(slotCurrentFixups); err != nil {
		return StopNone, err
	}

	return StopNone, nil
}

// dispatchSquash implements §4.7's SQUASH arm.
func (e *Engine) dispatchSquash(
	ctx context.Context, entry TodoEntry,
) (StopReason, error) {
	headSubject, headDescription, err := e.commitMessage(ctx, "HEAD")
	if err != nil {
		return StopNone, err
	}

	srcSubject, srcDescription, err := e.commitMessage(ctx, entry.Commit)
	if err != nil {
		return StopNone, err
	}

	combined := buildMessage(headSubject, headDescription) + "\n\n" +
		buildMessage(srcSubject, srcDescription)

	outcome, err := e.Applier.Apply(ctx, entry.Commit)
	if err != nil {
		return StopNone, NewEnvironmentError("applying squash", err)
	}

	if outcome == git.ApplyConflict {
		head, err := e.revParse(ctx, "HEAD")
		if err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotAmend, head); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotMessage, combined); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.AppendFixup(
			"squash " + entry.Commit,
		); err != nil {
			return StopNone, err
		}

		return StopConflict, nil
	}

	next, hasNext, err := e.peekTodo(ctx)
	if err != nil {
		return StopNone, err
	}

	if !hasNext || !next.Action.IsFixupOrSquash() {
		head, err := e.revParse(ctx, "HEAD")
		if err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotAmend, head); err != nil {
			return StopNone, err
		}

		if err := e.Checkpoint.Set(slotMessage, combined); err != nil {
			return StopNone, err
		}

		return StopSquash, nil
	}

	if err := e.Checkpoint.AppendPending(entry.Commit); err != nil {
		return StopNone, err
	}

	if err := e.Checkpoint.AppendFixup("squash " + entry.Commit); err != nil {
		return StopNone, err
	}

	if _, err := e.amendHead(ctx, combined); err != nil {
		return StopNone, err
	}

	return StopNone, nil
}

// persistConflictState writes author-script and message for the
// commit that just conflicted, shared by PICK/REWORD/EDIT.
func (e *Engine) persistConflictState(
	ctx context.Context, hash string,
) error {
	authorScript, err := e.authorScriptText(ctx, hash)
	if err != nil {
		return err
	}

	if err := e.Checkpoint.Set(slotAuthorScript, authorScript); err != nil {
		return err
	}

	subject, description, err := e.commitMessage(ctx, hash)
	if err != nil {
		return err
	}

	return e.Checkpoint.Set(slotMessage, buildMessage(subject, description))
}

// finishStoppedCommit implements §4.7's resume logic: it completes
// the commit that was left pending by the previous stop, using the
// caller's message override when supplied and the `message` slot
// otherwise.
func (e *Engine) finishStoppedCommit(
	ctx context.Context, lastEntry TodoEntry, message, description *string,
) error {
	amendHash, hasAmend, err := e.Checkpoint.Get(slotAmend)
	if err != nil {
		return err
	}

	amendHash = strings.TrimSpace(amendHash)

	slotContent, _, err := e.Checkpoint.Get(slotMessage)
	if err != nil {
		return err
	}

	var subject, desc string

	switch {
	case message != nil:
		subject = *message
		if description != nil {
			desc = *description
		}
	default:
		subject, desc = splitMessage(slotContent)
	}

	var newHash string

	switch {
	case hasAmend && lastEntry.Action == ActionEdit:
		clean, err := e.indexClean(ctx)
		if err != nil {
			return err
		}

		if clean {
			newHash = amendHash
		} else {
			newHash, err = e.amendHead(ctx, buildMessage(subject, desc))
			if err != nil {
				return err
			}
		}

	case hasAmend:
		newHash, err = e.amendHead(ctx, buildMessage(subject, desc))
		if err != nil {
			return err
		}

	default:
		head, err := e.revParse(ctx, "HEAD")
		if err != nil {
			return err
		}

		env, err := e.authorEnvFromScript(ctx)
		if err != nil {
			return err
		}

		newHash, err = e.Committer.Write(ctx, git.CommitSpec{
			Message:     subject,
			Description: desc,
			Parents:     []string{head},
			Env:         env,
		})
		if err != nil {
			return NewEnvironmentError("committing resumed instruction", err)
		}

		if err := e.updateHeadRef(ctx, newHash); err != nil {
			return err
		}
	}

	if err := e.Checkpoint.Remove(slotCurrentFixups); err != nil {
		return err
	}

	next, hasNext, err := e.peekTodo(ctx)
	if err != nil {
		return err
	}

	if hasNext && next.Action.IsFixupOrSquash() {
		return e.Checkpoint.AppendPending(lastEntry.Commit)
	}

	if err := e.Checkpoint.FlushPending(newHash); err != nil {
		return err
	}

	return e.Checkpoint.AppendRewrittenEntry(lastEntry.Commit, newHash)
}

// endSequence moves the original branch ref to the new head,
// re-attaches the symbolic head, and deletes the rebase directory.
func (e *Engine) endSequence(ctx context.Context) (string, error) {
	newHead, err := e.revParse(ctx, "HEAD")
	if err != nil {
		return "", err
	}

	headName, ok, err := e.Checkpoint.Get(slotHeadName)
	if err != nil {
		return "", err
	}

	if ok {
		headName = strings.TrimSpace(headName)
		if headName != detachedHeadName {
			result, err := e.Runner.RunArgs(
				ctx, nil, "update-ref", headName, newHead,
			)
			if err != nil {
				return "", NewEnvironmentError("updating branch ref", err)
			}

			if result.ExitCode != 0 {
				return "", NewEnvironmentError(
					"updating branch ref", fmt.Errorf("%s", result.Stderr),
				)
			}

			result, err = e.Runner.RunArgs(
				ctx, nil, "symbolic-ref", "HEAD", headName,
			)
			if err != nil {
				return "", NewEnvironmentError("restoring symbolic HEAD", err)
			}

			if result.ExitCode != 0 {
				return "", NewEnvironmentError(
					"restoring symbolic HEAD",
					fmt.Errorf("%s", result.Stderr),
				)
			}
		}
	}

	if err := e.Checkpoint.RemoveAll(); err != nil {
		return "", err
	}

	e.Log.WithField("head", newHead).Info("rebase completed")

	return newHead, nil
}

// amendHead builds a new commit replacing the current head: same
// parent as the head's own parent, the current index tree, the given
// full message, and the head's own authorship — the "amend the head"
// operation named throughout §4.7's FIXUP/SQUASH arms.
func (e *Engine) amendHead(
	ctx context.Context, fullMessage string,
) (string, error) {
	parent, err := e.revParse(ctx, "HEAD^")
	if err != nil {
		return "", err
	}

	env, err := e.authorEnv(ctx, "HEAD")
	if err != nil {
		return "", err
	}

	newHash, err := e.Committer.Write(ctx, git.CommitSpec{
		Message: fullMessage,
		Parents: []string{parent},
		Env:     env,
	})
	if err != nil {
		return "", NewEnvironmentError("amending head", err)
	}

	if err := e.updateHeadRef(ctx, newHash); err != nil {
		return "", err
	}

	return newHash, nil
}

// popTodo removes and returns the first instruction from the todo
// slot, rewriting the slot with the remaining lines.
func (e *Engine) popTodo(ctx context.Context) (TodoEntry, bool, error) {
	content, ok, err := e.Checkpoint.Get(slotTodo)
	if err != nil || !ok {
		return TodoEntry{}, false, err
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return TodoEntry{}, false, nil
	}

	entry, err := ParseTodoLine(lines[0])
	if err != nil {
		return TodoEntry{}, false, NewEnvironmentError("parsing todo list", err)
	}

	rest := strings.Join(lines[1:], "\n")
	if rest != "" {
		rest += "\n"
	}

	if err := e.Checkpoint.Set(slotTodo, rest); err != nil {
		return TodoEntry{}, false, err
	}

	return entry, true, nil
}

// peekTodo returns the first instruction from the todo slot without
// consuming it, used by PICK/FIXUP/SQUASH to decide chain behaviour
// based on what follows them.
func (e *Engine) peekTodo(ctx context.Context) (TodoEntry, bool, error) {
	content, ok, err := e.Checkpoint.Get(slotTodo)
	if err != nil || !ok {
		return TodoEntry{}, false, err
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return TodoEntry{}, false, nil
	}

	entry, err := ParseTodoLine(lines[0])
	if err != nil {
		return TodoEntry{}, false, NewEnvironmentError("parsing todo list", err)
	}

	return entry, true, nil
}

func splitLines(content string) []string {
	var out []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		out = append(out, line)
	}

	return out
}

func lastNonEmptyLine(content string) string {
	lines := splitLines(content)
	if len(lines) == 0 {
		return ""
	}

	return lines[len(lines)-1]
}

// buildMessage joins a subject and optional description the way git
// itself separates a commit's subject from its body.
func buildMessage(subject, description string) string {
	if description == "" {
		return subject
	}

	return subject + "\n\n" + description
}

// splitMessage is buildMessage's inverse.
func splitMessage(full string) (string, string) {
	parts := strings.SplitN(full, "\n\n", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}

	return parts[0], parts[1]
}

// commitMessage reads ref's subject and body, NUL-separated so
// neither field's content can be mistaken for the separator.
func (e *Engine) commitMessage(
	ctx context.Context, ref string,
) (string, string, error) {
	result, err := e.Runner.RunArgs(
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

	parts := strings.SplitN(
		strings.TrimRight(result.Stdout, "\n"), "\x00", 2,
	)

	subject := parts[0]

	description := ""
	if len(parts) > 1 {
		description = strings.TrimRight(parts[1], "\n")
	}

	return subject, description, nil
}

// authorEnv reads ref's authorship as a GIT_AUTHOR_* environment
// override list suitable for the commit-writer primitive.
func (e *Engine) authorEnv(
	ctx context.Context, ref string,
) ([]string, error) {
	name, email, date, err := e.authorParts(ctx, ref)
	if err != nil {
		return nil, err
	}

	return []string{
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_AUTHOR_DATE=" + date,
	}, nil
}

// authorScriptText renders ref's authorship as an author-script slot.
func (e *Engine) authorScriptText(
	ctx context.Context, ref string,
) (string, error) {
	name, email, date, err := e.authorParts(ctx, ref)
	if err != nil {
		return "", err
	}

	return WriteAuthorScript(name, email, date), nil
}

// authorEnvFromScript reads the author-script slot back into an
// environment override list for finishing a stopped commit.
func (e *Engine) authorEnvFromScript(ctx context.Context) ([]string, error) {
	content, ok, err := e.Checkpoint.Get(slotAuthorScript)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, NewMissingControlFileError(slotAuthorScript)
	}

	return ParseAuthorScript(content), nil
}

func (e *Engine) authorParts(
	ctx context.Context, ref string,
) (name, email, date string, err error) {
	result, err := e.Runner.RunArgs(
		ctx, nil, "log", "-1", "--format=%an%x00%ae%x00%ad", "--date=raw", ref,
	)
	if err != nil {
		return "", "", "", NewEnvironmentError("reading authorship", err)
	}

	if result.ExitCode != 0 {
		return "", "", "", NewEnvironmentError(
			"reading authorship", fmt.Errorf("%s", result.Stderr),
		)
	}

	parts := strings.SplitN(strings.TrimRight(result.Stdout, "\n"), "\x00", 3)
	if len(parts) != 3 {
		return "", "", "", NewEnvironmentError(
			"reading authorship",
			fmt.Errorf("unexpected log output: %q", result.Stdout),
		)
	}

	return parts[0], parts[1], parts[2], nil
}

// indexClean reports whether the index has no staged changes relative
// to HEAD.
func (e *Engine) indexClean(ctx context.Context) (bool, error) {
	result, err := e.Runner.RunArgs(ctx, nil, "diff", "--cached", "--quiet")
	if err != nil {
		return false, NewEnvironmentError("checking index", err)
	}

	return result.ExitCode == 0, nil
}

// isWorktreeClean reports whether any tracked file has staged or
// unstaged changes; untracked files do not block starting a rebase.
func (e *Engine) isWorktreeClean(ctx context.Context) (bool, error) {
	result, err := e.Runner.RunArgs(ctx, nil, "status", "--porcelain")
	if err != nil {
		return false, NewEnvironmentError("checking worktree status", err)
	}

	if result.ExitCode != 0 {
		return false, NewEnvironmentError(
			"checking worktree status", fmt.Errorf("%s", result.Stderr),
		)
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		if line == "" || strings.HasPrefix(line, "??") {
			continue
		}

		return false, nil
	}

	return true, nil
}

// revParse resolves ref to a commit hash.
func (e *Engine) revParse(ctx context.Context, ref string) (string, error) {
	result, err := e.Runner.RunArgs(ctx, nil, "rev-parse", ref)
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

// soleParent reports hash's single parent, if it has exactly one.
func (e *Engine) soleParent(
	ctx context.Context, hash string,
) (string, bool, error) {
	result, err := e.Runner.RunArgs(
		ctx, nil, "rev-list", "--parents", "-n", "1", hash,
	)
	if err != nil {
		return "", false, NewEnvironmentError("listing parents", err)
	}

	if result.ExitCode != 0 {
		return "", false, NewEnvironmentError(
			"listing parents", fmt.Errorf("%s", result.Stderr),
		)
	}

	fields := strings.Fields(strings.TrimSpace(result.Stdout))
	if len(fields) != 2 {
		return "", false, nil
	}

	return fields[1], true, nil
}

// resetHard moves HEAD and updates the index and working tree to hash.
func (e *Engine) resetHard(ctx context.Context, hash string) error {
	result, err := e.Runner.RunArgs(ctx, nil, "reset", "--hard", hash)
	if err != nil {
		return NewEnvironmentError("reset --hard", err)
	}

	if result.ExitCode != 0 {
		return NewEnvironmentError(
			"reset --hard", fmt.Errorf("%s", result.Stderr),
		)
	}

	return nil
}

// updateHeadRef moves a detached HEAD to hash without touching the
// index or working tree, which already match hash's tree by the time
// this is called.
func (e *Engine) updateHeadRef(ctx context.Context, hash string) error {
	result, err := e.Runner.RunArgs(
		ctx, nil, "update-ref", "--no-deref", "HEAD", hash,
	)
	if err != nil {
		return NewEnvironmentError("moving HEAD", err)
	}

	if result.ExitCode != 0 {
		return NewEnvironmentError(
			"moving HEAD", fmt.Errorf("%s", result.Stderr),
		)
	}

	return nil
}

// checkoutDetach detaches HEAD onto hash, updating the index and
// working tree to match.
func (e *Engine) checkoutDetach(ctx context.Context, hash string) error {
	result, err := e.Runner.RunArgs(
		ctx, nil, "checkout", "--detach", "--quiet", hash,
	)
	if err != nil {
		return NewEnvironmentError("detaching HEAD", err)
	}

	if result.ExitCode != 0 {
		return NewEnvironmentError(
			"detaching HEAD", fmt.Errorf("%s", result.Stderr),
		)
	}

	return nil
}

// currentBranchRef returns the full ref name HEAD is attached to, or
// detached=true if HEAD is not attached to a branch.
func (e *Engine) currentBranchRef(
	ctx context.Context,
) (string, bool, error) {
	result, err := e.Runner.RunArgs(ctx, nil, "symbolic-ref", "-q", "HEAD")
	if err != nil {
		return "", false, NewEnvironmentError("reading symbolic HEAD", err)
	}

	if result.ExitCode != 0 {
		return "", true, nil
	}

	return strings.TrimSpace(result.Stdout), false, nil
}

// mergeBase resolves the merge base of a and b.
func (e *Engine) mergeBase(ctx context.Context, a, b string) (string, error) {
	result, err := e.Runner.RunArgs(ctx, nil, "merge-base", a, b)
	if err != nil {
		return "", NewEnvironmentError("merge-base", err)
	}

	if result.ExitCode != 0 {
		return "", NewEnvironmentError(
			"merge-base", fmt.Errorf("%s", result.Stderr),
		)
	}

	return strings.TrimSpace(result.Stdout), nil
}

// logRange enumerates commits in (base, head] in chronological order,
// mapped to PICK instructions.
func (e *Engine) logRange(
	ctx context.Context, base, head string,
) ([]TodoEntry, error) {
	result, err := e.Runner.RunArgs(
		ctx, nil,
		"log", "--format=%H%x00%s", "--reverse", base+".."+head,
	)
	if err != nil {
		return nil, NewEnvironmentError("listing range", err)
	}

	if result.ExitCode != 0 {
		return nil, NewEnvironmentError(
			"listing range", fmt.Errorf("%s", result.Stderr),
		)
	}

	output := strings.TrimSpace(result.Stdout)
	if output == "" {
		return nil, nil
	}

	var entries []TodoEntry

	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, "\x00", 2)
		if len(parts) != 2 {
			continue
		}

		entries = append(entries, TodoEntry{
			Action:  ActionPick,
			Commit:  parts[0],
			Subject: parts[1],
		})
	}

	return entries, nil
}
