package rebase

import "fmt"

// StopReason describes why the engine's main loop returned control to
// the caller without finishing the instruction list. Stop reasons are
// expected outcomes of a well-formed rebase, never engine bugs, and are
// always returned rather than raised as errors.
type StopReason string

const (
	// StopNone indicates the engine did not stop; the rebase ran to
	// completion.
	StopNone StopReason = ""

	// StopConflict indicates C5 left conflict markers and unresolved
	// index entries.
	StopConflict StopReason = "CONFLICT"

	// StopBreak indicates a BREAK instruction was reached.
	StopBreak StopReason = "BREAK"

	// StopReword indicates a REWORD instruction applied cleanly and is
	// waiting for the caller to supply the new message.
	StopReword StopReason = "REWORD"

	// StopEdit indicates an EDIT instruction applied cleanly and is
	// waiting for the caller to amend the working tree.
	StopEdit StopReason = "EDIT"

	// StopSquash indicates an accumulated squash/fixup chain is waiting
	// for the caller to confirm the combined message.
	StopSquash StopReason = "SQUASH"
)

// ErrorKind tags an *Error with the taxonomy category it belongs to.
type ErrorKind string

const (
	// ErrKindNoRebaseInProgress means a continue/abort was requested
	// with no rebase checkpoint on disk.
	ErrKindNoRebaseInProgress ErrorKind = "NO_REBASE_IN_PROGRESS"

	// ErrKindDirtyWorktree means an operation that requires a clean
	// index was attempted while changes were staged or unstaged.
	ErrKindDirtyWorktree ErrorKind = "DIRTY_WORKTREE"

	// ErrKindEnvironment means the external tool failed to start, exited
	// non-zero on a command whose output was required, or produced
	// output the caller could not parse.
	ErrKindEnvironment ErrorKind = "ENVIRONMENT_FAILURE"

	// ErrKindMissingControlFile means an invariant-required control
	// file was absent on disk.
	ErrKindMissingControlFile ErrorKind = "MISSING_CONTROL_FILE"

	// ErrKindRebaseInProgress means a rebase or interactive_rebase was
	// requested while a checkpoint already existed on disk.
	ErrKindRebaseInProgress ErrorKind = "REBASE_IN_PROGRESS"
)

// Error is the error type returned for precondition violations and
// environment failures. Algorithmic outcomes (CONFLICT, BREAK, REWORD,
// EDIT, SQUASH) are never wrapped in Error; they are returned as a
// StopReason alongside a nil error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrNoRebaseInProgress is returned by Continue/Abort when no rebase
// checkpoint exists on disk.
var ErrNoRebaseInProgress = &Error{
	Kind:    ErrKindNoRebaseInProgress,
	Message: "no rebase in progress",
}

// ErrRebaseInProgress is returned by Rebase/InteractiveRebase when a
// checkpoint already exists on disk.
var ErrRebaseInProgress = &Error{
	Kind:    ErrKindRebaseInProgress,
	Message: "a rebase is already in progress",
}

// NewDirtyWorktreeError reports tracked changes staged or unstaged
// that would be clobbered by starting a rebase.
func NewDirtyWorktreeError() *Error {
	return &Error{
		Kind:    ErrKindDirtyWorktree,
		Message: "worktree has staged or unstaged changes",
	}
}

// NewEnvironmentError wraps an external-tool failure (process could not
// start, or exited non-zero on a command whose output was required).
func NewEnvironmentError(message string, cause error) *Error {
	return &Error{Kind: ErrKindEnvironment, Message: message, Cause: cause}
}

// NewMissingControlFileError reports an invariant-required control
// file that was absent on disk.
func NewMissingControlFileError(slot string) *Error {
	return &Error{
		Kind:    ErrKindMissingControlFile,
		Message: fmt.Sprintf("missing control file %q", slot),
	}
}
