package rebase

import (
	"os"
	"path/filepath"
	"strings"
)

// slot file names under <repo>/<git-dir>/rebase-merge/.
const (
	slotHeadName         = "head-name"
	slotOnto             = "onto"
	slotOrigHead         = "orig-head"
	slotTodo             = "git-rebase-todo"
	slotDone             = "done"
	slotAuthorScript     = "author-script"
	slotMessage          = "message"
	slotAmend            = "amend"
	slotCurrentFixups    = "current-fixups"
	slotRewrittenPending = "rewritten-pending"
	slotRewrittenList    = "rewritten-list"
)

// rebaseHeadFile sits next to the rebase-merge directory, in the
// git-dir root rather than inside it.
const rebaseHeadFile = "REBASE_HEAD"

// Checkpoint reads and writes the control files that encode a
// resumable interactive rebase. All slot contents are UTF-8 text with
// LF line terminators; an absent file is distinguishable from an empty
// one (Get returns ok=false for the former).
type Checkpoint struct {
	// GitDir is the repository's git directory (the result of
	// `git rev-parse --git-dir`, made absolute).
	GitDir string
}

// NewCheckpoint creates a Checkpoint rooted at gitDir.
func NewCheckpoint(gitDir string) *Checkpoint {
	return &Checkpoint{GitDir: gitDir}
}

func (c *Checkpoint) dir() string {
	return filepath.Join(c.GitDir, "rebase-merge")
}

func (c *Checkpoint) slotPath(slot string) string {
	return filepath.Join(c.dir(), slot)
}

// Init creates the rebase-merge directory. It is not atomic with
// respect to the filesystem as a whole (§5 notes the control directory
// is not transactional), but each subsequent write is.
func (c *Checkpoint) Init() error {
	return os.MkdirAll(c.dir(), 0o755)
}

// Exists reports whether a rebase is in progress, defined as the
// existence of git-rebase-todo.
func (c *Checkpoint) Exists() bool {
	_, err := os.Stat(c.slotPath(slotTodo))

	return err == nil
}

// Get reads a named slot. ok is false if the file does not exist.
func (c *Checkpoint) Get(slot string) (content string, ok bool, err error) {
	data, err := os.ReadFile(c.slotPath(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, err
	}

	return string(data), true, nil
}

// Set writes a named slot atomically: the content is written to a
// temp file in the same directory, then renamed over the target, so a
// concurrent reader never observes a partial write.
func (c *Checkpoint) Set(slot, content string) error {
	if err := c.Init(); err != nil {
		return err
	}

	path := c.slotPath(slot)

	tmp, err := os.CreateTemp(c.dir(), ".tmp-"+slot+"-")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return err
	}

	return os.Rename(tmpPath, path)
}

// Remove deletes a named slot. Removing an already-absent slot is not
// an error.
func (c *Checkpoint) Remove(slot string) error {
	err := os.Remove(c.slotPath(slot))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Append adds a line (with a trailing LF) to a named slot, creating it
// if absent.
func (c *Checkpoint) Append(slot, line string) error {
	existing, _, err := c.Get(slot)
	if err != nil {
		return err
	}

	return c.Set(slot, existing+line+"\n")
}

// rebaseHeadPath returns the REBASE_HEAD path, which lives in the
// git-dir root rather than inside rebase-merge/.
func (c *Checkpoint) rebaseHeadPath() string {
	return filepath.Join(c.GitDir, rebaseHeadFile)
}

// SetRebaseHead writes REBASE_HEAD, present only while one instruction
// is being executed.
func (c *Checkpoint) SetRebaseHead(hash string) error {
	tmp, err := os.CreateTemp(c.GitDir, ".tmp-REBASE_HEAD-")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(hash + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return err
	}

	return os.Rename(tmpPath, c.rebaseHeadPath())
}

// RebaseHead reads REBASE_HEAD, the hash of the instruction currently
// being applied. ok is false between instructions or when no rebase is
// in progress.
func (c *Checkpoint) RebaseHead() (hash string, ok bool, err error) {
	data, err := os.ReadFile(c.rebaseHeadPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, err
	}

	return strings.TrimSpace(string(data)), true, nil
}

// RemoveRebaseHead removes REBASE_HEAD. Not an error if already absent.
func (c *Checkpoint) RemoveRebaseHead() error {
	err := os.Remove(c.rebaseHeadPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// FlushPending moves every line of rewritten-pending into
// rewritten-list, each mapped to newHash, then removes the pending
// file.
func (c *Checkpoint) FlushPending(newHash string) error {
	pending, ok, err := c.Get(slotRewrittenPending)
	if err != nil {
		return err
	}

	if !ok || strings.TrimSpace(pending) == "" {
		return c.Remove(slotRewrittenPending)
	}

	for _, line := range strings.Split(strings.TrimRight(pending, "\n"), "\n") {
		old := strings.TrimSpace(line)
		if old == "" {
			continue
		}

		if err := c.AppendRewrittenEntry(old, newHash); err != nil {
			return err
		}
	}

	return c.Remove(slotRewrittenPending)
}

// AppendRewrittenEntry appends a single "<old> <new>" line to
// rewritten-list.
func (c *Checkpoint) AppendRewrittenEntry(oldHash, newHash string) error {
	return c.Append(slotRewrittenList, oldHash+" "+newHash)
}

// AppendPending appends a source hash awaiting a final rewrite target
// to rewritten-pending.
func (c *Checkpoint) AppendPending(hash string) error {
	return c.Append(slotRewrittenPending, hash)
}

// AppendDone appends a serialised instruction to the done list.
func (c *Checkpoint) AppendDone(line string) error {
	return c.Append(slotDone, line)
}

// AppendFixup appends a "squash <hash>"/"fixup <hash>" line to
// current-fixups.
func (c *Checkpoint) AppendFixup(line string) error {
	return c.Append(slotCurrentFixups, line)
}

// CurrentFixupsContainsSquash reports whether current-fixups already
// has a squash entry, the predicate FIXUP's dispatch checks to decide
// whether an accumulated chain needs to stop with StopSquash.
func (c *Checkpoint) CurrentFixupsContainsSquash() (bool, error) {
	content, ok, err := c.Get(slotCurrentFixups)
	if err != nil || !ok {
		return false, err
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "squash ") {
			return true, nil
		}
	}

	return false, nil
}

// RemoveAll deletes the whole rebase-merge directory and REBASE_HEAD.
// Recursive and idempotent: removing an already-absent directory is
// not an error.
func (c *Checkpoint) RemoveAll() error {
	if err := os.RemoveAll(c.dir()); err != nil {
		return err
	}

	return c.RemoveRebaseHead()
}

// WriteAuthorScript writes the three-line author-script slot.
func WriteAuthorScript(name, email, date string) string {
	return "GIT_AUTHOR_NAME=" + name + "\n" +
		"GIT_AUTHOR_EMAIL=" + email + "\n" +
		"GIT_AUTHOR_DATE=" + date + "\n"
}

// ParseAuthorScript parses the author-script slot back into its three
// environment overrides, suitable for C6's env list.
func ParseAuthorScript(content string) []string {
	var env []string

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if line == "" {
			continue
		}

		env = append(env, line)
	}

	return env
}
