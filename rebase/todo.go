package rebase

import (
	"bufio"
	"fmt"
	"strings"
)

// TodoEntry represents a single entry in a git rebase todo file. Hash
// and Subject are both empty for ActionBreak. For ActionExec, Subject
// is unused and Command carries the shell command line.
type TodoEntry struct {
	// Action is the rebase action (pick, squash, etc.).
	Action ActionType

	// Commit is the commit hash.
	Commit string

	// Subject is the commit subject line.
	Subject string

	// Command is the shell command line, set only for ActionExec.
	Command string
}

// ParseTodoFile parses a git rebase todo file into entries. Ignores
// comments (lines starting with #) and empty lines. An unrecognised
// leading token is silently skipped, matching the reference tool's
// tolerance of stray blank/comment-only lines; a malformed non-comment
// line is reported by ParseTodoLine for callers that need a hard
// failure.
func ParseTodoFile(content string) []TodoEntry {
	var entries []TodoEntry

	scanner := bufio.NewScanner(strings.NewReader(content))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, ok := parseTodoLine(line)
		if ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

// ParseTodoLine parses one non-blank, non-comment todo line, failing
// on an unrecognised leading token rather than silently skipping it.
// Trailing whitespace is tolerated.
func ParseTodoLine(line string) (TodoEntry, error) {
	line = strings.TrimRight(strings.TrimSpace(line), " \t")

	fields := strings.SplitN(line, " ", 2)
	token := strings.ToLower(fields[0])

	action := expandShortAction(token)
	if !action.Valid() {
		return TodoEntry{}, fmt.Errorf(
			"todo: unrecognised instruction token %q", fields[0],
		)
	}

	rest := ""
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch action {
	case ActionBreak:
		return TodoEntry{Action: ActionBreak}, nil
	case ActionExec:
		return TodoEntry{Action: ActionExec, Command: rest}, nil
	default:
		commit, subject := rest, ""
		if idx := strings.IndexByte(rest, ' '); idx >= 0 {
			commit, subject = rest[:idx], strings.TrimSpace(rest[idx+1:])
		}

		return TodoEntry{Action: action, Commit: commit, Subject: subject}, nil
	}
}

// parseTodoLine is the entry-skipping counterpart of ParseTodoLine used
// by ParseTodoFile.
func parseTodoLine(line string) (TodoEntry, bool) {
	entry, err := ParseTodoLine(line)
	if err != nil {
		return TodoEntry{}, false
	}

	return entry, true
}

// Serialise renders e back to a todo-list line using the long-form
// token, so that ParseTodoLine(e.Serialise()) reproduces e for any e
// that ParseTodoLine can already parse.
func (e TodoEntry) Serialise() string {
	switch e.Action {
	case ActionBreak:
		return "break"
	case ActionExec:
		return "exec " + e.Command
	default:
		if e.Subject == "" {
			return fmt.Sprintf("%s %s", e.Action, e.Commit)
		}

		return fmt.Sprintf("%s %s %s", e.Action, e.Commit, e.Subject)
	}
}

// expandShortAction expands single-letter action abbreviations.
func expandShortAction(s string) ActionType {
	switch s {
	case "p", "pick":
		return ActionPick
	case "r", "reword":
		return ActionReword
	case "e", "edit":
		return ActionEdit
	case "s", "squash":
		return ActionSquash
	case "f", "fixup":
		return ActionFixup
	case "d", "drop":
		return ActionDrop
	case "b", "break":
		return ActionBreak
	case "x", "exec":
		return ActionExec
	case "l", "label":
		return ActionLabel
	case "t", "reset":
		return ActionReset
	case "m", "merge":
		return ActionMerge
	case "u", "update_ref":
		return ActionUpdateRef
	default:
		return ActionType(s)
	}
}

// ToTodoFile generates a git rebase todo file from the spec.
// The output format matches what git expects.
func (s *Spec) ToTodoFile() string {
	var sb strings.Builder

	for _, action := range s.Actions {
		switch action.Action {
		case ActionExec:
			fmt.Fprintf(&sb, "exec %s\n", action.Command)
		case ActionBreak:
			sb.WriteString("break\n")
		default:
			fmt.Fprintf(&sb, "%s %s\n", action.Action, action.Commit)
		}
	}

	return sb.String()
}

// ToTodoFileWithMessages generates a todo file from the spec. Action
// messages are not written into it: each line is "<action> <commit>",
// "exec <command>" or "break", the same as ToTodoFile.
func (s *Spec) ToTodoFileWithMessages() string {
	var sb strings.Builder

	for _, action := range s.Actions {
		switch action.Action {
		case ActionExec:
			fmt.Fprintf(&sb, "exec %s\n", action.Command)
		case ActionBreak:
			sb.WriteString("break\n")
		default:
			// Standard output for actions without custom messages.
			fmt.Fprintf(&sb, "%s %s\n", action.Action, action.Commit)
		}
	}

	return sb.String()
}

// ValidateAgainstCommits checks that the spec actions reference valid commits
// from the original todo file.
func (s *Spec) ValidateAgainstCommits(original []TodoEntry) error {
	// Build a set of valid commits from the original.
	validCommits := make(map[string]bool)

	for _, entry := range original {
		validCommits[entry.Commit] = true

		// Also allow short prefixes.
		if len(entry.Commit) >= 7 {
			validCommits[entry.Commit[:7]] = true
		}
	}

	// Check each action.
	for i, action := range s.Actions {
		if action.Action == ActionExec {
			continue
		}

		// Check if commit matches any valid commit.
		found := false

		for validCommit := range validCommits {
			if strings.HasPrefix(validCommit, action.Commit) ||
				strings.HasPrefix(action.Commit, validCommit) {
				found = true

				break
			}
		}

		if !found {
			return fmt.Errorf(
				"action %d: commit %q not found in rebase range",
				i+1, action.Commit,
			)
		}
	}

	return nil
}

// ReorderToMatchSpec reorders the original todo entries to match the spec.
// This preserves full commit hashes and subjects from the original.
func ReorderToMatchSpec(spec *Spec, original []TodoEntry) ([]TodoEntry, error) {
	// Build a map of commits to original entries.
	commitMap := make(map[string]TodoEntry)

	for _, entry := range original {
		commitMap[entry.Commit] = entry

		// Also index by short hash.
		if len(entry.Commit) >= 7 {
			commitMap[entry.Commit[:7]] = entry
		}
	}

	var result []TodoEntry

	for _, action := range spec.Actions {
		if action.Action == ActionExec {
			result = append(result, TodoEntry{
				Action:  ActionExec,
				Command: action.Command,
			})

			continue
		}

		if action.Action == ActionBreak {
			result = append(result, TodoEntry{Action: ActionBreak})

			continue
		}

		// Find the original entry.
		entry, ok := findCommit(commitMap, action.Commit)
		if !ok {
			return nil, fmt.Errorf("commit %q not found", action.Commit)
		}

		// Use the spec's action but original's commit and subject.
		result = append(result, TodoEntry{
			Action:  action.Action,
			Commit:  entry.Commit,
			Subject: entry.Subject,
		})
	}

	return result, nil
}

// findCommit looks up a commit in the map, allowing prefix matching.
func findCommit(m map[string]TodoEntry, commit string) (TodoEntry, bool) {
	// Try exact match first.
	if entry, ok := m[commit]; ok {
		return entry, true
	}

	// Try prefix matching.
	for key, entry := range m {
		if strings.HasPrefix(key, commit) || strings.HasPrefix(commit, key) {
			return entry, true
		}
	}

	return TodoEntry{}, false
}

// GenerateTodoFromEntries generates a todo file from entries.
func GenerateTodoFromEntries(entries []TodoEntry) string {
	var sb strings.Builder

	for _, entry := range entries {
		sb.WriteString(entry.Serialise())
		sb.WriteByte('\n')
	}

	return sb.String()
}
