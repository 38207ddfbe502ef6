package diff

import (
	"fmt"
	"iter"
	"strings"
)

// Kind distinguishes a normal two-sided diff from a combined (multi-parent)
// diff such as the kind git emits for merge commits with `-c`/`--cc`.
type Kind int

const (
	// KindNormal is an ordinary single-parent diff.
	KindNormal Kind = iota

	// KindCombined is a multi-parent combined diff, one pre-image range
	// per parent.
	KindCombined
)

// String returns a human-readable name for the diff kind.
func (k Kind) String() string {
	if k == KindCombined {
		return "combined"
	}

	return "normal"
}

// Status describes how a file changed between the pre- and post-image.
type Status int

const (
	// StatusUnknown is the status before any header line has narrowed it
	// down. A file diff should not remain here once parsing completes,
	// unless the header block carried no recognizable transition.
	StatusUnknown Status = iota
	StatusNew
	StatusDeleted
	StatusModified
	StatusRenamed
	StatusRenamedModified
	StatusCopied
	StatusCopiedModified
	StatusTypeChanged
	StatusTypeChangedToSymlink
	StatusBinaryChanged
)

// String returns the status's wire-like name.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusDeleted:
		return "deleted"
	case StatusModified:
		return "modified"
	case StatusRenamed:
		return "renamed"
	case StatusRenamedModified:
		return "renamed+modified"
	case StatusCopied:
		return "copied"
	case StatusCopiedModified:
		return "copied+modified"
	case StatusTypeChanged:
		return "type-changed"
	case StatusTypeChangedToSymlink:
		return "type-changed-to-symlink"
	case StatusBinaryChanged:
		return "binary-changed"
	default:
		return "unknown"
	}
}

// FileDiff represents all changes to a single file as recorded by one
// `diff ...` block of unified-diff text.
type FileDiff struct {
	// Kind distinguishes normal from combined diffs.
	Kind Kind

	// Status is the derived change status for this file.
	Status Status

	// OldName is the pre-image path (with a/ prefix stripped). "/dev/null"
	// for new files.
	OldName string

	// NewName is the post-image path (with b/ prefix stripped).
	// "/dev/null" for deleted files.
	NewName string

	// PreImageIDs holds the blob identifiers from the "index" line. One
	// entry for a normal diff, one per parent for a combined diff.
	PreImageIDs []string

	// PostImageID is the post-image blob identifier from the "index"
	// line.
	PostImageID string

	// OldMode and NewMode are the file mode strings (e.g. "100644"),
	// empty if never observed.
	OldMode string
	NewMode string

	// Similarity is the similarity-index percentage from a rename or
	// copy header, -1 if not present.
	Similarity int

	// Hunks contains all hunks in this file diff, in order.
	Hunks []*Hunk
}

// newFileDiff returns a FileDiff with the zero-value sentinels the parser
// relies on: unknown status, no similarity reported.
func newFileDiff() *FileDiff {
	return &FileDiff{
		Status:     StatusUnknown,
		Similarity: -1,
	}
}

// Path returns the canonical file path: OldName for deletions, NewName
// otherwise.
func (f *FileDiff) Path() string {
	if f.Status == StatusDeleted {
		return f.OldName
	}

	return f.NewName
}

// IsNew reports whether this file was newly added.
func (f *FileDiff) IsNew() bool { return f.Status == StatusNew }

// IsDeleted reports whether this file was removed.
func (f *FileDiff) IsDeleted() bool { return f.Status == StatusDeleted }

// IsRenamed reports whether this file was renamed, with or without content
// changes.
func (f *FileDiff) IsRenamed() bool {
	return f.Status == StatusRenamed || f.Status == StatusRenamedModified
}

// IsCopied reports whether this file was copied from another, with or
// without content changes.
func (f *FileDiff) IsCopied() bool {
	return f.Status == StatusCopied || f.Status == StatusCopiedModified
}

// IsBinary reports whether this diff carries no textual hunk content.
func (f *FileDiff) IsBinary() bool { return f.Status == StatusBinaryChanged }

// AllHunks returns an iterator over all hunks with their indices.
func (f *FileDiff) AllHunks() iter.Seq2[int, *Hunk] {
	return func(yield func(int, *Hunk) bool) {
		for i, hunk := range f.Hunks {
			if !yield(i, hunk) {
				return
			}
		}
	}
}

// AllLines returns an iterator over all lines across all hunks. Yields
// (hunk index, line) pairs.
func (f *FileDiff) AllLines() iter.Seq2[int, DiffLine] {
	return func(yield func(int, DiffLine) bool) {
		for i, hunk := range f.Hunks {
			for _, line := range hunk.Lines {
				if !yield(i, line) {
					return
				}
			}
		}
	}
}

// AllChanges returns an iterator over only changed lines across all hunks.
func (f *FileDiff) AllChanges() iter.Seq2[int, DiffLine] {
	return func(yield func(int, DiffLine) bool) {
		for i, hunk := range f.Hunks {
			for _, line := range hunk.Lines {
				if line.Op == OpContext {
					continue
				}
				if !yield(i, line) {
					return
				}
			}
		}
	}
}

// Stats returns total addition and deletion counts across all hunks.
func (f *FileDiff) Stats() (added, deleted int) {
	for _, hunk := range f.Hunks {
		a, d := hunk.Stats()
		added += a
		deleted += d
	}

	return added, deleted
}

// HunkContainingLine finds the hunk containing a change at the given line.
// Returns nil if no hunk contains a change at that line.
func (f *FileDiff) HunkContainingLine(lineNum int) *Hunk {
	for _, hunk := range f.Hunks {
		if hunk.ContainsLine(lineNum) {
			return hunk
		}
	}

	return nil
}

// HunksInRange returns all hunks that have changes within the given range.
func (f *FileDiff) HunksInRange(start, end int) []*Hunk {
	var result []*Hunk

	for _, hunk := range f.Hunks {
		if hunk.ContainsRange(start, end) {
			result = append(result, hunk)
		}
	}

	return result
}

// Format returns the file diff in unified diff format. It targets the
// normal-diff case that patch generation and staging need; combined diffs
// are not expected to round-trip through Format.
func (f *FileDiff) Format() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "--- a/%s\n", f.OldName)
	fmt.Fprintf(&sb, "+++ b/%s\n", f.NewName)

	for _, hunk := range f.Hunks {
		sb.WriteString(hunk.Header())
		sb.WriteByte('\n')

		for _, line := range hunk.Lines {
			sb.WriteString(line.String())
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
