package diff

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Range is a (line, count) pair as it appears in a unified-diff hunk
// header. A Count of -1 is the sentinel for "count omitted", which unified
// diff syntax takes to mean a single line; the sentinel is preserved
// rather than normalized to 1 so that re-serialisation reproduces the
// original header byte-for-byte.
type Range struct {
	Line  int
	Count int
}

// EffectiveCount returns the count this range denotes, resolving the -1
// sentinel to 1.
func (r Range) EffectiveCount() int {
	if r.Count == -1 {
		return 1
	}

	return r.Count
}

// String renders the range as it appears inside a hunk header, e.g. "12,4"
// or "12" when Count is the omitted-count sentinel.
func (r Range) String() string {
	if r.Count == -1 {
		return strconv.Itoa(r.Line)
	}

	return fmt.Sprintf("%d,%d", r.Line, r.Count)
}

// Hunk represents a contiguous block of changes in a file.
type Hunk struct {
	// OldStart is the starting line in the original file. For a combined
	// diff this mirrors PreImageRanges[0].
	OldStart int

	// OldLines is the number of lines from the original file. For a
	// combined diff this mirrors PreImageRanges[0].
	OldLines int

	// NewStart is the starting line in the new file.
	NewStart int

	// NewLines is the number of lines in the new file.
	NewLines int

	// PreImageRanges holds one range per parent for a combined diff. Nil
	// for a normal diff, where OldStart/OldLines already carry the sole
	// pre-image range.
	PreImageRanges []Range

	// PostImageRange is the post-image range as parsed from the header,
	// preserving the omitted-count sentinel. Mirrors NewStart/NewLines.
	PostImageRange Range

	// Section is the optional section header (e.g., function name).
	Section string

	// Lines contains all lines in this hunk.
	Lines []DiffLine
}

// Header returns the hunk header in unified diff format.
func (h *Hunk) Header() string {
	pre := h.PreImageRanges
	if len(pre) == 0 {
		pre = []Range{{Line: h.OldStart, Count: h.OldLines}}
	}

	post := h.PostImageRange
	if post.Line == 0 && post.Count == 0 {
		post = Range{Line: h.NewStart, Count: h.NewLines}
	}

	at := strings.Repeat("@", len(pre)+1)

	parts := make([]string, 0, len(pre)+1)
	for _, r := range pre {
		parts = append(parts, "-"+r.String())
	}

	parts = append(parts, "+"+post.String())

	header := at + " " + strings.Join(parts, " ") + " " + at
	if h.Section != "" {
		header += " " + h.Section
	}

	return header
}

// All returns an iterator over all lines in this hunk.
func (h *Hunk) All() iter.Seq[DiffLine] {
	return func(yield func(DiffLine) bool) {
		for _, line := range h.Lines {
			if !yield(line) {
				return
			}
		}
	}
}

// Changes returns an iterator over only changed lines (add/delete).
func (h *Hunk) Changes() iter.Seq[DiffLine] {
	return func(yield func(DiffLine) bool) {
		for _, line := range h.Lines {
			if line.Op == OpContext {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Additions returns an iterator over only added lines.
func (h *Hunk) Additions() iter.Seq[DiffLine] {
	return func(yield func(DiffLine) bool) {
		for _, line := range h.Lines {
			if line.Op != OpAdd {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Deletions returns an iterator over only deleted lines.
func (h *Hunk) Deletions() iter.Seq[DiffLine] {
	return func(yield func(DiffLine) bool) {
		for _, line := range h.Lines {
			if line.Op != OpDelete {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Stats returns addition and deletion counts.
func (h *Hunk) Stats() (added, deleted int) {
	for _, line := range h.Lines {
		switch line.Op {
		case OpAdd:
			added++
		case OpDelete:
			deleted++
		}
	}

	return added, deleted
}

// CanSplit returns true if this hunk can be split into smaller hunks.
// A hunk can be split if there are context lines between change groups.
func (h *Hunk) CanSplit() bool {
	inChange := false
	hasGap := false

	for _, line := range h.Lines {
		if line.Op == OpContext {
			if inChange {
				hasGap = true
			}
		} else {
			if hasGap {
				return true
			}
			inChange = true
		}
	}

	return false
}

// ContainsLine checks if any change in this hunk affects the given line.
// Uses NewLineNum for additions, OldLineNum for deletions.
func (h *Hunk) ContainsLine(lineNum int) bool {
	for _, line := range h.Lines {
		if !line.IsChange() {
			continue
		}

		effectiveLine := line.NewLineNum
		if line.Op == OpDelete {
			effectiveLine = line.OldLineNum
		}

		if effectiveLine == lineNum {
			return true
		}
	}

	return false
}

// ContainsRange checks if any change in this hunk falls within the range.
func (h *Hunk) ContainsRange(start, end int) bool {
	for _, line := range h.Lines {
		if !line.IsChange() {
			continue
		}

		effectiveLine := line.NewLineNum
		if line.Op == OpDelete {
			effectiveLine = line.OldLineNum
		}

		if effectiveLine >= start && effectiveLine <= end {
			return true
		}
	}

	return false
}

// RecalculateLineCounts updates OldLines and NewLines based on Lines slice.
func (h *Hunk) RecalculateLineCounts() {
	h.OldLines = 0
	h.NewLines = 0

	for _, line := range h.Lines {
		switch line.Op {
		case OpContext:
			h.OldLines++
			h.NewLines++
		case OpAdd:
			h.NewLines++
		case OpDelete:
			h.OldLines++
		}
	}
}
