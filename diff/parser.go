package diff

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// Compiled once per package, not per line or per parser instance, per the
// usual advice for hot per-line regex matching.
var (
	oldModeRe        = regexp.MustCompile(`^old mode (\d+)$`)
	newModeRe        = regexp.MustCompile(`^new mode (\d+)$`)
	newFileModeRe    = regexp.MustCompile(`^new file mode (\d+)$`)
	deletedFileModeRe = regexp.MustCompile(`^deleted file mode (\d+)$`)
	similarityRe     = regexp.MustCompile(`^similarity index (\d+)%$`)
	renameFromRe     = regexp.MustCompile(`^rename from (.+)$`)
	renameToRe       = regexp.MustCompile(`^rename to (.+)$`)
	copyFromRe       = regexp.MustCompile(`^copy from (.+)$`)
	copyToRe         = regexp.MustCompile(`^copy to (.+)$`)
	indexRe          = regexp.MustCompile(`^index ([0-9a-fA-F]+(?:,[0-9a-fA-F]+)*)\.\.([0-9a-fA-F]+)(?: (\d+))?$`)
)

// state names the diff parser's position in its state machine.
type state int

const (
	stateWaitingForDiff state = iota
	stateHeader
	stateHunkFileA
	stateHunkFileB
	stateHunkHeader
	stateHunkContent
)

// ParsedDiff wraps a parsed multi-file diff.
type ParsedDiff struct {
	files []*FileDiff
}

// Parse parses the complete text of a unified diff (optionally containing
// combined-diff blocks, rename/copy headers, mode changes, and binary
// markers) into an ordered sequence of file-change records.
//
// Parse is a single-pass, line-oriented state machine; it never looks
// ahead beyond "re-feeding" the line that triggered a state transition.
func Parse(diffText string) (*ParsedDiff, error) {
	p := &parser{lines: splitLines(diffText)}

	if err := p.run(); err != nil {
		return nil, err
	}

	return &ParsedDiff{files: p.files}, nil
}

// parser holds the mutable state of one Parse call.
type parser struct {
	lines []string
	pos   int

	state state
	cur   *FileDiff
	hunk  *Hunk

	files []*FileDiff
}

// peek returns the current line and whether one remains.
func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}

	return p.lines[p.pos], true
}

// advance consumes the current line.
func (p *parser) advance() {
	p.pos++
}

func (p *parser) run() error {
	for {
		line, ok := p.peek()
		if !ok {
			p.finishFile()

			return nil
		}

		var err error

		switch p.state {
		case stateWaitingForDiff:
			err = p.stepWaitingForDiff(line)
		case stateHeader:
			err = p.stepHeader(line)
		case stateHunkFileA:
			err = p.stepHunkFileA(line)
		case stateHunkFileB:
			err = p.stepHunkFileB(line)
		case stateHunkHeader:
			err = p.stepHunkHeader(line)
		case stateHunkContent:
			err = p.stepHunkContent(line)
		}

		if err != nil {
			return err
		}
	}
}

func (p *parser) finishFile() {
	if p.cur == nil {
		return
	}

	p.finishHunk()
	p.files = append(p.files, p.cur)
	p.cur = nil
}

func (p *parser) finishHunk() {
	if p.hunk == nil {
		return
	}

	p.hunk.RecalculateLineCounts()

	if len(p.hunk.PreImageRanges) > 0 {
		p.hunk.OldStart = p.hunk.PreImageRanges[0].Line
		p.hunk.OldLines = p.hunk.PreImageRanges[0].EffectiveCount()
	}

	p.cur.Hunks = append(p.cur.Hunks, p.hunk)
	p.hunk = nil
}

func (p *parser) stepWaitingForDiff(line string) error {
	if strings.TrimSpace(line) == "" {
		p.advance()

		return nil
	}

	if !strings.HasPrefix(line, "diff ") {
		// Lines outside of a diff block (commit metadata, `---`
		// summary banners, etc.) are deliberately discarded here.
		p.advance()

		return nil
	}

	kind, oldPath, newPath, err := parseDiffLine(line)
	if err != nil {
		return err
	}

	p.cur = newFileDiff()
	p.cur.Kind = kind
	p.cur.OldName = oldPath
	p.cur.NewName = newPath

	p.state = stateHeader
	p.advance()

	return nil
}

func (p *parser) stepHeader(line string) error {
	if isBinarySentinel(line) {
		p.cur.Status = StatusBinaryChanged
		p.state = stateWaitingForDiff
		p.finishFile()
		p.advance()

		return nil
	}

	if applyHeaderLine(p.cur, line) {
		p.advance()

		return nil
	}

	// Unrecognised header line: the header block is over. Re-feed the
	// line into HUNK_FILE_A without consuming it.
	p.state = stateHunkFileA

	return nil
}

func (p *parser) stepHunkFileA(line string) error {
	if strings.HasPrefix(line, "--- ") || line == "---" {
		if path, ok := secondToken(line); ok {
			p.cur.OldName = stripABPrefix(path)
		}

		p.advance()

		return nil
	}

	// No "---" line observed (e.g. a pure rename with no content change
	// never reaches hunks). Re-feed without consuming.
	p.state = stateHunkFileB

	return nil
}

func (p *parser) stepHunkFileB(line string) error {
	if strings.HasPrefix(line, "+++ ") || line == "+++" {
		if path, ok := secondToken(line); ok {
			p.cur.NewName = stripABPrefix(path)
		}

		p.advance()
		p.state = stateHunkHeader

		return nil
	}

	p.state = stateHunkHeader

	return nil
}

func (p *parser) stepHunkHeader(line string) error {
	p.finishHunk()

	pre, post, section, ok := parseHunkHeader(line)
	if !ok {
		return fmt.Errorf("diff: malformed hunk header: %q", line)
	}

	p.hunk = &Hunk{
		PreImageRanges: pre,
		PostImageRange: post,
		Section:        section,
		OldStart:       pre[0].Line,
		OldLines:       pre[0].EffectiveCount(),
		NewStart:       post.Line,
		NewLines:       post.EffectiveCount(),
	}

	p.advance()
	p.state = stateHunkContent

	return nil
}

func (p *parser) stepHunkContent(line string) error {
	if strings.HasPrefix(line, "diff ") {
		p.finishFile()
		p.state = stateWaitingForDiff

		return nil
	}

	if strings.HasPrefix(line, "@@") {
		p.state = stateHunkHeader

		return nil
	}

	if strings.HasPrefix(line, `\`) {
		// "\ No newline at end of file" and similar markers carry no
		// content of their own.
		p.advance()

		return nil
	}

	p.hunk.Lines = append(p.hunk.Lines, parseBodyLine(line))
	p.advance()

	return nil
}

// applyHeaderLine updates rec according to one recognised header line,
// returning false if the line did not match any known header form.
func applyHeaderLine(rec *FileDiff, line string) bool {
	switch {
	case newFileModeRe.MatchString(line):
		m := newFileModeRe.FindStringSubmatch(line)
		if rec.Status == StatusUnknown {
			rec.Status = StatusNew
			rec.OldName = "/dev/null"
		}

		rec.NewMode = m[1]

		return true

	case deletedFileModeRe.MatchString(line):
		m := deletedFileModeRe.FindStringSubmatch(line)
		if rec.Status == StatusUnknown {
			rec.Status = StatusDeleted
			rec.NewName = "/dev/null"
		}

		rec.OldMode = m[1]

		return true

	case oldModeRe.MatchString(line):
		m := oldModeRe.FindStringSubmatch(line)
		if rec.Status == StatusUnknown {
			rec.Status = StatusTypeChanged
		}

		rec.OldMode = m[1]

		return true

	case newModeRe.MatchString(line):
		m := newModeRe.FindStringSubmatch(line)
		if rec.Status == StatusTypeChanged {
			rec.NewMode = m[1]
		}

		return true

	case renameFromRe.MatchString(line):
		m := renameFromRe.FindStringSubmatch(line)
		if rec.Status == StatusUnknown {
			rec.Status = StatusRenamed
			rec.OldName = m[1]
		}

		return true

	case renameToRe.MatchString(line):
		m := renameToRe.FindStringSubmatch(line)
		if rec.Status == StatusRenamed {
			rec.NewName = m[1]
		}

		return true

	case copyFromRe.MatchString(line):
		m := copyFromRe.FindStringSubmatch(line)
		if rec.Status == StatusUnknown {
			rec.Status = StatusCopied
			rec.OldName = m[1]
		}

		return true

	case copyToRe.MatchString(line):
		m := copyToRe.FindStringSubmatch(line)
		if rec.Status == StatusCopied {
			rec.NewName = m[1]
		}

		return true

	case similarityRe.MatchString(line):
		m := similarityRe.FindStringSubmatch(line)
		n, _ := strconv.Atoi(m[1])
		rec.Similarity = n

		return true

	case indexRe.MatchString(line):
		applyIndexLine(rec, indexRe.FindStringSubmatch(line))

		return true

	default:
		return false
	}
}

func applyIndexLine(rec *FileDiff, m []string) {
	first := rec.PreImageIDs == nil

	if first {
		switch rec.Status {
		case StatusUnknown:
			rec.Status = StatusModified
		case StatusRenamed:
			rec.Status = StatusRenamedModified
		case StatusCopied:
			rec.Status = StatusCopiedModified
		case StatusTypeChanged:
			rec.Status = StatusTypeChangedToSymlink
		}
	}

	rec.PreImageIDs = strings.Split(m[1], ",")
	rec.PostImageID = m[2]

	if m[3] != "" && rec.NewMode == "" {
		rec.NewMode = m[3]
	}
}

// isBinarySentinel reports whether line is git's "Binary files ... differ"
// marker.
func isBinarySentinel(line string) bool {
	return strings.HasPrefix(line, "Binary files") && strings.HasSuffix(line, "differ")
}

// parseDiffLine parses a "diff --git a/x b/x", "diff --cc x", or
// "diff --combined x" line. Per the reference parser's own behaviour, a
// combined diff line (which carries a single path) assigns that path to
// both OldName and NewName; the HUNK_FILE_A/B states correct this once the
// real "---"/"+++" lines are seen.
func parseDiffLine(line string) (Kind, string, string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "diff" {
		return KindNormal, "", "", fmt.Errorf("diff: malformed diff line: %q", line)
	}

	mode := fields[1]

	kind := KindNormal
	if strings.Contains(mode, "cc") || strings.Contains(mode, "combined") {
		kind = KindCombined
	}

	rest := fields[2:]

	switch len(rest) {
	case 0:
		return kind, "", "", nil
	case 1:
		path := stripABPrefix(rest[0])

		return kind, path, path, nil
	default:
		old := stripABPrefix(rest[0])
		new := stripABPrefix(rest[len(rest)-1])

		return kind, old, new, nil
	}
}

// parseHunkHeader parses a "@@ -a,b +c,d @@[ section]" or combined
// "@@@ -a,b -e,f +c,d @@@[ section]" line.
func parseHunkHeader(line string) (pre []Range, post Range, section string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || !isAtRun(fields[0]) {
		return nil, Range{}, "", false
	}

	idx := 1

	for idx < len(fields) && strings.HasPrefix(fields[idx], "-") {
		r, perr := parseHunkRange(fields[idx][1:])
		if perr != nil {
			return nil, Range{}, "", false
		}

		pre = append(pre, r)
		idx++
	}

	if len(pre) == 0 || idx >= len(fields) || !strings.HasPrefix(fields[idx], "+") {
		return nil, Range{}, "", false
	}

	postRange, perr := parseHunkRange(fields[idx][1:])
	if perr != nil {
		return nil, Range{}, "", false
	}

	idx++

	if idx >= len(fields) || !isAtRun(fields[idx]) {
		return nil, Range{}, "", false
	}

	idx++

	return pre, postRange, strings.Join(fields[idx:], " "), true
}

func parseHunkRange(s string) (Range, error) {
	if comma := strings.IndexByte(s, ','); comma >= 0 {
		line, err := strconv.Atoi(s[:comma])
		if err != nil {
			return Range{}, err
		}

		count, err := strconv.Atoi(s[comma+1:])
		if err != nil {
			return Range{}, err
		}

		return Range{Line: line, Count: count}, nil
	}

	line, err := strconv.Atoi(s)
	if err != nil {
		return Range{}, err
	}

	return Range{Line: line, Count: -1}, nil
}

func isAtRun(s string) bool {
	if len(s) < 2 {
		return false
	}

	for _, c := range s {
		if c != '@' {
			return false
		}
	}

	return true
}

// secondToken returns the second whitespace-separated token of line.
func secondToken(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}

	return fields[1], true
}

func stripABPrefix(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}

	return path
}

// parseBodyLine interprets the leading character of a hunk content line.
// The Op comes from the first character alone; for combined-diff lines,
// which carry one prefix character per parent, the remaining prefix
// characters stay in Content and per-parent provenance is not preserved.
func parseBodyLine(line string) DiffLine {
	if line == "" {
		return DiffLine{Op: OpContext}
	}

	switch line[0] {
	case '+':
		return DiffLine{Op: OpAdd, Content: line[1:]}
	case '-':
		return DiffLine{Op: OpDelete, Content: line[1:]}
	case ' ':
		return DiffLine{Op: OpContext, Content: line[1:]}
	default:
		return DiffLine{Op: OpContext, Content: line}
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	// A trailing newline produces one spurious empty final element.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// Files returns an iterator over all file diffs.
func (d *ParsedDiff) Files() iter.Seq[*FileDiff] {
	return func(yield func(*FileDiff) bool) {
		for _, f := range d.files {
			if !yield(f) {
				return
			}
		}
	}
}

// FilesWithIndex returns an iterator with indices.
func (d *ParsedDiff) FilesWithIndex() iter.Seq2[int, *FileDiff] {
	return func(yield func(int, *FileDiff) bool) {
		for i, f := range d.files {
			if !yield(i, f) {
				return
			}
		}
	}
}

// FileCount returns the number of files in the diff.
func (d *ParsedDiff) FileCount() int {
	return len(d.files)
}

// FileByPath finds a file diff by path.
func (d *ParsedDiff) FileByPath(path string) *FileDiff {
	for _, f := range d.files {
		if f.Path() == path || f.OldName == path || f.NewName == path {
			return f
		}
	}

	return nil
}

// AllFiles returns a slice of all file diffs.
func (d *ParsedDiff) AllFiles() []*FileDiff {
	return d.files
}

// Stats returns total addition and deletion counts across all files.
func (d *ParsedDiff) Stats() (added, deleted int) {
	for _, f := range d.files {
		a, del := f.Stats()
		added += a
		deleted += del
	}

	return added, deleted
}

// LineWithContext provides full context for a diff line.
type LineWithContext struct {
	// GlobalIndex is the index of this line across all files.
	GlobalIndex int

	// File is the file containing this line.
	File *FileDiff

	// HunkIndex is the index of the hunk within the file.
	HunkIndex int

	// LineIndex is the index of the line within the hunk.
	LineIndex int

	// Line is the actual diff line.
	Line DiffLine
}

// LinesWithContext returns an iterator over all lines with full context.
func (d *ParsedDiff) LinesWithContext() iter.Seq[LineWithContext] {
	return func(yield func(LineWithContext) bool) {
		globalIdx := 0

		for _, f := range d.files {
			for hunkIdx, hunk := range f.Hunks {
				for lineIdx, line := range hunk.Lines {
					ctx := LineWithContext{
						GlobalIndex: globalIdx,
						File:        f,
						HunkIndex:   hunkIdx,
						LineIndex:   lineIdx,
						Line:        line,
					}
					if !yield(ctx) {
						return
					}
					globalIdx++
				}
			}
		}
	}
}
