package diff

import (
	"fmt"
	"strconv"
	"strings"
)

const devNull = "/dev/null"

// Anomaly reasons.
const (
	ReasonBeforeFile       = "line before any file header"
	ReasonOutsideHunk      = "content outside any hunk"
	ReasonBadHunkHeader    = "malformed hunk header"
	ReasonHunkWithoutFile  = "hunk header before any file header"
	ReasonSurplusLine      = "line exceeds the hunk's declared counts"
	ReasonTruncatedHunk    = "hunk shorter than its declared counts"
	ReasonUnknownHeader    = "unrecognised file header line"
	ReasonMalformedGitLine = "malformed diff --git line"
)

// Parse reads a unified or combined diff and returns its files in input
// order. It never fails; see ParseReport for the lines it skipped.
func Parse(body string) []FileDiff {
	return ParseReport(body).Files
}

// ParseReport reads a unified or combined diff and reports both the files and
// the anomalies met on the way.
func ParseReport(body string) Report {
	p := &parser{files: []FileDiff{}, anomalies: []Anomaly{}}
	lines := strings.Split(body, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		p.line(i+1, line)
	}
	p.finish()
	return Report{Files: p.files, Anomalies: p.anomalies}
}

// hunkState tracks the open hunk. remaining[0] counts result lines, the rest
// count lines of each parent.
type hunkState struct {
	open      bool
	remaining []int
	oldNext   int
	newNext   int
	header    string
	startLine int
}

func (h *hunkState) done() bool {
	for _, r := range h.remaining {
		if r > 0 {
			return false
		}
	}
	return true
}

type parser struct {
	files     []FileDiff
	anomalies []Anomaly

	// sawOld is set once the current file has its "---" line.
	sawOld     bool
	binaryData bool
	hunk       hunkState
}

func (p *parser) current() *FileDiff {
	if len(p.files) == 0 {
		return nil
	}
	return &p.files[len(p.files)-1]
}

func (p *parser) currentHunk() *Hunk {
	f := p.current()
	if f == nil || len(f.Hunks) == 0 {
		return nil
	}
	return &f.Hunks[len(f.Hunks)-1]
}

func (p *parser) anomaly(n int, text, reason string) {
	p.anomalies = append(p.anomalies, Anomaly{Line: n, Text: text, Reason: reason})
}

func (p *parser) line(n int, line string) {
	if p.hunk.open {
		if p.hunkLine(n, line) {
			return
		}
	}

	switch {
	case strings.HasPrefix(line, "diff --git "):
		p.startGitFile(n, line)
	case strings.HasPrefix(line, "diff --cc "):
		p.startCombinedFile(strings.TrimPrefix(line, "diff --cc "))
	case strings.HasPrefix(line, "diff --combined "):
		p.startCombinedFile(strings.TrimPrefix(line, "diff --combined "))
	case p.binaryData:
		// GIT binary patch payload.
	case strings.HasPrefix(line, "@@"):
		p.startHunk(n, line)
	case strings.HasPrefix(line, "--- "):
		p.oldHeader(line)
	case strings.HasPrefix(line, "+++ ") && p.current() != nil:
		p.newHeader(line)
	case p.current() == nil:
		if strings.TrimSpace(line) != "" {
			p.anomaly(n, line, ReasonBeforeFile)
		}
	default:
		p.extendedHeader(n, line)
	}
}

// hunkLine consumes a line of the open hunk. It returns false when the line
// cannot belong to the hunk, which closes it.
func (p *parser) hunkLine(n int, line string) bool {
	h := &p.hunk
	parents := len(h.remaining) - 1

	if strings.HasPrefix(line, "\\") {
		return true
	}

	prefix := strings.Repeat(" ", parents)
	content := ""
	if line != "" {
		if len(line) < parents || !validPrefix(line[:parents]) {
			p.anomaly(h.startLine, h.header, ReasonTruncatedHunk)
			p.closeHunk()
			return false
		}
		prefix, content = line[:parents], line[parents:]
	}

	inResult := !strings.Contains(prefix, "-")
	inParent := make([]bool, parents)
	for i := range parents {
		c := prefix[i]
		inParent[i] = (inResult && c == ' ') || (!inResult && c == '-')
	}

	if inResult && h.remaining[0] == 0 {
		p.anomaly(n, line, ReasonSurplusLine)
		return true
	}
	for i, in := range inParent {
		if in && h.remaining[i+1] == 0 {
			p.anomaly(n, line, ReasonSurplusLine)
			return true
		}
	}

	l := Line{Content: content}
	switch {
	case !inResult:
		l.Type = LineRemoved
	case strings.Contains(prefix, "+"):
		l.Type = LineAdded
	default:
		l.Type = LineContext
	}
	if inParent[0] {
		l.OldNumber = h.oldNext
		h.oldNext++
	}
	if inResult {
		l.NewNumber = h.newNext
		h.newNext++
		h.remaining[0]--
	}
	for i, in := range inParent {
		if in {
			h.remaining[i+1]--
		}
	}

	f := p.current()
	switch l.Type {
	case LineAdded:
		f.Additions++
	case LineRemoved:
		f.Deletions++
	}
	hk := p.currentHunk()
	hk.Lines = append(hk.Lines, l)

	if h.done() {
		p.closeHunk()
	}
	return true
}

func validPrefix(prefix string) bool {
	for i := range len(prefix) {
		switch prefix[i] {
		case ' ', '+', '-':
		default:
			return false
		}
	}
	return true
}

func (p *parser) closeHunk() {
	p.hunk = hunkState{}
}

func (p *parser) newFile(f FileDiff) {
	p.closeHunk()
	p.sawOld = false
	p.binaryData = false
	if f.Hunks == nil {
		f.Hunks = []Hunk{}
	}
	p.files = append(p.files, f)
}

func (p *parser) startGitFile(n int, line string) {
	from, to, ok := splitGitPaths(strings.TrimPrefix(line, "diff --git "))
	if !ok {
		p.anomaly(n, line, ReasonMalformedGitLine)
	}
	p.newFile(FileDiff{From: from, To: to})
}

func (p *parser) startCombinedFile(name string) {
	name = unquote(name)
	p.newFile(FileDiff{From: name, To: name})
}

func (p *parser) startHunk(n int, line string) {
	f := p.current()
	if f == nil {
		p.anomaly(n, line, ReasonHunkWithoutFile)
		return
	}
	hk, ranges, ok := parseHunkHeader(line)
	if !ok {
		p.anomaly(n, line, ReasonBadHunkHeader)
		return
	}

	// ranges[0] is the result; ranges[1:] the parents in header order.
	remaining := make([]int, len(ranges))
	for i, r := range ranges {
		remaining[i] = r.count
	}
	f.Hunks = append(f.Hunks, hk)
	p.hunk = hunkState{
		open:      true,
		remaining: remaining,
		oldNext:   hk.OldStart,
		newNext:   hk.NewStart,
		header:    line,
		startLine: n,
	}
	if p.hunk.done() {
		p.closeHunk()
	}
}

func (p *parser) oldHeader(line string) {
	f := p.current()
	if f == nil || p.sawOld || len(f.Hunks) > 0 {
		p.newFile(FileDiff{})
		f = p.current()
	}
	p.sawOld = true
	f.From = headerPath(strings.TrimPrefix(line, "--- "), "a/")
}

func (p *parser) newHeader(line string) {
	p.current().To = headerPath(strings.TrimPrefix(line, "+++ "), "b/")
}

func (p *parser) extendedHeader(n int, line string) {
	f := p.current()
	key, value := splitHeader(line)
	switch key {
	case "new file mode":
		f.Status = StatusAdded
		f.NewMode = value
	case "deleted file mode":
		f.Status = StatusDeleted
		f.OldMode = value
	case "old mode":
		f.OldMode = value
	case "new mode":
		f.NewMode = value
	case "similarity index":
		f.Similarity = percent(value)
	case "dissimilarity index":
		// Rewrites keep their modified status.
	case "rename from":
		f.Status = StatusRenamed
		f.From = unquote(value)
	case "rename to":
		f.Status = StatusRenamed
		f.To = unquote(value)
	case "copy from":
		f.Status = StatusCopied
		f.From = unquote(value)
	case "copy to":
		f.Status = StatusCopied
		f.To = unquote(value)
	case "index":
		f.Index = value
	case "Binary files":
		f.Binary = true
		if from, to, ok := splitBinaryPaths(line); ok {
			if f.From == "" && f.To == "" {
				f.From, f.To = from, to
			}
		}
	case "GIT binary patch":
		f.Binary = true
		p.binaryData = true
	default:
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "\\") {
			return
		}
		if c := line[0]; c == '+' || c == '-' || c == ' ' {
			p.anomaly(n, line, ReasonOutsideHunk)
			return
		}
		p.anomaly(n, line, ReasonUnknownHeader)
	}
}

var headerKeys = []string{
	"new file mode", "deleted file mode", "old mode", "new mode",
	"similarity index", "dissimilarity index",
	"rename from", "rename to", "copy from", "copy to",
	"index", "Binary files", "GIT binary patch",
}

func splitHeader(line string) (string, string) {
	for _, key := range headerKeys {
		if line == key {
			return key, ""
		}
		if rest, ok := strings.CutPrefix(line, key+" "); ok {
			return key, rest
		}
	}
	return "", line
}

func (p *parser) finish() {
	if p.hunk.open {
		p.anomaly(p.hunk.startLine, p.hunk.header, ReasonTruncatedHunk)
		p.closeHunk()
	}
	for i := range p.files {
		settleStatus(&p.files[i])
	}
}

func settleStatus(f *FileDiff) {
	if f.Status == "" {
		switch {
		case f.From == "" && f.To != "":
			f.Status = StatusAdded
		case f.To == "" && f.From != "":
			f.Status = StatusDeleted
		default:
			f.Status = StatusModified
		}
	}
	switch f.Status {
	case StatusAdded:
		if f.To == "" {
			f.To = f.From
		}
		f.From = ""
	case StatusDeleted:
		if f.From == "" {
			f.From = f.To
		}
		f.To = ""
	}
}

type hunkRange struct {
	start int
	count int
}

// parseHunkHeader reads "@@ -a[,b] +c[,d] @@ section" and its combined form
// "@@@ -a,b -c,d +e,f @@@". The first returned range is the result side.
func parseHunkHeader(line string) (Hunk, []hunkRange, bool) {
	marks := 0
	for marks < len(line) && line[marks] == '@' {
		marks++
	}
	if marks < 2 {
		return Hunk{}, nil, false
	}
	fence := line[:marks]
	rest, ok := strings.CutPrefix(line[marks:], " ")
	if !ok {
		return Hunk{}, nil, false
	}
	rangeText, section, ok := strings.Cut(rest, " "+fence)
	if !ok {
		return Hunk{}, nil, false
	}
	section = strings.TrimPrefix(section, " ")

	fields := strings.Fields(rangeText)
	if len(fields) != marks {
		return Hunk{}, nil, false
	}

	ranges := make([]hunkRange, marks)
	for i, field := range fields {
		want := byte('-')
		idx := i + 1
		if i == marks-1 {
			want = '+'
			idx = 0
		}
		if field[0] != want {
			return Hunk{}, nil, false
		}
		r, ok := parseRange(field[1:])
		if !ok {
			return Hunk{}, nil, false
		}
		ranges[idx] = r
	}

	return Hunk{
		Header:   line,
		OldStart: ranges[1].start,
		OldLines: ranges[1].count,
		NewStart: ranges[0].start,
		NewLines: ranges[0].count,
		Section:  section,
		Lines:    []Line{},
	}, ranges, true
}

func parseRange(s string) (hunkRange, bool) {
	startText, countText, hasCount := strings.Cut(s, ",")
	start, err := strconv.Atoi(startText)
	if err != nil || start < 0 {
		return hunkRange{}, false
	}
	count := 1
	if hasCount {
		count, err = strconv.Atoi(countText)
		if err != nil || count < 0 {
			return hunkRange{}, false
		}
	}
	return hunkRange{start: start, count: count}, true
}

// splitGitPaths splits the operands of "diff --git a/X b/Y".
func splitGitPaths(s string) (string, string, bool) {
	if strings.HasPrefix(s, `"`) {
		first, rest, ok := cutQuoted(s)
		if !ok {
			return "", "", false
		}
		second := strings.TrimPrefix(rest, " ")
		return stripPrefix(first, "a/"), stripPrefix(unquote(second), "b/"), true
	}

	if idx := strings.Index(s, ` "`); idx >= 0 {
		return stripPrefix(s[:idx], "a/"), stripPrefix(unquote(s[idx+1:]), "b/"), true
	}

	// Unquoted names may contain spaces. The common case names the same
	// file twice, so try the midpoint first.
	if len(s)%2 == 1 {
		mid := len(s) / 2
		if s[mid] == ' ' {
			from, to := stripPrefix(s[:mid], "a/"), stripPrefix(s[mid+1:], "b/")
			if from == to {
				return from, to, true
			}
		}
	}
	if idx := strings.LastIndex(s, " b/"); idx >= 0 {
		return stripPrefix(s[:idx], "a/"), s[idx+3:], true
	}
	if from, to, ok := strings.Cut(s, " "); ok {
		return from, to, true
	}
	return s, s, false
}

// splitBinaryPaths reads "Binary files A and B differ".
func splitBinaryPaths(line string) (string, string, bool) {
	rest := strings.TrimPrefix(line, "Binary files ")
	rest, ok := strings.CutSuffix(rest, " differ")
	if !ok {
		return "", "", false
	}
	a, b, ok := strings.Cut(rest, " and ")
	if !ok {
		return "", "", false
	}
	return headerPath(a, "a/"), headerPath(b, "b/"), true
}

// headerPath normalises a "---"/"+++" operand: timestamps after a tab are
// dropped, quoting is undone, /dev/null becomes empty.
func headerPath(s, prefix string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	s = unquote(strings.TrimRight(s, " "))
	if s == devNull {
		return ""
	}
	return stripPrefix(s, prefix)
}

func stripPrefix(s, prefix string) string {
	return strings.TrimPrefix(s, prefix)
}

// cutQuoted splits a leading C-style quoted token from s.
func cutQuoted(s string) (string, string, bool) {
	escaped := false
	for i := 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return unquote(s[:i+1]), s[i+1:], true
		}
	}
	return "", "", false
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s[1 : len(s)-1]
}

func percent(s string) int {
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0
	}
	return v
}

// String renders a short summary for logs.
func (f FileDiff) String() string {
	return fmt.Sprintf("%s %s (+%d -%d)", f.Status, f.Path(), f.Additions, f.Deletions)
}
