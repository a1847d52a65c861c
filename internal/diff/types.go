package diff

// Status describes what happened to a file in a commit.
type Status string

// File statuses.
const (
	StatusAdded    Status = "added"
	StatusDeleted  Status = "deleted"
	StatusModified Status = "modified"
	StatusRenamed  Status = "renamed"
	StatusCopied   Status = "copied"
)

// LineType classifies a hunk line.
type LineType string

// Line types.
const (
	LineAdded   LineType = "added"
	LineRemoved LineType = "removed"
	LineContext LineType = "context"
)

// FileDiff is the change to one file.
type FileDiff struct {
	From       string `json:"from"` // empty for added files
	To         string `json:"to"`   // empty for deleted files
	Status     Status `json:"status"`
	Binary     bool   `json:"binary,omitempty"`
	Index      string `json:"index,omitempty"`
	OldMode    string `json:"oldMode,omitempty"`
	NewMode    string `json:"newMode,omitempty"`
	Similarity int    `json:"similarity,omitempty"`
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
	Hunks      []Hunk `json:"hunks"`
}

// Path returns the path the file lives at after the commit, or its old path
// when the commit deleted it.
func (f FileDiff) Path() string {
	if f.To != "" {
		return f.To
	}
	return f.From
}

// Hunk is one "@@" block. For combined diffs OldStart and OldLines describe
// the first parent.
type Hunk struct {
	Header   string `json:"header"`
	OldStart int    `json:"oldStart"`
	OldLines int    `json:"oldLines"`
	NewStart int    `json:"newStart"`
	NewLines int    `json:"newLines"`
	Section  string `json:"section,omitempty"`
	Lines    []Line `json:"lines"`
}

// Line is one line of a hunk with its prefix marker removed.
type Line struct {
	Type      LineType `json:"type"`
	Content   string   `json:"content"`
	OldNumber int      `json:"oldNumber,omitempty"`
	NewNumber int      `json:"newNumber,omitempty"`
}

// Anomaly is a line the parser could not place.
type Anomaly struct {
	Line   int    `json:"line"` // 1-based, relative to the parsed text
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Report is the full parse result.
type Report struct {
	Files     []FileDiff `json:"files"`
	Anomalies []Anomaly  `json:"anomalies"`
}
