package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tutureproject/tuture/internal/ignore"
)

// CommitSummary is one line of `git log --oneline`: an abbreviated hash,
// a space, and the subject.
type CommitSummary string

// ID returns the abbreviated hash.
func (c CommitSummary) ID() string {
	id, _, _ := strings.Cut(string(c), " ")
	return id
}

// Subject returns the text after the hash.
func (c CommitSummary) Subject() string {
	_, subject, _ := strings.Cut(string(c), " ")
	return subject
}

// ChangedFile is a path touched by a commit.
type ChangedFile struct {
	File string `json:"file"`
}

// ErrInvalidCommit is returned for commit ids that git would read as an option.
var ErrInvalidCommit = errors.New("invalid commit id")

// Client runs repository queries through a Runner.
type Client struct {
	runner Runner
	logger *slog.Logger
}

// NewClient creates a Client. A nil logger uses slog.Default().
func NewClient(runner Runner, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{runner: runner, logger: logger}
}

// Init runs `git init` in the runner's directory.
func (c *Client) Init(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "init"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// IsRepo reports whether the runner's directory is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	_, err := c.runner.Run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// GitDir returns the repository's .git directory. Relative answers from git
// are joined onto base.
func (c *Client) GitDir(ctx context.Context, base string) (string, error) {
	out, err := c.runner.Run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", fmt.Errorf("locating git dir: %w", err)
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	return dir, nil
}

// Logs lists non-merge commits newest first. A repository without commits,
// or any other git failure, yields an empty list.
func (c *Client) Logs(ctx context.Context) []CommitSummary {
	out, err := c.runner.Run(ctx, "log", "--oneline", "--no-merges")
	if err != nil {
		c.logger.DebugContext(ctx, "git log failed, treating history as empty", "error", err)
		return []CommitSummary{}
	}

	out = strings.TrimRight(out, "\r\n")
	if out == "" {
		return []CommitSummary{}
	}
	lines := strings.Split(out, "\n")
	commits := make([]CommitSummary, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		commits = append(commits, CommitSummary(line))
	}
	return commits
}

// OldestFirst returns the ids of summaries in chronological order.
func OldestFirst(summaries []CommitSummary) []string {
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[len(summaries)-1-i] = s.ID()
	}
	return ids
}

// Show returns the raw output of `git show <id>`.
func (c *Client) Show(ctx context.Context, id string) (string, error) {
	if err := validateCommitID(id); err != nil {
		return "", err
	}
	out, err := c.runner.Run(ctx, "show", id)
	if err != nil {
		return "", fmt.Errorf("git show %s: %w", id, err)
	}
	return out, nil
}

// ChangedFiles lists the files touched by commit id, minus those matched by
// rules. Order follows git's output.
func (c *Client) ChangedFiles(ctx context.Context, id string, rules *ignore.RuleSet) ([]ChangedFile, error) {
	if err := validateCommitID(id); err != nil {
		return nil, err
	}
	out, err := c.runner.Run(ctx, "show", id, "--name-only")
	if err != nil {
		return nil, fmt.Errorf("git show %s --name-only: %w", id, err)
	}

	files := rules.Filter(fileNameBlock(out))
	changed := make([]ChangedFile, len(files))
	for i, f := range files {
		changed[i] = ChangedFile{File: f}
	}
	return changed, nil
}

// fileNameBlock returns the paths listed in the last paragraph of
// `git show --name-only` output. When that paragraph is the commit header or
// message (commits touching no files) the result is empty.
func fileNameBlock(out string) []string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.TrimRight(out, "\n")
	idx := strings.LastIndex(out, "\n\n")
	if idx < 0 {
		return []string{}
	}
	block := out[idx+2:]
	if block == "" || strings.HasPrefix(block, "commit ") {
		return []string{}
	}

	lines := strings.Split(block, "\n")
	paths := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "    ") {
			return []string{}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, unquotePath(line))
	}
	return paths
}

// unquotePath decodes git's C-style quoting of unusual file names.
func unquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if s, err := strconv.Unquote(p); err == nil {
		return s
	}
	return p[1 : len(p)-1]
}

func validateCommitID(id string) error {
	if strings.TrimSpace(id) == "" || strings.HasPrefix(id, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidCommit, id)
	}
	return nil
}
