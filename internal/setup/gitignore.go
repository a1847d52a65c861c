package setup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tutureproject/tuture/internal/output"
)

const gitignoreComment = "# Tuture supporting files"

// GitignoreBlock returns the lines AppendGitignore writes for dir.
func GitignoreBlock(dir string) string {
	return gitignoreComment + "\n\n" + dir + "\n"
}

// AppendGitignore makes sure repoRoot/.gitignore ignores dir. It reports
// whether the file was changed.
func AppendGitignore(repoRoot, dir string) (bool, error) {
	path := filepath.Join(repoRoot, ".gitignore")
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte(GitignoreBlock(dir)), 0o644); err != nil {
			return false, output.NewSystemErrorWithCause("failed to create .gitignore", err)
		}
		return true, nil
	}
	if err != nil {
		return false, output.NewSystemErrorWithCause("failed to read .gitignore", err)
	}
	if IsIgnored(string(content), dir) {
		return false, nil
	}

	text := string(content)
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += "\n" + GitignoreBlock(dir)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return false, output.NewSystemErrorWithCause("failed to update .gitignore", err)
	}
	return true, nil
}

// IsIgnored reports whether gitignore content has a rule for dir.
func IsIgnored(content, dir string) bool {
	dir = strings.Trim(filepath.ToSlash(dir), "/")
	for _, line := range strings.Split(content, "\n") {
		rule := strings.Trim(strings.TrimSpace(line), "/")
		if rule == dir {
			return true
		}
	}
	return false
}
