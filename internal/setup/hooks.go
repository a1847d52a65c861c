package setup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tutureproject/tuture/internal/output"
)

// HookName is the git hook tuture installs.
const HookName = "post-commit"

const (
	hookMarkerStart = "# >>> tuture post-commit hook >>>"
	hookMarkerEnd   = "# <<< tuture post-commit hook <<<"
	reloadCommand   = "tuture reload"
	backupSuffix    = ".backup"
)

// HookStatus represents the status of the post-commit hook.
type HookStatus struct {
	Installed bool `json:"installed"`
	Chained   bool `json:"chained"`
	// Shared is set when the hook also runs commands tuture did not write.
	Shared bool `json:"shared"`
}

// HookAction reports what InstallHook did.
type HookAction string

// Install outcomes.
const (
	HookInstalled   HookAction = "installed"
	HookUnchanged   HookAction = "unchanged"
	HookAppended    HookAction = "appended"
	HookChained     HookAction = "chained"
	HookOverwritten HookAction = "overwritten"
)

// InstallOptions selects how an existing foreign hook is handled.
type InstallOptions struct {
	Chain  bool // back the hook up and run it after tuture
	Force  bool // overwrite it
	Append bool // add the tuture section to it
}

// HookRemoval reports what RemoveHook did.
type HookRemoval struct {
	Removed  bool `json:"removed"`
	Restored bool `json:"restored"`
	Stripped bool `json:"stripped"`
}

// HookPath returns the post-commit hook location inside gitDir.
func HookPath(gitDir string) string {
	return filepath.Join(gitDir, "hooks", HookName)
}

// HookExists checks if a hook file exists at the given path.
func HookExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CheckHookStatus checks if the hook runs tuture and whether it chains to a backup.
func CheckHookStatus(hookPath string) HookStatus {
	content, err := os.ReadFile(hookPath)
	if err != nil {
		return HookStatus{}
	}
	text := string(content)
	if !strings.Contains(text, reloadCommand) {
		return HookStatus{}
	}
	chained := strings.Contains(text, backupSuffix)
	return HookStatus{
		Installed: true,
		Chained:   chained,
		Shared:    !chained && !onlyShebang(stripTuture(text)),
	}
}

// GenerateHookSection returns the marked block that runs the reload.
func GenerateHookSection() string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("if command -v tuture >/dev/null 2>&1; then\n")
	b.WriteString("  " + reloadCommand + " || echo \"tuture: reload failed\" >&2\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// GeneratePostCommitHook generates the complete hook script.
// If withChain is true, the hook chains to the backed-up original hook.
func GeneratePostCommitHook(withChain bool) string {
	script := "#!/bin/sh\n# tuture post-commit hook\n# Regenerates .tuture/diff.json after every commit\n\n" + GenerateHookSection()

	if withChain {
		script += `
# Chain to original hook if it exists
if [ -x "$(git rev-parse --git-dir)/hooks/post-commit.backup" ]; then
  exec "$(git rev-parse --git-dir)/hooks/post-commit.backup" "$@"
fi
`
	}
	return script
}

// BackupExistingHook moves an existing hook to a .backup location.
func BackupExistingHook(hookPath string) error {
	if err := os.Rename(hookPath, hookPath+backupSuffix); err != nil {
		return output.NewSystemErrorWithCause("failed to backup existing hook", err)
	}
	return nil
}

// InstallHook writes the post-commit hook. A hook that already runs tuture
// is left alone unless opts.Force is set. A foreign hook is a conflict unless
// one of the options says how to combine with it.
func InstallHook(hookPath string, opts InstallOptions) (HookAction, error) {
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return "", output.NewSystemErrorWithCause("failed to create hooks directory", err)
	}

	existing, err := os.ReadFile(hookPath)
	if errors.Is(err, fs.ErrNotExist) {
		return HookInstalled, writeHook(hookPath, GeneratePostCommitHook(false))
	}
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to read hook", err)
	}

	switch {
	case opts.Force:
		return HookOverwritten, writeHook(hookPath, GeneratePostCommitHook(false))
	case strings.Contains(string(existing), reloadCommand):
		return HookUnchanged, nil
	case opts.Chain:
		if err := BackupExistingHook(hookPath); err != nil {
			return "", err
		}
		return HookChained, writeHook(hookPath, GeneratePostCommitHook(true))
	case opts.Append:
		return HookAppended, writeHook(hookPath, replaceSection(string(existing), GenerateHookSection()))
	default:
		return "", output.NewConflictError("post-commit hook already exists; use --chain to preserve or --force to overwrite")
	}
}

// RemoveHook takes tuture out of the post-commit hook. A hook that only ran
// tuture is deleted and any backup restored; a shared hook keeps its other
// commands.
func RemoveHook(hookPath string) (HookRemoval, error) {
	content, err := os.ReadFile(hookPath)
	if errors.Is(err, fs.ErrNotExist) {
		return HookRemoval{}, nil
	}
	if err != nil {
		return HookRemoval{}, output.NewSystemErrorWithCause("failed to read hook", err)
	}
	if !strings.Contains(string(content), reloadCommand) {
		return HookRemoval{}, nil
	}

	text := string(content)
	stripped := stripTuture(text)
	if text == GeneratePostCommitHook(true) || onlyShebang(stripped) {
		if err := os.Remove(hookPath); err != nil {
			return HookRemoval{}, output.NewSystemErrorWithCause("failed to remove hook", err)
		}
		removal := HookRemoval{Removed: true}
		backupPath := hookPath + backupSuffix
		if HookExists(backupPath) {
			if err := os.Rename(backupPath, hookPath); err != nil {
				return removal, output.NewSystemErrorWithCause("failed to restore backup hook", err)
			}
			removal.Restored = true
		}
		return removal, nil
	}

	if err := writeHook(hookPath, stripped); err != nil {
		return HookRemoval{}, err
	}
	return HookRemoval{Stripped: true}, nil
}

// DescribeInstallAction returns a human-readable description of what the
// install operation would do given the current state.
func DescribeInstallAction(status HookStatus, existingHook bool, opts InstallOptions) string {
	if !existingHook {
		return "would install"
	}
	switch {
	case opts.Force:
		return "would overwrite existing hook"
	case status.Installed:
		return "already installed"
	case opts.Chain:
		return "would backup and chain existing hook"
	case opts.Append:
		return "would append to existing hook"
	default:
		return "would fail (hook exists, use --chain or --force)"
	}
}

// DescribeUninstallAction returns a human-readable description of what the
// uninstall operation would do given the current state.
func DescribeUninstallAction(status HookStatus, hasBackup bool) string {
	switch {
	case !status.Installed:
		return "no tuture hook installed"
	case status.Shared:
		return "would remove the tuture section"
	case hasBackup:
		return "would remove and restore backup"
	default:
		return "would remove"
	}
}

func writeHook(path, content string) error {
	// #nosec G306 -- hook needs execute permission
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return output.NewSystemErrorWithCause("failed to write hook", err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		return output.NewSystemErrorWithCause(fmt.Sprintf("failed to make %s executable", path), err)
	}
	return nil
}

// stripTuture drops the marked section and any bare reload lines left by
// older installs.
func stripTuture(s string) string {
	lines := strings.SplitAfter(removeSection(s), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, reloadCommand) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "")
}

func onlyShebang(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return false
	}
	return true
}

func replaceSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}
