package setup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tutureproject/tuture/internal/output"
)

func hookPathIn(t *testing.T) string {
	t.Helper()
	return HookPath(filepath.Join(t.TempDir(), ".git"))
}

func writeHookFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestGeneratePostCommitHook(t *testing.T) {
	t.Run("without chain", func(t *testing.T) {
		got := GeneratePostCommitHook(false)
		if !strings.HasPrefix(got, "#!/bin/sh") {
			t.Error("expected shebang")
		}
		if !strings.Contains(got, "tuture reload") {
			t.Error("expected reload command")
		}
		if strings.Contains(got, ".backup") {
			t.Error("should not contain backup chain")
		}
	})

	t.Run("with chain", func(t *testing.T) {
		got := GeneratePostCommitHook(true)
		if !strings.Contains(got, "tuture reload") {
			t.Error("expected reload command")
		}
		if !strings.Contains(got, "post-commit.backup") {
			t.Error("expected backup chain section")
		}
	})
}

func TestInstallHook_Fresh(t *testing.T) {
	path := hookPathIn(t)

	action, err := InstallHook(path, InstallOptions{})
	if err != nil {
		t.Fatalf("InstallHook() error = %v", err)
	}
	if action != HookInstalled {
		t.Errorf("action = %q, want %q", action, HookInstalled)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("hook mode = %v, want executable", info.Mode())
	}

	status := CheckHookStatus(path)
	if !status.Installed || status.Chained || status.Shared {
		t.Errorf("status = %+v, want installed only", status)
	}

	// Second install is a no-op.
	action, err = InstallHook(path, InstallOptions{})
	if err != nil || action != HookUnchanged {
		t.Errorf("reinstall = %q, %v; want unchanged", action, err)
	}
}

func TestInstallHook_ExistingForeignHook(t *testing.T) {
	foreign := "#!/bin/sh\necho custom\n"

	tests := []struct {
		name       string
		opts       InstallOptions
		wantAction HookAction
		wantCode   int
		check      func(t *testing.T, path string)
	}{
		{
			name:     "conflict without options",
			opts:     InstallOptions{},
			wantCode: output.ExitConflict,
			check: func(t *testing.T, path string) {
				if readFile(t, path) != foreign {
					t.Error("foreign hook should be untouched")
				}
			},
		},
		{
			name:       "chain backs up",
			opts:       InstallOptions{Chain: true},
			wantAction: HookChained,
			check: func(t *testing.T, path string) {
				if readFile(t, path+".backup") != foreign {
					t.Error("backup should hold the foreign hook")
				}
				if !CheckHookStatus(path).Chained {
					t.Error("status should report chained")
				}
			},
		},
		{
			name:       "force overwrites",
			opts:       InstallOptions{Force: true},
			wantAction: HookOverwritten,
			check: func(t *testing.T, path string) {
				if strings.Contains(readFile(t, path), "echo custom") {
					t.Error("foreign content should be gone")
				}
				if HookExists(path + ".backup") {
					t.Error("force should not create a backup")
				}
			},
		},
		{
			name:       "append keeps foreign commands",
			opts:       InstallOptions{Append: true},
			wantAction: HookAppended,
			check: func(t *testing.T, path string) {
				got := readFile(t, path)
				if !strings.HasPrefix(got, foreign) || !strings.Contains(got, "tuture reload") {
					t.Errorf("hook = %q", got)
				}
				if !CheckHookStatus(path).Shared {
					t.Error("status should report shared")
				}
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			path := hookPathIn(t)
			writeHookFile(t, path, foreign)

			action, err := InstallHook(path, testCase.opts)
			if testCase.wantCode != 0 {
				if output.GetExitCode(err) != testCase.wantCode {
					t.Fatalf("InstallHook() error = %v, want exit code %d", err, testCase.wantCode)
				}
			} else if err != nil {
				t.Fatalf("InstallHook() error = %v", err)
			}
			if action != testCase.wantAction {
				t.Errorf("action = %q, want %q", action, testCase.wantAction)
			}
			testCase.check(t, path)
		})
	}
}

func TestRemoveHook(t *testing.T) {
	t.Run("missing hook", func(t *testing.T) {
		removal, err := RemoveHook(hookPathIn(t))
		if err != nil || removal != (HookRemoval{}) {
			t.Errorf("RemoveHook() = %+v, %v", removal, err)
		}
	})

	t.Run("generated hook is deleted", func(t *testing.T) {
		path := hookPathIn(t)
		if _, err := InstallHook(path, InstallOptions{}); err != nil {
			t.Fatal(err)
		}
		removal, err := RemoveHook(path)
		if err != nil || !removal.Removed || removal.Restored {
			t.Fatalf("RemoveHook() = %+v, %v", removal, err)
		}
		if HookExists(path) {
			t.Error("hook file should be gone")
		}
	})

	t.Run("chained hook restores backup", func(t *testing.T) {
		path := hookPathIn(t)
		writeHookFile(t, path, "#!/bin/sh\necho mine\n")
		if _, err := InstallHook(path, InstallOptions{Chain: true}); err != nil {
			t.Fatal(err)
		}
		removal, err := RemoveHook(path)
		if err != nil || !removal.Removed || !removal.Restored {
			t.Fatalf("RemoveHook() = %+v, %v", removal, err)
		}
		if readFile(t, path) != "#!/bin/sh\necho mine\n" {
			t.Error("backup should be restored")
		}
	})

	t.Run("shared hook is stripped", func(t *testing.T) {
		path := hookPathIn(t)
		writeHookFile(t, path, "#!/bin/sh\necho mine\n")
		if _, err := InstallHook(path, InstallOptions{Append: true}); err != nil {
			t.Fatal(err)
		}
		removal, err := RemoveHook(path)
		if err != nil || !removal.Stripped {
			t.Fatalf("RemoveHook() = %+v, %v", removal, err)
		}
		if got := readFile(t, path); got != "#!/bin/sh\necho mine\n" {
			t.Errorf("hook = %q", got)
		}
	})

	t.Run("legacy reload line", func(t *testing.T) {
		path := hookPathIn(t)
		writeHookFile(t, path, "#!/bin/sh\n/opt/tuture/bin/run reload\ntuture reload\n")
		removal, err := RemoveHook(path)
		if err != nil {
			t.Fatal(err)
		}
		if !removal.Stripped {
			t.Errorf("RemoveHook() = %+v, want stripped", removal)
		}
		if got := readFile(t, path); got != "#!/bin/sh\n/opt/tuture/bin/run reload\n" {
			t.Errorf("hook = %q", got)
		}
	})

	t.Run("foreign hook untouched", func(t *testing.T) {
		path := hookPathIn(t)
		writeHookFile(t, path, "#!/bin/sh\necho other\n")
		removal, err := RemoveHook(path)
		if err != nil || removal != (HookRemoval{}) {
			t.Errorf("RemoveHook() = %+v, %v", removal, err)
		}
	})
}

func TestBackupExistingHook_Missing(t *testing.T) {
	err := BackupExistingHook(hookPathIn(t))
	var exitErr *output.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != output.ExitSystemError {
		t.Errorf("BackupExistingHook() error = %v, want system error", err)
	}
}

func TestDescribeInstallAction(t *testing.T) {
	tests := []struct {
		name     string
		status   HookStatus
		existing bool
		opts     InstallOptions
		want     string
	}{
		{"no existing hook", HookStatus{}, false, InstallOptions{}, "would install"},
		{"existing with force", HookStatus{}, true, InstallOptions{Force: true}, "would overwrite"},
		{"already installed", HookStatus{Installed: true}, true, InstallOptions{}, "already installed"},
		{"existing with chain", HookStatus{}, true, InstallOptions{Chain: true}, "would backup and chain"},
		{"existing no flags", HookStatus{}, true, InstallOptions{}, "would fail"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := DescribeInstallAction(testCase.status, testCase.existing, testCase.opts)
			if !strings.Contains(got, testCase.want) {
				t.Errorf("DescribeInstallAction() = %q, want to contain %q", got, testCase.want)
			}
		})
	}
}

func TestDescribeUninstallAction(t *testing.T) {
	tests := []struct {
		name      string
		status    HookStatus
		hasBackup bool
		want      string
	}{
		{"not installed", HookStatus{}, false, "no tuture hook installed"},
		{"shared", HookStatus{Installed: true, Shared: true}, false, "remove the tuture section"},
		{"installed with backup", HookStatus{Installed: true, Chained: true}, true, "would remove and restore backup"},
		{"installed no backup", HookStatus{Installed: true}, false, "would remove"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := DescribeUninstallAction(testCase.status, testCase.hasBackup)
			if !strings.Contains(got, testCase.want) {
				t.Errorf("DescribeUninstallAction() = %q, want to contain %q", got, testCase.want)
			}
		})
	}
}
