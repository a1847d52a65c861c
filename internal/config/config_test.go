package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every variable that could leak host settings into Load.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("TUTURE_CONFIG_HOME", t.TempDir())
	for _, env := range []string{
		"TUTURE_IGNORED_FILES", "TUTURE_LOG_LEVEL", "TUTURE_ROOT",
		"TUTURE_ARTIFACT", "TUTURE_CONCURRENCY", "TUTURE_GIT",
	} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.IgnoredFiles)
	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, DefaultArtifact, cfg.Artifact)
	assert.Equal(t, runtime.NumCPU(), cfg.Concurrency)
	assert.Equal(t, DefaultGit, cfg.Git)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileInWorkDir(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "ignoredFiles:\n  - '*.lock'\n  - dist.js\nroot: .cache/tuture\nconcurrency: 3\n")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.lock", "dist.js"}, cfg.IgnoredFiles)
	assert.Equal(t, ".cache/tuture", cfg.Root)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.File)
	assert.Equal(t, filepath.Join("/repo", ".cache/tuture", "diff.json"), cfg.ArtifactPath("/repo"))

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.True(t, rules.Match("deps/yarn.lock"))
}

func TestLoad_GlobalDirFallback(t *testing.T) {
	isolate(t)
	global := t.TempDir()
	t.Setenv("TUTURE_CONFIG_HOME", global)
	writeFile(t, filepath.Join(global, "tuture.yaml"), "artifact: history.json\n")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "history.json", cfg.Artifact)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "ignoredFiles: ['*.md']\nconcurrency: 2\n")
	t.Setenv("TUTURE_IGNORED_FILES", "*.lock,*.sum")
	t.Setenv("TUTURE_CONCURRENCY", "5")
	t.Setenv("TUTURE_LOG_LEVEL", "debug")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.lock", "*.sum"}, cfg.IgnoredFiles)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yml")
	writeFile(t, path, "git: /usr/local/bin/git\n")

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/git", cfg.Git)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"), "")
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"bad pattern", "ignoredFiles: ['[oops']\n", "invalid ignore pattern"},
		{"zero concurrency", "concurrency: 0\n", "concurrency must be positive"},
		{"artifact with dir", "artifact: out/diff.json\n", "artifact must be a file name"},
		{"log level", "logLevel: loud\n", "unknown log level"},
		{"malformed yaml", "ignoredFiles: [\n", "read config"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), testCase.content)

			_, err := Load("", dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.wantMsg)
		})
	}
}

func TestSave(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	require.NoError(t, Save(path, Default(), false))
	err := Save(path, Default(), false)
	require.ErrorIs(t, err, fs.ErrExist)

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultIgnoredFiles, cfg.IgnoredFiles)
	assert.Equal(t, DefaultRoot, cfg.Root)

	custom := Default()
	custom.IgnoredFiles = nil
	require.NoError(t, Save(path, custom, true))
	cfg, err = Load("", dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.IgnoredFiles)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, testCase := range tests {
		got, err := ParseLevel(testCase.in)
		require.NoError(t, err)
		assert.Equal(t, testCase.want, got, testCase.in)
	}
}
