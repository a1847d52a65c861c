// Package config loads tuture settings from tuture.yml and TUTURE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tutureproject/tuture/internal/ignore"
)

// Defaults.
const (
	FileName        = "tuture.yml"
	DefaultRoot     = ".tuture"
	DefaultArtifact = "diff.json"
	DefaultGit      = "git"
	DefaultLogLevel = "warn"
)

// DefaultIgnoredFiles are written into a fresh tuture.yml.
var DefaultIgnoredFiles = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"*.lock",
	"go.sum",
}

// Config is the resolved tuture configuration.
type Config struct {
	IgnoredFiles []string `mapstructure:"ignoredFiles"`
	Root         string   `mapstructure:"root"`
	Artifact     string   `mapstructure:"artifact"`
	Concurrency  int      `mapstructure:"concurrency"`
	Git          string   `mapstructure:"git"`
	LogLevel     string   `mapstructure:"logLevel"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		IgnoredFiles: append([]string(nil), DefaultIgnoredFiles...),
		Root:         DefaultRoot,
		Artifact:     DefaultArtifact,
		Concurrency:  runtime.NumCPU(),
		Git:          DefaultGit,
		LogLevel:     DefaultLogLevel,
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if strings.TrimSpace(c.Artifact) == "" {
		errs = append(errs, errors.New("artifact must not be empty"))
	}
	if strings.ContainsAny(c.Artifact, `/\`) {
		errs = append(errs, fmt.Errorf("artifact must be a file name, got %q", c.Artifact))
	}
	if _, err := ignore.New(c.IgnoredFiles); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Rules compiles IgnoredFiles.
func (c *Config) Rules() (*ignore.RuleSet, error) {
	return ignore.New(c.IgnoredFiles)
}

// ArtifactPath returns the artifact location under the repository root base.
func (c *Config) ArtifactPath(base string) string {
	return filepath.Join(c.RootPath(base), c.Artifact)
}

// RootPath returns the tuture directory under base.
func (c *Config) RootPath(base string) string {
	return filepath.Join(base, c.Root)
}

// ParseLevel maps a level name to a slog level. Empty means DefaultLogLevel.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", name)
	}
}
