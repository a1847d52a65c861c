package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/config"
	"github.com/tutureproject/tuture/internal/git"
	"github.com/tutureproject/tuture/internal/ignore"
	"github.com/tutureproject/tuture/internal/logging"
	"github.com/tutureproject/tuture/internal/output"
	"github.com/tutureproject/tuture/internal/setup"
	"github.com/tutureproject/tuture/internal/store"
)

// app holds the per-invocation wiring shared by repository commands.
type app struct {
	workDir string
	cfg     *config.Config
	rules   *ignore.RuleSet
	logger  *slog.Logger
	git     *git.Client
	store   *store.Store
}

// loadApp resolves configuration for the working directory and builds the
// git client and diff store from it.
func loadApp(cmd *cobra.Command) (*app, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to get working directory", err)
	}

	cfg, err := config.Load(flagString(cmd, "config"), workDir)
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{workDir: workDir, logger: logger}
	if err := a.configure(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// configure (re)builds the git client and diff store from cfg.
func (a *app) configure(cfg *config.Config) error {
	rules, err := cfg.Rules()
	if err != nil {
		return output.NewUserErrorWithCause(err.Error(), err)
	}

	a.cfg = cfg
	a.rules = rules
	a.git = git.NewClient(git.NewExecRunner(cfg.Git, a.workDir), a.logger)
	a.store = store.New(a.git, store.Options{
		Path:        cfg.ArtifactPath(a.workDir),
		Concurrency: cfg.Concurrency,
		Rules:       rules,
		Logger:      a.logger,
	})
	return nil
}

// newLogger builds the stderr logger. An explicit --log-level beats the
// configured level.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	levelName := cfg.LogLevel
	if flagChanged(cmd, "log-level") {
		levelName = flagString(cmd, "log-level")
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}

	format, err := logging.ParseFormat(flagString(cmd, "log-format"))
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}
	return logging.New(cmd.ErrOrStderr(), level, format), nil
}

// requireRepo fails with a system error outside a git work tree.
func (a *app) requireRepo(ctx context.Context) error {
	if !a.git.IsRepo(ctx) {
		return output.NewSystemError("not in a git repository")
	}
	return nil
}

// hookPath locates the post-commit hook of the current repository.
func (a *app) hookPath(ctx context.Context) (string, error) {
	gitDir, err := a.git.GitDir(ctx, a.workDir)
	if err != nil {
		return "", output.FromError("", err)
	}
	return setup.HookPath(gitDir), nil
}

// gitError maps git client failures onto exit codes: malformed commit ids
// are the user's fault, everything else is a system error.
func gitError(prefix string, err error) error {
	if errors.Is(err, git.ErrInvalidCommit) {
		return output.NewUserErrorWithCause(prefix+": "+err.Error(), err)
	}
	return output.FromError(prefix, err)
}

// openApp is the common preamble: load the app and insist on a repository.
func openApp(cmd *cobra.Command) (*app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.requireRepo(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}
