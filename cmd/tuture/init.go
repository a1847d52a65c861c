package main

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/config"
	"github.com/tutureproject/tuture/internal/git"
	"github.com/tutureproject/tuture/internal/output"
	"github.com/tutureproject/tuture/internal/setup"
)

// initFlags holds the command-line flags for the init command.
type initFlags struct {
	noHook   bool
	noReload bool
}

// initStepResult tracks the result of a single initialization step.
type initStepResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "skipped", "failed"
	Message string `json:"message,omitempty"`
}

// initStep runs one part of init. A returned error stops the sequence.
type initStep struct {
	name string
	run  func(ctx context.Context, a *app) (initStepResult, error)
}

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize tuture in the current directory",
		Long: `Initialize tuture in the current directory.

This command sets up everything needed to use tuture:
  - Runs git init if the directory is not a repository yet
  - Writes tuture.yml with the default settings if it is missing
  - Adds .tuture to .gitignore
  - Adds 'tuture reload' to the post-commit hook (optional)
  - Generates .tuture/diff.json from the existing history (optional)

The command is idempotent - safe to run multiple times.

Examples:
  tuture init               # Full setup
  tuture init --no-hook     # Skip the post-commit hook
  tuture init --no-reload   # Skip generating the artifact`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noHook, "no-hook", false, "Do not install the post-commit hook")
	cmd.Flags().BoolVar(&flags.noReload, "no-reload", false, "Do not generate the diff artifact")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	printer := newPrinter(cmd)

	a, err := loadApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	if !printer.IsJSON() {
		printer.Print("%s %s...\n\n", printer.Styles().Bold.Render("Initializing tuture in"), printer.Styles().Muted.Render(filepath.Base(a.workDir)))
	}

	steps := make([]initStepResult, 0, 5)
	for _, step := range initSteps(cmd, flags) {
		result, stepErr := step.run(cmd.Context(), a)
		result.Name = step.name
		if stepErr != nil {
			result.Status = "failed"
			result.Message = stepErr.Error()
		}
		steps = append(steps, result)
		if !printer.IsJSON() {
			printStepResult(printer, result)
		}
		if stepErr != nil {
			err = output.FromError(step.name, stepErr)
			printer.Error(err)
			return err
		}
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status": "ok",
			"steps":  steps,
		})
	}
	printer.Println()
	return printer.Success(map[string]any{"message": "Tuture initialized!"})
}

func initSteps(cmd *cobra.Command, flags *initFlags) []initStep {
	return []initStep{
		{name: "git_init", run: stepGitInit},
		{name: "config", run: func(_ context.Context, a *app) (initStepResult, error) {
			return stepConfig(a, flagString(cmd, "config"))
		}},
		{name: "gitignore", run: stepGitignore},
		{name: "hook", run: func(ctx context.Context, a *app) (initStepResult, error) {
			if flags.noHook {
				return initStepResult{Status: "skipped", Message: "disabled via --no-hook"}, nil
			}
			return stepHook(ctx, a)
		}},
		{name: "reload", run: func(ctx context.Context, a *app) (initStepResult, error) {
			if flags.noReload {
				return initStepResult{Status: "skipped", Message: "disabled via --no-reload"}, nil
			}
			return stepReload(ctx, a)
		}},
	}
}

func stepGitInit(ctx context.Context, a *app) (initStepResult, error) {
	if a.git.IsRepo(ctx) {
		return initStepResult{Status: "skipped", Message: "already a git repository"}, nil
	}
	if err := a.git.Init(ctx); err != nil {
		return initStepResult{}, err
	}
	return initStepResult{Status: "ok", Message: "created git repository"}, nil
}

func stepConfig(a *app, configFlag string) (initStepResult, error) {
	path := configFlag
	if path == "" {
		path = filepath.Join(a.workDir, config.FileName)
	}

	fresh := *a.cfg
	if len(fresh.IgnoredFiles) == 0 {
		fresh.IgnoredFiles = append([]string(nil), config.DefaultIgnoredFiles...)
	}
	err := config.Save(path, &fresh, false)
	if errors.Is(err, fs.ErrExist) {
		return initStepResult{Status: "skipped", Message: "already exists"}, nil
	}
	if err != nil {
		return initStepResult{}, err
	}
	// Later steps see the patterns just written.
	if err := a.configure(&fresh); err != nil {
		return initStepResult{}, err
	}
	return initStepResult{Status: "ok", Message: "wrote " + relPath(a.workDir, path)}, nil
}

func stepGitignore(_ context.Context, a *app) (initStepResult, error) {
	changed, err := setup.AppendGitignore(a.workDir, a.cfg.Root)
	if err != nil {
		return initStepResult{}, err
	}
	if !changed {
		return initStepResult{Status: "skipped", Message: "already ignored"}, nil
	}
	return initStepResult{Status: "ok", Message: "ignoring " + a.cfg.Root}, nil
}

func stepHook(ctx context.Context, a *app) (initStepResult, error) {
	hookPath, err := a.hookPath(ctx)
	if err != nil {
		return initStepResult{}, err
	}
	action, err := setup.InstallHook(hookPath, setup.InstallOptions{Append: true})
	if err != nil {
		return initStepResult{}, err
	}
	if action == setup.HookUnchanged {
		return initStepResult{Status: "skipped", Message: "already installed"}, nil
	}
	return initStepResult{Status: "ok", Message: string(action)}, nil
}

func stepReload(ctx context.Context, a *app) (initStepResult, error) {
	records, err := a.store.StoreDiff(ctx, git.OldestFirst(a.git.Logs(ctx)))
	if err != nil {
		return initStepResult{}, err
	}
	return initStepResult{Status: "ok", Message: "stored " + pluralCommits(len(records))}, nil
}

// printStepResult prints a single step result in human format.
func printStepResult(printer *output.Printer, step initStepResult) {
	styles := printer.Styles()
	var icon string
	switch step.Status {
	case "ok":
		icon = styles.Success.Render("ok")
	case "skipped":
		icon = styles.Muted.Render("--")
	default:
		icon = styles.Error.Render("!!")
	}
	printer.Print("  %s %s", icon, step.displayName())
	if step.Message != "" {
		printer.Print(" %s", styles.Muted.Render("("+step.Message+")"))
	}
	printer.Println()
}

// displayName returns the display form of a step name.
func (r initStepResult) displayName() string {
	switch r.Name {
	case "git_init":
		return "Git repository"
	case "config":
		return "Config file"
	case "gitignore":
		return ".gitignore"
	case "hook":
		return "Post-commit hook"
	case "reload":
		return "Diff artifact"
	default:
		return r.Name
	}
}
