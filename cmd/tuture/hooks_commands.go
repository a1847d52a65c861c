package main

import (
	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/output"
	"github.com/tutureproject/tuture/internal/setup"
)

// newHooksInstallCmd creates the hooks install subcommand.
func newHooksInstallCmd() *cobra.Command {
	var opts setup.InstallOptions
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the post-commit hook",
		Long: `Install the tuture post-commit hook in .git/hooks/.

An existing hook that already runs tuture is left alone.
Use --chain to preserve an existing hook (it runs after tuture).
Use --force to overwrite an existing hook without backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHooksInstall(cmd, opts, dryRun)
		},
	}

	cmd.Flags().BoolVar(&opts.Chain, "chain", false, "Preserve existing hook, run it after tuture")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing hook without backup")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without doing it")

	return cmd
}

func runHooksInstall(cmd *cobra.Command, opts setup.InstallOptions, dryRun bool) error {
	printer := newPrinter(cmd)

	a, err := openApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}
	hookPath, err := a.hookPath(cmd.Context())
	if err != nil {
		printer.Error(err)
		return err
	}

	existingHook := setup.HookExists(hookPath)
	if dryRun {
		return handleInstallDryRun(printer, hookPath, existingHook, opts)
	}

	action, err := setup.InstallHook(hookPath, opts)
	if err != nil {
		printer.Error(err)
		return err
	}
	return outputInstallSuccess(printer, action)
}

func outputInstallSuccess(printer *output.Printer, action setup.HookAction) error {
	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status": "ok",
			"hook":   setup.HookName,
			"action": action,
		})
	}

	var msg string
	switch action {
	case setup.HookUnchanged:
		msg = "post-commit hook already runs tuture"
	case setup.HookChained:
		msg = "Installed post-commit hook (existing hook backed up and chained)"
	case setup.HookOverwritten:
		msg = "Installed post-commit hook (existing hook overwritten)"
	case setup.HookAppended:
		msg = "Added tuture to the existing post-commit hook"
	default:
		msg = "Installed post-commit hook"
	}
	return printer.Success(map[string]any{"message": msg})
}

func handleInstallDryRun(printer *output.Printer, hookPath string, existingHook bool, opts setup.InstallOptions) error {
	status := setup.CheckHookStatus(hookPath)
	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status":          "dry_run",
			"hook":            setup.HookName,
			"exists":          existingHook,
			"installed":       status.Installed,
			"would_chain":     opts.Chain && existingHook && !status.Installed && !opts.Force,
			"would_overwrite": opts.Force && existingHook,
		})
	}

	printer.Section("Dry Run")
	printer.KeyValue("Hook", setup.HookName)
	printer.KeyValue("Path", hookPath)
	printer.KeyValue("Action", setup.DescribeInstallAction(status, existingHook, opts))

	return nil
}

// newHooksUninstallCmd creates the hooks uninstall subcommand.
func newHooksUninstallCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the post-commit hook",
		Long: `Take tuture out of the post-commit hook. A hook that only ran tuture is
removed and any backup restored; a hook shared with other commands keeps them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHooksUninstall(cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without doing it")

	return cmd
}

func runHooksUninstall(cmd *cobra.Command, dryRun bool) error {
	printer := newPrinter(cmd)

	a, err := openApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}
	hookPath, err := a.hookPath(cmd.Context())
	if err != nil {
		printer.Error(err)
		return err
	}

	if dryRun {
		return handleUninstallDryRun(printer, hookPath)
	}

	removal, err := setup.RemoveHook(hookPath)
	if err != nil {
		printer.Error(err)
		return err
	}
	return outputUninstallResult(printer, removal)
}

func outputUninstallResult(printer *output.Printer, removal setup.HookRemoval) error {
	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status":   "ok",
			"hook":     setup.HookName,
			"removed":  removal.Removed,
			"restored": removal.Restored,
			"stripped": removal.Stripped,
		})
	}

	var msg string
	switch {
	case removal.Restored:
		msg = "Removed post-commit hook and restored the backup"
	case removal.Removed:
		msg = "Removed post-commit hook"
	case removal.Stripped:
		msg = "Removed tuture from the post-commit hook"
	default:
		msg = "No tuture hook installed"
	}
	return printer.Success(map[string]any{"message": msg})
}

func handleUninstallDryRun(printer *output.Printer, hookPath string) error {
	status := setup.CheckHookStatus(hookPath)
	hasBackup := setup.HookExists(hookPath + ".backup")

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status":     "dry_run",
			"hook":       setup.HookName,
			"installed":  status.Installed,
			"has_backup": hasBackup,
		})
	}

	printer.Section("Dry Run")
	printer.KeyValue("Hook", setup.HookName)
	printer.KeyValue("Path", hookPath)
	printer.KeyValue("Action", setup.DescribeUninstallAction(status, hasBackup))

	return nil
}
