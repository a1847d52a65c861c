package main

import (
	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/output"
	"github.com/tutureproject/tuture/internal/setup"
)

// newHooksCmd creates the hooks parent command with subcommands.
func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage the tuture post-commit hook",
		Long: `Manage the git post-commit hook that keeps the diff artifact current.

The hook runs 'tuture reload' after every commit. It never blocks a commit:
if tuture is missing or the reload fails, git carries on.

Subcommands:
  install    Install the post-commit hook
  uninstall  Remove the post-commit hook
  list       Show hook status

Examples:
  tuture hooks list              # Show hook status
  tuture hooks install           # Install post-commit hook
  tuture hooks install --chain   # Install and preserve existing hook
  tuture hooks uninstall         # Remove hook, restore backup`,
	}

	cmd.AddCommand(newHooksListCmd())
	cmd.AddCommand(newHooksInstallCmd())
	cmd.AddCommand(newHooksUninstallCmd())
	return cmd
}

// newHooksListCmd creates the hooks list subcommand.
func newHooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show status of the post-commit hook",
		Args:  cobra.NoArgs,
		RunE:  runHooksList,
	}
}

func runHooksList(cmd *cobra.Command, _ []string) error {
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

	status := setup.CheckHookStatus(hookPath)
	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"post_commit": status,
		})
	}

	printHumanHooksList(printer, status)
	return nil
}

func printHumanHooksList(printer *output.Printer, status setup.HookStatus) {
	printer.Section("Git Hooks")

	statusStr := "not installed"
	if status.Installed {
		statusStr = "installed"
		switch {
		case status.Chained:
			statusStr += " (chained)"
		case status.Shared:
			statusStr += " (shared with other commands)"
		}
	}
	printer.KeyValue(setup.HookName, statusStr)
}
