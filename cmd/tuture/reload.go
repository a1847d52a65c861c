package main

import (
	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/git"
	"github.com/tutureproject/tuture/internal/output"
)

// newReloadCmd creates the reload command.
func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Regenerate the diff artifact from the full history",
		Long: `Parse every non-merge commit, oldest first, and replace the diff artifact
(.tuture/diff.json by default) with the result. If any commit fails the
existing artifact is left as it was.

The post-commit hook installed by 'tuture init' runs this after every commit.`,
		Args: cobra.NoArgs,
		RunE: runReload,
	}
}

func runReload(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	a, err := openApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	ids := git.OldestFirst(a.git.Logs(cmd.Context()))
	return storeCommits(cmd, printer, a, ids)
}

// newStoreCmd creates the store command.
func newStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store <commit>...",
		Short: "Write the diffs of specific commits to the artifact",
		Long: `Parse the given commits and replace the diff artifact with them, in the
order given. If any commit fails the existing artifact is left as it was.

Examples:
  tuture store a1b2c3d e4f5a6b
  tuture store $(git rev-list --reverse HEAD~5..HEAD)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			a, err := openApp(cmd)
			if err != nil {
				printer.Error(err)
				return err
			}
			return storeCommits(cmd, printer, a, args)
		},
	}
}

// storeCommits runs the store and reports where the artifact went.
func storeCommits(cmd *cobra.Command, printer *output.Printer, a *app, ids []string) error {
	records, err := a.store.StoreDiff(cmd.Context(), ids)
	if err != nil {
		err = gitError("storing diffs", err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"status":  "ok",
			"path":    a.store.Path(),
			"records": len(records),
		})
	}
	return printer.Success(map[string]any{
		"message": "Stored " + pluralCommits(len(records)) + " in " + relPath(a.workDir, a.store.Path()),
	})
}

func pluralCommits(n int) string {
	if n == 1 {
		return "1 commit"
	}
	return itoa(n) + " commits"
}
