package main

import (
	"github.com/spf13/cobra"
)

// newFilesCmd creates the files command.
func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <commit>",
		Short: "List the files a commit changed",
		Long: `List the files a commit changed, in git's order, leaving out files whose
base name matches an ignoredFiles pattern.

Examples:
  tuture files HEAD
  tuture files a1b2c3d --json   # [{"file": "src/main.ts"}, ...]`,
		Args: cobra.ExactArgs(1),
		RunE: runFiles,
	}
}

func runFiles(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	a, err := openApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	files, err := a.git.ChangedFiles(cmd.Context(), args[0], a.rules)
	if err != nil {
		err = gitError("listing changed files", err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(files)
	}
	for _, f := range files {
		printer.Println(f.File)
	}
	return nil
}
