package main

import (
	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/git"
	"github.com/tutureproject/tuture/internal/output"
)

// newLogCmd creates the log command.
func newLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "List non-merge commits, newest first",
		Long: `List the repository's non-merge commits, newest first, one per line as
abbreviated id and subject. A repository without commits lists nothing.

Examples:
  tuture log          # Human-readable list
  tuture log --json   # JSON array of "<id> <subject>" strings`,
		Args: cobra.NoArgs,
		RunE: runLog,
	}
}

func runLog(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	a, err := openApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	commits := a.git.Logs(cmd.Context())
	if printer.IsJSON() {
		return printer.WriteJSON(commits)
	}

	printHumanLog(printer, commits)
	return nil
}

func printHumanLog(printer *output.Printer, commits []git.CommitSummary) {
	if len(commits) == 0 {
		printer.Println("No commits yet")
		return
	}
	styles := printer.Styles()
	for _, c := range commits {
		printer.Print("%s %s\n", styles.Key.Render(c.ID()), c.Subject())
	}
}
