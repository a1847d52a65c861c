package main

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/diff"
	"github.com/tutureproject/tuture/internal/output"
)

// fileStat is one row of `tuture diff --stat`.
type fileStat struct {
	Path      string      `json:"path"`
	Status    diff.Status `json:"status"`
	Additions int         `json:"additions"`
	Deletions int         `json:"deletions"`
}

// newDiffCmd creates the diff command.
func newDiffCmd() *cobra.Command {
	var stat bool

	cmd := &cobra.Command{
		Use:   "diff <commit>",
		Short: "Show a commit's parsed diff",
		Long: `Parse a commit's patch into files, hunks and numbered lines. Files matched
by ignoredFiles are left out. Nothing is written to the artifact.

Examples:
  tuture diff HEAD           # Coloured hunks
  tuture diff HEAD --stat    # Per-file counts
  tuture diff HEAD --json    # The record stored in diff.json, plus anomalies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], stat)
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "Show per-file line counts only")
	return cmd
}

func runDiff(cmd *cobra.Command, id string, stat bool) error {
	printer := newPrinter(cmd)

	a, err := openApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	record, anomalies, err := a.store.Diff(cmd.Context(), id)
	if err != nil {
		err = gitError("reading commit", err)
		printer.Error(err)
		return err
	}
	if anomalies == nil {
		anomalies = []diff.Anomaly{}
	}

	stats, adds, dels := diffStats(record.Diff)
	if printer.IsJSON() {
		if stat {
			return printer.WriteJSON(map[string]any{
				"commit":    record.Commit,
				"files":     stats,
				"additions": adds,
				"deletions": dels,
			})
		}
		return printer.WriteJSON(map[string]any{
			"commit":    record.Commit,
			"diff":      record.Diff,
			"anomalies": anomalies,
		})
	}

	if stat {
		printHumanStat(printer, stats, adds, dels)
	} else {
		printHumanDiff(printer, record.Diff)
	}
	if len(anomalies) > 0 {
		printer.Warn("%d line(s) could not be placed; rerun with --log-level debug for details", len(anomalies))
	}
	return nil
}

func diffStats(files []diff.FileDiff) ([]fileStat, int, int) {
	stats := make([]fileStat, 0, len(files))
	adds, dels := 0, 0
	for _, f := range files {
		stats = append(stats, fileStat{
			Path:      displayPath(f),
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
		adds += f.Additions
		dels += f.Deletions
	}
	return stats, adds, dels
}

func displayPath(f diff.FileDiff) string {
	if (f.Status == diff.StatusRenamed || f.Status == diff.StatusCopied) && f.From != f.To {
		return f.From + " => " + f.To
	}
	return f.Path()
}

func printHumanStat(printer *output.Printer, stats []fileStat, adds, dels int) {
	if len(stats) == 0 {
		printer.Println("No file changes")
		return
	}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{s.Path, string(s.Status), strconv.Itoa(s.Additions), strconv.Itoa(s.Deletions)})
	}
	printer.Table([]string{"FILE", "STATUS", "+", "-"}, rows)
	printer.Println()
	printer.Print("%s changed, %s insertion(s), %s deletion(s)\n",
		pluralFiles(len(stats)), humanize.Comma(int64(adds)), humanize.Comma(int64(dels)))
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return humanize.Comma(int64(n)) + " files"
}

func printHumanDiff(printer *output.Printer, files []diff.FileDiff) {
	if len(files) == 0 {
		printer.Println("No file changes")
		return
	}
	styles := printer.Styles()
	for _, f := range files {
		printer.Print("%s %s\n", styles.Bold.Render(displayPath(f)), styles.Muted.Render("("+string(f.Status)+")"))
		if f.Binary {
			printer.Println(styles.Muted.Render("Binary file"))
			continue
		}
		for _, h := range f.Hunks {
			printer.Println(styles.Title.Render(h.Header))
			for _, l := range h.Lines {
				switch l.Type {
				case diff.LineAdded:
					printer.Println(styles.Added.Render("+" + l.Content))
				case diff.LineRemoved:
					printer.Println(styles.Removed.Render("-" + l.Content))
				default:
					printer.Println(" " + l.Content)
				}
			}
		}
		printer.Println()
	}
}
