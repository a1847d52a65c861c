package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tutureproject/tuture/internal/output"
	"github.com/tutureproject/tuture/internal/store"
)

// newShowArtifactCmd creates the show-artifact command.
func newShowArtifactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-artifact",
		Short: "Summarise the stored diff artifact",
		Long: `Read the diff artifact back and list its records. A missing artifact is
reported, not treated as an error.

Examples:
  tuture show-artifact          # Path, size and a per-commit table
  tuture show-artifact --json   # {"path", "exists", "size", "records"}`,
		Args: cobra.NoArgs,
		RunE: runShowArtifact,
	}
}

func runShowArtifact(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	a, err := loadApp(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	path := a.store.Path()
	records, err := store.Load(path)
	if err != nil {
		err = output.FromError("", err)
		printer.Error(err)
		return err
	}
	var size int64
	if info, statErr := os.Stat(path); statErr == nil {
		size = info.Size()
	}

	if printer.IsJSON() {
		exists := records != nil
		if records == nil {
			records = []store.Record{}
		}
		return printer.WriteJSON(map[string]any{
			"path":    path,
			"exists":  exists,
			"size":    size,
			"records": records,
		})
	}

	if records == nil {
		printer.Print("No artifact at %s. Run 'tuture reload' to create it.\n", relPath(a.workDir, path))
		return nil
	}

	printer.Section("Diff Artifact")
	printer.KeyValue("Path", relPath(a.workDir, path))
	printer.KeyValue("Size", humanize.Bytes(uint64(size)))
	printer.KeyValue("Commits", strconv.Itoa(len(records)))
	if len(records) == 0 {
		return nil
	}

	printer.Println()
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		_, adds, dels := diffStats(r.Diff)
		rows = append(rows, []string{r.Commit, strconv.Itoa(len(r.Diff)), strconv.Itoa(adds), strconv.Itoa(dels)})
	}
	printer.Table([]string{"COMMIT", "FILES", "+", "-"}, rows)
	return nil
}

// relPath shortens path for display; it falls back to path unchanged.
func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

func itoa(n int) string {
	return humanize.Comma(int64(n))
}
