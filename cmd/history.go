package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"costsync/config"
	"costsync/storage"
)

var (
	historyDBPath string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent executed transfers",
	Long:  `Print the most recent executed transfers recorded in the run-history database, newest first.`,
	Example: `
  # Last 20 runs
  costsync history

  # Last 5 runs from an explicit database
  costsync history --limit 5 --db ./costsync.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		store, err := storage.OpenRunStore(resolveHistoryPath(cfg, historyDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No transfers recorded yet.")
			return nil
		}

		for _, run := range runs {
			week := run.WeekLabel
			if week == "" {
				week = "-"
			}
			fmt.Printf("#%d %s %s: %s -> %s (weeks: %s) cells=%d matched=%d missing=%d dup_src=%d dup_tgt=%d skipped_formulas=%d\n",
				run.ID,
				run.CreatedAt.Format(time.RFC3339),
				run.Action,
				run.SourceFile,
				run.TargetFile,
				week,
				run.Summary.WrittenCells,
				run.Summary.MatchedKeys,
				run.Summary.MissingTargetKeys,
				run.Summary.DuplicateSourceKeys,
				run.Summary.DuplicateTargetKeys,
				run.Summary.SkippedFormulaCells,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDBPath, "db", "", "Path to the run-history SQLite database (default: history.db_path)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
}
