package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"costsync/config"
	"costsync/layout"
	"costsync/output"
	"costsync/storage"
	"costsync/transfer"
	"costsync/xlsx"
)

var (
	weekSourceFile     string
	weekTargetFile     string
	weekSourceSheet    string
	weekTargetSheet    string
	weekLabels         []string
	weekOutputFile     string
	weekReportFile     string
	weekDryRun         bool
	weekOverwrite      bool
	weekFirstMatchOnly bool
	weekDBPath         string
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Transfer weekly planned/actual/timesheet figures from a report into a cost-control sheet",
	Long: `Aggregate a progress report's week-block figures by (section, material) and
write them into the matching rows of a cost-control sheet.

Rows are matched by normalized material name qualified by section. Duplicate
source rows are summed; duplicate target rows all receive the value unless
--first-match-only is set. Target cells holding formulas are skipped unless
--overwrite-formulas is set. With --dry-run only the diff preview is printed
and nothing is written.`,
	Example: `
  # Preview one week
  costsync week --source report.xlsx --target cost.xlsx --week WK8 --dry-run

  # Transfer all detected weeks, save the target under a new name
  costsync week --source report.xlsx --target cost.xlsx --out cost_updated.xlsx

  # Overwrite formula cells, first duplicate match only
  costsync week --source report.xlsx --target cost.xlsx --week WK8 --overwrite-formulas --first-match-only --out cost_updated.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		settings := cfg.Settings()
		if cmd.Flags().Changed("overwrite-formulas") {
			settings.OverwriteFormulas = weekOverwrite
		}
		if cmd.Flags().Changed("first-match-only") {
			settings.WriteAllDuplicates = !weekFirstMatchOnly
		}

		source, target, err := openWeekSheets()
		if err != nil {
			return err
		}
		defer source.workbook.Close()
		defer target.workbook.Close()

		grid := cfg.Grid()
		sourceBlocks := layout.DetectWeekBlocks(source.sheet, grid)
		if len(sourceBlocks) == 0 {
			return fmt.Errorf("no week blocks detected on source sheet %q", source.sheet.Name())
		}
		targetBlocks := layout.DetectWeekBlocks(target.sheet, grid)
		if len(targetBlocks) == 0 {
			return fmt.Errorf("no week blocks detected on target sheet %q", target.sheet.Name())
		}

		pairs, missing := transfer.PairWeeks(sourceBlocks, targetBlocks, weekLabels)
		if len(missing) > 0 {
			return fmt.Errorf("no matching week blocks for: %s", strings.Join(missing, ", "))
		}

		engine := transfer.NewWeekEngine(source.sheet, target.sheet, grid, cfg.SectionCheckColumns(), pairs, settings)
		report := engine.Analyze()
		printWeekDiffs(report)

		if weekReportFile != "" {
			if err := writeWeekReport(weekReportFile, report); err != nil {
				return err
			}
			fmt.Printf("Diff report saved to: %s\n", weekReportFile)
		}

		if weekDryRun {
			fmt.Println("Dry run: no cells written.")
			return nil
		}

		written, err := engine.Execute(report.Diffs)
		if err != nil {
			return err
		}
		report.Summary.WrittenCells = written

		outPath := weekOutputFile
		if outPath == "" {
			outPath = weekTargetFile
		}
		if err := target.workbook.SaveAs(outPath); err != nil {
			return err
		}

		if err := recordRun(resolveHistoryPath(cfg, weekDBPath), storage.Run{
			Action:      "week",
			SourceFile:  weekSourceFile,
			TargetFile:  outPath,
			SourceSheet: source.sheet.Name(),
			TargetSheet: target.sheet.Name(),
			WeekLabel:   strings.Join(weekLabels, ", "),
			Summary:     report.Summary,
		}); err != nil {
			return err
		}

		fmt.Printf("Transfer completed. Cells written: %d, Matched keys: %d, Missing target keys: %d, Duplicate source keys: %d, Duplicate target keys: %d, Skipped formula cells: %d\n",
			report.Summary.WrittenCells,
			report.Summary.MatchedKeys,
			report.Summary.MissingTargetKeys,
			report.Summary.DuplicateSourceKeys,
			report.Summary.DuplicateTargetKeys,
			report.Summary.SkippedFormulaCells,
		)
		fmt.Printf("Target saved to: %s\n", outPath)
		return nil
	},
}

type openedSheet struct {
	workbook *xlsx.Workbook
	sheet    *xlsx.Sheet
}

func openWeekSheets() (openedSheet, openedSheet, error) {
	source, err := openSheet(weekSourceFile, weekSourceSheet)
	if err != nil {
		return openedSheet{}, openedSheet{}, err
	}
	target, err := openSheet(weekTargetFile, weekTargetSheet)
	if err != nil {
		source.workbook.Close()
		return openedSheet{}, openedSheet{}, err
	}
	return source, target, nil
}

// openSheet opens the workbook and picks the named sheet, or the first sheet
// when no name is given.
func openSheet(path, sheetName string) (openedSheet, error) {
	workbook, err := xlsx.OpenWorkbook(path)
	if err != nil {
		return openedSheet{}, err
	}
	if sheetName == "" {
		names := workbook.SheetNames()
		if len(names) == 0 {
			workbook.Close()
			return openedSheet{}, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheetName = names[0]
	}
	sheet, err := workbook.Sheet(sheetName)
	if err != nil {
		workbook.Close()
		return openedSheet{}, err
	}
	return openedSheet{workbook: workbook, sheet: sheet}, nil
}

func printWeekDiffs(report *transfer.WeekReport) {
	if len(report.Diffs) == 0 {
		fmt.Println("Nothing to transfer.")
		return
	}
	fmt.Printf("%-12s %-20s %-24s %10s %10s %10s %-7s %s\n",
		"WEEK", "SECTION", "MATERIAL", "PLANNED", "ACTUAL", "TIMESHEET", "ACTION", "REASON")
	for _, diff := range report.Diffs {
		fmt.Printf("%-12s %-20s %-24s %10s %10s %10s %-7s %s\n",
			diff.Week,
			diff.Section,
			diff.Material,
			formatOptional(diff.SrcPlanned),
			formatOptional(diff.SrcActual),
			formatOptional(diff.SrcTimesheet),
			diff.Action,
			diff.Reason,
		)
	}
	for _, line := range report.Logs {
		fmt.Println(line)
	}
}

func writeWeekReport(path string, report *transfer.WeekReport) error {
	writer, err := output.WriterForPath(path)
	if err != nil {
		return err
	}
	table := output.Report{
		Headers: []string{"Week", "Section", "Material", "Planned", "Actual", "Timesheet", "Action", "Reason", "TargetRow"},
	}
	for _, diff := range report.Diffs {
		table.Rows = append(table.Rows, []string{
			diff.Week,
			diff.Section,
			diff.Material,
			formatOptional(diff.SrcPlanned),
			formatOptional(diff.SrcActual),
			formatOptional(diff.SrcTimesheet),
			string(diff.Action),
			diff.Reason,
			strconv.Itoa(diff.TargetRow),
		})
	}
	return writer.Write(path, table)
}

func formatOptional(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *value)
}

func resolveHistoryPath(cfg *config.Config, flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.History.DBPath
}

func recordRun(dbPath string, run storage.Run) error {
	store, err := storage.OpenRunStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.InsertRun(run); err != nil {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(weekCmd)

	weekCmd.Flags().StringVar(&weekSourceFile, "source", "", "Progress report workbook (source)")
	weekCmd.Flags().StringVar(&weekTargetFile, "target", "", "Cost-control workbook (target)")
	weekCmd.Flags().StringVar(&weekSourceSheet, "source-sheet", "", "Source sheet name (default: first sheet)")
	weekCmd.Flags().StringVar(&weekTargetSheet, "target-sheet", "", "Target sheet name (default: first sheet)")
	weekCmd.Flags().StringArrayVarP(&weekLabels, "week", "w", nil, "Week label to transfer, e.g. WK8 (repeatable; default: all detected weeks)")
	weekCmd.Flags().StringVar(&weekOutputFile, "out", "", "Output path for the mutated target workbook (default: overwrite target)")
	weekCmd.Flags().StringVar(&weekReportFile, "report", "", "Write the diff preview to a .csv or .xlsx report file")
	weekCmd.Flags().BoolVar(&weekDryRun, "dry-run", false, "Analyze and print the diff preview without writing")
	weekCmd.Flags().BoolVar(&weekOverwrite, "overwrite-formulas", false, "Write into cells that currently hold formulas")
	weekCmd.Flags().BoolVar(&weekFirstMatchOnly, "first-match-only", false, "Write only the topmost row when a key matches several target rows")
	weekCmd.Flags().StringVar(&weekDBPath, "db", "", "Path to the run-history SQLite database (default: history.db_path)")

	_ = weekCmd.MarkFlagRequired("source")
	_ = weekCmd.MarkFlagRequired("target")
}
