package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"costsync/config"
	"costsync/output"
	"costsync/storage"
	"costsync/transfer"
	"costsync/xlsx"
)

var (
	cumSourceFile     string
	cumTargetFile     string
	cumSourceSheet    string
	cumTargetSheets   []string
	cumOutputFile     string
	cumReportFile     string
	cumDryRun         bool
	cumOverwrite      bool
	cumMatchBySection bool
	cumDBPath         string
)

var cumulativeCmd = &cobra.Command{
	Use:   "cumulative",
	Short: "Transfer cumulative done quantities from cost control into PPC sheets",
	Long: `Sum the cost-control "done from beginning" quantity per (section, material)
and write it into every matching row of the selected progress-tracking sheets.

Target rows match by normalized material name; --match-by-section also
requires the section label to match. A material matching rows on several
sheets receives the value on all of them. Formula cells are skipped unless
--overwrite-formulas is set.`,
	Example: `
  # Preview against every sheet of the PPC workbook
  costsync cumulative --source cost.xlsx --target ppc.xlsx --dry-run

  # Transfer into two named sheets, matching by section
  costsync cumulative --source cost.xlsx --target ppc.xlsx --target-sheet "PPC Sheet 1" --target-sheet "PPC Sheet 2" --match-by-section --out ppc_updated.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		settings := cfg.Settings()
		if cmd.Flags().Changed("overwrite-formulas") {
			settings.OverwriteFormulas = cumOverwrite
		}
		if cmd.Flags().Changed("match-by-section") {
			settings.MatchBySection = cumMatchBySection
		}

		source, err := openSheet(cumSourceFile, cumSourceSheet)
		if err != nil {
			return err
		}
		defer source.workbook.Close()

		targetWorkbook, err := xlsx.OpenWorkbook(cumTargetFile)
		if err != nil {
			return err
		}
		defer targetWorkbook.Close()

		targetNames := cumTargetSheets
		if len(targetNames) == 0 {
			targetNames = targetWorkbook.SheetNames()
		}
		targets := make([]*xlsx.Sheet, 0, len(targetNames))
		for _, name := range targetNames {
			sheet, err := targetWorkbook.Sheet(name)
			if err != nil {
				return err
			}
			targets = append(targets, sheet)
		}

		engine := transfer.NewCumulativeEngine(source.sheet, targets, cfg.CumulativeLayout(), settings)
		report := engine.Analyze()
		printCumulativeDiffs(report)

		if cumReportFile != "" {
			if err := writeCumulativeReport(cumReportFile, report); err != nil {
				return err
			}
			fmt.Printf("Diff report saved to: %s\n", cumReportFile)
		}

		if cumDryRun {
			fmt.Println("Dry run: no cells written.")
			return nil
		}

		written, err := engine.Execute(report.Diffs)
		if err != nil {
			return err
		}
		report.Summary.WrittenCells = written

		outPath := cumOutputFile
		if outPath == "" {
			outPath = cumTargetFile
		}
		if err := targetWorkbook.SaveAs(outPath); err != nil {
			return err
		}

		if err := recordRun(resolveHistoryPath(cfg, cumDBPath), storage.Run{
			Action:      "cumulative",
			SourceFile:  cumSourceFile,
			TargetFile:  outPath,
			SourceSheet: source.sheet.Name(),
			TargetSheet: strings.Join(targetNames, ", "),
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

func printCumulativeDiffs(report *transfer.CumulativeReport) {
	if len(report.Diffs) == 0 {
		fmt.Println("Nothing to transfer.")
		return
	}
	fmt.Printf("%-16s %-20s %-24s %10s %10s %-7s %s\n",
		"SHEET", "SECTION", "MATERIAL", "DONE", "CURRENT", "ACTION", "REASON")
	for _, diff := range report.Diffs {
		fmt.Printf("%-16s %-20s %-24s %10s %10s %-7s %s\n",
			diff.SheetName,
			diff.Section,
			diff.Material,
			formatOptional(diff.SrcDone),
			diff.TgtCurrent,
			diff.Action,
			diff.Reason,
		)
	}
	for _, line := range report.Logs {
		fmt.Println(line)
	}
}

func writeCumulativeReport(path string, report *transfer.CumulativeReport) error {
	writer, err := output.WriterForPath(path)
	if err != nil {
		return err
	}
	table := output.Report{
		Headers: []string{"Sheet", "Section", "Material", "Done", "Current", "Action", "Reason", "TargetRow"},
	}
	for _, diff := range report.Diffs {
		table.Rows = append(table.Rows, []string{
			diff.SheetName,
			diff.Section,
			diff.Material,
			formatOptional(diff.SrcDone),
			diff.TgtCurrent,
			string(diff.Action),
			diff.Reason,
			strconv.Itoa(diff.TargetRow),
		})
	}
	return writer.Write(path, table)
}

func init() {
	rootCmd.AddCommand(cumulativeCmd)

	cumulativeCmd.Flags().StringVar(&cumSourceFile, "source", "", "Cost-control workbook (source)")
	cumulativeCmd.Flags().StringVar(&cumTargetFile, "target", "", "PPC workbook (target)")
	cumulativeCmd.Flags().StringVar(&cumSourceSheet, "source-sheet", "", "Source sheet name (default: first sheet)")
	cumulativeCmd.Flags().StringArrayVar(&cumTargetSheets, "target-sheet", nil, "Target sheet name (repeatable; default: all sheets)")
	cumulativeCmd.Flags().StringVar(&cumOutputFile, "out", "", "Output path for the mutated target workbook (default: overwrite target)")
	cumulativeCmd.Flags().StringVar(&cumReportFile, "report", "", "Write the diff preview to a .csv or .xlsx report file")
	cumulativeCmd.Flags().BoolVar(&cumDryRun, "dry-run", false, "Analyze and print the diff preview without writing")
	cumulativeCmd.Flags().BoolVar(&cumOverwrite, "overwrite-formulas", false, "Write into cells that currently hold formulas")
	cumulativeCmd.Flags().BoolVar(&cumMatchBySection, "match-by-section", false, "Require the section label to match as well as the material name")
	cumulativeCmd.Flags().StringVar(&cumDBPath, "db", "", "Path to the run-history SQLite database (default: history.db_path)")

	_ = cumulativeCmd.MarkFlagRequired("source")
	_ = cumulativeCmd.MarkFlagRequired("target")
}
