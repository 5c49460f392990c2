package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"costsync/config"
	"costsync/layout"
	"costsync/xlsx"
)

var (
	blocksFile  string
	blocksSheet string
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List detected week blocks per sheet of a workbook",
	Long: `Scan a workbook and print the week blocks detected on each sheet.

A week block is a merged 5-column label on the label row whose sub-header row
matches the Q-ty / Man/hour / Q-ty / Man/hour / Timesheet pattern. Sheets
without merges fall back to a linear column scan.`,
	Example: `
  # All sheets
  costsync blocks -f report.xlsx

  # One sheet
  costsync blocks -f report.xlsx -s "Report"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		workbook, err := xlsx.OpenWorkbook(blocksFile)
		if err != nil {
			return err
		}
		defer workbook.Close()

		sheetNames := workbook.SheetNames()
		if blocksSheet != "" {
			sheetNames = []string{blocksSheet}
		}

		grid := cfg.Grid()
		for _, name := range sheetNames {
			sheet, err := workbook.Sheet(name)
			if err != nil {
				return err
			}
			blocks := layout.DetectWeekBlocks(sheet, grid)
			if len(blocks) == 0 {
				fmt.Printf("%s: no week blocks detected\n", name)
				continue
			}
			fmt.Printf("%s: %d week block(s)\n", name, len(blocks))
			for _, block := range blocks {
				fmt.Printf("  %-24s columns %d-%d (data starts at row %d)\n",
					block.Label, block.StartCol, block.EndCol, layout.FindDataStartRow(sheet, grid))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)

	blocksCmd.Flags().StringVarP(&blocksFile, "file", "f", "", "Workbook to scan")
	blocksCmd.Flags().StringVarP(&blocksSheet, "sheet", "s", "", "Limit the scan to one sheet")

	_ = blocksCmd.MarkFlagRequired("file")
}
