package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"costsync/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  costsync config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file in use, showing built-in defaults.")
		}
		fmt.Println("Configuration:")
		fmt.Printf("layout.label_row: %d\n", cfg.Layout.LabelRow)
		fmt.Printf("layout.header_row: %d\n", cfg.Layout.HeaderRow)
		fmt.Printf("layout.key_column: %d\n", cfg.Layout.KeyColumn)
		fmt.Printf("layout.data_start_row: %d\n", cfg.Layout.DataStartRow)
		fmt.Printf("layout.scan_window: %d\n", cfg.Layout.ScanWindow)
		fmt.Printf("layout.section_check_from: %d\n", cfg.Layout.SectionCheckFrom)
		fmt.Printf("layout.section_check_to: %d\n", cfg.Layout.SectionCheckTo)
		fmt.Printf("transfer.overwrite_formulas: %t\n", cfg.Transfer.OverwriteFormulas)
		fmt.Printf("transfer.write_all_duplicates: %t\n", cfg.Transfer.WriteAllDuplicates)
		fmt.Printf("transfer.match_by_section: %t\n", cfg.Transfer.MatchBySection)
		fmt.Printf("cumulative.source_key_column: %d\n", cfg.Cumulative.SourceKeyColumn)
		fmt.Printf("cumulative.source_done_column: %d\n", cfg.Cumulative.SourceDoneColumn)
		fmt.Printf("cumulative.source_start_row: %d\n", cfg.Cumulative.SourceStartRow)
		fmt.Printf("cumulative.target_material_column: %d\n", cfg.Cumulative.TargetMaterialColumn)
		fmt.Printf("cumulative.target_qty_column: %d\n", cfg.Cumulative.TargetQtyColumn)
		fmt.Printf("cumulative.target_start_row: %d\n", cfg.Cumulative.TargetStartRow)
		fmt.Printf("history.db_path: %s\n", cfg.History.DBPath)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
