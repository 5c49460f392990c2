package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage costsync configuration file values.",
	Long: `Create, edit, and display the costsync configuration file.

The configuration stores the sheet layout conventions and transfer policy
defaults:
- layout.label_row / header_row / key_column / data_start_row / scan_window
- layout.section_check_from / section_check_to
- transfer.overwrite_formulas / write_all_duplicates / match_by_section
- cumulative.* source and target columns
- history.db_path`,
	Example: `
  # Create default config in $HOME/.costsync.yaml
  costsync config create

  # Show active config and source file
  costsync config show

  # Open active config in editor (creates example if missing)
  costsync config edit
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
