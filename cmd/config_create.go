package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Write the example config template to the active config path.

An existing file is never overwritten; edit it instead, or delete it first
to start over from the template.`,
	Example: `
  # Create default config at $HOME/.costsync.yaml
  costsync config create

  # Create a project-local config
  costsync --config ./.costsync.yaml config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := activeConfigPath()
		if err != nil {
			return err
		}

		created, err := writeExampleConfig(configPath)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("Config file already exists at: %s\n", configPath)
			return nil
		}

		fmt.Printf("New config file created at: %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCreateCmd)
}
