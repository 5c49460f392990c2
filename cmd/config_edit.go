package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"costsync/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active costsync config file in $VISUAL, $EDITOR, or vi.

If no config file exists yet, one is created from the example template first.
After the editor exits the file is validated, so a broken grid layout is
caught here instead of on the next transfer run.`,
	Example: `
  # Edit active config
  costsync config edit
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
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		editor := editorCommand(configPath)
		editor.Stdin = os.Stdin
		editor.Stdout = os.Stdout
		editor.Stderr = os.Stderr
		if err := editor.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading edited config failed: %w", err)
		}
		cfg, err := config.ValidateYAMLContent(content)
		if err != nil {
			return fmt.Errorf("config validation failed in %s: %w", configPath, err)
		}

		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		fmt.Printf("Grid: label row %d, sub-header row %d, key column %d, data from row %d\n",
			cfg.Layout.LabelRow, cfg.Layout.HeaderRow, cfg.Layout.KeyColumn, cfg.Layout.DataStartRow)
		return nil
	},
}

// activeConfigPath is where edit and create operate: the --config flag, then
// the file viper discovered, then the home-directory default.
func activeConfigPath() (string, error) {
	if path := strings.TrimSpace(cfgFile); path != "" {
		return path, nil
	}
	if path := strings.TrimSpace(viper.ConfigFileUsed()); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".costsync.yaml"), nil
}

// writeExampleConfig writes the example template to path unless a file is
// already there. Reports whether a new file was created.
func writeExampleConfig(path string) (bool, error) {
	switch _, err := os.Stat(path); {
	case err == nil:
		return false, nil
	case !os.IsNotExist(err):
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}
	return true, nil
}

// editorCommand builds the editor invocation for the config file. $VISUAL
// and $EDITOR may carry flags ("code --wait"), so the value is split into
// fields before the path is appended.
func editorCommand(configPath string) *exec.Cmd {
	value := strings.TrimSpace(os.Getenv("VISUAL"))
	if value == "" {
		value = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if value == "" {
		value = "vi"
	}

	fields := strings.Fields(value)
	return exec.Command(fields[0], append(fields[1:], configPath)...)
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
