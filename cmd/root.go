/*
Copyright © 2026 costsync authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"costsync/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "costsync",
	Short: "Reconcile weekly progress reports with cost-control and PPC spreadsheets.",
	Long: `costsync transfers numeric progress data between structurally similar
construction-tracking spreadsheets.

It detects weekly 5-column blocks (planned qty, planned manhours, actual qty,
actual manhours, timesheet) from merged labels and sub-header patterns, groups
rows into work sections, matches rows across workbooks by normalized material
name, and writes selected fields into the target while leaving formula cells
untouched unless told otherwise. Every transfer can be previewed as a diff
before anything is written.`,
	Example: `
  # Create configuration file
  costsync config create

  # List detected week blocks in a workbook
  costsync blocks -f report.xlsx

  # Preview a weekly transfer (no writes)
  costsync week --source report.xlsx --target cost.xlsx --week WK8 --dry-run

  # Apply a weekly transfer and save the result
  costsync week --source report.xlsx --target cost.xlsx --week WK8 --out cost_updated.xlsx

  # Transfer cumulative done quantities into PPC sheets
  costsync cumulative --source cost.xlsx --target ppc.xlsx --target-sheet "PPC Sheet 1" --out ppc_updated.xlsx

  # Show recent executed transfers
  costsync history

  # Start the local web UI
  costsync serve
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.costsync.yaml, then ./.costsync.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".costsync" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".costsync")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in. Defaults cover every value, so
	// running without one is fine.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found, using built-in defaults. Create one with: costsync config create")
	}
}
