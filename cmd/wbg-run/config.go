package main

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `config prints the settings after applying defaults, the config file
and WBG_ environment variables (WBG_WINDOW_HREF sets window.href).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		return cfg.Dump(cmd.OutOrStdout())
	},
}
