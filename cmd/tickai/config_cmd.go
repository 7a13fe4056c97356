package main

import (
	"github.com/spf13/cobra"

	"github.com/zeusync/tickai/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return cfg.Encode(cmd.OutOrStdout())
	},
}
