package main

import (
	"github.com/spf13/cobra"

	"bossnotifier/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "bossnotifier",
		Short:         "Raid boss detection overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.json, .yaml, .toml)")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newCategoriesCommand(&configFlag))
	rootCmd.AddCommand(newScanCommand(&configFlag))
	return rootCmd
}

// loadSettings reads path (defaults when empty) for the one-shot commands.
func loadSettings(path string) (config.Settings, error) {
	cfg, err := config.NewManager(path).Load()
	if err != nil {
		return config.Settings{}, err
	}
	return cfg.Resolve()
}
