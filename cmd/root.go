package cmd

import (
	"github.com/spf13/cobra"
	"meet-recording-sync/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meet-recording-sync",
		Short: "reconcile meeting recordings with the conferencing platform",
	}
	rootCmd.AddCommand(server(config), sync(config), migrate(config))
	return rootCmd
}
