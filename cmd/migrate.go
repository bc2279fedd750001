package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"meet-recording-sync/config"
	"meet-recording-sync/repository"
	server2 "meet-recording-sync/server"
)

func migrate(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the meetings, recordings and jobs tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := server2.SetupLogger(config)
			repo, err := repository.NewRepo(config.DB)
			if err != nil {
				return err
			}
			if err := repo.AutoMigrate(); err != nil {
				return err
			}
			zerolog.Ctx(ctx).Info().Msg("schema migrated")
			return nil
		},
	}
}
