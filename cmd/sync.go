package cmd

import (
	"encoding/json"
	"errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"meet-recording-sync/config"
	"meet-recording-sync/repository"
	server2 "meet-recording-sync/server"
	"os"
	"os/signal"
	"syscall"
)

var errSyncTarget = errors.New("use either --meeting or --limit")

// sync runs the pipeline in-process under the same retry policies as the queue
// workers. No job row is written.
func sync(config *config.Config) *cobra.Command {
	var (
		meeting string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "sync one meeting recording, or every meeting still missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if meeting != "" && cmd.Flags().Changed("limit") {
				return errSyncTarget
			}

			ctx, cancel := signal.NotifyContext(server2.SetupLogger(config), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			repo, err := repository.NewRepo(config.DB)
			if err != nil {
				return err
			}
			syncService, err := server2.NewSyncService(ctx, config, repo, nil)
			if err != nil {
				return err
			}

			var result any
			if meeting != "" {
				meetingId, parseErr := uuid.Parse(meeting)
				if parseErr != nil {
					return parseErr
				}
				result, err = syncService.SyncMeetingRecording(ctx, nil, meetingId)
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Str("meeting_id", meeting).Msg("sync failed")
				}
			} else {
				var batchLimit *int
				if cmd.Flags().Changed("limit") {
					batchLimit = &limit
				}
				result, err = syncService.SyncAllRecordings(ctx, nil, batchLimit)
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("batch sync failed")
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(result); encErr != nil {
				return encErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&meeting, "meeting", "", "meeting id to sync")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of meetings in the batch")
	return cmd
}
