package handler

import (
	"context"
	"encoding/json"
	"errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"meet-recording-sync/dto"
	"meet-recording-sync/service"
)

type ServiceDependencies struct {
	SyncService service.SyncService
}

// SyncMeetingHandler runs one queued single-meeting job. Task failures are already
// recorded on the job row, so only undeliverable messages are returned as errors.
func SyncMeetingHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var syncMsg dto.SyncMeetingMessage
	if err := json.Unmarshal(msg.Body, &syncMsg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal sync meeting message")
		return err
	}

	logger := zerolog.Ctx(ctx).With().
		Str("job_id", syncMsg.JobId.String()).
		Str("meeting_id", syncMsg.MeetingId.String()).
		Logger()
	logger.Info().Msg("received sync meeting message")

	result, err := deps.SyncService.SyncMeetingRecording(logger.WithContext(ctx), &syncMsg.JobId, syncMsg.MeetingId)
	if err != nil {
		return taskError(logger.WithContext(ctx), err)
	}
	if result != nil {
		logger.Info().Bool("recording_found", result.RecordingFound).Str("strategy", result.Strategy).Msg("sync meeting job finished")
	}
	return nil
}

func SyncAllHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var syncMsg dto.SyncAllMessage
	if err := json.Unmarshal(msg.Body, &syncMsg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal sync all message")
		return err
	}

	logger := zerolog.Ctx(ctx).With().Str("job_id", syncMsg.JobId.String()).Logger()
	logger.Info().Msg("received sync all message")

	result, err := deps.SyncService.SyncAllRecordings(logger.WithContext(ctx), &syncMsg.JobId, syncMsg.Limit)
	if err != nil {
		return taskError(logger.WithContext(ctx), err)
	}
	if result != nil {
		logger.Info().
			Int("processed", result.Processed).
			Int("found", result.Found).
			Int("errors", result.Errors).
			Msg("sync all job finished")
	}
	return nil
}

func taskError(ctx context.Context, err error) error {
	if errors.Is(err, service.ErrTaskNotFound) || errors.Is(err, service.ErrInvalidLimit) {
		return err
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("sync job failed")
	return nil
}
