package service

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"meet-recording-sync/constant"
	"meet-recording-sync/dto"
	"meet-recording-sync/entities"
	"meet-recording-sync/pkg/metrics"
	"meet-recording-sync/repository"
)

const EntityTypeMeeting = "meeting"

// Publisher hands a job message to the task queue.
type Publisher interface {
	Publish(ctx context.Context, jobType constant.JobType, message any) error
}

type SyncService interface {
	EnqueueMeetingSync(ctx context.Context, meetingId uuid.UUID) (*entities.Job, error)
	EnqueueBatchSync(ctx context.Context, limit *int) (*entities.Job, error)
	GetTask(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	GetRecording(ctx context.Context, meetingId uuid.UUID) (*entities.Recording, error)

	// SyncMeetingRecording runs the single-meeting pipeline under the retry policy. jobId
	// is nil when invoked outside the queue.
	SyncMeetingRecording(ctx context.Context, jobId *uuid.UUID, meetingId uuid.UUID) (*dto.MeetingSyncResult, error)
	SyncAllRecordings(ctx context.Context, jobId *uuid.UUID, limit *int) (*dto.BatchSyncResult, error)
}

type syncService struct {
	repo        repository.Repository
	pipeline    *Pipeline
	scheduler   *Scheduler
	publisher   Publisher
	singleRetry RetryPolicy
	batchRetry  RetryPolicy
}

func NewSyncService(
	repo repository.Repository,
	pipeline *Pipeline,
	scheduler *Scheduler,
	publisher Publisher,
	singleRetry RetryPolicy,
	batchRetry RetryPolicy,
) SyncService {
	return &syncService{
		repo:        repo,
		pipeline:    pipeline,
		scheduler:   scheduler,
		publisher:   publisher,
		singleRetry: singleRetry,
		batchRetry:  batchRetry,
	}
}

func (s *syncService) EnqueueMeetingSync(ctx context.Context, meetingId uuid.UUID) (*entities.Job, error) {
	meeting, err := s.repo.FindMeetingById(ctx, meetingId)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	if !s.pipeline.Applicable(meeting) {
		return nil, ErrPermanentInput
	}

	job := &entities.Job{
		EntityId:   &meeting.ID,
		EntityType: EntityTypeMeeting,
		Status:     constant.JobStatusPending,
		JobType:    constant.JobTypeSyncMeeting,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create job")
		return nil, err
	}

	if err := s.publish(ctx, job, dto.SyncMeetingMessage{JobId: job.ID, MeetingId: meeting.ID}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *syncService) EnqueueBatchSync(ctx context.Context, limit *int) (*entities.Job, error) {
	if limit != nil && *limit <= 0 {
		return nil, ErrInvalidLimit
	}

	job := &entities.Job{
		Status:  constant.JobStatusPending,
		JobType: constant.JobTypeSyncAll,
		Limit:   limit,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create job")
		return nil, err
	}

	if err := s.publish(ctx, job, dto.SyncAllMessage{JobId: job.ID, Limit: limit}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *syncService) publish(ctx context.Context, job *entities.Job, message any) error {
	err := s.publisher.Publish(ctx, job.JobType, message)
	if err == nil {
		zerolog.Ctx(ctx).Info().Str("job_id", job.ID.String()).Str("job_type", string(job.JobType)).Msg("job enqueued")
		return nil
	}

	zerolog.Ctx(ctx).Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to publish job")
	msg := err.Error()
	if updateErr := s.repo.CompleteJob(context.WithoutCancel(ctx), job.ID, constant.JobStatusFailed, nil, &msg); updateErr != nil {
		zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to update job status")
	}
	return err
}

func (s *syncService) GetTask(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	job, err := s.repo.FindJobById(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return job, err
}

func (s *syncService) GetRecording(ctx context.Context, meetingId uuid.UUID) (*entities.Recording, error) {
	meeting, err := s.repo.FindMeetingById(ctx, meetingId)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	if meeting.Recording == nil {
		return nil, ErrRecordingNotFound
	}
	return meeting.Recording, nil
}

func (s *syncService) SyncMeetingRecording(ctx context.Context, jobId *uuid.UUID, meetingId uuid.UUID) (*dto.MeetingSyncResult, error) {
	ctx = zerolog.Ctx(ctx).With().Str("meeting_id", meetingId.String()).Logger().WithContext(ctx)
	if skip, err := s.shouldSkip(ctx, jobId); skip || err != nil {
		return nil, err
	}

	task := NewRetryableTask[*Outcome](string(constant.JobTypeSyncMeeting), s.singleRetry, s.observer(jobId, constant.JobTypeSyncMeeting))
	outcome, err := task.Run(ctx, func(ctx context.Context) (*Outcome, error) {
		meeting, err := s.repo.FindMeetingById(ctx, meetingId)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMeetingNotFound
		}
		if err != nil {
			return nil, err
		}
		return s.pipeline.SyncMeeting(ctx, meeting)
	})

	result := &dto.MeetingSyncResult{MeetingId: meetingId, Success: err == nil}
	if err != nil {
		msg := err.Error()
		result.Error = &msg
	} else if outcome.Found {
		result.RecordingFound = true
		result.RecordingId = &outcome.Recording.ID
		result.ArtifactId = &outcome.Recording.ArtifactId
		result.DurationSeconds = outcome.Recording.DurationSeconds
		result.Strategy = outcome.Strategy
		result.Created = outcome.Created
	}

	s.complete(ctx, jobId, task.State(), result, err)
	return result, err
}

func (s *syncService) SyncAllRecordings(ctx context.Context, jobId *uuid.UUID, limit *int) (*dto.BatchSyncResult, error) {
	if limit != nil && *limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if skip, err := s.shouldSkip(ctx, jobId); skip || err != nil {
		return nil, err
	}

	task := NewRetryableTask[*dto.SyncStats](string(constant.JobTypeSyncAll), s.batchRetry, s.observer(jobId, constant.JobTypeSyncAll))
	stats, err := task.Run(ctx, func(ctx context.Context) (*dto.SyncStats, error) {
		return s.scheduler.Run(ctx, limit)
	})

	result := &dto.BatchSyncResult{Success: err == nil}
	if stats != nil {
		result.SyncStats = *stats
	}
	if err != nil {
		msg := err.Error()
		result.Error = &msg
	}

	s.complete(ctx, jobId, task.State(), result, err)
	return result, err
}

// shouldSkip reports whether a redelivered job already finished.
func (s *syncService) shouldSkip(ctx context.Context, jobId *uuid.UUID) (bool, error) {
	if jobId == nil {
		return false, nil
	}
	job, err := s.repo.FindJobById(ctx, *jobId)
	if errors.Is(err, repository.ErrNotFound) {
		return false, ErrTaskNotFound
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to find job by id")
		return false, err
	}
	if job.Status.Terminal() {
		zerolog.Ctx(ctx).Info().Str("job_id", jobId.String()).Str("status", string(job.Status)).Msg("job already finished")
		return true, nil
	}
	return false, nil
}

func (s *syncService) observer(jobId *uuid.UUID, jobType constant.JobType) Transition {
	return func(ctx context.Context, state constant.JobStatus, attempt int, err error) {
		metrics.TaskTransitions.WithLabelValues(string(jobType), string(state)).Inc()
		if jobId == nil {
			return
		}
		var lastError *string
		if err != nil {
			msg := err.Error()
			lastError = &msg
		}
		if updateErr := s.repo.UpdateJobStatus(context.WithoutCancel(ctx), *jobId, state, attempt, lastError); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).Str("job_id", jobId.String()).Msg("failed to update job status")
		}
	}
}

func (s *syncService) complete(ctx context.Context, jobId *uuid.UUID, state constant.JobStatus, result any, err error) {
	if jobId == nil {
		return
	}
	body, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		zerolog.Ctx(ctx).Error().Err(marshalErr).Msg("failed to marshal job result")
	}
	var lastError *string
	if err != nil {
		msg := err.Error()
		lastError = &msg
	}
	if updateErr := s.repo.CompleteJob(context.WithoutCancel(ctx), *jobId, state, body, lastError); updateErr != nil {
		zerolog.Ctx(ctx).Error().Err(updateErr).Str("job_id", jobId.String()).Msg("failed to store job result")
	}
}
