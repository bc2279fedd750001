package service

import (
	"context"
	"github.com/rs/zerolog"
	"meet-recording-sync/dto"
	"meet-recording-sync/pkg/metrics"
	"meet-recording-sync/repository"
	"time"
)

// Scheduler drives the pipeline over every meeting still missing a recording.
type Scheduler struct {
	repo     repository.Repository
	pipeline *Pipeline
}

func NewScheduler(repo repository.Repository, pipeline *Pipeline) *Scheduler {
	return &Scheduler{repo: repo, pipeline: pipeline}
}

// Run processes the selection sequentially in priority order. A failing meeting is
// counted and skipped; only a failed selection or cancellation fails the run.
func (s *Scheduler) Run(ctx context.Context, limit *int) (*dto.SyncStats, error) {
	started := time.Now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(started).Seconds())
	}()

	meetings, err := s.repo.ListMeetingsWithoutRecording(ctx, limit)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to select meetings without recording")
		return nil, err
	}

	withConference := 0
	for _, m := range meetings {
		if m.HasConferenceRecord() {
			withConference++
		}
	}
	event := zerolog.Ctx(ctx).Info().
		Int("selected", len(meetings)).
		Int("with_conference_record", withConference).
		Int("heuristic_only", len(meetings)-withConference)
	if limit != nil {
		event = event.Int("limit", *limit)
	}
	event.Msg("batch selection")

	stats := &dto.SyncStats{}
	for i, meeting := range meetings {
		if err := ctx.Err(); err != nil {
			zerolog.Ctx(ctx).Warn().Int("remaining", len(meetings)-i).Msg("batch interrupted")
			return stats, err
		}

		stats.Processed++
		outcome, err := s.pipeline.SyncMeeting(ctx, meeting)
		if err != nil {
			stats.Errors++
			zerolog.Ctx(ctx).Error().Err(err).Str("meeting_id", meeting.ID.String()).Msg("failed to sync meeting")
			continue
		}
		if !outcome.Found {
			continue
		}
		stats.Found++
		if outcome.Created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	zerolog.Ctx(ctx).Info().
		Int("processed", stats.Processed).
		Int("found", stats.Found).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("errors", stats.Errors).
		Dur("elapsed", time.Since(started)).
		Msg("batch finished")
	return stats, nil
}
