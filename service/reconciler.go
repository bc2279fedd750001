package service

import (
	"context"
	"github.com/rs/zerolog"
	"meet-recording-sync/artifact"
	"meet-recording-sync/entities"
	"meet-recording-sync/repository"
	"time"
)

// Reconciler turns a matched candidate into the meeting's persisted recording.
type Reconciler struct {
	repo  repository.Repository
	files artifact.FileSource
}

func NewReconciler(repo repository.Repository, files artifact.FileSource) *Reconciler {
	return &Reconciler{repo: repo, files: files}
}

// Reconcile normalizes the candidate and upserts it keyed by meeting identity. created
// is true only when no recording existed for the meeting before the call.
func (r *Reconciler) Reconcile(ctx context.Context, meeting *entities.Meeting, candidate *artifact.Candidate) (*entities.Recording, bool, error) {
	var recording *entities.Recording
	if candidate.Source == artifact.SourceConference {
		recording = fromConference(meeting, candidate)
	} else {
		var err error
		recording, err = r.fromFileSearch(ctx, meeting, candidate)
		if err != nil {
			return nil, false, err
		}
	}

	created, err := r.repo.UpsertRecording(ctx, recording)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("meeting_id", meeting.ID.String()).Msg("failed to upsert recording")
		return nil, false, err
	}

	zerolog.Ctx(ctx).Info().
		Str("meeting_id", meeting.ID.String()).
		Str("recording_id", recording.ID.String()).
		Str("artifact_id", recording.ArtifactId).
		Bool("created", created).
		Msg("recording reconciled")
	return recording, created, nil
}

func fromConference(meeting *entities.Meeting, candidate *artifact.Candidate) *entities.Recording {
	recording := &entities.Recording{
		MeetingId:          meeting.ID,
		ArtifactId:         candidate.ID,
		ArtifactUrl:        nonEmpty(candidate.URL),
		State:              candidate.State,
		RecordingStartTime: candidate.StartTime,
		RecordingEndTime:   candidate.EndTime,
		AvailableSince:     candidate.EndTime,
	}
	if candidate.StartTime != nil && candidate.EndTime != nil {
		if d := candidate.EndTime.Sub(*candidate.StartTime); d >= 0 {
			seconds := int(d / time.Second)
			recording.DurationSeconds = &seconds
		}
	}
	return recording
}

// fromFileSearch fills duration and URL from a metadata fetch when the search listing
// left them out. Heuristic matches carry no processing state.
func (r *Reconciler) fromFileSearch(ctx context.Context, meeting *entities.Meeting, candidate *artifact.Candidate) (*entities.Recording, error) {
	durationMillis := candidate.DurationMillis
	url := candidate.URL
	availableSince := candidate.CreatedAt

	if (durationMillis == nil || url == "") && r.files != nil {
		metadata, err := r.files.GetFileMetadata(ctx, candidate.ID)
		switch {
		case artifact.IsFatal(err):
			return nil, err
		case err != nil:
			zerolog.Ctx(ctx).Warn().Err(err).Str("artifact_id", candidate.ID).Msg("artifact metadata unavailable")
		default:
			if durationMillis == nil {
				durationMillis = metadata.DurationMillis
			}
			if url == "" {
				url = metadata.URL
			}
			if availableSince.IsZero() {
				availableSince = metadata.CreatedAt
			}
		}
	}

	recording := &entities.Recording{
		MeetingId:   meeting.ID,
		ArtifactId:  candidate.ID,
		ArtifactUrl: nonEmpty(url),
	}
	if durationMillis != nil && *durationMillis > 0 {
		seconds := int(*durationMillis / 1000)
		recording.DurationSeconds = &seconds
	}
	if !availableSince.IsZero() {
		recording.AvailableSince = &availableSince
	}
	return recording, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
