package service

import (
	"context"
	"github.com/rs/zerolog"
	"meet-recording-sync/entities"
	"meet-recording-sync/pkg/metrics"
)

// Pipeline reconciles a single meeting: match, then upsert.
type Pipeline struct {
	chain      *Chain
	reconciler *Reconciler
}

type Outcome struct {
	Recording    *entities.Recording
	Strategy     string
	Found        bool
	Created      bool
	AlreadyFinal bool
}

func NewPipeline(chain *Chain, reconciler *Reconciler) *Pipeline {
	return &Pipeline{chain: chain, reconciler: reconciler}
}

// Applicable reports whether any lookup strategy can run for the meeting.
func (p *Pipeline) Applicable(meeting *entities.Meeting) bool {
	return p.chain.Applicable(meeting)
}

// SyncMeeting returns a zero Outcome with a nil error when no artifact matches. A meeting
// already holding a final recording is returned untouched; best-effort rows without a
// processing state are looked up again so an authoritative match can supersede them.
func (p *Pipeline) SyncMeeting(ctx context.Context, meeting *entities.Meeting) (*Outcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("meeting_id", meeting.ID.String()).Logger()

	if meeting.Recording != nil && meeting.Recording.IsReady() {
		logger.Debug().Str("recording_id", meeting.Recording.ID.String()).Msg("recording already final")
		metrics.MeetingsReconciled.WithLabelValues("already_final").Inc()
		return &Outcome{Recording: meeting.Recording, Found: true, AlreadyFinal: true}, nil
	}

	if !p.chain.Applicable(meeting) {
		metrics.MeetingsReconciled.WithLabelValues("invalid").Inc()
		return nil, ErrPermanentInput
	}

	match, err := p.chain.Match(ctx, meeting)
	if err != nil {
		metrics.MeetingsReconciled.WithLabelValues("error").Inc()
		return nil, err
	}
	if match.Candidate == nil {
		logger.Info().Msg("no recording found")
		metrics.MeetingsReconciled.WithLabelValues("not_found").Inc()
		return &Outcome{}, nil
	}

	recording, created, err := p.reconciler.Reconcile(ctx, meeting, match.Candidate)
	if err != nil {
		metrics.MeetingsReconciled.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	metrics.MeetingsReconciled.WithLabelValues(outcome).Inc()
	return &Outcome{
		Recording: recording,
		Strategy:  match.Strategy,
		Found:     true,
		Created:   created,
	}, nil
}
