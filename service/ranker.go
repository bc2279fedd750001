package service

import (
	"context"
	"github.com/rs/zerolog"
	"meet-recording-sync/artifact"
	"meet-recording-sync/entities"
	"strings"
	"time"
)

// Ranker picks one candidate out of several plausible ones. Candidates must already be
// ordered newest first.
type Ranker struct {
	calendar artifact.Calendar
}

func NewRanker(calendar artifact.Calendar) *Ranker {
	return &Ranker{calendar: calendar}
}

// Rank scores candidates by the number of title words their names share with the
// meeting's calendar event. The first strictly highest score wins; equal positive scores
// fall to the candidate closest in time to the meeting. Without a usable title, or when
// nothing scores, the newest candidate is returned.
func (r *Ranker) Rank(ctx context.Context, meeting *entities.Meeting, candidates []artifact.Candidate) *artifact.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 || r.calendar == nil || !meeting.HasExternalEvent() {
		return &candidates[0]
	}

	event, err := r.calendar.GetEvent(ctx, *meeting.ExternalEventId)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("meeting_id", meeting.ID.String()).Msg("event title unavailable, using newest candidate")
		return &candidates[0]
	}
	words := titleWords(event.Title)
	if len(words) == 0 {
		return &candidates[0]
	}

	anchor := meetingAnchor(meeting)
	best, bestScore := 0, 0
	for i, c := range candidates {
		score := sharedWords(words, c.Name)
		switch {
		case score > bestScore:
			best, bestScore = i, score
		case score == bestScore && score > 0 && closer(c.CreatedAt, candidates[best].CreatedAt, anchor):
			best = i
		}
	}
	return &candidates[best]
}

func titleWords(title string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		words[w] = struct{}{}
	}
	return words
}

func sharedWords(words map[string]struct{}, name string) int {
	seen := make(map[string]struct{})
	score := 0
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := words[w]; ok {
			score++
		}
	}
	return score
}

// meetingAnchor is the instant the recording is expected to close around.
func meetingAnchor(meeting *entities.Meeting) time.Time {
	switch {
	case meeting.ScheduledEnd != nil:
		return *meeting.ScheduledEnd
	case meeting.ScheduledStart != nil:
		return *meeting.ScheduledStart
	default:
		return meeting.CreatedAt
	}
}

func closer(a, b, anchor time.Time) bool {
	if anchor.IsZero() {
		return false
	}
	return absDuration(a.Sub(anchor)) < absDuration(b.Sub(anchor))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
