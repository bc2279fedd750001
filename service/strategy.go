package service

import (
	"context"
	"github.com/rs/zerolog"
	"meet-recording-sync/artifact"
	"meet-recording-sync/entities"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Strategy resolves a meeting to at most one candidate artifact. A nil candidate with
// a nil error is a clean miss.
type Strategy interface {
	Name() string
	Applies(meeting *entities.Meeting) bool
	TryMatch(ctx context.Context, meeting *entities.Meeting) (*artifact.Candidate, error)
}

const (
	StrategyConferenceRecord = "conference_record"
	StrategyJoinCode         = "join_code"
	StrategyEventId          = "event_id"
	StrategyDateWindow       = "date_window"

	eventIdPropertyKey       = "event_id"
	defaultDateWindowLimit   = 20
	minMeetingCodeLength     = 6
	windowLeadBeforeStart    = 5 * time.Minute
	windowTrailAfterEnd      = 15 * time.Minute
	windowDefaultLength      = 2 * time.Hour
	windowCreatedLead        = time.Hour
	windowCreatedTrailLength = 2 * time.Hour
)

// MeetingCode extracts the short meeting code from a join link such as
// https://meet.google.com/abc-defg-hij?authuser=0. It returns "" when no plausible
// code is present.
func MeetingCode(joinLink string) string {
	link := strings.TrimSpace(joinLink)
	if link == "" {
		return ""
	}

	path := link
	if u, err := url.Parse(link); err == nil {
		path = u.Path
		if u.Host == "" {
			if i := strings.Index(path, "/"); i >= 0 && strings.Contains(path[:i], ".") {
				path = path[i+1:]
			}
		}
	}

	path = strings.Trim(path, "/")
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[:i]
	}
	if len(path) < minMeetingCodeLength {
		return ""
	}
	for _, r := range path {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return ""
		}
	}
	return path
}

func meetingCode(meeting *entities.Meeting) string {
	if !meeting.HasJoinLink() {
		return ""
	}
	return MeetingCode(*meeting.JoinLink)
}

// SearchWindow computes the creation-time window in which the meeting's artifact is
// expected. A scheduled start in the past anchors the window; otherwise the meeting's
// creation time does.
func SearchWindow(meeting *entities.Meeting, now time.Time) (time.Time, time.Time, bool) {
	if meeting.ScheduledStart != nil && !meeting.ScheduledStart.After(now) {
		start := meeting.ScheduledStart.Add(-windowLeadBeforeStart)
		end := meeting.ScheduledStart.Add(windowDefaultLength)
		if meeting.ScheduledEnd != nil {
			end = meeting.ScheduledEnd.Add(windowTrailAfterEnd)
		}
		return start, end, true
	}
	if !meeting.CreatedAt.IsZero() {
		return meeting.CreatedAt.Add(-windowCreatedLead), meeting.CreatedAt.Add(windowCreatedTrailLength), true
	}
	return time.Time{}, time.Time{}, false
}

type conferenceRecordStrategy struct {
	source artifact.ConferenceSource
}

func NewConferenceRecordStrategy(source artifact.ConferenceSource) Strategy {
	return &conferenceRecordStrategy{source: source}
}

func (s *conferenceRecordStrategy) Name() string { return StrategyConferenceRecord }

func (s *conferenceRecordStrategy) Applies(meeting *entities.Meeting) bool {
	return s.source != nil && meeting.HasConferenceRecord()
}

func (s *conferenceRecordStrategy) TryMatch(ctx context.Context, meeting *entities.Meeting) (*artifact.Candidate, error) {
	candidates, err := s.source.ListArtifactsByConference(ctx, *meeting.ConferenceRecordId)
	if artifact.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ready := make([]artifact.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Ready() && c.ID != "" {
			ready = append(ready, c)
		}
	}
	if len(ready) == 0 {
		zerolog.Ctx(ctx).Debug().
			Str("meeting_id", meeting.ID.String()).
			Int("listed", len(candidates)).
			Msg("no generated recording under conference record")
		return nil, nil
	}

	// latest end first, artifact id breaks ties
	sort.SliceStable(ready, func(i, j int) bool {
		ei, ej := ready[i].EndTime, ready[j].EndTime
		switch {
		case ei != nil && ej != nil && !ei.Equal(*ej):
			return ei.After(*ej)
		case ei != nil && ej == nil:
			return true
		case ei == nil && ej != nil:
			return false
		}
		return ready[i].ID < ready[j].ID
	})
	return &ready[0], nil
}

type joinCodeStrategy struct {
	files  artifact.FileSource
	ranker *Ranker
}

func NewJoinCodeStrategy(files artifact.FileSource, ranker *Ranker) Strategy {
	return &joinCodeStrategy{files: files, ranker: ranker}
}

func (s *joinCodeStrategy) Name() string { return StrategyJoinCode }

func (s *joinCodeStrategy) Applies(meeting *entities.Meeting) bool {
	return s.files != nil && meetingCode(meeting) != ""
}

func (s *joinCodeStrategy) TryMatch(ctx context.Context, meeting *entities.Meeting) (*artifact.Candidate, error) {
	code := meetingCode(meeting)
	candidates, err := s.files.SearchFilesByNamePrefix(ctx, code)
	if artifact.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// the source may match loosely; only names that start with the code count
	matching := make([]artifact.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c.Name, code) {
			matching = append(matching, c)
		}
	}
	artifact.SortNewestFirst(matching)

	switch len(matching) {
	case 0:
		return nil, nil
	case 1:
		return &matching[0], nil
	default:
		return s.ranker.Rank(ctx, meeting, matching), nil
	}
}

type eventIdStrategy struct {
	files artifact.FileSource
}

func NewEventIdStrategy(files artifact.FileSource) Strategy {
	return &eventIdStrategy{files: files}
}

func (s *eventIdStrategy) Name() string { return StrategyEventId }

func (s *eventIdStrategy) Applies(meeting *entities.Meeting) bool {
	return s.files != nil && meeting.HasExternalEvent()
}

// TryMatch rarely hits: platforms seldom embed the event id in artifact metadata.
// A failed property search still falls through to the name search. When nothing
// matches, a non-fatal failure is returned so the chain degrades it instead of
// counting a clean miss.
func (s *eventIdStrategy) TryMatch(ctx context.Context, meeting *entities.Meeting) (*artifact.Candidate, error) {
	eventId := *meeting.ExternalEventId

	var searchErr error
	candidates, err := s.files.SearchFilesByProperty(ctx, eventIdPropertyKey, eventId)
	if artifact.IsFatal(err) {
		return nil, err
	}
	if err != nil && !artifact.IsNotFound(err) {
		zerolog.Ctx(ctx).Debug().Err(err).Str("meeting_id", meeting.ID.String()).Msg("event id property search failed")
		searchErr = err
	}
	if len(candidates) > 0 {
		artifact.SortNewestFirst(candidates)
		return &candidates[0], nil
	}

	candidates, err = s.files.SearchFilesByNameContains(ctx, eventId)
	if artifact.IsFatal(err) {
		return nil, err
	}
	if err != nil && !artifact.IsNotFound(err) {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, searchErr
	}
	artifact.SortNewestFirst(candidates)
	return &candidates[0], nil
}

type dateWindowStrategy struct {
	files  artifact.FileSource
	ranker *Ranker
	now    func() time.Time
	limit  int
}

func NewDateWindowStrategy(files artifact.FileSource, ranker *Ranker, now func() time.Time, limit int) Strategy {
	if now == nil {
		now = time.Now
	}
	if limit < 1 {
		limit = defaultDateWindowLimit
	}
	return &dateWindowStrategy{files: files, ranker: ranker, now: now, limit: limit}
}

func (s *dateWindowStrategy) Name() string { return StrategyDateWindow }

func (s *dateWindowStrategy) Applies(meeting *entities.Meeting) bool {
	if s.files == nil {
		return false
	}
	_, _, ok := SearchWindow(meeting, s.now())
	return ok
}

func (s *dateWindowStrategy) TryMatch(ctx context.Context, meeting *entities.Meeting) (*artifact.Candidate, error) {
	start, end, ok := SearchWindow(meeting, s.now())
	if !ok {
		return nil, nil
	}
	zerolog.Ctx(ctx).Debug().
		Str("meeting_id", meeting.ID.String()).
		Time("window_start", start).
		Time("window_end", end).
		Msg("searching recordings by date window")

	candidates, err := s.files.SearchFilesByDateRange(ctx, start, end, s.limit)
	if artifact.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	}

	artifact.SortNewestFirst(candidates)
	if code := meetingCode(meeting); code != "" {
		matching := make([]artifact.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if strings.Contains(c.Name, code) {
				matching = append(matching, c)
			}
		}
		if len(matching) == 1 {
			return &matching[0], nil
		}
		if len(matching) > 1 {
			candidates = matching
		}
	}
	return s.ranker.Rank(ctx, meeting, candidates), nil
}
