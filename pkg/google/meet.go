package google

import (
	"context"
	"fmt"
	"google.golang.org/api/meet/v2"
	"google.golang.org/api/option"
	"meet-recording-sync/artifact"
	"meet-recording-sync/constant"
	"strings"
	"time"
)

const meetPageSize = 100

// ConferenceRecords lists the recordings the Meet API attached to a conference record.
type ConferenceRecords struct {
	service *meet.Service
}

func NewConferenceRecords(ctx context.Context, opts ...option.ClientOption) (*ConferenceRecords, error) {
	service, err := meet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create meet client: %w", err)
	}
	return &ConferenceRecords{service: service}, nil
}

// ListArtifactsByConference follows every page. conferenceId may be given bare or as
// conferenceRecords/{id}.
func (m *ConferenceRecords) ListArtifactsByConference(ctx context.Context, conferenceId string) ([]artifact.Candidate, error) {
	parent := conferenceId
	if !strings.HasPrefix(parent, "conferenceRecords/") {
		parent = "conferenceRecords/" + parent
	}

	var candidates []artifact.Candidate
	pageToken := ""
	for {
		call := m.service.ConferenceRecords.Recordings.List(parent).PageSize(meetPageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, classify("meet.list_recordings", err)
		}

		for _, r := range resp.Recordings {
			candidates = append(candidates, recordingCandidate(r))
		}
		if resp.NextPageToken == "" {
			return candidates, nil
		}
		pageToken = resp.NextPageToken
	}
}

func recordingCandidate(r *meet.Recording) artifact.Candidate {
	c := artifact.Candidate{
		Name:   r.Name,
		Source: artifact.SourceConference,
	}
	if r.DriveDestination != nil {
		c.ID = r.DriveDestination.File
		c.URL = r.DriveDestination.ExportUri
	}
	if r.State != "" {
		state := constant.RecordingState(r.State)
		c.State = &state
	}
	c.StartTime = parseTime(r.StartTime)
	c.EndTime = parseTime(r.EndTime)
	switch {
	case c.EndTime != nil:
		c.CreatedAt = *c.EndTime
	case c.StartTime != nil:
		c.CreatedAt = *c.StartTime
	}
	return c
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
