// Package artifact defines the lookup port the reconciliation engine uses to
// find recording artifacts produced by the conferencing platform.
package artifact

import (
	"context"
	"meet-recording-sync/constant"
	"sort"
	"time"
)

type Source string

const (
	// SourceConference is the authoritative conference-record listing.
	SourceConference Source = "conference"
	// SourceFileSearch is any heuristic file-storage search.
	SourceFileSearch Source = "file_search"
)

// Candidate is a transient artifact returned by a lookup. It is never persisted directly.
type Candidate struct {
	ID             string
	Name           string
	URL            string
	CreatedAt      time.Time
	StartTime      *time.Time
	EndTime        *time.Time
	State          *constant.RecordingState
	DurationMillis *int64
	SizeBytes      *int64
	Source         Source
}

// Ready reports whether the artifact finished processing on the platform side.
func (c Candidate) Ready() bool {
	return c.State != nil && *c.State == constant.RecordingStateFileGenerated
}

type FileMetadata struct {
	ID             string
	Name           string
	URL            string
	CreatedAt      time.Time
	DurationMillis *int64
	SizeBytes      *int64
	Properties     map[string]string
}

type Event struct {
	ID    string
	Title string
}

// ConferenceSource lists artifacts attached to a conference record.
type ConferenceSource interface {
	ListArtifactsByConference(ctx context.Context, conferenceId string) ([]Candidate, error)
}

// FileSource searches a general purpose file store for video artifacts.
type FileSource interface {
	SearchFilesByNamePrefix(ctx context.Context, prefix string) ([]Candidate, error)
	SearchFilesByNameContains(ctx context.Context, text string) ([]Candidate, error)
	SearchFilesByDateRange(ctx context.Context, start, end time.Time, limit int) ([]Candidate, error)
	SearchFilesByProperty(ctx context.Context, key, value string) ([]Candidate, error)
	GetFileMetadata(ctx context.Context, fileId string) (*FileMetadata, error)
}

type Calendar interface {
	GetEvent(ctx context.Context, eventId string) (*Event, error)
}

// Port bundles every external capability the engine consumes. Conference may be nil
// when the authoritative API is not configured.
type Port struct {
	Conference ConferenceSource
	Files      FileSource
	Calendar   Calendar
}

// SortNewestFirst orders candidates by creation time, newest first, keeping the listing
// order for equal timestamps.
func SortNewestFirst(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
}
