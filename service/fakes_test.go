package service

import (
	"context"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"meet-recording-sync/artifact"
	"meet-recording-sync/constant"
	"meet-recording-sync/entities"
	"meet-recording-sync/repository"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func int64Ptr(v int64) *int64 { return &v }

func statePtr(s constant.RecordingState) *constant.RecordingState { return &s }

func newTestRepo(t *testing.T) repository.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sync.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	repo := repository.NewGormRepo(db)
	require.NoError(t, repo.AutoMigrate())
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repo
}

func saveMeeting(t *testing.T, repo repository.Repository, m *entities.Meeting) *entities.Meeting {
	t.Helper()
	if m.Status == "" {
		m.Status = constant.MeetingStatusFinished
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = testNow.Add(-24 * time.Hour)
	}
	require.NoError(t, repo.GetDB().Create(m).Error)
	return m
}

type fakeConference struct {
	candidates []artifact.Candidate
	err        error
	calls      int
}

func (f *fakeConference) ListArtifactsByConference(_ context.Context, _ string) ([]artifact.Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

type fakeFiles struct {
	mu sync.Mutex

	prefix      []artifact.Candidate
	prefixErr   error
	contains    []artifact.Candidate
	containsErr error
	property    []artifact.Candidate
	propertyErr error
	window      []artifact.Candidate
	windowErr   error
	metadata    map[string]*artifact.FileMetadata
	metadataErr error

	calls       []string
	windowStart time.Time
	windowEnd   time.Time
	windowLimit int
}

func (f *fakeFiles) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFiles) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFiles) SearchFilesByNamePrefix(_ context.Context, prefix string) ([]artifact.Candidate, error) {
	f.record("prefix:" + prefix)
	return clone(f.prefix), f.prefixErr
}

func (f *fakeFiles) SearchFilesByNameContains(_ context.Context, text string) ([]artifact.Candidate, error) {
	f.record("contains:" + text)
	return clone(f.contains), f.containsErr
}

func (f *fakeFiles) SearchFilesByDateRange(_ context.Context, start, end time.Time, limit int) ([]artifact.Candidate, error) {
	f.record("window")
	f.windowStart, f.windowEnd, f.windowLimit = start, end, limit
	return clone(f.window), f.windowErr
}

func (f *fakeFiles) SearchFilesByProperty(_ context.Context, key, value string) ([]artifact.Candidate, error) {
	f.record("property:" + key + "=" + value)
	return clone(f.property), f.propertyErr
}

func (f *fakeFiles) GetFileMetadata(_ context.Context, fileId string) (*artifact.FileMetadata, error) {
	f.record("metadata:" + fileId)
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	if m, ok := f.metadata[fileId]; ok {
		return m, nil
	}
	return nil, artifact.ErrNotFound
}

func clone(c []artifact.Candidate) []artifact.Candidate {
	return append([]artifact.Candidate(nil), c...)
}

type fakeCalendar struct {
	title string
	err   error
	calls int
}

func (f *fakeCalendar) GetEvent(_ context.Context, eventId string) (*artifact.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &artifact.Event{ID: eventId, Title: f.title}, nil
}

type published struct {
	jobType constant.JobType
	message any
}

type fakePublisher struct {
	err      error
	messages []published
}

func (f *fakePublisher) Publish(_ context.Context, jobType constant.JobType, message any) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{jobType: jobType, message: message})
	return nil
}

// newTestPipeline wires the production strategy order over the given fakes.
func newTestPipeline(repo repository.Repository, conference artifact.ConferenceSource, files *fakeFiles, calendar artifact.Calendar) *Pipeline {
	ranker := NewRanker(calendar)
	chain := NewChain(
		NewConferenceRecordStrategy(conference),
		NewJoinCodeStrategy(files, ranker),
		NewEventIdStrategy(files),
		NewDateWindowStrategy(files, ranker, fixedNow, 20),
	)
	return NewPipeline(chain, NewReconciler(repo, files))
}
