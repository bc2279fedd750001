package service

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"meet-recording-sync/artifact"
	"meet-recording-sync/constant"
	"meet-recording-sync/entities"
	"testing"
	"time"
)

func TestReconcileAuthoritativeCandidate(t *testing.T) {
	repo := newTestRepo(t)
	meeting := saveMeeting(t, repo, heuristicMeeting())
	start := testNow.Add(-2 * time.Hour)
	end := start.Add(45*time.Minute + 30*time.Second + 900*time.Millisecond)

	recording, created, err := NewReconciler(repo, nil).Reconcile(context.Background(), meeting, &artifact.Candidate{
		ID:        "file-1",
		URL:       "https://drive.google.com/file/d/file-1/view",
		StartTime: &start,
		EndTime:   &end,
		State:     statePtr(constant.RecordingStateFileGenerated),
		Source:    artifact.SourceConference,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "file-1", recording.ArtifactId)
	require.NotNil(t, recording.DurationSeconds)
	assert.Equal(t, 45*60+30, *recording.DurationSeconds)
	require.NotNil(t, recording.AvailableSince)
	assert.True(t, end.Equal(*recording.AvailableSince))
	assert.True(t, recording.IsReady())
}

func TestReconcileIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	meeting := saveMeeting(t, repo, heuristicMeeting())
	reconciler := NewReconciler(repo, nil)
	candidate := &artifact.Candidate{
		ID:             "file-1",
		URL:            "https://drive.google.com/file/d/file-1/view",
		CreatedAt:      testNow.Add(-time.Hour),
		DurationMillis: int64Ptr(61_500),
		Source:         artifact.SourceFileSearch,
	}

	first, created, err := reconciler.Reconcile(context.Background(), meeting, candidate)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := reconciler.Reconcile(context.Background(), meeting, candidate)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var rows []entities.Recording
	require.NoError(t, repo.GetDB().Where("meeting_id = ?", meeting.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "file-1", rows[0].ArtifactId)
	require.NotNil(t, rows[0].DurationSeconds)
	assert.Equal(t, 61, *rows[0].DurationSeconds)
	assert.Nil(t, rows[0].State)
}

func TestReconcileHeuristicFetchesMissingMetadata(t *testing.T) {
	repo := newTestRepo(t)
	meeting := saveMeeting(t, repo, heuristicMeeting())
	created := testNow.Add(-90 * time.Minute)
	files := &fakeFiles{metadata: map[string]*artifact.FileMetadata{
		"file-9": {
			ID:             "file-9",
			URL:            "https://drive.google.com/file/d/file-9/view",
			CreatedAt:      created,
			DurationMillis: int64Ptr(3_600_000),
		},
	}}

	recording, _, err := NewReconciler(repo, files).Reconcile(context.Background(), meeting, &artifact.Candidate{
		ID:        "file-9",
		CreatedAt: created,
		Source:    artifact.SourceFileSearch,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata:file-9"}, files.Calls())
	require.NotNil(t, recording.ArtifactUrl)
	assert.Equal(t, "https://drive.google.com/file/d/file-9/view", *recording.ArtifactUrl)
	require.NotNil(t, recording.DurationSeconds)
	assert.Equal(t, 3600, *recording.DurationSeconds)
	assert.Nil(t, recording.State)
	assert.Equal(t, "N/A", (&entities.Recording{}).DurationFormatted())
	assert.Equal(t, "01:00:00", recording.DurationFormatted())
}

func TestReconcileHeuristicDegradesOnMetadataFailure(t *testing.T) {
	repo := newTestRepo(t)
	meeting := saveMeeting(t, repo, heuristicMeeting())
	files := &fakeFiles{metadataErr: artifact.ErrTransientIO}

	recording, created, err := NewReconciler(repo, files).Reconcile(context.Background(), meeting, &artifact.Candidate{
		ID:        "file-9",
		URL:       "https://example.test/file-9",
		CreatedAt: testNow,
		Source:    artifact.SourceFileSearch,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, recording.DurationSeconds)
	require.NotNil(t, recording.ArtifactUrl)
	assert.Equal(t, "https://example.test/file-9", *recording.ArtifactUrl)
}

func TestReconcileHeuristicPropagatesAuthFailure(t *testing.T) {
	repo := newTestRepo(t)
	meeting := saveMeeting(t, repo, heuristicMeeting())
	files := &fakeFiles{metadataErr: artifact.ErrAuthentication}

	_, _, err := NewReconciler(repo, files).Reconcile(context.Background(), meeting, &artifact.Candidate{
		ID:     "file-9",
		Source: artifact.SourceFileSearch,
	})
	assert.ErrorIs(t, err, artifact.ErrAuthentication)
}
