package objectstore

import (
	"errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"meet-recording-sync/artifact"
	"net/http"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	client, err := minio.New("minio.internal:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return NewStore(client, "meet", "recordings")
}

func TestObjectCandidate(t *testing.T) {
	store := newTestStore(t)
	modified := time.Date(2025, 3, 10, 4, 5, 0, 0, time.UTC)

	c := store.objectCandidate(minio.ObjectInfo{
		Key:          "recordings/2025/abc-defg-hij (2025-03-10).mp4",
		LastModified: modified,
		Size:         4096,
		UserMetadata: minio.StringMap{"X-Amz-Meta-Duration-Millis": "90500"},
	})

	assert.Equal(t, "recordings/2025/abc-defg-hij (2025-03-10).mp4", c.ID)
	assert.Equal(t, "abc-defg-hij (2025-03-10).mp4", c.Name)
	assert.Equal(t, "http://minio.internal:9000/meet/recordings/2025/abc-defg-hij%20%282025-03-10%29.mp4", c.URL)
	assert.Equal(t, modified, c.CreatedAt)
	assert.Equal(t, artifact.SourceFileSearch, c.Source)
	require.NotNil(t, c.DurationMillis)
	assert.EqualValues(t, 90500, *c.DurationMillis)
	require.NotNil(t, c.SizeBytes)
	assert.EqualValues(t, 4096, *c.SizeBytes)
}

func TestObjectCandidateWithoutDuration(t *testing.T) {
	c := newTestStore(t).objectCandidate(minio.ObjectInfo{
		Key:          "recordings/a.mp4",
		UserMetadata: minio.StringMap{"Duration-Millis": "not-a-number"},
	})
	assert.Nil(t, c.DurationMillis)
	assert.Nil(t, c.SizeBytes)
}

func TestNewStoreNormalizesPrefix(t *testing.T) {
	assert.Equal(t, "recordings/", newTestStore(t).prefix)
	assert.Equal(t, "", NewStore(nil, "meet", "").prefix)
}

func TestMetadataValue(t *testing.T) {
	metadata := map[string]string{
		"X-Amz-Meta-Event_id": "evt-1",
		"Owner":               "ops",
	}

	v, ok := metadataValue(metadata, "event_id")
	require.True(t, ok)
	assert.Equal(t, "evt-1", v)

	v, ok = metadataValue(metadata, "event-id")
	require.True(t, ok)
	assert.Equal(t, "evt-1", v)

	_, ok = metadataValue(metadata, "missing")
	assert.False(t, ok)
}

func TestIsVideo(t *testing.T) {
	assert.True(t, isVideo("recordings/a.MP4"))
	assert.True(t, isVideo("b.webm"))
	assert.False(t, isVideo("recordings/chat.txt"))
	assert.False(t, isVideo("recordings/"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, artifact.ErrNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, artifact.ErrAuthentication},
		{"slow down", minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, artifact.ErrQuotaExceeded},
		{"server error", minio.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, artifact.ErrTransientIO},
		{"network", errors.New("dial tcp: connection refused"), artifact.ErrTransientIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}
}
