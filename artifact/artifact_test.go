package artifact

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"meet-recording-sync/constant"
)

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
		{ID: "tie-a", CreatedAt: base.Add(30 * time.Minute)},
		{ID: "tie-b", CreatedAt: base.Add(30 * time.Minute)},
	}

	SortNewestFirst(candidates)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old"}, ids)
}

func TestCandidateReady(t *testing.T) {
	ready := constant.RecordingStateFileGenerated
	ended := constant.RecordingStateEnded

	assert.True(t, Candidate{State: &ready}.Ready())
	assert.False(t, Candidate{State: &ended}.Ready())
	assert.False(t, Candidate{}.Ready())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("drive: %w", ErrQuotaExceeded)))
	assert.True(t, IsFatal(errors.Join(ErrAuthentication, errors.New("401"))))
	assert.False(t, IsFatal(fmt.Errorf("drive: %w", ErrTransientIO)))
	assert.False(t, IsFatal(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrNotFound)))
}
