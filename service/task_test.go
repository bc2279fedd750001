package service

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"meet-recording-sync/artifact"
	"meet-recording-sync/constant"
	"testing"
	"time"
)

const (
	pending  = constant.JobStatusPending
	running  = constant.JobStatusRunning
	retrying = constant.JobStatusRetrying
	success  = constant.JobStatusSuccess
	failed   = constant.JobStatusFailed
)

func TestLinearPolicyDelays(t *testing.T) {
	policy := LinearPolicy(60*time.Second, 3)
	b := &policyBackOff{policy: policy}

	assert.Equal(t, 60*time.Second, b.NextBackOff())
	assert.Equal(t, 120*time.Second, b.NextBackOff())
	assert.Equal(t, 180*time.Second, b.NextBackOff())
	assert.Equal(t, time.Duration(-1), b.NextBackOff())

	b.Reset()
	assert.Equal(t, 60*time.Second, b.NextBackOff())
}

func TestFixedPolicyDelays(t *testing.T) {
	b := &policyBackOff{policy: FixedPolicy(300*time.Second, 2)}

	assert.Equal(t, 300*time.Second, b.NextBackOff())
	assert.Equal(t, 300*time.Second, b.NextBackOff())
	assert.Equal(t, time.Duration(-1), b.NextBackOff())
}

func TestRetryableTaskExhaustsRetries(t *testing.T) {
	var observed []constant.JobStatus
	task := NewRetryableTask[int]("test", LinearPolicy(time.Millisecond, 3), func(_ context.Context, state constant.JobStatus, _ int, _ error) {
		observed = append(observed, state)
	})

	calls := 0
	_, err := task.Run(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, artifact.ErrTransientIO
	})

	require.ErrorIs(t, err, artifact.ErrTransientIO)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, task.Attempt())
	assert.Equal(t, failed, task.State())
	assert.ErrorIs(t, task.LastError(), artifact.ErrTransientIO)
	assert.Equal(t, []constant.JobStatus{
		pending,
		running, retrying,
		running, retrying,
		running, retrying,
		running, failed,
	}, task.History())
	assert.Equal(t, task.History()[1:], observed)
}

func TestRetryableTaskSucceedsAfterRetry(t *testing.T) {
	task := NewRetryableTask[string]("test", FixedPolicy(time.Millisecond, 2), nil)

	calls := 0
	res, err := task.Run(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", artifact.ErrTransientIO
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", res)
	assert.Equal(t, success, task.State())
	assert.Nil(t, task.LastError())
	assert.Equal(t, []constant.JobStatus{pending, running, retrying, running, success}, task.History())
}

func TestRetryableTaskStopsOnNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"authentication", errors.Join(artifact.ErrAuthentication, errors.New("401"))},
		{"permanent input", ErrPermanentInput},
		{"meeting not found", ErrMeetingNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewRetryableTask[int]("test", LinearPolicy(time.Millisecond, 3), nil)

			calls := 0
			_, err := task.Run(context.Background(), func(context.Context) (int, error) {
				calls++
				return 0, tt.err
			})

			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, calls)
			assert.Equal(t, []constant.JobStatus{pending, running, failed}, task.History())
		})
	}
}

func TestRetryableTaskRetriesQuota(t *testing.T) {
	task := NewRetryableTask[int]("test", FixedPolicy(time.Millisecond, 2), nil)

	calls := 0
	_, err := task.Run(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, artifact.ErrQuotaExceeded
	})

	require.ErrorIs(t, err, artifact.ErrQuotaExceeded)
	assert.Equal(t, 3, calls)
}

func TestRetryableTaskRunsOnce(t *testing.T) {
	task := NewRetryableTask[int]("test", FixedPolicy(time.Millisecond, 0), nil)
	_, err := task.Run(context.Background(), func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	_, err = task.Run(context.Background(), func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNonRetryable)
}

func TestRetryableTaskStopsWaitingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := NewRetryableTask[int]("test", FixedPolicy(time.Hour, 3), func(_ context.Context, state constant.JobStatus, _ int, _ error) {
		if state == retrying {
			cancel()
		}
	})

	_, err := task.Run(ctx, func(context.Context) (int, error) {
		return 0, artifact.ErrTransientIO
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, failed, task.State())
	assert.Equal(t, 1, task.Attempt())
}
