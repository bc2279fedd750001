package service

import (
	"context"
	"errors"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"meet-recording-sync/constant"
	"time"
)

// RetryPolicy bounds how often and how patiently a task is retried.
type RetryPolicy struct {
	MaxRetries int
	// Delay returns the wait before the given retry, counting from 1.
	Delay func(retry int) time.Duration
}

// LinearPolicy waits base, 2*base, 3*base... between attempts.
func LinearPolicy(base time.Duration, maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Delay: func(retry int) time.Duration {
			return time.Duration(retry) * base
		},
	}
}

// FixedPolicy waits the same delay between attempts.
func FixedPolicy(delay time.Duration, maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Delay: func(int) time.Duration {
			return delay
		},
	}
}

// policyBackOff adapts a RetryPolicy to backoff.BackOff.
type policyBackOff struct {
	policy  RetryPolicy
	retries int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	if b.retries >= b.policy.MaxRetries {
		return backoff.Stop
	}
	b.retries++
	return b.policy.Delay(b.retries)
}

func (b *policyBackOff) Reset() {
	b.retries = 0
}

// Transition is invoked on every state change. attempt counts executions started so far.
type Transition func(ctx context.Context, state constant.JobStatus, attempt int, err error)

// RetryableTask is a small state machine around one pipeline entry point:
// PENDING -> RUNNING -> (RETRYING -> RUNNING)* -> SUCCESS | FAILED.
type RetryableTask[T any] struct {
	name         string
	policy       RetryPolicy
	onTransition Transition

	state   constant.JobStatus
	attempt int
	lastErr error
	history []constant.JobStatus
}

func NewRetryableTask[T any](name string, policy RetryPolicy, onTransition Transition) *RetryableTask[T] {
	return &RetryableTask[T]{
		name:         name,
		policy:       policy,
		onTransition: onTransition,
		state:        constant.JobStatusPending,
		history:      []constant.JobStatus{constant.JobStatusPending},
	}
}

func (t *RetryableTask[T]) State() constant.JobStatus { return t.state }

func (t *RetryableTask[T]) Attempt() int { return t.attempt }

func (t *RetryableTask[T]) LastError() error { return t.lastErr }

// History lists every state the task went through, PENDING first.
func (t *RetryableTask[T]) History() []constant.JobStatus {
	return append([]constant.JobStatus(nil), t.history...)
}

// Run executes op until it succeeds, fails with a non-retryable error, or the retry
// budget is spent. The final error is always returned, never swallowed.
func (t *RetryableTask[T]) Run(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	logger := zerolog.Ctx(ctx).With().Str("task", t.name).Logger()
	if t.state != constant.JobStatusPending {
		var zero T
		return zero, errors.Join(ErrNonRetryable, errors.New("task already started"))
	}

	operation := func() (T, error) {
		t.attempt++
		t.transition(ctx, constant.JobStatusRunning, nil)

		res, err := op(ctx)
		if err != nil {
			t.lastErr = err
			if !IsRetryable(err) {
				return res, backoff.Permanent(err)
			}
			return res, err
		}
		return res, nil
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&policyBackOff{policy: t.policy}),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn().Err(err).
				Int("attempt", t.attempt).
				Dur("retry_in", next).
				Msg("task attempt failed, retrying")
			t.transition(ctx, constant.JobStatusRetrying, err)
		}),
	)
	if err != nil {
		if t.lastErr == nil {
			t.lastErr = err
		}
		logger.Error().Err(err).Int("attempt", t.attempt).Msg("task failed")
		t.transition(ctx, constant.JobStatusFailed, err)
		return res, err
	}

	t.lastErr = nil
	logger.Info().Int("attempt", t.attempt).Msg("task succeeded")
	t.transition(ctx, constant.JobStatusSuccess, nil)
	return res, nil
}

func (t *RetryableTask[T]) transition(ctx context.Context, state constant.JobStatus, err error) {
	t.state = state
	t.history = append(t.history, state)
	if t.onTransition != nil {
		t.onTransition(ctx, state, t.attempt, err)
	}
}
