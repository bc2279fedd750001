package service

import (
	"context"
	"errors"
	"meet-recording-sync/artifact"
)

var (
	ErrNonRetryable = errors.New("non-retryable error")

	// ErrPermanentInput means the meeting lacks the anchor fields any strategy needs.
	ErrPermanentInput    = errors.New("meeting has no usable lookup anchor")
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrInvalidLimit      = errors.New("limit must be a positive number")
	ErrTaskNotFound      = errors.New("task not found")
	ErrRecordingNotFound = errors.New("recording not found")
)

// IsRetryable reports whether a failed attempt may be retried. Authentication and
// permanent input errors never are; everything else is treated as transient.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNonRetryable),
		errors.Is(err, ErrPermanentInput),
		errors.Is(err, ErrMeetingNotFound),
		errors.Is(err, ErrInvalidLimit),
		errors.Is(err, artifact.ErrAuthentication),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
