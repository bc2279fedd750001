// Package guard wraps the artifact lookup port with a client-side rate limit and a
// circuit breaker shared by every external call.
package guard

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"meet-recording-sync/artifact"
	"meet-recording-sync/pkg/metrics"
	"time"
)

type Config struct {
	RatePerSecond    float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

type Guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func New(ctx context.Context, cfg Config) *Guard {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}

	logger := zerolog.Ctx(ctx)
	return &Guard{
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "artifact-lookup",
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			// a miss is a normal answer, so is a caller giving up
			IsSuccessful: func(err error) bool {
				return err == nil ||
					artifact.IsNotFound(err) ||
					errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn().
					Str("name", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
	}
}

// Wrap decorates every non-nil capability of the port.
func (g *Guard) Wrap(port artifact.Port) artifact.Port {
	wrapped := artifact.Port{}
	if port.Conference != nil {
		wrapped.Conference = &conferenceSource{guard: g, next: port.Conference}
	}
	if port.Files != nil {
		wrapped.Files = &fileSource{guard: g, next: port.Files}
	}
	if port.Calendar != nil {
		wrapped.Calendar = &calendarSource{guard: g, next: port.Calendar}
	}
	return wrapped
}

func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

func call[T any](ctx context.Context, g *Guard, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := g.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	started := time.Now()
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	metrics.LookupLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.LookupCalls.WithLabelValues(op, "rejected").Inc()
		return zero, fmt.Errorf("%s: %w: %w", op, artifact.ErrQuotaExceeded, err)
	case artifact.IsNotFound(err):
		metrics.LookupCalls.WithLabelValues(op, "not_found").Inc()
		return zero, err
	case err != nil:
		metrics.LookupCalls.WithLabelValues(op, "error").Inc()
		return zero, err
	}

	metrics.LookupCalls.WithLabelValues(op, "ok").Inc()
	return res.(T), nil
}

type conferenceSource struct {
	guard *Guard
	next  artifact.ConferenceSource
}

func (s *conferenceSource) ListArtifactsByConference(ctx context.Context, conferenceId string) ([]artifact.Candidate, error) {
	return call(ctx, s.guard, "list_artifacts_by_conference", func() ([]artifact.Candidate, error) {
		return s.next.ListArtifactsByConference(ctx, conferenceId)
	})
}

type fileSource struct {
	guard *Guard
	next  artifact.FileSource
}

func (s *fileSource) SearchFilesByNamePrefix(ctx context.Context, prefix string) ([]artifact.Candidate, error) {
	return call(ctx, s.guard, "search_files_by_name_prefix", func() ([]artifact.Candidate, error) {
		return s.next.SearchFilesByNamePrefix(ctx, prefix)
	})
}

func (s *fileSource) SearchFilesByNameContains(ctx context.Context, text string) ([]artifact.Candidate, error) {
	return call(ctx, s.guard, "search_files_by_name_contains", func() ([]artifact.Candidate, error) {
		return s.next.SearchFilesByNameContains(ctx, text)
	})
}

func (s *fileSource) SearchFilesByDateRange(ctx context.Context, start, end time.Time, limit int) ([]artifact.Candidate, error) {
	return call(ctx, s.guard, "search_files_by_date_range", func() ([]artifact.Candidate, error) {
		return s.next.SearchFilesByDateRange(ctx, start, end, limit)
	})
}

func (s *fileSource) SearchFilesByProperty(ctx context.Context, key, value string) ([]artifact.Candidate, error) {
	return call(ctx, s.guard, "search_files_by_property", func() ([]artifact.Candidate, error) {
		return s.next.SearchFilesByProperty(ctx, key, value)
	})
}

func (s *fileSource) GetFileMetadata(ctx context.Context, fileId string) (*artifact.FileMetadata, error) {
	return call(ctx, s.guard, "get_file_metadata", func() (*artifact.FileMetadata, error) {
		return s.next.GetFileMetadata(ctx, fileId)
	})
}

type calendarSource struct {
	guard *Guard
	next  artifact.Calendar
}

func (s *calendarSource) GetEvent(ctx context.Context, eventId string) (*artifact.Event, error) {
	return call(ctx, s.guard, "get_event", func() (*artifact.Event, error) {
		return s.next.GetEvent(ctx, eventId)
	})
}
