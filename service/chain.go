package service

import (
	"context"
	"github.com/rs/zerolog"
	"meet-recording-sync/artifact"
	"meet-recording-sync/entities"
	"meet-recording-sync/pkg/metrics"
)

// Chain runs strategies in priority order and returns the first match.
type Chain struct {
	strategies []Strategy
}

// Match is the lookup outcome of a chain run. Candidate is nil on a miss.
type Match struct {
	Candidate *artifact.Candidate
	Strategy  string
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Applicable reports whether at least one strategy can run for the meeting.
func (c *Chain) Applicable(meeting *entities.Meeting) bool {
	for _, s := range c.strategies {
		if s.Applies(meeting) {
			return true
		}
	}
	return false
}

// Match tries each applicable strategy until one yields a candidate. Quota and
// authentication failures abort the chain. Other failures degrade to a miss for that
// strategy; when every applicable strategy failed that way the last failure is returned
// so the caller can retry.
func (c *Chain) Match(ctx context.Context, meeting *entities.Meeting) (*Match, error) {
	logger := zerolog.Ctx(ctx).With().Str("meeting_id", meeting.ID.String()).Logger()

	var lastErr error
	cleanMiss := false
	for _, s := range c.strategies {
		if !s.Applies(meeting) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, err := s.TryMatch(ctx, meeting)
		switch {
		case err == nil && candidate != nil:
			metrics.StrategyOutcomes.WithLabelValues(s.Name(), "match").Inc()
			logger.Info().
				Str("strategy", s.Name()).
				Str("artifact_id", candidate.ID).
				Msg("recording matched")
			return &Match{Candidate: candidate, Strategy: s.Name()}, nil
		case err == nil:
			metrics.StrategyOutcomes.WithLabelValues(s.Name(), "miss").Inc()
			cleanMiss = true
		case artifact.IsFatal(err):
			metrics.StrategyOutcomes.WithLabelValues(s.Name(), "error").Inc()
			logger.Error().Err(err).Str("strategy", s.Name()).Msg("lookup aborted")
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			metrics.StrategyOutcomes.WithLabelValues(s.Name(), "error").Inc()
			logger.Warn().Err(err).Str("strategy", s.Name()).Msg("strategy failed, trying next")
			lastErr = err
		}
	}

	if lastErr != nil && !cleanMiss {
		return nil, lastErr
	}
	return &Match{}, nil
}
