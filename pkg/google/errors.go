package google

import (
	"context"
	"errors"
	"fmt"
	"google.golang.org/api/googleapi"
	"meet-recording-sync/artifact"
	"net/http"
	"strings"
)

var quotaReasons = map[string]struct{}{
	"rateLimitExceeded":     {},
	"userRateLimitExceeded": {},
	"quotaExceeded":         {},
	"dailyLimitExceeded":    {},
}

// classify maps a Google API failure onto the artifact error taxonomy, keeping the
// original error in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrTransientIO, err)
	}

	switch {
	case apiErr.Code == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrNotFound, err)
	case apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrAuthentication, err)
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrQuotaExceeded, err)
	case apiErr.Code == http.StatusForbidden && isQuota(apiErr):
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrQuotaExceeded, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: %w", op, artifact.ErrTransientIO, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isQuota(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if _, ok := quotaReasons[item.Reason]; ok {
			return true
		}
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}
