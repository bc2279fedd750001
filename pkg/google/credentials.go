// Package google adapts Google Drive, Meet and Calendar to the artifact lookup port.
package google

import (
	"context"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"os"
	"time"
)

const (
	DriveReadonlyScope    = "https://www.googleapis.com/auth/drive.readonly"
	MeetReadonlyScope     = "https://www.googleapis.com/auth/meetings.space.readonly"
	CalendarReadonlyScope = "https://www.googleapis.com/auth/calendar.readonly"
)

var ErrMissingCredentials = errors.New("google service account file is not configured")

// Credentials is a service-account token source impersonating a workspace user through
// domain-wide delegation. It is built once and handed to every adapter.
type Credentials struct {
	tokenSource oauth2.TokenSource
	subject     string
}

// LoadServiceAccount reads the key file and binds it to subject. Reading is retried a few
// times since the file is often mounted from a secret volume that appears late.
func LoadServiceAccount(ctx context.Context, path, subject string) (*Credentials, error) {
	if path == "" {
		return nil, ErrMissingCredentials
	}

	operation := func() ([]byte, error) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrPermission) {
			return nil, backoff.Permanent(err)
		}
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("failed to read service account file. Retrying...")
			return nil, err
		}
		return data, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	data, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}

	return NewCredentials(ctx, data, subject)
}

func NewCredentials(ctx context.Context, key []byte, subject string) (*Credentials, error) {
	cfg, err := googleoauth.JWTConfigFromJSON(key, DriveReadonlyScope, MeetReadonlyScope, CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	cfg.Subject = subject

	zerolog.Ctx(ctx).Info().Str("client_email", cfg.Email).Str("subject", subject).Msg("google credentials loaded")
	return &Credentials{
		tokenSource: cfg.TokenSource(context.WithoutCancel(ctx)),
		subject:     subject,
	}, nil
}

func (c *Credentials) Subject() string {
	return c.subject
}

// ClientOptions returns the options every Google API client is constructed with.
func (c *Credentials) ClientOptions() []option.ClientOption {
	return []option.ClientOption{option.WithTokenSource(c.tokenSource)}
}
