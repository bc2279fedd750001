package artifact

import (
	"errors"
)

var (
	// ErrNotFound is a normal "no match" outcome, never a failure.
	ErrNotFound = errors.New("artifact not found")
	// ErrAuthentication means credentials are invalid or expired; nothing else will work this run.
	ErrAuthentication = errors.New("artifact lookup authentication failed")
	// ErrQuotaExceeded means the external API refused the call for quota or rate reasons.
	ErrQuotaExceeded = errors.New("artifact lookup quota exceeded")
	// ErrTransientIO covers network failures and 5xx-equivalent responses.
	ErrTransientIO = errors.New("artifact lookup transient failure")
)

// IsFatal reports whether err makes the whole lookup path unusable for this run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrQuotaExceeded)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
