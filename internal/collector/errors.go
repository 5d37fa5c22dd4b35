package collector

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream API failures. Callers are expected to wait
// and retry on ErrRateLimited rather than fail permanently.
var (
	ErrRateLimited  = errors.New("reddit: rate limited")
	ErrUnauthorized = errors.New("reddit: unauthorized")
	ErrNotFound     = errors.New("reddit: not found")
)

// statusError maps an upstream HTTP status to a sentinel error, keeping the
// status in the message for logs.
func statusError(status int) error {
	switch status {
	case 429:
		return fmt.Errorf("%w (status %d)", ErrRateLimited, status)
	case 401, 403:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, status)
	case 404:
		return fmt.Errorf("%w (status %d)", ErrNotFound, status)
	default:
		return fmt.Errorf("reddit: unexpected status %d", status)
	}
}
