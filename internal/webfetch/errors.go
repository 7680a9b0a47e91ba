package webfetch

import (
	"errors"
	"fmt"
)

// ErrResponseTooLarge is returned when a response body exceeds the
// configured cap. The oversized content is discarded, never extracted.
var ErrResponseTooLarge = errors.New("webfetch: response too large")

// ValidationError reports a URL policy violation. Never retried, surfaced
// immediately.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("webfetch: unsafe URL %s: %s", e.URL, e.Reason)
}

// RedirectBlockedError reports that a redirect target failed validation.
// Distinct from ValidationError so callers can tell which hop was rejected.
type RedirectBlockedError struct {
	Target string
	Reason string
}

func (e *RedirectBlockedError) Error() string {
	return fmt.Sprintf("webfetch: redirect blocked to %s: %s", e.Target, e.Reason)
}

// TransportError wraps network, timeout, and HTTP status failures. The
// fetcher itself never retries them.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webfetch: fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
