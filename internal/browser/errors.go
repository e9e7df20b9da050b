// internal/browser/errors.go
package browser

import "fmt"

// SessionStartError indicates the underlying browser process failed to
// launch. Fatal to the request; never retried.
type SessionStartError struct {
	Err error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("failed to start browser session: %v", e.Err)
}

func (e *SessionStartError) Unwrap() error { return e.Err }

// NavigationTimeoutError indicates the page did not reach the readiness
// condition within the configured bound. The target may still be reachable
// on a later attempt by the caller.
type NavigationTimeoutError struct {
	URL string
	Err error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("timeout while loading '%s': %v", e.URL, e.Err)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

// NavigationError indicates the browser raised during navigation: a bad
// address, a protocol error, or a crashed target.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to access '%s': %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
