package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout is the default request timeout. Evaluations fan out
	// to five model calls, so it is longer than a typical API timeout.
	DefaultRequestTimeout = 90 * time.Second

	timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request Timeout"}`
)

// Timeout creates a middleware that enforces a timeout on request handlers.
// The handler's context is cancelled when the timeout elapses.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
