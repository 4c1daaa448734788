package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultMaxRequestSize bounds request bodies. A full batch of 1000
	// records with text fields fits comfortably.
	DefaultMaxRequestSize int64 = 10 << 20

	// DefaultRequestTimeout bounds handler execution
	DefaultRequestTimeout = 30 * time.Second

	timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`
)

// MaxRequestSize rejects declared oversize bodies up front and caps the rest
// with http.MaxBytesReader, which handlers surface as 413.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Timeout cancels the request context after timeout and answers 503 with a
// JSON body if the handler has not written a response by then.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		handler := http.TimeoutHandler(next, timeout, timeoutBody)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			// Only the timeout response keeps this; handler headers replace it
			w.Header().Set("Content-Type", "application/json")
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
