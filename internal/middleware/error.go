package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every error written by this package. It has
// the same shape as the handlers' error envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
}

// ErrorHandler recovers panics into a 500 without exposing their value.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.Any("error", rec),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)
				writeError(w, ErrorResponse{
					Error:   "Internal Server Error",
					Message: "An unexpected error occurred",
					Path:    r.URL.Path,
				}, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func respondError(w http.ResponseWriter, status int, errorType, message string) {
	writeError(w, ErrorResponse{Error: errorType, Message: message}, status)
}

func writeError(w http.ResponseWriter, body ErrorResponse, status int) {
	body.Success = false
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
