package middleware

import (
	"net/http"

	logpkg "github.com/7flash/argilla/internal/logger"
	"github.com/7flash/argilla/internal/request"
	"go.uber.org/zap"
)

// Audit logs failed authentication, denied authorization and throttled
// requests. Only the kind of credential presented is logged, never its value.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusUnauthorized:
				event = "authentication_failed"
			case http.StatusForbidden:
				event = "authorization_denied"
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			default:
				return
			}

			logger.Warn(event,
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				zap.String("forwarded_for", logpkg.SanitizeString(request.ForwardedFor(r), logpkg.MaxGeneralStringLength)),
				zap.String("credential", credentialKind(r)),
			)
		})
	}
}

func credentialKind(r *http.Request) string {
	creds := CredentialsFromRequest(r)
	switch {
	case creds.APIKey != "":
		return "api_key"
	case creds.BearerToken != "":
		return "bearer"
	default:
		return "none"
	}
}
