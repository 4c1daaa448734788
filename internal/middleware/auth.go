package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/7flash/argilla/internal/auth"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/request"
	"go.uber.org/zap"
)

// APIKeyHeader carries a user's API key; it takes precedence over a bearer token
const APIKeyHeader = "X-Argilla-Api-Key"

const unauthenticatedMessage = "Could not validate credentials"

// Authenticator resolves request credentials to a user
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*models.User, error)
}

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// CredentialsFromRequest reads the API key header and the bearer token.
// The scheme match is case-insensitive.
func CredentialsFromRequest(r *http.Request) auth.Credentials {
	creds := auth.Credentials{APIKey: strings.TrimSpace(r.Header.Get(APIKeyHeader))}

	authHeader := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(authHeader, " "); ok && strings.EqualFold(scheme, "Bearer") {
		creds.BearerToken = strings.TrimSpace(token)
	}
	return creds
}

// Auth creates authentication middleware. Every failure to authenticate gets
// the same 401 body; an unavailable credential store gets 503.
func Auth(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticator.Authenticate(r.Context(), CredentialsFromRequest(r))
			if err != nil {
				if errors.Is(err, auth.ErrUnavailable) {
					logger.Error("credential_store_unavailable", zap.Error(err))
					respondError(w, http.StatusServiceUnavailable, "Service Unavailable", "Authentication is temporarily unavailable")
					return
				}
				logger.Debug("authentication_failed", zap.Error(err))
				RespondUnauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	}
}

// RespondUnauthenticated writes the generic 401 response with a bearer challenge
func RespondUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondError(w, http.StatusUnauthorized, "Unauthorized", unauthenticatedMessage)
}
