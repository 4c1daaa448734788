package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/7flash/argilla/internal/auth"
	"github.com/7flash/argilla/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeAuthenticator struct {
	user *models.User
	err  error
	got  auth.Credentials
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, creds auth.Credentials) (*models.User, error) {
	f.got = creds
	return f.user, f.err
}

func TestCredentialsFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    auth.Credentials
	}{
		{"none", nil, auth.Credentials{}},
		{"api key", map[string]string{APIKeyHeader: "key"}, auth.Credentials{APIKey: "key"}},
		{"bearer", map[string]string{"Authorization": "Bearer tok"}, auth.Credentials{BearerToken: "tok"}},
		{"bearer lowercase scheme", map[string]string{"Authorization": "bearer tok"}, auth.Credentials{BearerToken: "tok"}},
		{"basic scheme ignored", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, auth.Credentials{}},
		{"scheme without token", map[string]string{"Authorization": "Bearer"}, auth.Credentials{}},
		{"both", map[string]string{APIKeyHeader: "key", "Authorization": "Bearer tok"}, auth.Credentials{APIKey: "key", BearerToken: "tok"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := CredentialsFromRequest(req); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "argilla", Role: models.UserRoleAdmin}

	tests := []struct {
		name       string
		user       *models.User
		err        error
		wantStatus int
	}{
		{"authenticated", user, nil, http.StatusOK},
		{"missing credentials", nil, auth.ErrMissingCredentials, http.StatusUnauthorized},
		{"expired token", nil, auth.ErrExpired, http.StatusUnauthorized},
		{"unknown api key", nil, auth.ErrAPIKeyNotFound, http.StatusUnauthorized},
		{"store unavailable", nil, fmt.Errorf("%w: connection refused", auth.ErrUnavailable), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = UserFromContext(r)
				w.WriteHeader(http.StatusOK)
			})
			authenticator := &fakeAuthenticator{user: tt.user, err: tt.err}
			handler := Auth(authenticator, zap.NewNop())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.Header.Set(APIKeyHeader, "key")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if authenticator.got.APIKey != "key" {
				t.Errorf("Expected API key to reach the authenticator, got %+v", authenticator.got)
			}

			switch tt.wantStatus {
			case http.StatusOK:
				if seen != user {
					t.Errorf("Expected user in context, got %+v", seen)
				}
			case http.StatusUnauthorized:
				if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
					t.Errorf("Expected WWW-Authenticate 'Bearer', got '%s'", got)
				}
				var body map[string]any
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if body["message"] != "Could not validate credentials" {
					t.Errorf("Expected generic message, got %v", body["message"])
				}
			}
		})
	}
}
