package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	healthy := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name         string
		mode         string
		checker      *HealthChecker
		expectStatus int
		expectChecks map[string]string
	}{
		{
			name:         "basic mode skips checks",
			mode:         "",
			checker:      NewHealthChecker(failing),
			expectStatus: http.StatusOK,
		},
		{
			name:         "extended mode all healthy",
			mode:         "extended",
			checker:      NewHealthChecker(healthy).WithCheck("redis", healthy),
			expectStatus: http.StatusOK,
			expectChecks: map[string]string{"database": "healthy", "redis": "healthy"},
		},
		{
			name:         "extended mode queue down",
			mode:         "extended",
			checker:      NewHealthChecker(healthy).WithCheck("queue", failing),
			expectStatus: http.StatusServiceUnavailable,
			expectChecks: map[string]string{"database": "healthy", "queue": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/healthz?mode="+tt.mode, nil)
			w := httptest.NewRecorder()
			tt.checker.HealthCheck(w, req)

			if w.Code != tt.expectStatus {
				t.Errorf("Expected status %d, got %d", tt.expectStatus, w.Code)
			}

			var body HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
				t.Errorf("Timestamp '%s' is not valid RFC3339: %v", body.Timestamp, err)
			}
			if len(body.Checks) != len(tt.expectChecks) {
				t.Fatalf("Expected %d checks, got %v", len(tt.expectChecks), body.Checks)
			}
			for name, want := range tt.expectChecks {
				if body.Checks[name] != want {
					t.Errorf("Expected check %s = %q, got %q", name, want, body.Checks[name])
				}
			}
		})
	}
}
