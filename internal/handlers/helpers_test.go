package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/policy"
	"github.com/7flash/argilla/internal/services/datasets"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	ts, ok := body["timestamp"].(string)
	if !ok {
		t.Fatal("Timestamp not found in response")
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("Timestamp '%s' is not valid RFC3339: %v", ts, err)
	}
	return body
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		data   any
		check  func(*testing.T, any)
	}{
		{
			name:   "dataset",
			status: http.StatusCreated,
			data:   &models.Dataset{Name: "my-dataset", Status: models.DatasetStatusDraft},
			check: func(t *testing.T, data any) {
				m, ok := data.(map[string]any)
				if !ok || m["name"] != "my-dataset" || m["status"] != "draft" {
					t.Errorf("Expected dataset payload, got %v", data)
				}
			},
		},
		{
			name:   "nil data",
			status: http.StatusOK,
			check: func(t *testing.T, data any) {
				if data != nil {
					t.Errorf("Expected data to be nil, got %v", data)
				}
			},
		},
		{
			name:   "list",
			status: http.StatusOK,
			data:   []string{"a", "b", "c"},
			check: func(t *testing.T, data any) {
				if items, ok := data.([]any); !ok || len(items) != 3 {
					t.Errorf("Expected 3 items, got %v", data)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			body := decodeEnvelope(t, w)
			if body["success"] != true {
				t.Error("Expected success to be true")
			}
			tt.check(t, body["data"])
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusConflict, "Conflict", strings.Repeat("x", maxErrorMessageLength+10))

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["success"] != false || body["error"] != "Conflict" {
		t.Errorf("Unexpected error envelope: %v", body)
	}
	if msg, _ := body["message"].(string); len(msg) != maxErrorMessageLength+3 || !strings.HasSuffix(msg, "...") {
		t.Errorf("Expected message truncated to %d chars plus ellipsis, got %d", maxErrorMessageLength, len(msg))
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		limit       int64
		wantOK      bool
		wantStatus  int
		wantMessage string
	}{
		{name: "valid", body: `{"name":"text","title":"Text","settings":{"type":"text"}}`, wantOK: true},
		{name: "malformed", body: `{"name":`, wantStatus: http.StatusBadRequest, wantMessage: "Invalid request body"},
		{name: "fails validation", body: `{"name":"Bad Name","title":"Text","settings":{"type":"text"}}`, wantStatus: http.StatusBadRequest, wantMessage: "Validation failed"},
		{name: "too large", body: `{"name":"text","title":"` + strings.Repeat("t", 64) + `"}`, limit: 16, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(w, req.Body, tt.limit)
			}

			var dst models.FieldCreate
			ok := decodeJSON(w, req, &dst)

			if ok != tt.wantOK {
				t.Fatalf("decodeJSON() = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK {
				return
			}
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantMessage) {
				t.Errorf("Expected message containing %q, got %s", tt.wantMessage, w.Body.String())
			}
		})
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if id, ok := pathID(w, r); ok {
			_, _ = fmt.Fprint(w, id)
		}
	})

	valid := "0f1e2d3c-4b5a-4978-8695-a4b3c2d1e0f9"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/datasets/"+valid, nil))
	if w.Code != http.StatusOK || w.Body.String() != valid {
		t.Errorf("Expected parsed id %s, got %d %q", valid, w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/datasets/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed id, got %d", w.Code)
	}
}

// Test helper to create a test request with body
func newTestRequest(method, path string, body any) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}
	return httptest.NewRequest(method, path, bodyReader)
}

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"forbidden", fmt.Errorf("create dataset: %w", policy.ErrForbidden), http.StatusForbidden, "You are not allowed to perform this action"},
		{"not found", &datasets.Error{Kind: datasets.ErrNotFound, Message: "Dataset with id `x` not found"}, http.StatusNotFound, "Dataset with id `x` not found"},
		{"conflict", &datasets.Error{Kind: datasets.ErrAlreadyExists, Message: "taken"}, http.StatusConflict, "taken"},
		{"invalid", &datasets.Error{Kind: datasets.ErrInvalid, Message: "not a draft"}, http.StatusUnprocessableEntity, "not a draft"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondServiceError(w, zap.NewNop(), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %v", tt.wantMessage, body["message"])
			}
		})
	}
}
