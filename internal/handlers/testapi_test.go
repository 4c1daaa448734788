package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/7flash/argilla/internal/auth"
	"github.com/7flash/argilla/internal/database/databasetest"
	"github.com/7flash/argilla/internal/middleware"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/search"
	"github.com/7flash/argilla/internal/services/datasets"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testPassword = "12345678"

// testAPI is a full route tree over in-memory repositories
type testAPI struct {
	handler   http.Handler
	store     *databasetest.Store
	codec     *auth.TokenCodec
	admin     *models.User
	annotator *models.User
	workspace uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := databasetest.NewStore()
	settings, err := auth.NewSettings("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewSettings() error = %v", err)
	}
	codec, err := auth.NewTokenCodec(settings)
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}
	provider, err := auth.NewProvider(store.Users(), codec, settings.TokenTTL, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	api := &testAPI{store: store, codec: codec, workspace: uuid.New()}
	api.admin = &models.User{FirstName: "Admin", Username: "admin", Role: models.UserRoleAdmin, APIKey: "admin.apikey", PasswordHash: hash}
	api.annotator = &models.User{FirstName: "Anna", Username: "annotator", Role: models.UserRoleAnnotator, APIKey: "annotator.apikey", PasswordHash: hash}
	for _, u := range []*models.User{api.admin, api.annotator} {
		if err := store.Users().Create(context.Background(), u); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Users().AddToWorkspace(api.annotator.ID, api.workspace); err != nil {
		t.Fatal(err)
	}

	service := datasets.NewService(datasets.Repositories{
		Datasets:       store.Datasets(),
		Fields:         store.Fields(),
		Questions:      store.Questions(),
		Records:        store.Records(),
		Responses:      store.Responses(),
		VectorSettings: store.VectorSettings(),
	}, search.NewLogIndexer(zap.NewNop()), zap.NewNop())

	api.handler = NewRouter(RouterConfig{
		Authenticator: provider,
		Issuer:        provider,
		Datasets:      service,
		Logger:        zap.NewNop(),
	})
	return api
}

// do sends a JSON request authenticated with apiKey (none when empty)
func (a *testAPI) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = newTestRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// decodeData unwraps the success envelope into dst
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("Expected success envelope, got %s", w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}
