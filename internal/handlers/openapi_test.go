package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")
	doc := "openapi: 3.0.3\ninfo:\n  title: test\n  version: 1.0.0\npaths: {}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	h := NewOpenAPIHandler(path)

	w := httptest.NewRecorder()
	h.ServeYAML(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	if w.Code != http.StatusOK || w.Body.String() != doc {
		t.Errorf("Expected the YAML document, got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if body["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %v", body["openapi"])
	}

	missing := NewOpenAPIHandler(filepath.Join(dir, "missing.yaml"))
	w = httptest.NewRecorder()
	missing.ServeJSON(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing document, got %d", w.Code)
	}
}
