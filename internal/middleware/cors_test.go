package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestAllowedOrigins(t *testing.T) {
	t.Parallel()

	got := AllowedOrigins(" http://a.test , ,http://b.test")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got := AllowedOrigins(""); len(got) != 0 {
		t.Errorf("Expected no origins, got %v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"http://ui.test"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		origin         string
		requestHeaders string
		wantOrigin     string
	}{
		{"allowed origin", "http://ui.test", strings.ToLower(APIKeyHeader), "http://ui.test"},
		{"allowed origin with authorization", "http://ui.test", "authorization", "http://ui.test"},
		{"allowed origin with both headers", "http://ui.test", "content-type," + strings.ToLower(APIKeyHeader), "http://ui.test"},
		{"other origin", "http://evil.test", strings.ToLower(APIKeyHeader), ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/me/datasets", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", tt.requestHeaders)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}
