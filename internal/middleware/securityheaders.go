package middleware

import (
	"net/http"
	"strings"
)

// apiSecurityHeaders are sent on every response. The API serves JSON only,
// so the content security policy forbids everything.
var apiSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
}

const hstsValue = "max-age=31536000; includeSubDomains; preload"

// SecurityHeaders sets security headers on all responses. HSTS is only sent
// over TLS and when enabled, so local plain-HTTP setups keep working.
// Responses under /api/security are never cached because they carry tokens.
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range apiSecurityHeaders {
				h.Set(kv[0], kv[1])
			}
			if enableHSTS && r.TLS != nil {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			if strings.HasPrefix(r.URL.Path, "/api/security/") {
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
			}

			next.ServeHTTP(w, r)
		})
	}
}
