package middleware

import (
	"net/http"
	"strings"
)

// ContentType validates Content-Type headers for requests with bodies.
// JSON is accepted everywhere; form bodies only on the token endpoint, which
// wraps itself with AllowForm.
func ContentType(next http.Handler) http.Handler {
	return contentType(next, false)
}

// AllowForm is ContentType that also accepts application/x-www-form-urlencoded
func AllowForm(next http.Handler) http.Handler {
	return contentType(next, true)
}

func contentType(next http.Handler, allowForm bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && r.ContentLength != 0 {
			ct := strings.ToLower(r.Header.Get("Content-Type"))
			if ct == "" {
				respondError(w, http.StatusBadRequest, "Bad Request", "Content-Type header is required")
				return
			}

			ok := strings.HasPrefix(ct, "application/json") ||
				(allowForm && strings.HasPrefix(ct, "application/x-www-form-urlencoded"))
			if !ok {
				respondError(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
