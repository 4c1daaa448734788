package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

const corsMaxAge = 86400

// AllowedOrigins splits a comma-separated origin list, dropping blanks
func AllowedOrigins(list string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CORS creates CORS middleware for the given origins. The API key header is
// allowed so browser clients can use either credential.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", APIKeyHeader},
	})
	return c.Handler
}
