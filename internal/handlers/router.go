package handlers

import (
	"net/http"

	"github.com/7flash/argilla/internal/middleware"
	"github.com/7flash/argilla/internal/services/datasets"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterConfig holds what the API routes are served from
type RouterConfig struct {
	Authenticator middleware.Authenticator
	Issuer        TokenIssuer
	Datasets      *datasets.Service
	Health        *HealthChecker
	OpenAPI       *OpenAPIHandler
	// LoginRateLimit wraps the token endpoint when set
	LoginRateLimit func(http.Handler) http.Handler
	Logger         *zap.Logger
}

// NewRouter builds the route tree: /healthz, /api/security/token without
// authentication, and /api/me plus /api/v1 behind the auth middleware
func NewRouter(cfg RouterConfig) *mux.Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := mux.NewRouter()
	if cfg.Health != nil {
		r.HandleFunc("/healthz", cfg.Health.HealthCheck).Methods("GET")
	}
	if cfg.OpenAPI != nil {
		cfg.OpenAPI.RegisterRoutes(r)
	}

	authHandler := NewAuthHandler(cfg.Issuer, log)
	securityRouter := r.PathPrefix("/api/security").Subrouter()
	securityRouter.Use(middleware.AllowForm)
	if cfg.LoginRateLimit != nil {
		securityRouter.Use(cfg.LoginRateLimit)
	}
	authHandler.RegisterRoutes(securityRouter)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.Auth(cfg.Authenticator, log))
	apiRouter.Use(middleware.ContentType)
	authHandler.RegisterMeRoute(apiRouter)

	NewDatasetHandler(cfg.Datasets, log).RegisterRoutes(apiRouter.PathPrefix("/v1").Subrouter())

	return r
}
