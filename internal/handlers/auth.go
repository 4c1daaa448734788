package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/7flash/argilla/internal/auth"
	"github.com/7flash/argilla/internal/logger"
	"github.com/7flash/argilla/internal/middleware"
	"github.com/7flash/argilla/internal/models"
	"github.com/7flash/argilla/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TokenIssuer exchanges a username and password for an access token
type TokenIssuer interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles the token endpoint and the current user lookup
type AuthHandler struct {
	issuer TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(issuer TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, logger: log}
}

// RegisterRoutes registers the token route on the given router.
// The router should already have the /api/security prefix and the login rate limit.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/token", h.Login).Methods("POST")
}

// RegisterMeRoute registers GET /me on an authenticated router
func (h *AuthHandler) RegisterMeRoute(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// loginForm reads the OAuth2 password form or a JSON body
func loginForm(r *http.Request) (models.LoginRequest, error) {
	var req models.LoginRequest
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, validation.Validate.Struct(req)
}

// Login issues an access token. Unknown users and wrong passwords get the
// same 401 response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := loginForm(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "username and password are required")
		return
	}

	token, err := h.issuer.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnavailable) {
			h.logger.Error("login_store_unavailable", zap.Error(err))
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Authentication is temporarily unavailable")
			return
		}
		h.logger.Info("login_failed", zap.String("username", logger.SanitizeUsername(req.Username)))
		middleware.RespondUnauthenticated(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(models.Token{AccessToken: token, TokenType: models.TokenTypeBearer}); err != nil {
		h.logger.Error("failed_to_encode_token_response", zap.Error(err))
	}
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		middleware.RespondUnauthenticated(w)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
