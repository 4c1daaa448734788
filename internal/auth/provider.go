package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/7flash/argilla/internal/logger"
	"github.com/7flash/argilla/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore looks users up by their login name or API key. Lookups that
// find nothing must return an error wrapping sql.ErrNoRows; any other error is
// treated as the store being unavailable.
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// Credentials are the raw values a transport extracted from a request
type Credentials struct {
	APIKey      string
	BearerToken string
}

// Provider resolves requests to users and exchanges passwords for tokens
type Provider struct {
	store     CredentialStore
	codec     *TokenCodec
	ttl       time.Duration
	dummyHash string
	logger    *zap.Logger
}

// NewProvider creates a provider. ttl is passed to the codec on every login.
func NewProvider(store CredentialStore, codec *TokenCodec, ttl time.Duration, log *zap.Logger) (*Provider, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Compared against when a username is unknown so both login failures cost one bcrypt run
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to seed dummy hash: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(seed, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to build dummy hash: %w", err)
	}

	return &Provider{
		store:     store,
		codec:     codec,
		ttl:       ttl,
		dummyHash: string(dummy),
		logger:    log,
	}, nil
}

// Authenticate resolves credentials to a user. An API key, when present, is the
// only credential consulted; the bearer token is used only without one.
func (p *Provider) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	switch {
	case creds.APIKey != "":
		return p.userByAPIKey(ctx, creds.APIKey)
	case creds.BearerToken != "":
		return p.userByToken(ctx, creds.BearerToken)
	default:
		return nil, ErrMissingCredentials
	}
}

func (p *Provider) userByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	user, err := p.store.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p.logger.Debug("api_key_not_found")
			return nil, ErrAPIKeyNotFound
		}
		p.logger.Error("credential_store_lookup_failed", zap.String("lookup", "api_key"), zap.Error(err))
		return nil, unavailable(err)
	}
	return user, nil
}

func (p *Provider) userByToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := p.codec.Verify(token)
	if err != nil {
		p.logger.Debug("token_rejected", zap.String("reason", logger.SanitizeError(err)))
		return nil, err
	}
	if claims.Subject == "" {
		p.logger.Debug("token_subject_missing")
		return nil, ErrSubjectNotFound
	}

	user, err := p.store.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p.logger.Debug("token_subject_not_found", zap.String("subject", logger.SanitizeUsername(claims.Subject)))
			return nil, ErrSubjectNotFound
		}
		p.logger.Error("credential_store_lookup_failed", zap.String("lookup", "username"), zap.Error(err))
		return nil, unavailable(err)
	}
	return user, nil
}

// Login verifies a username and password and returns a signed token whose
// subject is the username. Unknown users and wrong passwords both return
// ErrInvalidCredentials after the same amount of hashing work.
func (p *Provider) Login(ctx context.Context, username, password string) (string, error) {
	user, err := p.store.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		p.logger.Error("credential_store_lookup_failed", zap.String("lookup", "username"), zap.Error(err))
		return "", unavailable(err)
	}
	if err != nil {
		user = nil
	}

	hash := p.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	matched := VerifyPassword(hash, password)

	if user == nil || !matched {
		p.logger.Debug("login_failed",
			zap.String("username", logger.SanitizeUsername(username)),
			zap.Bool("user_found", user != nil),
		)
		return "", ErrInvalidCredentials
	}

	token, err := p.codec.Issue(user.Username, p.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	p.logger.Info("login_succeeded", zap.String("user_id", user.ID.String()))
	return token, nil
}
