package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

// DefaultAlgorithm is used when no signing algorithm is configured
const DefaultAlgorithm = jwa.HS256

var allowedAlgorithms = map[jwa.SignatureAlgorithm]struct{}{
	jwa.HS256: {},
	jwa.HS384: {},
	jwa.HS512: {},
}

// Settings is the process-wide token configuration. Build it once with
// NewSettings and pass it by value; nothing mutates it afterwards.
type Settings struct {
	SecretKey []byte
	Algorithm jwa.SignatureAlgorithm
	// TokenTTL of zero issues tokens without an exp claim
	TokenTTL time.Duration
}

// NewSettings validates and builds token settings
func NewSettings(secret, algorithm string, ttl time.Duration) (Settings, error) {
	if secret == "" {
		return Settings{}, errors.New("secret key is required")
	}
	if ttl < 0 {
		return Settings{}, fmt.Errorf("token ttl must not be negative, got %s", ttl)
	}

	alg := DefaultAlgorithm
	if algorithm = strings.TrimSpace(algorithm); algorithm != "" {
		alg = jwa.SignatureAlgorithm(strings.ToUpper(algorithm))
	}
	if _, ok := allowedAlgorithms[alg]; !ok {
		return Settings{}, fmt.Errorf("unsupported signing algorithm %q (allowed: HS256, HS384, HS512)", algorithm)
	}

	return Settings{
		SecretKey: []byte(secret),
		Algorithm: alg,
		TokenTTL:  ttl,
	}, nil
}

// ExpiresTokens reports whether issued tokens carry an expiration
func (s Settings) ExpiresTokens() bool {
	return s.TokenTTL > 0
}
