package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the verified content of a token
type Claims struct {
	Subject   string
	ExpiresAt *time.Time
}

// TokenCodec issues and verifies HMAC signed JWTs for a single pinned algorithm
type TokenCodec struct {
	secret    []byte
	algorithm jwa.SignatureAlgorithm
	now       func() time.Time
}

// CodecOption customises a TokenCodec
type CodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for exp claims and expiry checks
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec creates a codec bound to the given settings
func NewTokenCodec(settings Settings, opts ...CodecOption) (*TokenCodec, error) {
	if len(settings.SecretKey) == 0 {
		return nil, errors.New("secret key is required")
	}
	if _, ok := allowedAlgorithms[settings.Algorithm]; !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", settings.Algorithm)
	}

	c := &TokenCodec{
		secret:    settings.SecretKey,
		algorithm: settings.Algorithm,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subject. A positive ttl adds an exp claim; zero
// leaves the token without one.
func (c *TokenCodec) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}

	tok := jwt.New()
	if err := tok.Set(jwt.SubjectKey, subject); err != nil {
		return "", fmt.Errorf("failed to set subject claim: %w", err)
	}
	if ttl > 0 {
		// exp has second precision, so the lifetime counts from the start of
		// the issuing second
		if err := tok.Set(jwt.ExpirationKey, c.now().Truncate(time.Second).Add(ttl)); err != nil {
			return "", fmt.Errorf("failed to set expiration claim: %w", err)
		}
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(c.algorithm, c.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify checks the signature and expiry of raw and returns its claims.
// Tokens whose header names any algorithm other than the configured one are
// rejected before signature verification.
func (c *TokenCodec) Verify(raw string) (*Claims, error) {
	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, fmt.Errorf("%w: expected one signature, got %d", ErrInvalidSignature, len(sigs))
	}
	if alg := sigs[0].ProtectedHeaders().Algorithm(); alg != c.algorithm {
		return nil, fmt.Errorf("%w: unexpected signing algorithm %q", ErrInvalidSignature, alg)
	}

	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(c.algorithm, c.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims := &Claims{Subject: tok.Subject()}
	// jwt.Parse already rejected a token whose exp is not after now
	if exp := tok.Expiration(); !exp.IsZero() {
		claims.ExpiresAt = &exp
	}
	return claims, nil
}
