package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

func TestNewSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		secret    string
		algorithm string
		ttl       time.Duration
		wantAlg   jwa.SignatureAlgorithm
		wantErr   bool
	}{
		{name: "defaults to HS256", secret: "s", wantAlg: jwa.HS256},
		{name: "lowercase accepted", secret: "s", algorithm: "hs384", wantAlg: jwa.HS384},
		{name: "HS512", secret: "s", algorithm: "HS512", wantAlg: jwa.HS512},
		{name: "asymmetric rejected", secret: "s", algorithm: "RS256", wantErr: true},
		{name: "none rejected", secret: "s", algorithm: "none", wantErr: true},
		{name: "empty secret", secret: "", wantErr: true},
		{name: "negative ttl", secret: "s", ttl: -time.Minute, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewSettings(tt.secret, tt.algorithm, tt.ttl)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got.Algorithm != tt.wantAlg {
				t.Errorf("Expected algorithm %s, got %s", tt.wantAlg, got.Algorithm)
			}
		})
	}
}

func TestSettings_ExpiresTokens(t *testing.T) {
	t.Parallel()

	never, err := NewSettings("s", "", 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if never.ExpiresTokens() {
		t.Error("Expected zero ttl not to expire tokens")
	}

	hourly, err := NewSettings("s", "", time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !hourly.ExpiresTokens() {
		t.Error("Expected positive ttl to expire tokens")
	}
}
