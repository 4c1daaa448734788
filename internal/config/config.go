package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL        string
	ServerPort         string
	BaseURL            string
	FrontendURL        string
	CORSAllowedOrigins string
	EnableHSTS         bool
	ServerDebugMode    bool
	LogFormat          string
	AutoMigrate        bool
	OpenAPISpecPath    string
	RedisURL           string
	RabbitMQURL        string

	AuthSecretKey string
	// AuthSecretGenerated is set when AUTH_SECRET_KEY was empty and a
	// per-process secret was generated; tokens will not survive a restart.
	AuthSecretGenerated bool
	AuthAlgorithm       string
	// AuthTokenTTL of zero means issued tokens never expire
	AuthTokenTTL   time.Duration
	LoginRateLimit string
	// TrustProxyHeaders keys the login limiter on X-Forwarded-For instead of
	// the peer address; only safe behind a proxy that overwrites it
	TrustProxyHeaders bool

	OTELEnabled     bool
	OTELEndpoint    string
	OTELSampleRatio float64
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	ttlMinutes := getEnvInt("AUTH_TOKEN_EXPIRATION_MINUTES", 0)
	if ttlMinutes < 0 {
		return nil, fmt.Errorf("AUTH_TOKEN_EXPIRATION_MINUTES must not be negative, got %d", ttlMinutes)
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG", false),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		AutoMigrate:        getEnvBool("AUTO_MIGRATE", true),
		OpenAPISpecPath:    getEnv("OPENAPI_SPEC_PATH", "api/openapi/openapi.yaml"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		AuthSecretKey:      getEnv("AUTH_SECRET_KEY", ""),
		AuthAlgorithm:      getEnv("AUTH_ALGORITHM", "HS256"),
		AuthTokenTTL:       time.Duration(ttlMinutes) * time.Minute,
		LoginRateLimit:     getEnv("LOGIN_RATE_LIMIT", "10-M"),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio:    getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.CORSAllowedOrigins == "" {
		cfg.CORSAllowedOrigins = cfg.FrontendURL
	}

	if cfg.OTELSampleRatio < 0 || cfg.OTELSampleRatio > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATIO must be between 0 and 1, got %v", cfg.OTELSampleRatio)
	}

	if cfg.AuthSecretKey == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.AuthSecretKey = secret
		cfg.AuthSecretGenerated = true
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate auth secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
