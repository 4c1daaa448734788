package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultLoginRate limits token requests per client IP
const DefaultLoginRate = "10-M"

const loginRateLimitPrefix = "argilla_login_limiter"

// NewLimiterStore returns a Redis-backed limiter store, or an in-process one
// when redisClient is nil
func NewLimiterStore(redisClient *redis.Client) (limiter.Store, error) {
	if redisClient == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          loginRateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: loginRateLimitPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit returns middleware limiting requests per client IP at the given
// formatted rate (e.g. "10-M"). The client IP is the connection's peer
// address unless trustForwardHeader is set, in which case X-Forwarded-For and
// X-Real-IP are honoured. Only enable that behind a proxy which overwrites
// those headers.
func RateLimit(store limiter.Store, formatted string, trustForwardHeader bool) (func(http.Handler) http.Handler, error) {
	if formatted == "" {
		formatted = DefaultLoginRate
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}

	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(trustForwardHeader))
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(instance.GetIPKey))
	return mw.Handler, nil
}
