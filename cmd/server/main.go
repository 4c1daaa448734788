package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/7flash/argilla/internal/auth"
	"github.com/7flash/argilla/internal/config"
	"github.com/7flash/argilla/internal/database"
	"github.com/7flash/argilla/internal/handlers"
	"github.com/7flash/argilla/internal/logger"
	"github.com/7flash/argilla/internal/middleware"
	"github.com/7flash/argilla/internal/queue"
	"github.com/7flash/argilla/internal/search"
	"github.com/7flash/argilla/internal/services/datasets"
	"github.com/7flash/argilla/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const (
	rabbitMaxRetries   = 10
	rabbitInitialDelay = 2 * time.Second
	rabbitMaxDelay     = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("auth_algorithm", cfg.AuthAlgorithm),
		zap.Duration("auth_token_ttl", cfg.AuthTokenTTL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)
	if cfg.AuthSecretGenerated {
		zapLogger.Warn("auth_secret_key_generated",
			zap.String("hint", "set AUTH_SECRET_KEY so tokens survive restarts and work across replicas"),
		)
	}
	if cfg.AuthTokenTTL == 0 {
		zapLogger.Warn("auth_tokens_never_expire",
			zap.String("hint", "set AUTH_TOKEN_EXPIRATION_MINUTES to bound token lifetime"),
		)
	}

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Options{
				ServiceName: telemetry.ServiceName,
				Endpoint:    cfg.OTELEndpoint,
				SampleRatio: cfg.OTELSampleRatio,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
					zap.Float64("sample_ratio", cfg.OTELSampleRatio),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
		}
		zapLogger.Info("database_migrated")
	}

	healthChecker := handlers.NewHealthChecker(db.HealthCheck)

	// Redis is optional; without it login attempts are counted per process
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid_redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		healthChecker.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		zapLogger.Info("connected_to_redis")
	}

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	loginRateLimit, err := middleware.RateLimit(limiterStore, cfg.LoginRateLimit, cfg.TrustProxyHeaders)
	if err != nil {
		zapLogger.Fatal("invalid_login_rate_limit", zap.Error(err))
	}

	var indexer search.Indexer = search.NewLogIndexer(zapLogger)
	if cfg.RabbitMQURL != "" {
		jobQueue := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		queueIndexer, err := search.NewQueueIndexer(jobQueue, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_create_search_indexer", zap.Error(err))
		}
		indexer = queueIndexer
		healthChecker.WithCheck("queue", jobQueue.HealthCheck)
	} else {
		zapLogger.Warn("search_indexer_not_configured",
			zap.String("hint", "set RABBITMQ_URL to publish index jobs"),
		)
	}

	settings, err := auth.NewSettings(cfg.AuthSecretKey, cfg.AuthAlgorithm, cfg.AuthTokenTTL)
	if err != nil {
		zapLogger.Fatal("invalid_auth_settings", zap.Error(err))
	}
	codec, err := auth.NewTokenCodec(settings)
	if err != nil {
		zapLogger.Fatal("failed_to_create_token_codec", zap.Error(err))
	}
	provider, err := auth.NewProvider(database.NewUserRepository(db), codec, settings.TokenTTL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_auth_provider", zap.Error(err))
	}

	datasetService := datasets.NewService(datasets.Repositories{
		Datasets:       database.NewDatasetRepository(db),
		Fields:         database.NewFieldRepository(db),
		Questions:      database.NewQuestionRepository(db),
		Records:        database.NewRecordRepository(db),
		Responses:      database.NewResponseRepository(db),
		VectorSettings: database.NewVectorSettingsRepository(db),
	}, indexer, zapLogger)

	r := handlers.NewRouter(handlers.RouterConfig{
		Authenticator:  provider,
		Issuer:         provider,
		Datasets:       datasetService,
		Health:         healthChecker,
		OpenAPI:        handlers.NewOpenAPIHandler(cfg.OpenAPISpecPath),
		LoginRateLimit: loginRateLimit,
		Logger:         zapLogger,
	})

	// Middleware registered last runs first
	if tracingEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Preflight requests never match a route method, so CORS wraps the router itself
	handler := middleware.CORS(middleware.AllowedOrigins(cfg.CORSAllowedOrigins))(r)

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries with exponential backoff so the server survives the
// broker starting after it
func connectRabbitMQ(url string, zapLogger *zap.Logger) queue.JobQueue {
	var lastErr error
	for attempt := 0; attempt < rabbitMaxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(url)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}
		lastErr = err

		delay := rabbitInitialDelay * time.Duration(1<<uint(attempt))
		if delay > rabbitMaxDelay {
			delay = rabbitMaxDelay
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", rabbitMaxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", rabbitMaxRetries),
		zap.Error(lastErr),
	)
	return nil
}
