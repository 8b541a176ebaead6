package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tabour/api/routes"
	"tabour/internal/notifications"
	"tabour/internal/shared/config"
	"tabour/internal/shared/database"
	"tabour/internal/stream"
	"tabour/pkg/logger"
	"tabour/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Rate limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			AuthRequests:    cfg.RateLimit.AuthRequests,
			QueueRequests:   cfg.RateLimit.QueueRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// SMS pipeline: Kafka dispatcher + worker when the broker is up,
	// direct provider calls otherwise
	notificationRepo := notifications.NewRepository(db.GetPostgreSQL())
	provider := notifications.NewProvider(cfg.Kafka.ProviderKind, appLogger)

	var dispatcher notifications.Dispatcher
	if cfg.Kafka.Enabled {
		kafkaDispatcher, err := notifications.NewKafkaDispatcher(
			cfg.Kafka.Brokers, cfg.Kafka.SMSTopic, notificationRepo, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize Kafka dispatcher, falling back to direct delivery",
				slog.Any("error", err))
			dispatcher = notifications.NewDirectDispatcher(provider, notificationRepo, appLogger)
		} else {
			dispatcher = kafkaDispatcher

			worker, err := notifications.NewWorker(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
				cfg.Kafka.SMSTopic, provider, notificationRepo, appLogger)
			if err != nil {
				appLogger.Error("Failed to initialize SMS worker", slog.Any("error", err))
			} else {
				worker.Start(context.Background())
				defer func() {
					if err := worker.Stop(); err != nil {
						appLogger.Error("Error stopping SMS worker", slog.Any("error", err))
					}
				}()
				appLogger.Info("SMS worker started",
					slog.String("topic", cfg.Kafka.SMSTopic),
					slog.String("group", cfg.Kafka.ConsumerGroup),
				)
			}
		}
	} else {
		dispatcher = notifications.NewDirectDispatcher(provider, notificationRepo, appLogger)
		appLogger.Info("Kafka disabled, SMS dispatched directly")
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			appLogger.Error("Error closing SMS dispatcher", slog.Any("error", err))
		}
	}()

	hub := stream.NewHub(appLogger, nil)

	engine, appRouter := setupRouter(cfg, db, rateLimiter, dispatcher, hub)

	// Preload Lua scripts for the room holds (critical for concurrency)
	if db.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := appRouter.RoomHolds().PreloadScripts(ctx); err != nil {
			appLogger.Error("Failed to preload Redis Lua scripts", slog.Any("error", err))
			// Scripts will be loaded on first use instead
		} else {
			appLogger.Info("Redis Lua scripts preloaded for room holds")
		}
		cancel()
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis_cache", db.Redis != nil),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter,
	dispatcher notifications.Dispatcher, hub *stream.Hub) (*gin.Engine, *routes.Router) {

	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter := routes.NewRouter(cfg, db, dispatcher, hub, appLogger)
	appRouter.SetupRoutes(engine)

	return engine, appRouter
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
