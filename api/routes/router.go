// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tabour/internal/auth"
	"tabour/internal/bookings"
	"tabour/internal/branches"
	"tabour/internal/customers"
	"tabour/internal/notifications"
	"tabour/internal/otp"
	"tabour/internal/queue"
	"tabour/internal/shared/config"
	"tabour/internal/shared/database"
	"tabour/internal/stream"
	"tabour/pkg/cache"
	"tabour/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config     *config.Config
	db         *database.DB
	dispatcher notifications.Dispatcher
	hub        *stream.Hub
	logger     *logger.Logger

	roomHolds *queue.RoomHolds
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, dispatcher notifications.Dispatcher, hub *stream.Hub, log *logger.Logger) *Router {
	return &Router{
		config:     cfg,
		db:         db,
		dispatcher: dispatcher,
		hub:        hub,
		logger:     log,
	}
}

// RoomHolds exposes the hold handler so main can preload its Lua
// scripts at startup.
func (r *Router) RoomHolds() *queue.RoomHolds {
	return r.roomHolds
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	// Shared infrastructure
	cacheService := cache.NewService(r.db.GetRedisClient())
	customerRepo := customers.NewRepository(r.db.GetPostgreSQL())

	// Queue engine pieces
	queueRepo := queue.NewRepository(r.db.GetPostgreSQL(),
		int(r.config.Queue.ReadRetryAttempts), r.config.Queue.ReadRetryBaseDelay)
	estimator := queue.NewEstimator(queueRepo, r.config.Queue.EstimateWindow, r.config.Queue.FallbackWaitMinutes)
	allocator := queue.NewAllocator(queueRepo)
	r.roomHolds = queue.NewRoomHolds(r.db.GetRedisClient(), r.config.Redis.RoomHoldTTL)

	// Branch management, with the allocator guarding room shrinks
	branchRepo := branches.NewRepository(r.db.GetPostgreSQL())
	branchService := branches.NewService(branchRepo, allocator, cacheService)
	branchController := branches.NewController(branchService)

	// Code challenge delivered over the same SMS dispatcher
	otpService := otp.NewService(r.db.GetPostgreSQL(), r.dispatcher,
		r.config.Queue.OTPLength, r.config.Queue.OTPExpiry, r.logger)

	queueService := queue.NewService(queueRepo, customerRepo, branchService,
		estimator, allocator, r.roomHolds, otpService, r.dispatcher, r.hub, r.logger)
	queueController := queue.NewController(queueService)

	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, customerRepo, branchService, r.dispatcher, r.logger)
	bookingController := bookings.NewController(bookingService)

	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config, r.logger)
	authController := auth.NewController(authService)

	notificationRepo := notifications.NewRepository(r.db.GetPostgreSQL())
	notificationController := notifications.NewController(notificationRepo)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.RegisterRoutes(api, authController, r.config)
		branches.RegisterRoutes(api, branchController, r.config)
		queue.RegisterRoutes(api, queueController, r.config)
		bookings.RegisterRoutes(api, bookingController, r.config)
		notifications.RegisterRoutes(api, notificationController, r.config)
	}

	stream.RegisterRoutes(engine.Group(""), r.hub)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tabour-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"timestamp":      time.Now(),
			"service":        "tabour-backend",
			"stream_clients": r.hub.ClientCount(),
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}
