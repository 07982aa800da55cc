package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/config"
	"github.com/smarttransit/transfer-booking-backend/internal/database"
	"github.com/smarttransit/transfer-booking-backend/internal/handlers"
	"github.com/smarttransit/transfer-booking-backend/internal/middleware"
	"github.com/smarttransit/transfer-booking-backend/internal/redisx"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
	"github.com/smarttransit/transfer-booking-backend/pkg/events"
	"github.com/smarttransit/transfer-booking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit Transfer Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	catalogRepo := database.NewCatalogRepository(db)
	requestLogRepo := database.NewRequestLogRepository(db, logger)
	systemSettingRepo := database.NewSystemSettingRepository(db)

	// Optional availability cache
	var availabilityCache services.AvailabilityCache
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := redisx.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, availability is not cached")
		} else {
			defer rdb.Close()
			availabilityCache = redisx.NewAvailabilityCache(rdb, cfg.Redis.CacheTTL)
			logger.WithField("addr", cfg.Redis.Addr).Info("Availability cache enabled")
		}
	}

	// Request log sinks: database always, NATS when configured
	auditSinks := []services.AuditSink{requestLogRepo}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL, logger)
		if err != nil {
			logger.WithError(err).Warn("NATS unavailable, request log events are not published")
		} else {
			defer bus.Close()
			auditSinks = append(auditSinks, events.NewRequestLogPublisher(bus))
			logger.WithField("url", cfg.NATS.URL).Info("Request log events enabled")
		}
	}
	audit := services.NewMultiAuditSink(auditSinks...)

	// Initialize services
	logger.Info("Initializing services...")
	bokunClient, err := bokun.NewClient(bokun.Config{
		BaseURL:       cfg.Bokun.BaseURL,
		AccessKey:     cfg.Bokun.AccessKey,
		SecretKey:     cfg.Bokun.SecretKey,
		Timeout:       cfg.Bokun.Timeout,
		MaxGetRetries: cfg.Bokun.MaxGetRetries,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to create Bokun client: %v", err)
	}

	jwtService := jwt.NewService(cfg.Cart.TokenSecret, cfg.Cart.TokenExpiry)
	availabilityService := services.NewAvailabilityService(bokunClient, availabilityCache, cfg.Bokun.Location(), logger)
	catalogResolver := services.NewCatalogResolver(bokunClient, availabilityService, logger)
	cartRegistry := services.NewCartRegistry(bokunClient, audit, cfg.Cart.SessionIdleTTL, logger)
	priceTableService := services.NewPriceTableService(systemSettingRepo, logger)
	bookingWorkflow := services.NewBookingWorkflowService(
		catalogRepo,
		catalogResolver,
		availabilityService,
		cartRegistry,
		priceTableService,
		services.DefaultBookingWorkflowConfig(),
		logger,
	)
	logger.Info("Services initialized")

	// Start background jobs
	cronService := services.NewCronService(cartRegistry, requestLogRepo, services.CronConfig{
		EvictSchedule:       cfg.Cart.EvictSchedule,
		PurgeSchedule:       cfg.RequestLog.PurgeSchedule,
		RequestLogRetention: cfg.RequestLog.Retention,
	}, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Initialize handlers
	productHandler := handlers.NewProductHandler(catalogRepo, bookingWorkflow, cfg.Bokun.Location(), logger)
	placeHandler := handlers.NewPlaceHandler(catalogRepo, cfg.Bokun.VendorID, logger)
	bookingHandler := handlers.NewBookingHandler(bookingWorkflow, jwtService, logger)
	cartHandler := handlers.NewCartHandler(cartRegistry, requestLogRepo, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, cartRegistry, cronService))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.ClientInfo())
	{
		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:id/availability", productHandler.GetAvailability)
		v1.GET("/products/:id/quote", productHandler.GetQuote)
		v1.GET("/places", placeHandler.ListPlaces)

		v1.POST("/bookings", middleware.OptionalCartSession(jwtService), bookingHandler.CreateBooking)

		// Cart routes (cart token required)
		cart := v1.Group("/cart")
		cart.Use(middleware.CartSessionMiddleware(jwtService, logger))
		{
			cart.GET("", cartHandler.GetCart)
			cart.GET("/requests", cartHandler.ListRequests)
			cart.DELETE("/activities/:booking_id", cartHandler.RemoveActivity)
			cart.PUT("/activities/:booking_id/extras", cartHandler.UpsertExtra)
			cart.DELETE("/activities/:booking_id/extras/:extra_id", cartHandler.RemoveExtra)
			cart.PUT("/promo-code", cartHandler.ApplyPromoCode)
			cart.DELETE("/promo-code", cartHandler.RemovePromoCode)
			cart.POST("/reserve", cartHandler.Reserve)
			cart.POST("/charge", cartHandler.ChargeCard)
			cart.POST("/confirm", cartHandler.Confirm)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Bokun.Timeout*2 + 15*time.Second, // a round trip makes several sequential Bokun calls
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_cart":   c.GetHeader(middleware.CartTokenHeader) != "",
		}
		if sessionID, ok := middleware.GetCartSessionID(c); ok {
			fields["session_id"] = sessionID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		// Log based on status code
		status := c.Writer.Status()
		if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB, carts *services.CartRegistry, cronService *services.CronService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"database":      "healthy",
			"cart_sessions": carts.Len(),
			"jobs":          cronService.GetJobStatus()["job_count"],
			"version":       version,
			"timestamp":     time.Now().Unix(),
		})
	}
}
