package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hotelmunich/reservations-backend/internal/config"
	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/handlers"
	"github.com/hotelmunich/reservations-backend/internal/middleware"
	"github.com/hotelmunich/reservations-backend/internal/services"
	"github.com/hotelmunich/reservations-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
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

	logger.Info("Starting Hotel Munich Reservations Backend")
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
	logger.Info("Opening reservation store...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.WithField("path", cfg.Database.Path).Info("Reservation store opened")

	// Apply pending migrations and seed defaults
	if err := database.Migrate(db, cfg.Security.BcryptCost); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize repositories
	reservationRepo := database.NewReservationRepository(db)
	roomRepo := database.NewRoomRepository(db)
	guestRepo := database.NewGuestRepository(db)
	userRepo := database.NewUserRepository(db)
	auditRepo := database.NewAuditRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	retry := database.RetryPolicy{
		MaxAttempts: cfg.Database.MaxRetries,
		BaseBackoff: cfg.Database.RetryBackoff,
	}
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	reservationService := services.NewReservationService(db, reservationRepo, roomRepo, guestRepo, retry, logger)
	guestService := services.NewGuestService(db, guestRepo, retry, logger)
	authService := services.NewAuthService(userRepo, auditRepo, jwtService, cfg.Security.BcryptCost, logger)
	backupService := services.NewBackupService(
		db,
		auditRepo,
		cfg.Backup.Directory,
		cfg.Backup.DailyRetention,
		cfg.Backup.WeeklyRetention,
		logger,
	)

	// Initialize and start cron service
	cronService := services.NewCronService(backupService, cfg.Backup.Schedule, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	reservationHandler := handlers.NewReservationHandler(reservationService, guestService)
	guestHandler := handlers.NewGuestHandler(guestService)
	roomHandler := handlers.NewRoomHandler(roomRepo)
	backupHandler := handlers.NewBackupHandler(backupService)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/change-password", middleware.AuthMiddleware(jwtService), authHandler.ChangePassword)
			auth.GET("/me", middleware.AuthMiddleware(jwtService), authHandler.Me)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		{
			reservations := protected.Group("/reservations")
			{
				reservations.POST("", reservationHandler.Create)
				reservations.GET("", reservationHandler.List)
				reservations.GET("/weekly", reservationHandler.WeeklyView)
				reservations.GET("/daily", reservationHandler.DailyStatus)
				reservations.GET("/:id", reservationHandler.Get)
				reservations.PUT("/:id", reservationHandler.Amend)
				reservations.POST("/:id/cancel", reservationHandler.Cancel)
				reservations.POST("/:id/status", reservationHandler.Transition)
			}

			guests := protected.Group("/guests")
			{
				guests.GET("", guestHandler.Search)
				guests.GET("/billing-profiles", guestHandler.BillingProfiles)
				guests.GET("/document/:number", guestHandler.GetByDocument)
				guests.GET("/:id", guestHandler.Get)
			}

			rooms := protected.Group("/rooms")
			{
				rooms.GET("", roomHandler.List)
				rooms.GET("/:id", roomHandler.Get)
				rooms.PUT("/:id/rate", middleware.RequireAdmin(), roomHandler.UpdateRate)
				rooms.POST("/:id/archive", middleware.RequireAdmin(), roomHandler.Archive)
			}

			backups := protected.Group("/backups")
			backups.Use(middleware.RequireAdmin())
			{
				backups.POST("", backupHandler.Trigger)
				backups.GET("", backupHandler.List)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

	// Stop cron service
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

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["username"] = userCtx.Username
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
