// @title           Student In/Out API
// @version         1.0
// @description     Presence toggling, activity feed and audit history for the entry kiosk

// @host      localhost:8000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	_ "student-inout-api/docs" // Swagger docs import

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/client"
	"student-inout-api/internal/config"
	"student-inout-api/internal/database"
	"student-inout-api/internal/job"
	"student-inout-api/internal/metrics"
	"student-inout-api/internal/repository"
	"student-inout-api/internal/router"
	"student-inout-api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Student In/Out Service",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("feed_backend", cfg.Feed.Backend),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Initialize database. Toggle needs a transactional store, so the
	// service waits for the first connection instead of serving without one.
	dbConfig := database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, retrying in background", zap.Error(err))
		db = waitForDatabase(dbConfig, logger, quit)
		if db == nil {
			logger.Info("Shutdown requested before database became available")
			return
		}
	} else {
		database.SetDB(db)
		logger.Info("Database connected successfully")
	}

	if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.Info("Database migrations completed")

	// Initialize metrics
	m := metrics.NewWithLogger(logger)
	database.RegisterMetricsCallbacks(db, m)
	dbStatsDone := database.StartDBStatsCollector(db, m, 15*time.Second)
	businessCollector := metrics.NewBusinessMetricsCollector(db, m, logger, 30*time.Second)
	businessCollector.Start()
	logger.Info("Metrics initialized")

	// Initialize redis (optional unless the feed lives there)
	redisClient, err := database.InitRedis(cfg.Redis, logger)
	if err != nil {
		if cfg.Feed.Backend == config.FeedBackendRedis {
			logger.Fatal("Redis is required for the redis feed backend", zap.Error(err))
		}
		logger.Warn("Failed to connect to redis, sync relay runs in local mode", zap.Error(err))
		redisClient = nil
	}

	var activities repository.ActivityRepository
	if cfg.Feed.Backend == config.FeedBackendRedis {
		activities = repository.NewRedisActivityRepository(redisClient, cfg.Feed.RedisKey, cfg.Feed.Retention())
	} else {
		activities = repository.NewActivityRepository(db)
	}

	// Initialize S3 client for student photos
	var photos client.PhotoResolver
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		s3Client, err := client.NewS3Client(&cfg.S3, m)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, photo URLs disabled", zap.Error(err))
		} else {
			photos = s3Client
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Warn("S3 configuration incomplete, photo URLs disabled")
	}

	// Display sync
	syncCtx, stopSync := context.WithCancel(context.Background())
	hub := broadcast.NewHub(logger, m)
	go hub.Run(syncCtx)
	broadcaster := broadcast.NewBroadcaster(hub, redisClient, cfg.Sync.Channel, logger, m)
	go func() {
		if err := broadcaster.Run(syncCtx); err != nil {
			logger.Error("Sync relay stopped", zap.Error(err))
		}
	}()

	// Services
	loc, _ := time.LoadLocation(cfg.Scheduler.Timezone)
	repos := service.Repositories{
		Students:   repository.NewStudentRepository(db),
		Logs:       repository.NewLogRepository(db),
		Activities: activities,
	}
	presenceService := service.NewPresenceService(db, repos, photos, broadcaster, m, logger, cfg.Feed.Retention())
	activityService := service.NewActivityService(activities, broadcaster, logger, loc)
	logService := service.NewLogService(repos.Logs, logger, loc)

	reconcileCtx, cancelReconcile := context.WithTimeout(context.Background(), 30*time.Second)
	if repaired, err := presenceService.Reconcile(reconcileCtx); err != nil {
		logger.Error("Presence reconciliation failed", zap.Error(err))
	} else if repaired > 0 {
		logger.Warn("Presence records repaired from audit log", zap.Int("repaired", repaired))
	}
	cancelReconcile()

	// Cleanup scheduler
	scheduler, err := job.NewScheduler(cfg.Scheduler, cfg.Feed, cfg.Audit, activityService, logService, logger, m)
	if err != nil {
		logger.Fatal("Failed to create cleanup scheduler", zap.Error(err))
	}
	scheduler.Start()

	// Setup router with all dependencies
	r := router.Setup(router.Config{
		DB:              database.GetDB,
		Redis:           redisClient,
		Logger:          logger,
		Metrics:         m,
		JWTSecret:       cfg.JWT.Secret,
		BasePath:        cfg.Server.BasePath,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		AdminTimeout:    cfg.Server.AdminTimeout,
		PollInterval:    cfg.Sync.PollInterval,
		PresenceService: presenceService,
		ActivityService: activityService,
		LogService:      logService,
		Scheduler:       scheduler,
		Hub:             hub,
	})

	if cfg.JWT.Secret == "" {
		logger.Warn("JWT secret not configured, operator endpoints will reject every request")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Student In/Out Service started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// No new cleanup runs start from here; in-flight ones finish first
	if err := scheduler.StopAll(ctx); err != nil {
		logger.Error("Cleanup jobs did not finish before shutdown", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopSync()
	businessCollector.Stop()
	close(dbStatsDone)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := database.Close(db); err != nil {
		logger.Error("Failed to close database", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// waitForDatabase retries in the background until a connection is made or a
// shutdown signal arrives. It returns nil on shutdown.
func waitForDatabase(cfg database.Config, logger *zap.Logger, quit <-chan os.Signal) *gorm.DB {
	connected := make(chan *gorm.DB, 1)
	database.NewAsync(cfg, 5*time.Second, logger, func(db *gorm.DB) {
		connected <- db
	})

	select {
	case db := <-connected:
		return db
	case <-quit:
		return nil
	}
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
