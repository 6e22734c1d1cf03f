package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/handler"
	"student-inout-api/internal/metrics"
	"student-inout-api/internal/middleware"
	"student-inout-api/internal/service"
)

// Config holds everything the HTTP layer needs
type Config struct {
	// DB returns the current connection; nil until the database is reachable
	DB             func() *gorm.DB
	Redis          *redis.Client
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	JWTSecret      string
	BasePath       string
	AllowedOrigins []string
	AdminTimeout   time.Duration
	PollInterval   time.Duration

	PresenceService service.PresenceService
	ActivityService service.ActivityService
	LogService      service.LogService
	Scheduler       handler.CleanupScheduler
	Hub             *broadcast.Hub
}

// Setup builds the gin engine with all routes registered
func Setup(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	studentHandler := handler.NewStudentHandler(cfg.PresenceService, cfg.Logger)
	activityHandler := handler.NewActivityHandler(cfg.PresenceService, cfg.ActivityService, cfg.Scheduler, cfg.Logger)
	logHandler := handler.NewLogHandler(cfg.LogService, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Hub)
	displayHandler := handler.NewDisplayHandler(cfg.Hub, cfg.AllowedOrigins, cfg.PollInterval, cfg.Logger)

	// Probes and scraping stay at the root for kubernetes and prometheus
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/display", displayHandler.Display)

	api := r.Group(cfg.BasePath)
	{
		if cfg.BasePath != "" && cfg.BasePath != "/" {
			api.GET("/health", healthHandler.Health)
			api.GET("/ready", healthHandler.Ready)
			api.GET("/metrics", gin.WrapH(promhttp.Handler()))
			api.GET("/ws/display", displayHandler.Display)
		}

		api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Scanner, kiosk and display traffic
		api.PATCH("/students/:studentId/toggle", studentHandler.Toggle)
		api.GET("/presence/summary", studentHandler.Summary)
		api.POST("/activities", activityHandler.AddActivity)
		api.GET("/activities/recent", activityHandler.ListRecent)

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(cfg.JWTSecret))
		{
			students := authenticated.Group("/students")
			{
				students.POST("", studentHandler.RegisterStudent)
				students.GET("/status/:status", studentHandler.ListByStatus)
				students.GET("/:studentId", studentHandler.GetStudent)
			}

			activities := authenticated.Group("/activities")
			{
				activities.GET("/stats", activityHandler.Stats)
				activities.DELETE("/clear-old", activityHandler.ClearOld)
				activities.DELETE("/clear-all", activityHandler.ClearAll)
				activities.GET("/scheduler/status", activityHandler.SchedulerStatus)

				cleanup := activities.Group("/cleanup")
				cleanup.Use(middleware.Timeout(cfg.AdminTimeout))
				{
					cleanup.POST("/daily", activityHandler.RunDailyCleanup)
					cleanup.POST("/weekly", activityHandler.RunWeeklyCleanup)
				}
			}

			logs := authenticated.Group("/logs")
			{
				logs.GET("", logHandler.List)
				logs.GET("/recent", logHandler.Recent)
				logs.GET("/stats/today", logHandler.TodayStats)
				logs.GET("/stats/:date", logHandler.StatsByDate)
				logs.GET("/student/:studentId", logHandler.ListByStudent)
				logs.DELETE("/cleanup", logHandler.ClearOld)
			}
		}
	}

	return r
}
