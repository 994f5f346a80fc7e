package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// APIPrefix is the versioned mount point. Every API route is also served
// unprefixed.
const APIPrefix = "/api/v1"

type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Tasks       services.TaskService
	Stats       services.StatsService
	Credentials services.CredentialService
	Tokens      services.TokenService
	Metrics     *monitoring.Metrics
	Health      *monitoring.HealthChecker
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
}

func New(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = logger.Discard()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.RecoveryWithLog(log),
	)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	if d.Config != nil {
		r.Use(cors.New(corsConfig(d.Config.CORS)))
	}

	ping := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/", ping)
	r.GET("/ping", ping)
	if d.Health != nil {
		r.GET("/health", d.Health.HealthHandler())
		r.GET("/health/ready", d.Health.ReadinessHandler())
		r.GET("/health/live", d.Health.LivenessHandler())
	}
	if d.Metrics != nil {
		r.GET("/metrics", d.Metrics.Handler())
	}

	taskHandler := handlers.NewTaskHandler(d.Tasks, log)
	statsHandler := handlers.NewStatsHandler(d.Stats, log)
	userHandler := handlers.NewUserHandler(d.Credentials, log)
	authHandler := handlers.NewAuthHandler(d.Credentials, d.Tokens, log)
	requireUser := middleware.BearerAuth(d.Tokens)

	for _, prefix := range []string{"", APIPrefix} {
		api := r.Group(prefix)
		if d.RateLimiter != nil {
			api.Use(d.RateLimiter.Middleware())
		}

		tasks := api.Group("/tasks")
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.PATCH("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)

		api.GET("/stats/summary", statsHandler.Summary)

		api.POST("/users", userHandler.Register)
		api.GET("/users/me", requireUser, userHandler.Me)

		api.POST("/auth/login", authHandler.Login)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	// Browsers refuse credentials on a wildcard origin.
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = cfg.AllowedOrigins
	cc.AllowCredentials = true
	return cc
}
