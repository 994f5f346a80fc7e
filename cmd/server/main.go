package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/router"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "task-tracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Snapshot()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg, log))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		return err
	}
	log.Info("database ready", slog.String("driver", cfg.Database.Driver))

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealthChecker()
	health.Register("database", pool.Health)

	redisCache := connectRedis(ctx, cfg, log)
	var redisClient *redis.Client
	if redisCache != nil {
		redisClient = redisCache.Client()
		health.RegisterOptional("redis", redisCache.Health)
	}

	taskRepo := repositories.NewTaskRepository(pool.DB)
	userRepo := repositories.NewUserRepository(pool.DB)

	var taskService services.TaskService = services.NewTaskService(taskRepo)
	statsService := services.NewStatsService(taskRepo)

	jobs := worker.NewWorker(worker.WorkerConfig{Logger: log})

	if cfg.Cache.Enabled {
		taskCache := cache.NewMultiLevelCache(redisCache, cfg.Cache.LocalTTL)
		defer taskCache.Close()

		metrics.RegisterCache(taskCache.Metrics())
		cachedTasks := services.NewCachedTaskService(taskService, taskCache, cfg.Cache, log)
		taskService = cachedTasks
		statsService = statsService.WithCache(taskCache, cfg.Cache.StatsTTL, cachedTasks.Guard(), log)

		if err := jobs.RegisterJob(worker.JobCacheCleanup, time.Minute, worker.CacheCleanupJob(taskCache, log)); err != nil {
			return err
		}
	} else if redisCache != nil {
		defer redisCache.Close()
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, redisClient, log)
		if redisClient == nil {
			if err := jobs.RegisterJob(worker.JobRateLimitSweep, time.Minute, worker.RateLimitSweepJob(limiter, log)); err != nil {
				return err
			}
		}
	}

	engine := router.New(router.Deps{
		Config:      cfg,
		Logger:      log,
		Tasks:       taskService,
		Stats:       statsService,
		Credentials: services.NewCredentialService(userRepo, cfg.Auth.BCryptCost),
		Tokens:      services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		Metrics:     metrics,
		Health:      health,
		RateLimiter: limiter,
	})

	jobs.Start(ctx)
	defer jobs.Stop()

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", srv.Addr), slog.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

// connectRedis returns nil when Redis is disabled or unreachable; the service
// then runs with the in-process cache and limiter only.
func connectRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}

	cacheConfig := cache.CacheConfigFromConfig(cfg)
	cacheConfig.Logger = log
	redisCache := cache.NewRedisCache(cacheConfig)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
	defer cancel()
	if err := redisCache.Health(pingCtx); err != nil {
		log.Warn("redis unavailable, continuing without it",
			slog.String("addr", cfg.GetRedisAddr()),
			logger.Err(err),
		)
		redisCache.Close()
		return nil
	}

	log.Info("redis connected", slog.String("addr", cfg.GetRedisAddr()))
	return redisCache
}
