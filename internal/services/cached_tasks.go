package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/models"
)

const (
	listCachePrefix  = "tasks:list:"
	listCachePattern = listCachePrefix + "*"
	statsCacheKey    = "tasks:stats"
)

func taskCacheKey(id int64) string {
	return fmt.Sprintf("task:%d", id)
}

// CachedTaskService decorates a TaskService with read-through caching of
// single tasks and list pages. Cache failures are logged and never fail a
// request.
type CachedTaskService struct {
	taskService TaskService
	cache       cache.Cache
	guard       *CacheGuard
	ttl         config.CacheConfig
	log         *slog.Logger
}

func NewCachedTaskService(taskService TaskService, cacheInstance cache.Cache, ttl config.CacheConfig, log *slog.Logger) *CachedTaskService {
	if log == nil {
		log = logger.Discard()
	}
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		guard:       NewCacheGuard(),
		ttl:         ttl,
		log:         log,
	}
}

// Guard is shared with StatsServiceImpl.WithCache so summary fills are
// ordered against task writes too.
func (s *CachedTaskService) Guard() *CacheGuard {
	return s.guard
}

func (s *CachedTaskService) CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error) {
	ticket := s.guard.Ticket()
	task, err := s.taskService.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}

	s.guard.Invalidate(func() { s.invalidateCollections(ctx) })
	// ticket+1 holds only if no other write landed since the insert began.
	s.guard.Fill(ticket+1, func() { s.store(ctx, taskCacheKey(task.ID), task, s.ttl.TaskTTL) })

	return task, nil
}

func (s *CachedTaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	cacheKey := taskCacheKey(id)

	var cachedTask models.Task
	if s.load(ctx, cacheKey, &cachedTask) {
		return &cachedTask, nil
	}

	ticket := s.guard.Ticket()
	task, err := s.taskService.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.guard.Fill(ticket, func() { s.store(ctx, cacheKey, task, s.ttl.TaskTTL) })

	return task, nil
}

func (s *CachedTaskService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	normalized, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	cacheKey := listCachePrefix + normalized.CacheKey()

	var cachedTasks []models.Task
	if s.load(ctx, cacheKey, &cachedTasks) && cachedTasks != nil {
		return cachedTasks, nil
	}

	ticket := s.guard.Ticket()
	tasks, err := s.taskService.ListTasks(ctx, normalized)
	if err != nil {
		return nil, err
	}

	s.guard.Fill(ticket, func() { s.store(ctx, cacheKey, tasks, s.ttl.ListTTL) })

	return tasks, nil
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.taskService.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.guard.Invalidate(func() {
		s.invalidateTask(ctx, id)
		s.invalidateCollections(ctx)
	})

	return task, nil
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.taskService.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.guard.Invalidate(func() {
		s.invalidateTask(ctx, id)
		s.invalidateCollections(ctx)
	})

	return nil
}

func (s *CachedTaskService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}

func (s *CachedTaskService) load(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache read failed", slog.String("key", key), logger.Err(err))
	}
	return false
}

func (s *CachedTaskService) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.log.Warn("cache write failed", slog.String("key", key), logger.Err(err))
	}
}

func (s *CachedTaskService) invalidateTask(ctx context.Context, id int64) {
	key := taskCacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("cache invalidation failed", slog.String("key", key), logger.Err(err))
	}
}

// invalidateCollections drops every cached list page and the stats summary.
func (s *CachedTaskService) invalidateCollections(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, listCachePattern); err != nil {
		s.log.Warn("cache invalidation failed", slog.String("pattern", listCachePattern), logger.Err(err))
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.log.Warn("cache invalidation failed", slog.String("key", statsCacheKey), logger.Err(err))
	}
}
