package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/models"
)

type StatsService interface {
	Summary(ctx context.Context) (models.StatsSummary, error)
}

type StatsServiceImpl struct {
	store TaskStore
	cache cache.Cache
	guard *CacheGuard
	ttl   time.Duration
	log   *slog.Logger
}

func NewStatsService(store TaskStore) *StatsServiceImpl {
	return &StatsServiceImpl{store: store, log: logger.Discard()}
}

// WithCache makes Summary read through c. Task writes made through
// CachedTaskService drop the cached summary; pass its Guard so a summary
// computed before such a write is never cached after it.
func (s *StatsServiceImpl) WithCache(c cache.Cache, ttl time.Duration, guard *CacheGuard, log *slog.Logger) *StatsServiceImpl {
	if guard == nil {
		guard = NewCacheGuard()
	}
	s.cache = c
	s.guard = guard
	s.ttl = ttl
	if log != nil {
		s.log = log
	}
	return s
}

func (s *StatsServiceImpl) Summary(ctx context.Context) (models.StatsSummary, error) {
	var summary models.StatsSummary

	if s.cache != nil {
		err := s.cache.Get(ctx, statsCacheKey, &summary)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("stats cache read failed", logger.Err(err))
		}
	}

	var ticket uint64
	if s.cache != nil {
		ticket = s.guard.Ticket()
	}

	total, completed, err := s.store.Counts(ctx)
	if err != nil {
		return summary, err
	}
	summary = models.StatsSummary{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}

	if s.cache != nil {
		s.guard.Fill(ticket, func() {
			if err := s.cache.Set(ctx, statsCacheKey, summary, s.ttl); err != nil {
				s.log.Warn("stats cache write failed", logger.Err(err))
			}
		})
	}

	return summary, nil
}
