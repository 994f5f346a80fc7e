package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"task-tracker/backend/internal/logger"
)

type JobName string

const (
	JobCacheCleanup   JobName = "cache_cleanup"
	JobRateLimitSweep JobName = "rate_limit_sweep"
)

type JobHandler func(ctx context.Context) error

type JobStats struct {
	Runs      int64
	Failures  int64
	LastRun   time.Time
	LastError string
}

type job struct {
	name     JobName
	interval time.Duration
	handler  JobHandler
}

// Worker runs registered maintenance jobs on fixed intervals until stopped.
// A failing job is logged and retried on its next tick.
type Worker struct {
	log        *slog.Logger
	jobTimeout time.Duration

	mu      sync.RWMutex
	jobs    []job
	stats   map[JobName]*JobStats
	running bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WorkerConfig struct {
	Logger     *slog.Logger
	JobTimeout time.Duration
}

func NewWorker(config WorkerConfig) *Worker {
	log := config.Logger
	if log == nil {
		log = logger.Discard()
	}
	timeout := config.JobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Worker{
		log:        log.With(slog.String("component", "worker")),
		jobTimeout: timeout,
		stats:      make(map[JobName]*JobStats),
	}
}

// RegisterJob adds a job. Jobs registered after Start are not scheduled.
func (w *Worker) RegisterJob(name JobName, interval time.Duration, handler JobHandler) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.stats[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	w.jobs = append(w.jobs, job{name: name, interval: interval, handler: handler})
	w.stats[name] = &JobStats{}
	return nil
}

func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.log.Info("starting worker", slog.Int("jobs", len(w.jobs)))

	for _, j := range w.jobs {
		w.wg.Add(1)
		go w.loop(ctx, j)
	}
}

// Stop cancels every job loop and waits for in-flight runs to return.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.log.Info("worker stopped")
}

func (w *Worker) Stats() map[JobName]JobStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[JobName]JobStats, len(w.stats))
	for name, s := range w.stats {
		out[name] = *s
	}
	return out
}

func (w *Worker) loop(ctx context.Context, j job) {
	defer w.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.run(ctx, j)
		}
	}
}

func (w *Worker) run(ctx context.Context, j job) {
	runCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	err := j.handler(runCtx)

	w.mu.Lock()
	s := w.stats[j.name]
	s.Runs++
	s.LastRun = time.Now()
	if err != nil {
		s.Failures++
		s.LastError = err.Error()
	} else {
		s.LastError = ""
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("job failed", slog.String("job", string(j.name)), logger.Err(err))
		return
	}
	w.log.Debug("job completed", slog.String("job", string(j.name)))
}

// Cleaner is satisfied by *cache.MultiLevelCache and *cache.MemoryCache.
type Cleaner interface {
	Cleanup() int
}

// Sweeper is satisfied by *middleware.RateLimiter.
type Sweeper interface {
	Sweep() int
}

func CacheCleanupJob(c Cleaner, log *slog.Logger) JobHandler {
	return func(context.Context) error {
		if removed := c.Cleanup(); removed > 0 {
			log.Debug("evicted expired cache entries", slog.Int("count", removed))
		}
		return nil
	}
}

func RateLimitSweepJob(s Sweeper, log *slog.Logger) JobHandler {
	return func(context.Context) error {
		if removed := s.Sweep(); removed > 0 {
			log.Debug("dropped idle rate limit visitors", slog.Int("count", removed))
		}
		return nil
	}
}
