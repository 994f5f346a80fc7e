package monitoring

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Critical bool      `json:"critical"`
	LastRun  time.Time `json:"last_run"`
}

type registeredCheck struct {
	fn       HealthCheckFunc
	critical bool
}

// HealthChecker runs its registered checks on every probe. A failing
// critical check makes the service unhealthy; a failing optional check only
// degrades it.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]registeredCheck
	timeout   time.Duration
	startTime time.Time
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:    make(map[string]registeredCheck),
		timeout:   5 * time.Second,
		startTime: time.Now(),
	}
}

func (h *HealthChecker) Register(name string, fn HealthCheckFunc) {
	h.register(name, fn, true)
}

func (h *HealthChecker) RegisterOptional(name string, fn HealthCheckFunc) {
	h.register(name, fn, false)
}

func (h *HealthChecker) register(name string, fn HealthCheckFunc, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = registeredCheck{fn: fn, critical: critical}
}

// Run executes every check concurrently and returns the results with the
// overall status.
func (h *HealthChecker) Run(ctx context.Context) (string, []HealthCheck) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]registeredCheck, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, check registeredCheck) {
			defer wg.Done()

			result := HealthCheck{Name: name, Status: StatusHealthy, Critical: check.critical}
			if err := check.fn(ctx); err != nil {
				result.Status = StatusUnhealthy
				result.Message = err.Error()
			}
			result.LastRun = time.Now()
			results[i] = result
		}(i, name, checks[name])
	}
	wg.Wait()

	overall := StatusHealthy
	for _, result := range results {
		if result.Status == StatusHealthy {
			continue
		}
		if result.Critical {
			overall = StatusUnhealthy
			break
		}
		overall = StatusDegraded
	}

	return overall, results
}

func (h *HealthChecker) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		overall, checks := h.Run(c.Request.Context())

		status := http.StatusOK
		if overall == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(h.startTime).String(),
		})
	}
}

func (h *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		overall, _ := h.Run(c.Request.Context())

		if overall == StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func (h *HealthChecker) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(h.startTime).String(),
		})
	}
}
