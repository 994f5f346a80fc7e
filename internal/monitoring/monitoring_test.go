package monitoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthy(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func serve(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/probe", handler)

	req, _ := http.NewRequest("GET", "/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthChecker_AllHealthy(t *testing.T) {
	h := monitoring.NewHealthChecker()
	h.Register("database", healthy)
	h.RegisterOptional("redis", healthy)

	overall, checks := h.Run(context.Background())
	assert.Equal(t, monitoring.StatusHealthy, overall)
	require.Len(t, checks, 2)
	assert.Equal(t, "database", checks[0].Name)
	assert.Equal(t, "redis", checks[1].Name)

	w := serve(h.HealthHandler())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthChecker_OptionalFailureDegrades(t *testing.T) {
	h := monitoring.NewHealthChecker()
	h.Register("database", healthy)
	h.RegisterOptional("redis", failing)

	overall, checks := h.Run(context.Background())
	assert.Equal(t, monitoring.StatusDegraded, overall)
	assert.Equal(t, "connection refused", checks[1].Message)

	w := serve(h.HealthHandler())
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])

	assert.Equal(t, http.StatusOK, serve(h.ReadinessHandler()).Code)
}

func TestHealthChecker_CriticalFailure(t *testing.T) {
	h := monitoring.NewHealthChecker()
	h.Register("database", failing)
	h.RegisterOptional("redis", healthy)

	overall, _ := h.Run(context.Background())
	assert.Equal(t, monitoring.StatusUnhealthy, overall)

	assert.Equal(t, http.StatusServiceUnavailable, serve(h.HealthHandler()).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.ReadinessHandler()).Code)
	assert.Equal(t, http.StatusOK, serve(h.LivenessHandler()).Code)
}

func TestMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := monitoring.NewMetrics()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/tasks/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
	})
	router.GET("/metrics", m.Handler())

	for _, path := range []string{"/tasks/1", "/tasks/2", "/nowhere"} {
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	expected := `
# HELP http_requests_total Total HTTP requests by method, route and status
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/tasks/:id",status="404"} 2
http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_requests_total"))

	req, _ := http.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestMetrics_RegisterCache(t *testing.T) {
	m := monitoring.NewMetrics()
	cm := cache.NewCacheMetrics()
	m.RegisterCache(cm)

	cm.RecordHit()
	cm.RecordHit()
	cm.RecordMiss()

	expected := `
# HELP cache_hits_total Cache lookups served from cache
# TYPE cache_hits_total counter
cache_hits_total 2
# HELP cache_misses_total Cache lookups that fell through to the store
# TYPE cache_misses_total counter
cache_misses_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "cache_hits_total", "cache_misses_total"))
}
