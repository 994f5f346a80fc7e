package cache

import (
	"errors"
	"sync"
	"time"
)

type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
	// OnStateChange runs outside the breaker's lock after every transition.
	OnStateChange func(from, to CircuitBreakerState) `json:"-"`
}

func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

type BreakerStats struct {
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	Probes      int       `json:"probes"`
	LastFailure time.Time `json:"last_failure"`
	MaxFailures int       `json:"max_failures"`
	Timeout     string    `json:"timeout"`
}

// CircuitBreaker stops calling a failing backend for Timeout after
// MaxFailures consecutive errors. It then admits up to HalfOpenMaxCalls
// probes; that many successes close it, any failure reopens it.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	probes      int
	successes   int
	lastFailure time.Time
}

func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	cfg := *config
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.HalfOpenMaxCalls < 1 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitBreakerOpen
	}

	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	from := cb.state
	admitted := false

	switch cb.state {
	case CircuitBreakerClosed:
		admitted = true
	case CircuitBreakerOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.cfg.Timeout {
			cb.state = CircuitBreakerHalfOpen
			cb.probes, cb.successes = 1, 0
			admitted = true
		}
	case CircuitBreakerHalfOpen:
		if cb.probes < cb.cfg.HalfOpenMaxCalls {
			cb.probes++
			admitted = true
		}
	}

	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return admitted
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	from := cb.state

	if ok {
		switch cb.state {
		case CircuitBreakerClosed:
			cb.failures = 0
		case CircuitBreakerHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.HalfOpenMaxCalls {
				cb.state = CircuitBreakerClosed
				cb.failures, cb.probes, cb.successes = 0, 0, 0
			}
		}
	} else {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == CircuitBreakerHalfOpen || cb.failures >= cb.cfg.MaxFailures {
			cb.state = CircuitBreakerOpen
			cb.probes, cb.successes = 0, 0
		}
	}

	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

func (cb *CircuitBreaker) notify(from, to CircuitBreakerState) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerStats{
		State:       cb.state.String(),
		Failures:    cb.failures,
		Probes:      cb.probes,
		LastFailure: cb.lastFailure,
		MaxFailures: cb.cfg.MaxFailures,
		Timeout:     cb.cfg.Timeout.String(),
	}
}
