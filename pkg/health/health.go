// Package health runs liveness and readiness checks and exposes them over HTTP.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Check represents a single health check that can succeed or fail.
type Check interface {
	Name() string
	// Check returns nil when healthy.
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc creates a new CheckFunc with the given name and function.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the name of this check.
func (c *CheckFunc) Name() string { return c.name }

// Check executes the check function.
func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// Probe selects which set of checks to run.
type Probe string

const (
	// Liveness checks decide whether the process should be restarted.
	Liveness Probe = "liveness"
	// Readiness checks decide whether the process should receive traffic.
	Readiness Probe = "readiness"
)

// CheckResult represents the result of a single health check execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Healthy bool
	Checks  []CheckResult
}

// HealthChecker manages and executes health checks for liveness and readiness probes.
type HealthChecker struct {
	checks           map[Probe][]Check
	timeout          time.Duration
	failureCount     map[string]int
	failureThreshold int
	logger           logger.Logger
	mu               sync.RWMutex
}

// Option is a functional option for configuring HealthChecker.
type Option func(*HealthChecker)

// WithTimeout sets the timeout for individual health checks. Default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(h *HealthChecker) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger for health check operations.
func WithLogger(l logger.Logger) Option {
	return func(h *HealthChecker) {
		h.logger = l
	}
}

// WithFailureThreshold sets the number of consecutive failures before a check
// is reported unhealthy. Default is 3.
func WithFailureThreshold(threshold int) Option {
	return func(h *HealthChecker) {
		if threshold > 0 {
			h.failureThreshold = threshold
		}
	}
}

// New creates a new HealthChecker with the given options.
func New(opts ...Option) *HealthChecker {
	h := &HealthChecker{
		checks:           make(map[Probe][]Check),
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failureCount:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add registers a check under the given probe.
func (h *HealthChecker) Add(probe Probe, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[probe] = append(h.checks[probe], check)
}

// AddLivenessCheck adds a liveness check.
func (h *HealthChecker) AddLivenessCheck(check Check) { h.Add(Liveness, check) }

// AddReadinessCheck adds a readiness check.
func (h *HealthChecker) AddReadinessCheck(check Check) { h.Add(Readiness, check) }

// CheckLiveness executes all liveness checks and returns an error if any fail.
func (h *HealthChecker) CheckLiveness(ctx context.Context) (*HealthStatus, error) {
	return h.Run(ctx, Liveness)
}

// CheckReadiness executes all readiness checks and returns an error if any fail.
func (h *HealthChecker) CheckReadiness(ctx context.Context) (*HealthStatus, error) {
	return h.Run(ctx, Readiness)
}

// Run executes the checks of a probe concurrently and aggregates the results.
// With no checks registered the probe is healthy.
func (h *HealthChecker) Run(ctx context.Context, probe Probe) (*HealthStatus, error) {
	h.mu.RLock()
	checks := append([]Check(nil), h.checks[probe]...)
	h.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			results[idx] = h.runOne(ctx, chk)
		}(i, check)
	}
	wg.Wait()

	status := &HealthStatus{Healthy: true, Checks: results}
	var failed []string
	for _, r := range results {
		if !r.Healthy {
			status.Healthy = false
			failed = append(failed, r.Name)
		}
	}
	if !status.Healthy {
		sort.Strings(failed)
		return status, fmt.Errorf("%s checks failed: %v", probe, failed)
	}
	return status, nil
}

func (h *HealthChecker) runOne(parent context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	result := CheckResult{Name: check.Name(), Latency: time.Since(start), Healthy: true}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.failureCount[result.Name] = 0
		h.debug("Health check passed", logger.StringField("check", result.Name), logger.DurationField("latency", result.Latency))
		return result
	}

	h.failureCount[result.Name]++
	failures := h.failureCount[result.Name]
	if failures < h.failureThreshold {
		h.debug("Health check failed but below threshold",
			logger.StringField("check", result.Name),
			logger.ErrorField(err),
			logger.IntField("failures", failures),
			logger.IntField("threshold", h.failureThreshold))
		return result
	}

	result.Healthy = false
	result.Error = err.Error()
	if h.logger != nil {
		h.logger.Warn("Health check failed",
			logger.StringField("check", result.Name),
			logger.ErrorField(err),
			logger.IntField("failures", failures),
			logger.DurationField("latency", result.Latency))
	}
	return result
}

func (h *HealthChecker) debug(msg string, fields ...logger.LogField) {
	if h.logger != nil {
		h.logger.Debug(msg, fields...)
	}
}
