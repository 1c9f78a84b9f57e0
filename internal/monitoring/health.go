// Package monitoring wires the health probes and the chat metrics of the API.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/health"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/health/checkers"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Health status constants
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusReady     = "ready"
	statusNotReady  = "not_ready"
)

var errShuttingDown = errors.New("service is shutting down")

// HealthMonitor manages health checks and monitoring endpoints for the application
type HealthMonitor struct {
	checker      *health.HealthChecker
	logger       logger.Logger
	version      string
	startTime    time.Time
	shuttingDown atomic.Bool
}

// Config holds configuration for the health monitor
type Config struct {
	Logger           logger.Logger
	Version          string
	LLMBaseURL       string                // Optional: provider base URL probed for reachability
	Postgres         checkers.Pinger       // Optional: database pool
	Redis            redis.UniversalClient // Optional: lock backend
	Timeout          time.Duration         // Health check timeout
	FailureThreshold int                   // Number of consecutive failures before reporting unhealthy
}

// NewHealthMonitor creates a new health monitor with configured checks
func NewHealthMonitor(cfg Config) *HealthMonitor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 3
	}

	hm := &HealthMonitor{
		checker: health.New(
			health.WithLogger(cfg.Logger),
			health.WithTimeout(timeout),
			health.WithFailureThreshold(failureThreshold),
		),
		logger:    cfg.Logger,
		version:   cfg.Version,
		startTime: time.Now(),
	}
	if hm.version == "" {
		hm.version = "dev"
	}

	hm.checker.AddLivenessCheck(health.NewCheckFunc("process", func(context.Context) error {
		return nil
	}))

	hm.checker.AddReadinessCheck(health.NewCheckFunc("shutdown", func(context.Context) error {
		if hm.shuttingDown.Load() {
			return errShuttingDown
		}
		return nil
	}))
	if cfg.Postgres != nil {
		hm.checker.AddReadinessCheck(checkers.NewPostgresChecker(cfg.Postgres, "postgres"))
	}
	if cfg.Redis != nil {
		hm.checker.AddReadinessCheck(checkers.NewRedisChecker(cfg.Redis, "redis"))
	}
	if cfg.LLMBaseURL != "" {
		hm.checker.AddReadinessCheck(checkers.NewHTTPChecker(cfg.LLMBaseURL, "llm_api"))
	}

	return hm
}

// MarkShuttingDown makes readiness fail so load balancers drain the instance.
func (hm *HealthMonitor) MarkShuttingDown() {
	hm.shuttingDown.Store(true)
}

// LivenessHandler returns an HTTP handler for liveness probes.
// It returns 200 while the process can handle requests.
func (hm *HealthMonitor) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := hm.checker.CheckLiveness(r.Context())

		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"checks":    status.Checks,
		}

		code := http.StatusOK
		if err != nil {
			response["status"] = statusUnhealthy
			response["error"] = err.Error()
			code = http.StatusServiceUnavailable
			hm.logger.Error("Liveness check failed", logger.ErrorField(err))
		}
		writeJSON(w, code, response)
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
// It returns 200 when the database, lock backend and model API are reachable.
func (hm *HealthMonitor) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := hm.checker.CheckReadiness(r.Context())

		response := map[string]interface{}{
			"status":    statusReady,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    status.Checks,
		}

		code := http.StatusOK
		if err != nil {
			response["status"] = statusNotReady
			response["error"] = err.Error()
			code = http.StatusServiceUnavailable
			hm.logger.Warn("Readiness check failed", logger.ErrorField(err))
		}
		writeJSON(w, code, response)
	}
}

// HealthHandler returns the combined liveness and readiness status.
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		livenessStatus, livenessErr := hm.checker.CheckLiveness(ctx)
		readinessStatus, readinessErr := hm.checker.CheckReadiness(ctx)

		liveness := map[string]interface{}{"status": statusHealthy, "checks": livenessStatus.Checks}
		readiness := map[string]interface{}{"status": statusReady, "checks": readinessStatus.Checks}
		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"version":   hm.version,
			"liveness":  liveness,
			"readiness": readiness,
		}

		code := http.StatusOK
		if livenessErr != nil {
			liveness["status"] = statusUnhealthy
			liveness["error"] = livenessErr.Error()
			code = http.StatusServiceUnavailable
		}
		if readinessErr != nil {
			readiness["status"] = statusNotReady
			readiness["error"] = readinessErr.Error()
			code = http.StatusServiceUnavailable
		}
		if code != http.StatusOK {
			response["status"] = statusUnhealthy
		}
		writeJSON(w, code, response)
	}
}

// RegisterHandlers registers the probe endpoints on mux.
func (hm *HealthMonitor) RegisterHandlers(mux *http.ServeMux, livenessPath, readinessPath string) {
	mux.HandleFunc("/health", hm.HealthHandler())
	mux.HandleFunc(livenessPath, hm.LivenessHandler())
	mux.HandleFunc(readinessPath, hm.ReadinessHandler())
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
