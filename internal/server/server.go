// Package server wires the chat agent, its backends and the HTTP listeners.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lewisedginton/lead_capture_chatbot/internal/agents"
	appconfig "github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/internal/middleware"
	"github.com/lewisedginton/lead_capture_chatbot/internal/monitoring"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/httpmiddleware"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/metrics"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/utils"
)

const shutdownTimeout = 30 * time.Second

// Server encapsulates the chatbot components and their lifecycle.
type Server struct {
	cfg     *appconfig.AppConfig
	log     logger.Logger
	pool    *pgxpool.Pool
	redis   *redis.Client
	store   store.Store
	agent   *agents.Agent
	health  *monitoring.HealthMonitor
	metrics *metrics.Metrics
	closers []func() error
}

// New creates a Server with every component initialized. Call Close when Run
// is not used.
//
//nolint:revive // cognitive-complexity: Server initialization requires sequential component setup
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}

	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	var err error
	s.store, err = s.createStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	storageManager, err := s.createStorageManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	catalog, err := s.loadCatalog(ctx, storageManager.GetRootProvider())
	if err != nil {
		return nil, err
	}
	if mem, isMemory := s.store.(*store.MemoryStore); isMemory && catalog != nil {
		if err := mem.ImportCatalog(ctx, catalog.Articles, catalog.Services); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	lookup, err := s.createKnowledge(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge lookup: %w", err)
	}

	prompts, err := s.createPromptManager(ctx, storageManager)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	llm, err := s.createLLM(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}

	mailer, err := s.createMailer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}

	notifier, err := s.createNotifier()
	if err != nil {
		return nil, fmt.Errorf("failed to create lead notifier: %w", err)
	}

	locker, err := s.createLocker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn lock: %w", err)
	}

	chatMetrics := monitoring.NewChatMetrics()
	s.metrics = metrics.NewMetrics(cfg.Monitoring.MetricsEnabled, log)
	for _, c := range chatMetrics.Collectors() {
		s.metrics.AddCustomMetric(c)
	}

	s.agent, err = agents.New(agents.Dependencies{
		Store:     s.store,
		LLM:       llm,
		Knowledge: lookup,
		Mailer:    mailer,
		Notifier:  notifier,
		Locker:    locker,
		Prompts:   prompts,
		Metrics:   chatMetrics,
		Logger:    log,
		Agent:     cfg.Agent,
		Email:     cfg.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	s.health = s.createHealthMonitor()

	ok = true
	return s, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	var metricsMiddleware func(http.Handler) http.Handler
	if s.cfg.Monitoring.MetricsEnabled {
		metricsMiddleware = s.metrics.HTTPMiddleware()
	}
	return NewRouter(NewHandlers(s.agent, s.store, s.log), RouterConfig{
		Logger:         s.log,
		BasePath:       s.cfg.HTTP.BasePath,
		AllowedOrigins: s.cfg.Security.CORSAllowedOrigins,
		Timeout:        s.cfg.HTTP.RequestTimeout,
		MaxRequestSize: s.cfg.Security.MaxRequestSize,
		Metrics:        metricsMiddleware,
	})
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Logger         logger.Logger
	BasePath       string
	AllowedOrigins []string
	Timeout        time.Duration
	MaxRequestSize int64
	Metrics        func(http.Handler) http.Handler
}

// NewRouter builds the chi router serving h behind the standard middleware stack.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = cfg.Logger
	mwConfig.EnableLogging = cfg.Logger != nil
	mwConfig.Recovery = middleware.Recovery(middleware.DefaultRecoveryConfig(cfg.Logger))
	mwConfig.Metrics = cfg.Metrics
	mwConfig.StripPrefix = cfg.BasePath
	mwConfig.EnableStripPrefix = cfg.BasePath != ""
	if len(cfg.AllowedOrigins) > 0 {
		mwConfig.CORS.AllowedOrigins = cfg.AllowedOrigins
	}
	if cfg.Timeout > 0 {
		mwConfig.Timeout = cfg.Timeout
	}
	httpmiddleware.ApplyToRouter(router, mwConfig)

	router.Use(middleware.ErrorHandler(cfg.Logger))
	router.Use(middleware.MaxBodySize(cfg.MaxRequestSize))

	h.Routes(router)
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})
	return router
}

// Run serves the API, health and metrics listeners until ctx is cancelled, a
// termination signal arrives or a listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := s.Close(); err != nil {
			s.log.Warn("Failed to release resources", logger.ErrorField(err))
		}
	}()

	var (
		servers  []*http.Server
		errChans []<-chan error
	)
	listen := func(name string, port int, handler http.Handler) error {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       s.cfg.HTTP.ReadTimeout,
			WriteTimeout:      s.cfg.HTTP.WriteTimeout,
			IdleTimeout:       s.cfg.HTTP.IdleTimeout,
		}
		errs, err := utils.ListenHTTP(ctx, srv, name, s.log)
		if err != nil {
			return err
		}
		servers = append(servers, srv)
		errChans = append(errChans, errs)
		return nil
	}

	if err := listen("api", s.cfg.HTTP.Port, s.Handler()); err != nil {
		return err
	}

	if s.cfg.Health.Enabled {
		s.log.Info("Starting health check server",
			logger.IntField("port", s.cfg.Health.Port),
			logger.StringField("liveness_path", s.cfg.Health.LivenessPath),
			logger.StringField("readiness_path", s.cfg.Health.ReadinessPath))
		mux := http.NewServeMux()
		s.health.RegisterHandlers(mux, s.cfg.Health.LivenessPath, s.cfg.Health.ReadinessPath)
		if err := listen("health", s.cfg.Health.Port, mux); err != nil {
			s.shutdown(servers)
			return err
		}
	}

	if s.cfg.Monitoring.MetricsEnabled {
		s.metrics.Listen(s.cfg.Monitoring.MetricsPort)
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("Received shutdown signal")
	case runErr = <-utils.MergeErrorChans(errChans...):
		s.log.Error("Listener failed", logger.ErrorField(runErr))
	}

	s.health.MarkShuttingDown()
	s.shutdown(servers)
	s.log.Info("Server stopped")
	return runErr
}

func (s *Server) shutdown(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Error("HTTP server shutdown error", logger.StringField("address", srv.Addr), logger.ErrorField(err))
		}
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.log.Error("Metrics server shutdown error", logger.ErrorField(err))
	}
}

// Close releases the database pool, the Redis client and the search index.
func (s *Server) Close() error {
	var result error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.closers = nil
	return result
}
