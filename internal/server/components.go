package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lewisedginton/lead_capture_chatbot/internal/agents"
	appconfig "github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/internal/email"
	"github.com/lewisedginton/lead_capture_chatbot/internal/knowledge"
	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/internal/models/anthropic"
	"github.com/lewisedginton/lead_capture_chatbot/internal/models/gemini"
	"github.com/lewisedginton/lead_capture_chatbot/internal/models/openai"
	"github.com/lewisedginton/lead_capture_chatbot/internal/monitoring"
	"github.com/lewisedginton/lead_capture_chatbot/internal/notify"
	"github.com/lewisedginton/lead_capture_chatbot/internal/persistence"
	"github.com/lewisedginton/lead_capture_chatbot/internal/prompt_manager"
	"github.com/lewisedginton/lead_capture_chatbot/internal/storage_manager"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/internal/turnlock"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// createStore connects to Postgres when configured and falls back to the
// in-memory store otherwise.
func (s *Server) createStore(ctx context.Context) (store.Store, error) {
	if !s.cfg.Database.Enabled() {
		s.log.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	pool, err := persistence.Connect(ctx, s.cfg.Database)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.closers = append(s.closers, func() error {
		pool.Close()
		return nil
	})

	if s.cfg.Database.MigrateOnStart {
		mm := persistence.NewMigrationManager(pool, s.log)
		err := mm.RunMigrations()
		if closeErr := mm.Close(); closeErr != nil {
			s.log.Warn("Failed to close migrator", logger.ErrorField(closeErr))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	s.log.Info("Using Postgres store")
	return persistence.NewRepository(pool, s.log), nil
}

// createStorageManager opens the catalog and prompt storage.
func (s *Server) createStorageManager(ctx context.Context) (*storage_manager.StorageManager, error) {
	if s.cfg.Storage.Backend == "local" {
		// 0750 needed for directory traversal
		if err := os.MkdirAll(s.cfg.Storage.LocalDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return storage_manager.FromConfig(ctx, s.cfg.Storage, s.log)
}

// loadCatalog reads the catalog from storage. A missing catalog is not an error.
func (s *Server) loadCatalog(ctx context.Context, provider storage_manager.FileProvider) (*knowledge.Catalog, error) {
	catalog, err := knowledge.LoadCatalog(ctx, provider, s.cfg.Knowledge.CatalogPath)
	if errors.Is(err, storage_manager.ErrNotFound) {
		s.log.Warn("No catalog found", logger.StringField("path", s.cfg.Knowledge.CatalogPath))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("Catalog loaded",
		logger.IntField("articles", len(catalog.Articles)),
		logger.IntField("services", len(catalog.Services)))
	return catalog, nil
}

// createKnowledge selects the knowledge search backend.
func (s *Server) createKnowledge(catalog *knowledge.Catalog) (*knowledge.Lookup, error) {
	var searcher knowledge.Searcher

	switch backend := s.cfg.KnowledgeBackend(); backend {
	case appconfig.KnowledgeBackendPostgres:
		searcher = knowledge.NewStoreSearcher(s.store)
	case appconfig.KnowledgeBackendBleve:
		if catalog == nil {
			s.log.Warn("Knowledge backend is bleve but no catalog is available; knowledge context disabled")
			break
		}
		index, err := knowledge.NewBleveSearcher(catalog.Articles)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, index.Close)
		searcher = index
		s.log.Info("Knowledge index built", logger.IntField("articles", index.Len()))
	case appconfig.KnowledgeBackendNone:
		s.log.Info("Knowledge context disabled")
	default:
		return nil, fmt.Errorf("unsupported knowledge backend: %s", backend)
	}

	return knowledge.NewLookup(searcher, s.cfg.Knowledge.SnippetLimit, s.log), nil
}

// createPromptManager reads prompt overrides from the storage root.
func (s *Server) createPromptManager(ctx context.Context, sm *storage_manager.StorageManager) (*prompt_manager.PromptManager, error) {
	return prompt_manager.Load(ctx, sm.GetRootProvider(), s.log)
}

// createLLM creates the model client for the configured provider.
func (s *Server) createLLM(ctx context.Context) (models.LLM, error) {
	switch provider := s.cfg.LLM.Provider; provider {
	case appconfig.ProviderClaude:
		s.log.Info("Initializing Claude model", logger.StringField("model", s.cfg.Anthropic.Model))
		return anthropic.NewClaudeModel(anthropic.Config{
			APIKey:  s.cfg.Anthropic.APIKey,
			Model:   s.cfg.Anthropic.Model,
			BaseURL: s.cfg.Anthropic.APIBaseURL,
			Timeout: s.cfg.Anthropic.Timeout,
		}, s.log)

	case appconfig.ProviderOpenAI:
		s.log.Info("Initializing OpenAI model", logger.StringField("model", s.cfg.OpenAI.Model))
		return openai.New(openai.Config{
			APIKey:  s.cfg.OpenAI.APIKey,
			Model:   s.cfg.OpenAI.Model,
			BaseURL: s.cfg.OpenAI.APIBaseURL,
			Timeout: s.cfg.OpenAI.Timeout,
		}, s.log)

	case appconfig.ProviderGemini:
		s.log.Info("Initializing Gemini model", logger.StringField("model", s.cfg.Gemini.Model))
		if s.cfg.Gemini.Project != "" {
			s.log.Info("Using Vertex AI backend",
				logger.StringField("project", s.cfg.Gemini.Project),
				logger.StringField("region", s.cfg.Gemini.Region))
		}
		return gemini.New(ctx, gemini.Config{
			APIKey:  s.cfg.Gemini.APIKey,
			Model:   s.cfg.Gemini.Model,
			BaseURL: s.cfg.Gemini.APIBaseURL,
			Project: s.cfg.Gemini.Project,
			Region:  s.cfg.Gemini.Region,
			Timeout: s.cfg.Gemini.Timeout,
		}, s.log)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// createMailer creates the lead email dispatcher over the configured provider.
func (s *Server) createMailer(ctx context.Context) (agents.Mailer, error) {
	sender, err := email.NewSender(ctx, s.cfg.Email, s.log)
	if err != nil {
		return nil, err
	}
	return email.NewDispatcher(sender, s.cfg.Email, s.cfg.Agent, s.log), nil
}

func (s *Server) createNotifier() (notify.Notifier, error) {
	return notify.FromConfig(s.cfg.Slack, s.cfg.Telegram, s.log)
}

// createLocker uses Redis when configured so turns serialize across replicas.
func (s *Server) createLocker(ctx context.Context) (turnlock.Locker, error) {
	if !s.cfg.Redis.Enabled() {
		s.log.Info("REDIS_URL not set, using in-process turn lock")
		return turnlock.NewLocalLocker(), nil
	}

	client, err := turnlock.Connect(ctx, s.cfg.Redis)
	if err != nil {
		return nil, err
	}
	s.redis = client
	s.closers = append(s.closers, client.Close)

	s.log.Info("Using Redis turn lock")
	return turnlock.NewRedisLocker(client, s.cfg.Redis, s.log), nil
}

func (s *Server) createHealthMonitor() *monitoring.HealthMonitor {
	cfg := monitoring.Config{
		Logger:           s.log,
		Version:          s.cfg.Version,
		Timeout:          s.cfg.Health.Timeout,
		FailureThreshold: s.cfg.Health.FailureThreshold,
	}
	if s.pool != nil {
		cfg.Postgres = s.pool
	}
	if s.redis != nil {
		cfg.Redis = s.redis
	}
	if s.cfg.Health.CheckLLM {
		cfg.LLMBaseURL = s.cfg.LLMBaseURL()
	}
	return monitoring.NewHealthMonitor(cfg)
}
