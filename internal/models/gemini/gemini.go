// Package gemini implements models.LLM on Google Gemini, through either the
// Gemini API or Vertex AI.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Config configures a Model. Setting Project selects the Vertex AI backend.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Project string
	Region  string
	Timeout time.Duration
}

// Model implements models.LLM for Gemini models.
type Model struct {
	client    *genai.Client
	modelName string
	logger    logger.Logger
}

// New creates a Gemini model.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.Project != "" {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Region
	} else {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Model{
		client:    client,
		modelName: cfg.Model,
		logger:    log.WithFields(logger.StringField("component", "gemini_model"), logger.StringField("model", cfg.Model)),
	}, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.modelName
}

// Generate implements models.LLM.
func (m *Model) Generate(ctx context.Context, req *models.Request) (*models.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	gc := &genai.GenerateContentConfig{}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens) //nolint:gosec // bounded by config
	}
	if req.Temperature != nil {
		gc.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.modelName, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, models.ErrEmptyResponse
	}

	out := &models.Response{
		Text:  text,
		Model: resp.ModelVersion,
	}
	if len(resp.Candidates) > 0 {
		out.StopReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.Usage = models.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	m.logger.Debug("Received response from gemini",
		logger.IntField("input_tokens", out.Usage.InputTokens),
		logger.IntField("output_tokens", out.Usage.OutputTokens))
	return out, nil
}
