package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Config configures a Model.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Model implements models.LLM for OpenAI's GPT models.
type Model struct {
	client    *openai.Client
	modelName string
	logger    logger.Logger
}

// New creates a new OpenAI model instance.
func New(cfg Config, log logger.Logger, opts ...option.RequestOption) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(models.WithTrailingSlash(cfg.BaseURL)))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(append(clientOpts, opts...)...)

	return &Model{
		client:    &client,
		modelName: cfg.Model,
		logger:    log.WithFields(logger.StringField("component", "openai_model"), logger.StringField("model", cfg.Model)),
	}, nil
}

// Name returns the model name.
func (o *Model) Name() string {
	return o.modelName
}

// Generate implements models.LLM.
func (o *Model) Generate(ctx context.Context, req *models.Request) (*models.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == models.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(m.Content))
	}

	params := openai.ChatCompletionNewParams{
		Model:    o.modelName,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, models.ErrEmptyResponse
	}

	choice := completion.Choices[0]
	o.logger.Debug("Received response from openai",
		logger.Int64Field("prompt_tokens", completion.Usage.PromptTokens),
		logger.Int64Field("completion_tokens", completion.Usage.CompletionTokens))

	return &models.Response{
		Text:       choice.Message.Content,
		Model:      completion.Model,
		StopReason: choice.FinishReason,
		Usage: models.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}
