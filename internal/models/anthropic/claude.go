package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// defaultMaxTokens applies when a request does not set MaxTokens.
const defaultMaxTokens = 1024

// Config configures a ClaudeModel.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ClaudeModel implements models.LLM for Anthropic Claude models.
type ClaudeModel struct {
	client    anthropic.Client
	modelName string
	logger    logger.Logger
}

// NewClaudeModel creates a new Claude model instance. The client never
// retries: a failed turn surfaces to the visitor immediately.
func NewClaudeModel(cfg Config, log logger.Logger, opts ...option.RequestOption) (*ClaudeModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeSonnet4_5_20250929)
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

	return &ClaudeModel{
		client:    anthropic.NewClient(append(clientOpts, opts...)...),
		modelName: cfg.Model,
		logger:    log.WithFields(logger.StringField("component", "claude_model"), logger.StringField("model", cfg.Model)),
	}, nil
}

// Name returns the name of the model
func (c *ClaudeModel) Name() string {
	return c.modelName
}

// Generate implements models.LLM.
func (c *ClaudeModel) Generate(ctx context.Context, req *models.Request) (*models.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: defaultMaxTokens,
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	c.logger.Debug("Sending request to anthropic", logger.IntField("messages_count", len(params.Messages)))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	var text []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			text = append(text, block.Text)
		}
	}
	if len(text) == 0 {
		return nil, models.ErrEmptyResponse
	}

	c.logger.Debug("Received response from anthropic",
		logger.Int64Field("input_tokens", resp.Usage.InputTokens),
		logger.Int64Field("output_tokens", resp.Usage.OutputTokens))

	return &models.Response{
		Text:       strings.Join(text, "\n"),
		Model:      string(resp.Model),
		StopReason: string(resp.StopReason),
		Usage: models.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

func toAnthropicMessages(msgs []models.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}
