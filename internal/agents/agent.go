// Package agents runs the lead-capture conversation. Each visitor message is
// one turn that either captures an email address, hands the visitor off at a
// conversation limit, or asks the model for a reply.
package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/internal/email"
	"github.com/lewisedginton/lead_capture_chatbot/internal/knowledge"
	"github.com/lewisedginton/lead_capture_chatbot/internal/memory"
	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/internal/notify"
	"github.com/lewisedginton/lead_capture_chatbot/internal/prompt_manager"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/internal/turnlock"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/utils"
)

var (
	// ErrUpstream wraps failures of the language model call.
	ErrUpstream = errors.New("AI processing error")
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is required")
)

// Turn outcomes reported to the Recorder besides the end reasons.
const (
	OutcomeReply = "reply"
	OutcomeError = "error"
)

// Mailer sends the lead introduction email.
type Mailer interface {
	SendLeadEmail(ctx context.Context, lead email.Lead) (*email.Result, error)
	Subject() string
}

// Recorder receives per-turn measurements.
type Recorder interface {
	TurnCompleted(outcome string)
	LLMRequest(model string, d time.Duration, usage models.Usage, err error)
	LeadEmail(status string)
}

type nopRecorder struct{}

func (nopRecorder) TurnCompleted(string) {}

func (nopRecorder) LLMRequest(string, time.Duration, models.Usage, error) {}

func (nopRecorder) LeadEmail(string) {}

// Dependencies holds everything an Agent is built from. Store, LLM, Mailer
// and Logger are required; the rest have usable defaults.
type Dependencies struct {
	Store     store.Store
	LLM       models.LLM
	Knowledge *knowledge.Lookup
	Mailer    Mailer
	Notifier  notify.Notifier
	Locker    turnlock.Locker
	Prompts   *prompt_manager.PromptManager
	Metrics   Recorder
	Logger    logger.Logger
	Agent     config.AgentConfig
	Email     config.EmailConfig
	Now       func() time.Time
}

// Agent orchestrates chat turns. It holds no per-visitor state; everything a
// turn needs is loaded into a fresh turn value.
type Agent struct {
	store     store.Store
	llm       models.LLM
	knowledge *knowledge.Lookup
	mailer    Mailer
	notifier  notify.Notifier
	locker    turnlock.Locker
	prompts   *prompt_manager.PromptManager
	metrics   Recorder
	logger    logger.Logger
	cfg       config.AgentConfig
	emailCfg  config.EmailConfig
	now       func() time.Time
}

// New creates an Agent.
func New(d Dependencies) (*Agent, error) {
	if d.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if d.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if d.LLM == nil {
		return nil, fmt.Errorf("language model is required")
	}
	if d.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}

	a := &Agent{
		store:     d.Store,
		llm:       d.LLM,
		knowledge: d.Knowledge,
		mailer:    d.Mailer,
		notifier:  d.Notifier,
		locker:    d.Locker,
		prompts:   d.Prompts,
		metrics:   d.Metrics,
		logger:    d.Logger.WithFields(logger.StringField("component", "agent")),
		cfg:       d.Agent,
		emailCfg:  d.Email,
		now:       d.Now,
	}
	if a.notifier == nil {
		a.notifier = notify.Nop{}
	}
	if a.locker == nil {
		a.locker = turnlock.NewLocalLocker()
	}
	if a.prompts == nil {
		a.prompts = prompt_manager.Default()
	}
	if a.metrics == nil {
		a.metrics = nopRecorder{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Response              string   `json:"response"`
	MessageCount          int      `json:"messageCount"`
	Recommendations       []string `json:"recommendations,omitempty"`
	ShouldEndConversation bool     `json:"shouldEndConversation"`
	EmailSent             *bool    `json:"emailSent,omitempty"`
	ConversationEnded     *bool    `json:"conversationEnded,omitempty"`
	Reason                string   `json:"reason,omitempty"`
	ConversationID        string   `json:"conversationId,omitempty"`
	VisitorID             string   `json:"visitorId"`
}

// Chat runs one turn for the visitor. Turns of the same visitor are
// serialized through the Locker.
func (a *Agent) Chat(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID, message string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	release, err := a.locker.Acquire(ctx, visitorID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	defer release()

	t, err := a.loadState(ctx, visitorID)
	if err != nil {
		a.metrics.TurnCompleted(OutcomeError)
		return nil, err
	}

	var (
		res     *TurnResult
		outcome string
	)
	if addr := emailPattern.FindString(message); addr != "" {
		outcome = store.EndReasonEmailCaptured
		res, err = a.captureInlineEmail(ctx, t, message, addr)
	} else if reason := a.limitReached(t.conv); reason != "" {
		outcome = reason
		res, err = a.handOff(ctx, t, message, reason)
	} else {
		outcome = OutcomeReply
		res, err = a.reply(ctx, t, message)
	}
	if err != nil {
		a.metrics.TurnCompleted(OutcomeError)
		t.logger.Error("Turn failed", logger.ErrorField(err))
		return nil, err
	}

	a.metrics.TurnCompleted(outcome)
	res.VisitorID = visitorID.String()
	res.MessageCount = t.conv.MessageCount
	t.logger.Info("Turn completed",
		logger.StringField("outcome", outcome),
		logger.IntField("message_count", t.conv.MessageCount),
		logger.IntField("total_tokens", t.conv.TotalTokens))
	return res, nil
}

// reply is the normal turn: the model answers with the memory, knowledge and
// recent transcript as context.
func (a *Agent) reply(ctx context.Context, t *turn, message string) (*TurnResult, error) {
	t.mem.Touch(a.now())

	system, err := a.systemPrompt(t, a.knowledge.Snippets(ctx, message))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := a.llm.Generate(ctx, models.UserPrompt(system, message, a.cfg.MaxTokensPerMessage, a.cfg.Temperature))
	var usage models.Usage
	if resp != nil {
		usage = resp.Usage
	}
	a.metrics.LLMRequest(a.llm.Name(), time.Since(start), usage, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	edits, text := memory.ExtractDirectives(resp.Text)
	a.applyEdits(t, edits)

	outputTokens := resp.Usage.OutputTokens
	if outputTokens <= 0 {
		outputTokens = estimateTokens(text)
	}
	t.add(store.RoleUser, message, estimateTokens(message), a.now())
	t.add(store.RoleAssistant, text, outputTokens, a.now())

	if err := a.flush(ctx, t); err != nil {
		return nil, err
	}
	if err := a.saveMemory(ctx, t); err != nil {
		return nil, err
	}

	sent := a.emailSent(ctx, t.conv.ID)
	return &TurnResult{
		Response:          text,
		Recommendations:   a.recommend(ctx, t),
		EmailSent:         utils.ToPtr(sent),
		ConversationEnded: utils.ToPtr(sent),
		ConversationID:    t.conv.ID.String(),
	}, nil
}

// emailSent re-reads the conversation flag. A failed read counts as not sent.
func (a *Agent) emailSent(ctx context.Context, id prefixed_uuid.PrefixedUUID) bool {
	conv, err := a.store.GetConversation(ctx, id)
	if err != nil {
		a.logger.Warn("Failed to re-read conversation",
			logger.ConversationIDField(id.String()),
			logger.ErrorField(err))
		return false
	}
	return conv.EmailSent
}
