package agents

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lewisedginton/lead_capture_chatbot/internal/memory"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

// turn is the state loaded for a single request. It is discarded when the
// request ends.
type turn struct {
	visitor *store.Visitor
	mem     *memory.Memory
	conv    *store.Conversation
	pending []store.Message
	logger  logger.Logger
}

// loadState loads the visitor memory and the open conversation, creating the
// conversation when none is open.
func (a *Agent) loadState(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*turn, error) {
	v, err := a.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitor %s: %w", visitorID, err)
	}

	conv, err := a.store.OpenConversation(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	log := a.logger.WithFields(
		logger.VisitorIDField(visitorID.String()),
		logger.ConversationIDField(conv.ID.String()))
	return &turn{
		visitor: v,
		mem:     a.memoryOf(v, log),
		conv:    conv,
		logger:  log,
	}, nil
}

// memoryOf decodes the stored memory of v, or seeds a fresh one from the
// visitor columns when nothing is stored.
func (a *Agent) memoryOf(v *store.Visitor, log logger.Logger) *memory.Memory {
	if len(v.MemoryState) == 0 {
		return memory.New(memory.Seed{
			Name:        v.Contact.Name,
			Email:       v.Contact.Email,
			Company:     v.Contact.Company,
			Role:        v.Contact.Role,
			Preferences: v.Preferences,
		})
	}
	m, err := memory.Decode(v.MemoryState)
	if err != nil {
		log.Warn("Stored memory could not be parsed, starting over", logger.ErrorField(err))
	}
	return m
}

// add appends a message to the transcript and the pending message log, and
// bumps the conversation counters.
func (t *turn) add(role, content string, tokens int, at time.Time) {
	at = at.UTC()
	t.conv.Transcript = append(t.conv.Transcript, store.TranscriptEntry{
		Role:      role,
		Content:   content,
		Timestamp: at,
	})
	t.conv.MessageCount++
	t.conv.TotalTokens += tokens
	t.pending = append(t.pending, store.Message{
		Role:      role,
		Content:   content,
		Tokens:    tokens,
		CreatedAt: at,
	})
}

// flush writes the pending messages together with the conversation counters,
// transcript and challenges.
func (a *Agent) flush(ctx context.Context, t *turn) error {
	if err := a.store.RecordTurn(ctx, t.conv, t.pending...); err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	t.pending = nil
	return nil
}

func (a *Agent) saveMemory(ctx context.Context, t *turn) error {
	data, err := t.mem.Encode()
	if err != nil {
		return err
	}
	c := t.mem.CoreMemory
	contact := store.Contact{
		Name:    c.UserName,
		Email:   c.Email,
		Company: c.Company,
		Role:    c.Role,
	}
	if err := a.store.SaveMemory(ctx, t.visitor.ID, data, contact); err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// applyEdits applies the memory directives of a model reply. Challenge edits
// that are accepted are also recorded on the conversation.
func (a *Agent) applyEdits(t *turn, edits []memory.Edit) {
	for _, e := range edits {
		if err := t.mem.Apply(e); err != nil {
			t.logger.Warn("Rejected memory update",
				logger.StringField("key", e.Key),
				logger.ErrorField(err))
			continue
		}
		if !strings.Contains(e.Key, "identified_challenges") {
			continue
		}
		if item := e.Item(); item != "" {
			t.conv.Challenges = append(t.conv.Challenges, item)
		}
	}
}

// estimateTokens approximates the token count of s at four characters a token.
func estimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}
