package agents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lewisedginton/lead_capture_chatbot/internal/knowledge"
	"github.com/lewisedginton/lead_capture_chatbot/internal/memory"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

var (
	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("valid email is required")
	// ErrNoConversation is returned when the visitor has no open conversation.
	ErrNoConversation = errors.New("no active conversation")
)

var validEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// GetMemory returns the visitor's memory, repaired, or the default memory
// when none is stored.
func (a *Agent) GetMemory(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*memory.Memory, error) {
	release, err := a.locker.Acquire(ctx, visitorID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	defer release()

	v, err := a.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitor %s: %w", visitorID, err)
	}
	if len(v.MemoryState) == 0 {
		return memory.Default(), nil
	}
	return a.memoryOf(v, a.logger.WithFields(logger.VisitorIDField(visitorID.String()))), nil
}

// ResetMemory replaces the visitor's memory with the default and closes the
// open conversation, if any.
func (a *Agent) ResetMemory(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) error {
	release, err := a.locker.Acquire(ctx, visitorID.String())
	if err != nil {
		return fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	defer release()

	data, err := memory.Default().Encode()
	if err != nil {
		return err
	}
	if err := a.store.SaveMemory(ctx, visitorID, data, store.Contact{}); err != nil {
		return fmt.Errorf("failed to reset memory: %w", err)
	}

	conv, err := a.store.FindOpenConversation(ctx, visitorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find open conversation: %w", err)
	}
	if err := a.store.CloseConversation(ctx, conv.ID, store.EndReasonMemoryReset, a.now()); err != nil {
		return fmt.Errorf("failed to close conversation: %w", err)
	}

	a.logger.Info("Memory reset",
		logger.VisitorIDField(visitorID.String()),
		logger.ConversationIDField(conv.ID.String()))
	return nil
}

// CaptureRequest is an explicitly submitted contact form.
type CaptureRequest struct {
	Email   string
	Name    string
	Company string
}

// CaptureResult is the outcome of CaptureEmail.
type CaptureResult struct {
	EmailSent bool
	Summary   string
}

// CaptureEmail records contact details submitted outside the chat, summarizes
// the open conversation, emails the lead and closes the conversation.
func (a *Agent) CaptureEmail(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID, req CaptureRequest) (*CaptureResult, error) {
	addr := strings.TrimSpace(req.Email)
	if !validEmail.MatchString(addr) {
		return nil, ErrInvalidEmail
	}

	release, err := a.locker.Acquire(ctx, visitorID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	defer release()

	v, err := a.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitor %s: %w", visitorID, err)
	}

	log := a.logger.WithFields(logger.VisitorIDField(visitorID.String()))
	t := &turn{visitor: v, mem: a.memoryOf(v, log), logger: log}
	t.mem.CoreMemory.Email = addr
	if name := strings.TrimSpace(req.Name); name != "" {
		t.mem.CoreMemory.UserName = name
	}
	if company := strings.TrimSpace(req.Company); company != "" {
		t.mem.CoreMemory.Company = company
	}
	if err := a.saveMemory(ctx, t); err != nil {
		return nil, err
	}

	conv, err := a.store.FindOpenConversation(ctx, visitorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoConversation
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open conversation: %w", err)
	}
	t.conv = conv
	t.logger = log.WithFields(logger.ConversationIDField(conv.ID.String()))

	summary := knowledge.GenerateSummary(conv.Transcript, conv.Challenges, conv.TotalTokens)
	if err := a.store.SaveSummary(ctx, conv.ID, summary); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}

	sent := a.sendLead(ctx, t, addr, store.EndReasonManualEmail)
	if err := a.store.CloseConversation(ctx, conv.ID, store.EndReasonManualEmail, a.now()); err != nil {
		return nil, fmt.Errorf("failed to close conversation: %w", err)
	}

	return &CaptureResult{
		EmailSent: sent || a.emailCfg.ReportSuccessOnFailure,
		Summary:   summary,
	}, nil
}
