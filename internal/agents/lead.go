package agents

import (
	"context"
	"fmt"
	"html"
	"regexp"

	"github.com/lewisedginton/lead_capture_chatbot/internal/email"
	"github.com/lewisedginton/lead_capture_chatbot/internal/notify"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/utils"
)

// EmailTypeLeadIntro is the email_log type of the consultant introduction.
const EmailTypeLeadIntro = "lead_introduction"

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// confirmation is the reply sent once an inline address has been captured.
func (a *Agent) confirmation(addr string) string {
	return fmt.Sprintf("Perfect! I've captured your email &lt;%s&gt; and sent a quick virtual introduction to "+
		"<strong>%s</strong> who you can speak with in more detail. \nYou can reach %s at &lt;%s&gt;.",
		html.EscapeString(addr), a.cfg.ConsultantName, firstName(a.cfg.ConsultantName), a.cfg.ConsultantEmail)
}

// captureInlineEmail handles a message containing an email address: the
// lead is emailed and the conversation closes without a model call.
func (a *Agent) captureInlineEmail(ctx context.Context, t *turn, message, addr string) (*TurnResult, error) {
	t.mem.CoreMemory.Email = addr
	if err := a.saveMemory(ctx, t); err != nil {
		return nil, err
	}

	t.add(store.RoleUser, message, estimateTokens(message), a.now())
	sent := a.sendLead(ctx, t, addr, store.EndReasonEmailCaptured)

	reply := a.confirmation(addr)
	t.add(store.RoleAssistant, reply, estimateTokens(reply), a.now())
	if err := a.flush(ctx, t); err != nil {
		return nil, err
	}
	if err := a.store.CloseConversation(ctx, t.conv.ID, store.EndReasonEmailCaptured, a.now()); err != nil {
		return nil, fmt.Errorf("failed to close conversation: %w", err)
	}

	return &TurnResult{
		Response:              reply,
		ShouldEndConversation: true,
		EmailSent:             utils.ToPtr(sent || a.emailCfg.ReportSuccessOnFailure),
		Reason:                store.EndReasonEmailCaptured,
		ConversationID:        t.conv.ID.String(),
	}, nil
}

// sendLead emails the lead introduction to addr, marks the conversation and
// logs the attempt, then alerts the sales channels. It reports whether the
// provider accepted the email. Failures never abort the turn.
func (a *Agent) sendLead(ctx context.Context, t *turn, addr, reason string) bool {
	entry := store.EmailLog{
		VisitorID:      t.visitor.ID,
		ConversationID: t.conv.ID,
		Recipient:      addr,
		EmailType:      EmailTypeLeadIntro,
		Subject:        a.mailer.Subject(),
	}

	name := t.mem.CoreMemory.UserName
	res, err := a.mailer.SendLeadEmail(ctx, email.Lead{
		Email:      addr,
		Transcript: t.conv.Transcript,
		Challenges: t.conv.Challenges,
	})
	sent := err == nil
	if sent {
		entry.Status = store.EmailStatusSent
		entry.ProviderID = res.ProviderID
		entry.Subject = res.Subject
		if name == "" {
			name = res.DisplayName
		}
		if err := a.store.MarkEmailSent(ctx, t.conv.ID, a.now()); err != nil {
			t.logger.Error("Failed to mark lead email as sent", logger.ErrorField(err))
		} else {
			t.conv.EmailSent = true
		}
	} else {
		entry.Status = store.EmailStatusFailed
		entry.Error = err.Error()
		t.logger.Error("Lead email failed", logger.ErrorField(err))
	}
	a.metrics.LeadEmail(entry.Status)

	if err := a.store.LogEmail(ctx, entry); err != nil {
		t.logger.Warn("Failed to write email log", logger.ErrorField(err))
	}

	lead := notify.Lead{
		VisitorID:      t.visitor.ID.String(),
		ConversationID: t.conv.ID.String(),
		Name:           name,
		Email:          addr,
		Company:        t.mem.CoreMemory.Company,
		Challenges:     t.conv.Challenges,
		Reason:         reason,
		EmailSent:      sent,
	}
	if err := a.notifier.NotifyLead(ctx, lead); err != nil {
		t.logger.Warn("Lead notification failed", logger.ErrorField(err))
	}
	return sent
}
