package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
)

// limitReached returns the end reason when conv has used up its rounds or
// its token budget, or "" when the turn may proceed.
func (a *Agent) limitReached(conv *store.Conversation) string {
	if conv.MessageCount >= a.cfg.MaxRounds*2 {
		return store.EndReasonMaxRounds
	}
	if conv.TotalTokens > a.cfg.TokenLimit {
		return store.EndReasonTokenLimit
	}
	return ""
}

// handOffMessage is the canned closing reply for a limit reason.
func (a *Agent) handOffMessage(reason string) string {
	if reason == store.EndReasonTokenLimit {
		return fmt.Sprintf("Based on what you've shared, I would like to connect you to <strong>%s</strong>. "+
			"%s is an AI consultant who can provide advice, build agents, and business. I'll send you both an email!",
			a.cfg.ConsultantName, firstName(a.cfg.ConsultantName))
	}
	return fmt.Sprintf("Thanks for the great conversation! I've documented everything and our team will follow up "+
		"soon with personalized recommendations. Feel free to reach us directly at <strong>%s</strong>.",
		a.cfg.ContactEmail)
}

// handOff ends the conversation at a limit without calling the model. A lead
// email goes out when the visitor already gave an address and none was sent.
func (a *Agent) handOff(ctx context.Context, t *turn, message, reason string) (*TurnResult, error) {
	reply := a.handOffMessage(reason)
	t.add(store.RoleUser, message, estimateTokens(message), a.now())
	t.add(store.RoleAssistant, reply, estimateTokens(reply), a.now())
	if err := a.flush(ctx, t); err != nil {
		return nil, err
	}

	if addr := t.mem.CoreMemory.Email; addr != "" && !t.conv.EmailSent {
		a.sendLead(ctx, t, addr, reason)
	}

	if err := a.store.CloseConversation(ctx, t.conv.ID, reason, a.now()); err != nil {
		return nil, fmt.Errorf("failed to close conversation: %w", err)
	}

	return &TurnResult{
		Response:              reply,
		ShouldEndConversation: true,
		Reason:                reason,
	}, nil
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
