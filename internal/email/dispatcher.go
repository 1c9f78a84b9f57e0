package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Lead is a visitor who left an email address.
type Lead struct {
	Email      string
	Transcript []store.TranscriptEntry
	Challenges []string
}

// Result describes a sent lead email.
type Result struct {
	ProviderID  string
	Recipient   string
	Subject     string
	DisplayName string
}

// Dispatcher composes lead emails and hands them to the active Sender.
type Dispatcher struct {
	sender Sender
	email  config.EmailConfig
	agent  config.AgentConfig
	logger logger.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender Sender, emailCfg config.EmailConfig, agentCfg config.AgentConfig, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		email:  emailCfg,
		agent:  agentCfg,
		logger: log,
	}
}

// Subject returns the lead email subject line.
func (d *Dispatcher) Subject() string {
	if d.email.Subject != "" {
		return d.email.Subject
	}
	return fmt.Sprintf("AI Consulting Follow-up: %s Virtual Introduction", d.agent.ConsultantName)
}

// cleanChallenges keeps the most recent max challenges, stripped of the
// quotes and brackets the model tends to wrap them in.
func cleanChallenges(challenges []string, max int) []string {
	if max > 0 && len(challenges) > max {
		challenges = challenges[len(challenges)-max:]
	}
	out := make([]string, 0, len(challenges))
	for _, c := range challenges {
		c = strings.TrimSpace(strings.Trim(c, `'"[]`))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// SendLeadEmail introduces the lead to the consultant. The error is non-nil
// when the message could not be composed or the provider rejected it.
func (d *Dispatcher) SendLeadEmail(ctx context.Context, lead Lead) (*Result, error) {
	if lead.Email == "" {
		return nil, fmt.Errorf("lead email address is required")
	}

	name := DisplayNameFromTranscript(lead.Transcript)
	if name == "" {
		name = NameFromEmail(lead.Email)
	}

	html, err := renderLead(leadView{
		Name:            name,
		Persona:         d.agent.PersonaName,
		Challenges:      cleanChallenges(lead.Challenges, d.email.MaxChallenges),
		Consultant:      d.agent.ConsultantName,
		ConsultantPhone: d.agent.ConsultantPhone,
		Company:         d.agent.CompanyName,
		CompanyURL:      d.agent.CompanyURL,
	})
	if err != nil {
		return nil, err
	}

	msg := Message{
		From:    fmt.Sprintf("%s <%s>", d.agent.PersonaName, d.email.From),
		To:      []string{lead.Email},
		ReplyTo: d.email.ReplyTo,
		Subject: d.Subject(),
		HTML:    html,
	}
	if cc := d.email.CCAddress(); cc != "" {
		msg.CC = []string{cc}
	}

	providerID, err := d.sender.Send(ctx, msg)
	if err != nil {
		d.logger.Error("Lead email failed",
			logger.ErrorField(err),
			logger.StringField("recipient", lead.Email))
		return nil, fmt.Errorf("failed to send lead email: %w", err)
	}

	d.logger.Info("Lead email sent",
		logger.StringField("recipient", lead.Email),
		logger.StringField("display_name", name),
		logger.StringField("provider_id", providerID))

	return &Result{
		ProviderID:  providerID,
		Recipient:   lead.Email,
		Subject:     msg.Subject,
		DisplayName: name,
	}, nil
}
