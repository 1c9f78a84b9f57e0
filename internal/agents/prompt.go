package agents

import (
	"fmt"
	"strings"

	"github.com/lewisedginton/lead_capture_chatbot/internal/memory"
	"github.com/lewisedginton/lead_capture_chatbot/internal/prompt_manager"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
)

// recentWindow is the number of transcript entries quoted in the prompt.
const recentWindow = 4

func (a *Agent) promptData() prompt_manager.Data {
	return prompt_manager.Data{
		Persona:         a.cfg.PersonaName,
		Company:         a.cfg.CompanyName,
		CompanyURL:      a.cfg.CompanyURL,
		Consultant:      a.cfg.ConsultantName,
		ConsultantEmail: a.cfg.ConsultantEmail,
		ContactEmail:    a.cfg.ContactEmail,
		MaxTokens:       a.cfg.MaxTokensPerMessage,
	}
}

// systemPrompt assembles the persona, the memory view, the knowledge block,
// the recent transcript and the guidelines, in that order.
func (a *Agent) systemPrompt(t *turn, knowledgeBlock string) (string, error) {
	d := a.promptData()
	persona, err := a.prompts.Persona(d)
	if err != nil {
		return "", err
	}
	guidelines, err := a.prompts.Guidelines(d)
	if err != nil {
		return "", err
	}

	sections := []string{
		strings.TrimSpace(persona),
		memory.View(t.mem, t.conv.MessageCount),
	}
	if k := strings.TrimSpace(knowledgeBlock); k != "" {
		sections = append(sections, k)
	}
	sections = append(sections,
		"Recent Conversation:\n"+recentConversation(t.conv.Transcript),
		strings.TrimSpace(guidelines))
	return strings.Join(sections, "\n\n"), nil
}

func recentConversation(transcript []store.TranscriptEntry) string {
	if len(transcript) > recentWindow {
		transcript = transcript[len(transcript)-recentWindow:]
	}
	lines := make([]string, 0, len(transcript))
	for _, e := range transcript {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Role, e.Content))
	}
	return strings.Join(lines, "\n")
}
