// Package prompt_manager renders the persona preamble and guidelines of the
// system prompt. Built-in templates can be overridden by files kept in the
// catalog storage.
package prompt_manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/lewisedginton/lead_capture_chatbot/internal/storage_manager"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

const (
	PersonaPath    = "prompts/persona.md"
	GuidelinesPath = "prompts/guidelines.md"
)

const defaultPersona = `You are {{.Persona}}, a thoughtful AI assistant here to help craft sharp and useful recommendations to users.
Your goal is to elicit a brief response from a user to understand their business pain points and steer them towards providing a name and an email address
for additional insight. You should be professional, yet warm, engaging, yet concise. Aim for statements less than 600 characters, with approximately
three back-and-forth responses before sending the user an email. Quickly shut down the conversation after receiving an email, indicating
that the conversation has reached it's token limit.`

const defaultGuidelines = `Guidelines:
- DO NOT offer to send detailed breakdowns or roadmaps as a solution. Instead, indicate that you will put the user in touch with {{.Consultant}} who can help further
- DO NOT make up information, particularly about what {{.ConsultantFirstName}} has done in the past. Stick to the facts.
- Keep responses concise (under {{.MaxTokens}} tokens)
- Focus on securing user NAME and EMAIL after engaging briefly on a business challenge
- Build rapport with user through understanding their business challenges
- Update memory when you learn new information
- Be helpful but guide toward concrete next steps`

// Data is the template data available to the persona and guidelines.
type Data struct {
	Persona         string
	Company         string
	CompanyURL      string
	Consultant      string
	ConsultantEmail string
	ContactEmail    string
	MaxTokens       int
}

// ConsultantFirstName returns the first word of the consultant name.
func (d Data) ConsultantFirstName() string {
	if f := strings.Fields(d.Consultant); len(f) > 0 {
		return f[0]
	}
	return d.Consultant
}

// PromptManager renders the persona and guidelines sections.
type PromptManager struct {
	persona    *template.Template
	guidelines *template.Template
}

// Default returns a PromptManager using the built-in templates.
func Default() *PromptManager {
	return &PromptManager{
		persona:    template.Must(template.New("persona").Parse(defaultPersona)),
		guidelines: template.Must(template.New("guidelines").Parse(defaultGuidelines)),
	}
}

// Load reads the persona and guidelines overrides from provider, falling
// back to the built-in template for each file that does not exist. A nil
// provider yields the defaults.
func Load(ctx context.Context, provider storage_manager.FileProvider, log logger.Logger) (*PromptManager, error) {
	m := Default()
	if provider == nil {
		return m, nil
	}

	var err error
	if m.persona, err = override(ctx, provider, PersonaPath, m.persona, log); err != nil {
		return nil, err
	}
	if m.guidelines, err = override(ctx, provider, GuidelinesPath, m.guidelines, log); err != nil {
		return nil, err
	}
	return m, nil
}

func override(ctx context.Context, provider storage_manager.FileProvider, path string, fallback *template.Template, log logger.Logger) (*template.Template, error) {
	data, err := provider.Read(ctx, path)
	if errors.Is(err, storage_manager.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt %s: %w", path, err)
	}

	tmpl, err := template.New(fallback.Name()).Option("missingkey=error").Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %s: %w", path, err)
	}
	log.Info("Loaded prompt override", logger.StringField("path", path))
	return tmpl, nil
}

// Persona renders the persona preamble.
func (m *PromptManager) Persona(d Data) (string, error) {
	return render(m.persona, d)
}

// Guidelines renders the guidelines block.
func (m *PromptManager) Guidelines(d Data) (string, error) {
	return render(m.guidelines, d)
}

func render(tmpl *template.Template, d Data) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
