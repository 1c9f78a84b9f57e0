// Package models defines the provider-neutral LLM interface the agent calls
// once per turn. Implementations live in the provider sub-packages.
package models

import (
	"context"
	"errors"
	"strings"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// Message is one conversation message sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request is a single, non-streaming generation request.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the model's reply.
type Response struct {
	Text       string
	Model      string
	StopReason string
	Usage      Usage
}

// LLM generates a reply for a request.
type LLM interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// UserPrompt builds a request with a system prompt and one user message.
func UserPrompt(system, message string, maxTokens int, temperature float64) *Request {
	return &Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: message}},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
}

// Validate checks that the request has at least one non-empty message.
func (r *Request) Validate() error {
	if r == nil || len(r.Messages) == 0 {
		return errors.New("no messages provided")
	}
	for _, m := range r.Messages {
		if strings.TrimSpace(m.Content) == "" {
			return errors.New("message content is empty")
		}
	}
	return nil
}

// WithTrailingSlash makes a base URL safe to resolve relative API paths against.
func WithTrailingSlash(baseURL string) string {
	if baseURL == "" || strings.HasSuffix(baseURL, "/") {
		return baseURL
	}
	return baseURL + "/"
}
