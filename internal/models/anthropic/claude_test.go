package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Service: "test", Output: io.Discard})
}

func TestNewClaudeModel(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantModel string
		wantErr   bool
	}{
		{
			name:      "valid inputs",
			cfg:       Config{APIKey: "test-api-key", Model: "claude-3-5-haiku-latest"},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:    "empty api key",
			cfg:     Config{Model: "claude-3-5-haiku-latest"},
			wantErr: true,
		},
		{
			name:      "empty model name uses default",
			cfg:       Config{APIKey: "test-api-key"},
			wantModel: "claude-sonnet-4-5-20250929",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewClaudeModel(tt.cfg, newTestLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClaudeModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m.Name() != tt.wantModel {
				t.Errorf("Name() = %v, want %v", m.Name(), tt.wantModel)
			}
		})
	}
}

func TestClaudeModel_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Hello! What brings you here?"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 9}
		}`))
	}))
	defer srv.Close()

	m, err := NewClaudeModel(Config{APIKey: "test-key", Model: "claude-3-5-haiku-latest", BaseURL: srv.URL}, newTestLogger())
	if err != nil {
		t.Fatalf("NewClaudeModel() error = %v", err)
	}

	resp, err := m.Generate(context.Background(), models.UserPrompt("You are eXIQ", "hi there", 500, 0.7))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Text != "Hello! What brings you here?" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 9 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("StopReason = %q", resp.StopReason)
	}

	if body["max_tokens"] != float64(500) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	if body["temperature"] != 0.7 {
		t.Errorf("temperature = %v", body["temperature"])
	}
	system, _ := body["system"].([]any)
	if len(system) != 1 {
		t.Fatalf("system = %v", body["system"])
	}
	if text := system[0].(map[string]any)["text"]; text != "You are eXIQ" {
		t.Errorf("system text = %v", text)
	}
}

func TestClaudeModel_GenerateErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.Header.Get("X-Test"), "empty") {
			_, _ = w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	m, err := NewClaudeModel(Config{APIKey: "test-key", Model: "m", BaseURL: srv.URL}, newTestLogger())
	if err != nil {
		t.Fatalf("NewClaudeModel() error = %v", err)
	}

	_, err = m.Generate(context.Background(), models.UserPrompt("sys", "hi", 10, 0.7))
	if err == nil || !strings.Contains(err.Error(), "claude api error") {
		t.Errorf("Generate() error = %v, want claude api error", err)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want exactly 1 (no retries)", calls)
	}

	_, err = m.Generate(context.Background(), &models.Request{})
	if err == nil {
		t.Error("Generate() with no messages should fail")
	}

	empty, err := NewClaudeModel(Config{APIKey: "test-key", Model: "m", BaseURL: srv.URL}, newTestLogger(), option.WithHeader("X-Test", "empty"))
	if err != nil {
		t.Fatalf("NewClaudeModel() error = %v", err)
	}
	_, err = empty.Generate(context.Background(), models.UserPrompt("sys", "hi", 10, 0.7))
	if !errors.Is(err, models.ErrEmptyResponse) {
		t.Errorf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}
