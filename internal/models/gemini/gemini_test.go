package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Service: "test", Output: io.Discard})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{APIKey: "k"}, newTestLogger())
	require.Error(t, err)

	_, err = New(ctx, Config{Model: "gemini-2.5-flash"}, newTestLogger())
	require.Error(t, err)

	m, err := New(ctx, Config{APIKey: "k", Model: "gemini-2.5-flash"}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", m.Name())
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Happy to help."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 42, "candidatesTokenCount": 4},
			"modelVersion": "gemini-2.5-flash"
		}`))
	}))
	t.Cleanup(srv.Close)

	m, err := New(context.Background(), Config{APIKey: "k", Model: "gemini-2.5-flash", BaseURL: srv.URL + "/"}, newTestLogger())
	require.NoError(t, err)

	resp, err := m.Generate(context.Background(), models.UserPrompt("You are eXIQ", "hello", 500, 0.7))
	require.NoError(t, err)
	assert.Equal(t, "Happy to help.", resp.Text)
	assert.Equal(t, "STOP", resp.StopReason)
	assert.Equal(t, models.Usage{InputTokens: 42, OutputTokens: 4}, resp.Usage)

	gc, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", body)
	assert.Equal(t, float64(500), gc["maxOutputTokens"])
	assert.Contains(t, body, "systemInstruction")
}

func TestGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
	}))
	t.Cleanup(srv.Close)

	m, err := New(context.Background(), Config{APIKey: "k", Model: "gemini-2.5-flash", BaseURL: srv.URL + "/"}, newTestLogger())
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), models.UserPrompt("sys", "hello", 10, 0.7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini api error")
}
