package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(Config{
		Level:   level,
		Format:  "json",
		Service: "test-service",
		Output:  &buf,
	}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerOutput(t *testing.T) {
	log, buf := newBufferedLogger(InfoLevel)

	log.Info("visitor identified", VisitorIDField("vis-123"), StringField("test_key", "test_value"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "visitor identified", entries[0]["msg"])
	assert.Equal(t, "test-service", entries[0]["service"])
	assert.Equal(t, "vis-123", entries[0]["visitor_id"])
	assert.Equal(t, "test_value", entries[0]["test_key"])
	assert.Equal(t, "info", entries[0]["level"])
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  []string
	}{
		{"debug shows everything", DebugLevel, []string{"debug", "info", "warn", "error"}},
		{"info hides debug", InfoLevel, []string{"info", "warn", "error"}},
		{"error only", ErrorLevel, []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newBufferedLogger(tt.level)
			log.Debug("debug")
			log.Info("info")
			log.Warn("warn")
			log.Error("error")

			var got []string
			for _, e := range decodeLines(t, buf) {
				got = append(got, e["msg"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerImmutability(t *testing.T) {
	base, buf := newBufferedLogger(InfoLevel)
	child := base.WithFields(StringField("key1", "value1"))
	grandchild := child.WithCorrelationID("corr-1")

	base.Info("base")
	grandchild.Info("grandchild")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0], "key1")
	assert.Equal(t, "value1", entries[1]["key1"])
	assert.Equal(t, "corr-1", entries[1]["correlation_id"])
}

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name     string
		field    LogField
		expected LogField
	}{
		{"StringField", StringField("test", "value"), LogField{Key: "test", Value: "value"}},
		{"IntField", IntField("count", 42), LogField{Key: "count", Value: "42"}},
		{"Int64Field", Int64Field("tokens", 3000), LogField{Key: "tokens", Value: "3000"}},
		{"BoolField", BoolField("sent", true), LogField{Key: "sent", Value: "true"}},
		{"DurationField", DurationField("duration", 5*time.Second), LogField{Key: "duration", Value: "5s"}},
		{"ErrorField", ErrorField(errors.New("boom")), LogField{Key: "error", Value: "boom"}},
		{"ErrorField nil", ErrorField(nil), LogField{Key: "error", Value: "<nil>"}},
		{"CorrelationIDField", CorrelationIDField("test-id"), LogField{Key: "correlation_id", Value: "test-id"}},
		{"HTTPStatusField", HTTPStatusField(200), LogField{Key: "http_status", Value: "200"}},
		{"ConversationIDField", ConversationIDField("conv-1"), LogField{Key: "conversation_id", Value: "conv-1"}},
		{"Field float", Field("temperature", 0.7), LogField{Key: "temperature", Value: "0.7"}},
		{"TimeField", TimeField("ts", time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)), LogField{Key: "ts", Value: "2023-01-01T12:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.field)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, "warn", WarnLevel.String())
}

func TestHTTPMiddleware(t *testing.T) {
	log, buf := newBufferedLogger(InfoLevel)

	handler := log.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetCorrelationIDFromContext(r.Context()))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("test response"))
	}))

	correlationID := uuid.New().String()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set(CorrelationIDHeader, correlationID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "HTTP response sent", entries[0]["msg"])
	assert.Equal(t, "201", entries[0]["http_status"])
	assert.Equal(t, "13", entries[0]["response_bytes"])
	assert.Equal(t, "/api/chat", entries[0]["http_path"])
	assert.Equal(t, correlationID, entries[0]["correlation_id"])
}

func TestEnsureHTTPCorrelationID(t *testing.T) {
	t.Run("generates correlation ID when missing", func(t *testing.T) {
		req, id := EnsureHTTPCorrelationID(httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, req.Header.Get(CorrelationIDHeader))
		assert.Equal(t, id, GetCorrelationIDFromContext(req.Context()))
	})

	t.Run("preserves existing valid correlation ID", func(t *testing.T) {
		existing := uuid.New().String()
		in := httptest.NewRequest(http.MethodGet, "/", nil)
		in.Header.Set(CorrelationIDHeader, existing)
		_, id := EnsureHTTPCorrelationID(in)
		assert.Equal(t, existing, id)
	})

	t.Run("replaces invalid correlation ID", func(t *testing.T) {
		in := httptest.NewRequest(http.MethodGet, "/", nil)
		in.Header.Set(CorrelationIDHeader, "invalid-uuid")
		_, id := EnsureHTTPCorrelationID(in)
		assert.NotEqual(t, "invalid-uuid", id)
	})
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx, id := EnsureCorrelationID(context.Background())
	require.NotEmpty(t, id)

	again, sameID := EnsureCorrelationID(ctx)
	assert.Equal(t, id, sameID)
	assert.Equal(t, id, GetCorrelationIDFromContext(again))
}

func TestGetLoggerFromContext(t *testing.T) {
	log, buf := newBufferedLogger(InfoLevel)
	ctx := WithCorrelationIDContext(context.Background(), "ctx-id")

	GetLoggerFromContext(ctx, log).Info("hello")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "ctx-id", entries[0]["correlation_id"])
}
