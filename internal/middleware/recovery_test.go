package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

func newBufferedLogger() (logger.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.NewLogger(logger.Config{Level: logger.DebugLevel, Output: buf}), buf
}

func TestRecovery(t *testing.T) {
	log, buf := newBufferedLogger()
	h := Recovery(DefaultRecoveryConfig(log))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])

	assert.Contains(t, buf.String(), "HTTP request panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecoveryPassThrough(t *testing.T) {
	h := Recovery(DefaultRecoveryConfig(nil))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "cloudflare wins",
			headers:    map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2", "X-Real-IP": "3.3.3.3"},
			remoteAddr: "10.0.0.1:1234",
			want:       "1.1.1.1",
		},
		{
			name:       "first forwarded hop",
			headers:    map[string]string{"X-Forwarded-For": " 2.2.2.2 , 10.0.0.2", "X-Real-IP": "3.3.3.3"},
			remoteAddr: "10.0.0.1:1234",
			want:       "2.2.2.2",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": "3.3.3.3"},
			remoteAddr: "10.0.0.1:1234",
			want:       "3.3.3.3",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "10.0.0.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "remote addr ipv6",
			remoteAddr: "[::1]:8080",
			want:       "::1",
		},
		{
			name:       "remote addr unparseable",
			remoteAddr: "pipe",
			want:       "pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
		logged bool
	}{
		{name: "success not logged", status: http.StatusOK},
		{name: "client error warns", status: http.StatusBadRequest, level: "warning", logged: true},
		{name: "server error errors", status: http.StatusInternalServerError, level: "error", logged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newBufferedLogger()
			h := ErrorHandler(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memory", nil))
			assert.Equal(t, tt.status, rec.Code)

			if !tt.logged {
				assert.Empty(t, buf.String())
				return
			}
			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too large a body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
