package httpmiddleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 60*time.Second, config.Timeout)
	require.NotNil(t, config.CORS)
	assert.True(t, config.EnableCorrelationID)
	assert.True(t, config.EnableRecovery)
	assert.False(t, config.EnableLogging, "logging requires a logger")
	assert.False(t, config.EnableStripPrefix)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: logger.InfoLevel, Format: "json", Output: &buf})

	var capturedID string
	router := chi.NewRouter()
	WithLogger(router, log)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		capturedID = logger.GetCorrelationIDFromContext(r.Context())
		_, _ = w.Write([]byte("test response"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test response", rec.Body.String())
	assert.NotEmpty(t, capturedID)
	assert.Contains(t, buf.String(), "HTTP response sent")
	assert.Contains(t, buf.String(), capturedID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCustomRecoveryAndMetrics(t *testing.T) {
	var metricsCalls int
	config := Config{
		EnableRecovery: true,
		Recovery: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if recover() != nil {
						w.WriteHeader(http.StatusTeapot)
					}
				}()
				next.ServeHTTP(w, r)
			})
		},
		Metrics: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				metricsCalls++
				next.ServeHTTP(w, r)
			})
		},
	}

	router := chi.NewRouter()
	ApplyToRouter(router, config)
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1, metricsCalls)
}

func TestMinimalConfigHasNoHeartbeat(t *testing.T) {
	router := chi.NewRouter()
	ApplyToRouter(router, Config{EnableCorrelationID: true})
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStripPrefixIntegration(t *testing.T) {
	router := chi.NewRouter()
	ApplyToRouter(router, Config{StripPrefix: "/chatbot", EnableStripPrefix: true})
	router.Get("/api/services", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbot/api/services", nil))
	assert.Equal(t, "/api/services", rec.Body.String())
}
