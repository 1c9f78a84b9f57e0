package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lewisedginton/lead_capture_chatbot/internal/models"
)

const namespace = "chatbot"

// ChatMetrics collects turn, model and lead email metrics.
type ChatMetrics struct {
	turns       *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec
	llmErrors   *prometheus.CounterVec
	leadEmails  *prometheus.CounterVec
}

// NewChatMetrics creates the collectors. Register them with Collectors.
func NewChatMetrics() *ChatMetrics {
	return &ChatMetrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns handled, by outcome",
		}, []string{"outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"model"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens reported by the language model, by direction",
		}, []string{"direction"}),
		llmErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_errors_total",
			Help:      "Failed language model requests",
		}, []string{"model"}),
		leadEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_emails_total",
			Help:      "Lead introduction emails, by status",
		}, []string{"status"}),
	}
}

// Collectors returns every collector for registration.
func (m *ChatMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.turns, m.llmDuration, m.llmTokens, m.llmErrors, m.leadEmails}
}

// TurnCompleted counts a finished turn.
func (m *ChatMetrics) TurnCompleted(outcome string) {
	m.turns.WithLabelValues(outcome).Inc()
}

// LLMRequest records one model call.
func (m *ChatMetrics) LLMRequest(model string, d time.Duration, usage models.Usage, err error) {
	m.llmDuration.WithLabelValues(model).Observe(d.Seconds())
	if err != nil {
		m.llmErrors.WithLabelValues(model).Inc()
		return
	}
	m.llmTokens.WithLabelValues("input").Add(float64(usage.InputTokens))
	m.llmTokens.WithLabelValues("output").Add(float64(usage.OutputTokens))
}

// LeadEmail counts a lead email attempt.
func (m *ChatMetrics) LeadEmail(status string) {
	m.leadEmails.WithLabelValues(status).Inc()
}
