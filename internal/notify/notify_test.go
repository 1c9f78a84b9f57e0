package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Service: "test", Output: io.Discard})
}

var testLead = Lead{
	VisitorID:      "vis-1",
	ConversationID: "conv-1",
	Name:           "Jane Doe",
	Email:          "jane@example.com",
	Company:        "Acme",
	Challenges:     []string{"Scaling support"},
	Reason:         "email_captured",
	EmailSent:      true,
}

type notifierFunc func(ctx context.Context, lead Lead) error

func (f notifierFunc) NotifyLead(ctx context.Context, lead Lead) error { return f(ctx, lead) }

func TestLeadText(t *testing.T) {
	assert.Equal(t,
		"New lead: Jane Doe <jane@example.com> (Acme)\nChallenges:\n- Scaling support\nIntro email: sent\nReason: email_captured | visitor vis-1 | conversation conv-1",
		testLead.Text())

	minimal := Lead{Email: "x@example.com", Reason: "max_rounds"}
	assert.True(t, strings.HasPrefix(minimal.Text(), "New lead <x@example.com>\nIntro email: FAILED\n"))
}

func TestMulti(t *testing.T) {
	calls := 0
	ok := notifierFunc(func(context.Context, Lead) error { calls++; return nil })
	failing := notifierFunc(func(context.Context, Lead) error { calls++; return errors.New("boom") })

	require.NoError(t, Multi{ok, ok}.NotifyLead(context.Background(), testLead))
	assert.Equal(t, 2, calls)

	calls = 0
	err := Multi{failing, ok, failing}.NotifyLead(context.Background(), testLead)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "2 errors occurred")

	assert.NoError(t, Multi{}.NotifyLead(context.Background(), testLead))
}

func TestFromConfig(t *testing.T) {
	n, err := FromConfig(config.SlackConfig{}, config.TelegramConfig{}, newTestLogger())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)

	n, err = FromConfig(
		config.SlackConfig{BotToken: "xoxb-1", Channel: "#leads"},
		config.TelegramConfig{BotToken: "1:abc", ChatID: 42},
		newTestLogger())
	require.NoError(t, err)
	require.IsType(t, Multi{}, n)
	assert.Len(t, n.(Multi), 2)
}

func TestSlackNotifier(t *testing.T) {
	var channel, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat.postMessage"))
		channel = r.FormValue("channel")
		text = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	t.Cleanup(srv.Close)

	n := NewSlackNotifier(config.SlackConfig{BotToken: "xoxb-1", Channel: "C123"}, slack.OptionAPIURL(srv.URL+"/"))
	require.NoError(t, n.NotifyLead(context.Background(), testLead))
	assert.Equal(t, "C123", channel)
	assert.Contains(t, text, "jane@example.com")
}

func TestSlackNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	t.Cleanup(srv.Close)

	n := NewSlackNotifier(config.SlackConfig{BotToken: "xoxb-1", Channel: "C404"}, slack.OptionAPIURL(srv.URL+"/"))
	err := n.NotifyLead(context.Background(), testLead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestTelegramNotifier(t *testing.T) {
	var chatID, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/sendMessage"))
		chatID = r.FormValue("chat_id")
		text = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":42,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)

	n, err := NewTelegramNotifier(config.TelegramConfig{BotToken: "1:abc", ChatID: 42}, bot.WithServerURL(srv.URL))
	require.NoError(t, err)
	require.NoError(t, n.NotifyLead(context.Background(), testLead))
	assert.Equal(t, "42", chatID)
	assert.Contains(t, text, "Scaling support")

	_, err = NewTelegramNotifier(config.TelegramConfig{}, bot.WithServerURL(srv.URL))
	require.Error(t, err)
}
