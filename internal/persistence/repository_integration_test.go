//go:build integration

package persistence

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Service: "test", Output: io.Discard})
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("chatbot"),
		tcPostgres.WithUsername("chatbot"),
		tcPostgres.WithPassword("chatbot"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := Connect(ctx, config.DatabaseConfig{
		URL:            fmt.Sprintf("postgres://chatbot:chatbot@%s:%s/chatbot?sslmode=disable", host, port.Port()),
		MaxConnections: 4,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrations := NewMigrationManager(pool, newTestLogger())
	require.NoError(t, migrations.RunMigrations())
	require.NoError(t, migrations.RunMigrations(), "second run is a no-op")
	version, dirty, err := migrations.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, migrations.Close())

	return NewRepository(pool, newTestLogger())
}

func TestRepositoryConversationFlow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	v, err := repo.CreateVisitor(ctx, store.NewVisitor{IPAddress: "203.0.113.9", Geo: store.Geo{Country: "CA"}})
	require.NoError(t, err)
	assert.Equal(t, "CA", v.Geo.Country)
	assert.Equal(t, "unknown", v.Geo.City)

	found, err := repo.FindVisitor(ctx, "203.0.113.9", "")
	require.NoError(t, err)
	assert.Equal(t, v.ID, found.ID)

	touched, err := repo.TouchVisitor(ctx, v.ID, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, touched.TotalConversations)
	assert.Equal(t, "fp-1", touched.Fingerprint)

	_, err = repo.FindVisitor(ctx, "198.51.100.2", "")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.SaveMemory(ctx, v.ID, []byte(`{"core_memory":{}}`), store.Contact{Company: "Acme"}))
	got, err := repo.GetVisitor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Contact.Company)
	assert.JSONEq(t, `{"core_memory":{}}`, string(got.MemoryState))

	conv, err := repo.OpenConversation(ctx, v.ID)
	require.NoError(t, err)
	again, err := repo.OpenConversation(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	now := time.Now().UTC()
	conv.MessageCount = 2
	conv.TotalTokens = 12
	conv.Transcript = append(conv.Transcript,
		store.TranscriptEntry{Role: store.RoleUser, Content: "hi", Timestamp: now},
		store.TranscriptEntry{Role: store.RoleAssistant, Content: "hello", Timestamp: now},
	)
	conv.Challenges = append(conv.Challenges, "Scaling support")
	require.NoError(t, repo.RecordTurn(ctx, conv,
		store.Message{Role: store.RoleUser, Content: "hi", Tokens: 1},
		store.Message{Role: store.RoleAssistant, Content: "hello", Tokens: 11},
	))

	require.NoError(t, repo.MarkEmailSent(ctx, conv.ID, now))
	require.NoError(t, repo.CloseConversation(ctx, conv.ID, store.EndReasonEmailCaptured, now))
	require.NoError(t, repo.CloseConversation(ctx, conv.ID, store.EndReasonMaxRounds, now))

	stored, err := repo.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.MessageCount)
	assert.Equal(t, 12, stored.TotalTokens)
	assert.Len(t, stored.Transcript, 2)
	assert.Equal(t, []string{"Scaling support"}, stored.Challenges)
	assert.True(t, stored.EmailSent)
	assert.Equal(t, store.EndReasonEmailCaptured, stored.EndReason)

	_, err = repo.FindOpenConversation(ctx, v.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.LogEmail(ctx, store.EmailLog{
		VisitorID:      v.ID,
		ConversationID: conv.ID,
		Recipient:      "jane@example.com",
		EmailType:      "lead",
		Status:         store.EmailStatusSent,
	}))
}

func TestRepositoryCatalog(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.ImportCatalog(ctx,
		[]store.KnowledgeArticle{
			{ID: "kb-1", Title: "Customer support automation", Summary: "Deflect tickets with AI agents"},
			{ID: "kb-2", Title: "Data strategy", Summary: "Build a modern data platform"},
		},
		[]store.Service{
			{ID: "svc-1", Name: "AI Agents", Category: "ai", Keywords: "chatbot, support_desk", IsActive: true, UsageCount: 3},
			{ID: "svc-2", Name: "Data Platform", Category: "data", TypicalChallenges: "siloed data", IsActive: true, UsageCount: 8},
		},
	))

	articles, err := repo.SearchKnowledge(ctx, []string{"tickets", "automation"}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, articles)
	assert.Equal(t, "kb-1", articles[0].ID)

	services, err := repo.SearchServices(ctx, store.ServiceFilter{})
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "svc-2", services[0].ID)

	services, err = repo.SearchServices(ctx, store.ServiceFilter{Query: "support_"})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "svc-1", services[0].ID)
}
