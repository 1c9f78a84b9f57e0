// Package persistence implements store.Store on PostgreSQL.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/lead_capture_chatbot/internal/persistence/sqlc"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

const unknownGeo = "unknown"

// Repository is the PostgreSQL store.
type Repository struct {
	db      *pgxpool.Pool
	queries *sqlc.Queries
	logger  logger.Logger
}

var _ store.Store = (*Repository)(nil)

// NewRepository creates a repository on pool.
func NewRepository(db *pgxpool.Pool, logger logger.Logger) *Repository {
	return &Repository{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger,
	}
}

// WithTx creates a new repository instance with a transaction
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{
		db:      r.db,
		queries: r.queries.WithTx(tx),
		logger:  r.logger,
	}
}

func pgUUID(id prefixed_uuid.PrefixedUUID) pgtype.UUID {
	if id.IsZero() {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id.UUID, Valid: true}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownGeo
	}
	return s
}

func toVisitor(v sqlc.Visitor) *store.Visitor {
	out := &store.Visitor{
		ID:          prefixed_uuid.FromUUID(store.VisitorPrefix, uuid.UUID(v.ID.Bytes)),
		IPAddress:   v.IpAddress,
		Fingerprint: v.Fingerprint,
		Geo: store.Geo{
			Country:  v.Country,
			City:     v.City,
			Region:   v.Region,
			Timezone: v.Timezone,
		},
		Contact: store.Contact{
			Name:    v.Name,
			Email:   v.Email,
			Company: v.Company,
			Role:    v.Role,
		},
		Preferences:        json.RawMessage(v.Preferences),
		TotalConversations: int(v.TotalConversations),
		FirstSeen:          v.FirstSeen.Time.UTC(),
		LastSeen:           v.LastSeen.Time.UTC(),
		CreatedAt:          v.CreatedAt.Time.UTC(),
		UpdatedAt:          v.UpdatedAt.Time.UTC(),
	}
	if v.MemoryState.Valid {
		out.MemoryState = []byte(v.MemoryState.String)
	}
	return out
}

func toConversation(c sqlc.Conversation) (*store.Conversation, error) {
	out := &store.Conversation{
		ID:           prefixed_uuid.FromUUID(store.ConversationPrefix, uuid.UUID(c.ID.Bytes)),
		VisitorID:    prefixed_uuid.FromUUID(store.VisitorPrefix, uuid.UUID(c.VisitorID.Bytes)),
		MessageCount: int(c.MessageCount),
		TotalTokens:  int(c.TotalTokens),
		Transcript:   []store.TranscriptEntry{},
		Challenges:   []string{},
		EmailSent:    c.EmailSent,
		EmailSentAt:  timePtr(c.EmailSentAt),
		Summary:      c.Summary,
		EndReason:    c.EndReason,
		StartedAt:    c.StartedAt.Time.UTC(),
		EndedAt:      timePtr(c.EndedAt),
	}
	if len(c.FullTranscript) > 0 {
		if err := json.Unmarshal(c.FullTranscript, &out.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
	}
	if len(c.IdentifiedChallenges) > 0 {
		if err := json.Unmarshal(c.IdentifiedChallenges, &out.Challenges); err != nil {
			return nil, fmt.Errorf("decode challenges: %w", err)
		}
	}
	return out, nil
}

func (r *Repository) FindVisitor(ctx context.Context, ip, fingerprint string) (*store.Visitor, error) {
	v, err := r.queries.FindVisitor(ctx, sqlc.FindVisitorParams{IpAddress: ip, Fingerprint: fingerprint})
	if err != nil {
		return nil, fmt.Errorf("find visitor: %w", notFound(err))
	}
	return toVisitor(v), nil
}

func (r *Repository) CreateVisitor(ctx context.Context, nv store.NewVisitor) (*store.Visitor, error) {
	v, err := r.queries.CreateVisitor(ctx, sqlc.CreateVisitorParams{
		ID:          pgUUID(store.NewVisitorID()),
		IpAddress:   nv.IPAddress,
		Fingerprint: nv.Fingerprint,
		Country:     orUnknown(nv.Geo.Country),
		City:        orUnknown(nv.Geo.City),
		Region:      orUnknown(nv.Geo.Region),
		Timezone:    orUnknown(nv.Geo.Timezone),
	})
	if err != nil {
		r.logger.Error("failed to create visitor", logger.ErrorField(err), logger.ClientIPField(nv.IPAddress))
		return nil, fmt.Errorf("create visitor: %w", err)
	}
	return toVisitor(v), nil
}

func (r *Repository) TouchVisitor(ctx context.Context, id prefixed_uuid.PrefixedUUID, fingerprint string) (*store.Visitor, error) {
	v, err := r.queries.TouchVisitor(ctx, sqlc.TouchVisitorParams{ID: pgUUID(id), Fingerprint: fingerprint})
	if err != nil {
		return nil, fmt.Errorf("touch visitor: %w", notFound(err))
	}
	return toVisitor(v), nil
}

func (r *Repository) GetVisitor(ctx context.Context, id prefixed_uuid.PrefixedUUID) (*store.Visitor, error) {
	v, err := r.queries.GetVisitor(ctx, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("get visitor: %w", notFound(err))
	}
	return toVisitor(v), nil
}

func (r *Repository) SaveMemory(ctx context.Context, id prefixed_uuid.PrefixedUUID, state []byte, contact store.Contact) error {
	n, err := r.queries.SaveVisitorMemory(ctx, sqlc.SaveVisitorMemoryParams{
		ID:          pgUUID(id),
		MemoryState: pgtype.Text{String: string(state), Valid: true},
		Name:        contact.Name,
		Email:       contact.Email,
		Company:     contact.Company,
		Role:        contact.Role,
	})
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save memory: %w", store.ErrNotFound)
	}
	return nil
}

// OpenConversation relies on the partial unique index on open conversations:
// when a concurrent insert wins, the existing row is read back.
func (r *Repository) OpenConversation(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*store.Conversation, error) {
	c, err := r.queries.GetOpenConversation(ctx, pgUUID(visitorID))
	if err == nil {
		return toConversation(c)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get open conversation: %w", err)
	}

	c, err = r.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		ID:        pgUUID(store.NewConversationID()),
		VisitorID: pgUUID(visitorID),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		c, err = r.queries.GetOpenConversation(ctx, pgUUID(visitorID))
	}
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", notFound(err))
	}
	return toConversation(c)
}

func (r *Repository) FindOpenConversation(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*store.Conversation, error) {
	c, err := r.queries.GetOpenConversation(ctx, pgUUID(visitorID))
	if err != nil {
		return nil, fmt.Errorf("get open conversation: %w", notFound(err))
	}
	return toConversation(c)
}

func (r *Repository) GetConversation(ctx context.Context, id prefixed_uuid.PrefixedUUID) (*store.Conversation, error) {
	c, err := r.queries.GetConversation(ctx, pgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", notFound(err))
	}
	return toConversation(c)
}

// RecordTurn writes the messages and the conversation counters in one transaction.
func (r *Repository) RecordTurn(ctx context.Context, conv *store.Conversation, msgs ...store.Message) error {
	transcript, err := json.Marshal(nonNilTranscript(conv.Transcript))
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	challenges, err := json.Marshal(nonNilStrings(conv.Challenges))
	if err != nil {
		return fmt.Errorf("encode challenges: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	q := r.queries.WithTx(tx)

	for _, m := range msgs {
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if err := q.InsertMessage(ctx, sqlc.InsertMessageParams{
			ConversationID: pgUUID(conv.ID),
			VisitorID:      pgUUID(conv.VisitorID),
			Role:           m.Role,
			Content:        m.Content,
			Tokens:         int32(m.Tokens), //nolint:gosec // G115: token estimates are small
			CreatedAt:      pgTime(createdAt),
		}); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	n, err := q.UpdateConversationTurn(ctx, sqlc.UpdateConversationTurnParams{
		ID:                   pgUUID(conv.ID),
		MessageCount:         int32(conv.MessageCount), //nolint:gosec // G115: bounded by the round limit
		TotalTokens:          int32(conv.TotalTokens),  //nolint:gosec // G115: bounded by the token limit
		FullTranscript:       transcript,
		IdentifiedChallenges: challenges,
	})
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update conversation: %w", store.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

func nonNilTranscript(t []store.TranscriptEntry) []store.TranscriptEntry {
	if t == nil {
		return []store.TranscriptEntry{}
	}
	return t
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *Repository) MarkEmailSent(ctx context.Context, id prefixed_uuid.PrefixedUUID, at time.Time) error {
	n, err := r.queries.MarkEmailSent(ctx, sqlc.MarkEmailSentParams{ID: pgUUID(id), EmailSentAt: pgTime(at)})
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark email sent: %w", store.ErrNotFound)
	}
	return nil
}

func (r *Repository) SaveSummary(ctx context.Context, id prefixed_uuid.PrefixedUUID, summary string) error {
	n, err := r.queries.SaveSummary(ctx, sqlc.SaveSummaryParams{ID: pgUUID(id), Summary: summary})
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save summary: %w", store.ErrNotFound)
	}
	return nil
}

// CloseConversation is a no-op for a conversation that is already closed.
func (r *Repository) CloseConversation(ctx context.Context, id prefixed_uuid.PrefixedUUID, reason string, at time.Time) error {
	n, err := r.queries.CloseConversation(ctx, sqlc.CloseConversationParams{ID: pgUUID(id), EndReason: reason, EndedAt: pgTime(at)})
	if err != nil {
		return fmt.Errorf("close conversation: %w", err)
	}
	if n == 0 {
		if _, err := r.queries.GetConversation(ctx, pgUUID(id)); err != nil {
			return fmt.Errorf("close conversation: %w", notFound(err))
		}
	}
	return nil
}

func (r *Repository) LogEmail(ctx context.Context, entry store.EmailLog) error {
	err := r.queries.InsertEmailLog(ctx, sqlc.InsertEmailLogParams{
		VisitorID:      pgUUID(entry.VisitorID),
		ConversationID: pgUUID(entry.ConversationID),
		Recipient:      entry.Recipient,
		EmailType:      entry.EmailType,
		Subject:        entry.Subject,
		Status:         entry.Status,
		Error:          entry.Error,
		ProviderID:     entry.ProviderID,
	})
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *Repository) SearchServices(ctx context.Context, filter store.ServiceFilter) ([]store.Service, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.queries.SearchServices(ctx, sqlc.SearchServicesParams{
		Category: filter.Category,
		Pattern:  likeEscaper.Replace(strings.TrimSpace(filter.Query)),
		Limit:    int32(limit), //nolint:gosec // G115: small page size
	})
	if err != nil {
		return nil, fmt.Errorf("search services: %w", err)
	}

	out := make([]store.Service, 0, len(rows))
	for _, s := range rows {
		out = append(out, store.Service{
			ID:                s.ID,
			Name:              s.Name,
			Category:          s.Category,
			Description:       s.Description,
			Keywords:          s.Keywords,
			TypicalChallenges: s.TypicalChallenges,
			IsActive:          s.IsActive,
			UsageCount:        int(s.UsageCount),
		})
	}
	return out, nil
}

// SearchKnowledge runs an OR full-text query over the knowledge base. Terms are
// joined for websearch_to_tsquery, which never fails on user input.
func (r *Repository) SearchKnowledge(ctx context.Context, terms []string, limit int) ([]store.KnowledgeArticle, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := r.queries.SearchKnowledge(ctx, sqlc.SearchKnowledgeParams{
		Query: strings.Join(terms, " or "),
		Limit: int32(limit), //nolint:gosec // G115: small page size
	})
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	out := make([]store.KnowledgeArticle, 0, len(rows))
	for _, k := range rows {
		out = append(out, store.KnowledgeArticle{
			ID:       k.ID,
			Title:    k.Title,
			Content:  k.Content,
			Summary:  k.Summary,
			Category: k.Category,
		})
	}
	return out, nil
}

// ImportCatalog upserts the catalog in one transaction.
func (r *Repository) ImportCatalog(ctx context.Context, articles []store.KnowledgeArticle, services []store.Service) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	q := r.queries.WithTx(tx)

	for _, a := range articles {
		if err := q.UpsertKnowledge(ctx, sqlc.UpsertKnowledgeParams{
			ID:       a.ID,
			Title:    a.Title,
			Content:  a.Content,
			Summary:  a.Summary,
			Category: a.Category,
		}); err != nil {
			return fmt.Errorf("upsert article %s: %w", a.ID, err)
		}
	}
	for _, s := range services {
		if err := q.UpsertService(ctx, sqlc.UpsertServiceParams{
			ID:                s.ID,
			Name:              s.Name,
			Category:          s.Category,
			Description:       s.Description,
			Keywords:          s.Keywords,
			TypicalChallenges: s.TypicalChallenges,
			IsActive:          s.IsActive,
			UsageCount:        int32(s.UsageCount), //nolint:gosec // G115: catalog counters are small
		}); err != nil {
			return fmt.Errorf("upsert service %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	r.logger.Info("Imported catalog",
		logger.IntField("articles", len(articles)),
		logger.IntField("services", len(services)),
	)
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
