package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const visitorColumns = `id, ip_address, fingerprint, country, city, region, timezone, name, email, company, role,
       preferences, memory_state, total_conversations, first_seen, last_seen, created_at, updated_at`

func scanVisitor(row interface{ Scan(...any) error }) (Visitor, error) {
	var i Visitor
	err := row.Scan(
		&i.ID,
		&i.IpAddress,
		&i.Fingerprint,
		&i.Country,
		&i.City,
		&i.Region,
		&i.Timezone,
		&i.Name,
		&i.Email,
		&i.Company,
		&i.Role,
		&i.Preferences,
		&i.MemoryState,
		&i.TotalConversations,
		&i.FirstSeen,
		&i.LastSeen,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findVisitor = `-- name: FindVisitor :one
SELECT ` + visitorColumns + ` FROM visitors
WHERE ip_address = $1 OR ($2::text <> '' AND fingerprint = $2::text)
ORDER BY last_seen DESC
LIMIT 1
`

type FindVisitorParams struct {
	IpAddress   string `json:"ip_address"`
	Fingerprint string `json:"fingerprint"`
}

func (q *Queries) FindVisitor(ctx context.Context, arg FindVisitorParams) (Visitor, error) {
	return scanVisitor(q.db.QueryRow(ctx, findVisitor, arg.IpAddress, arg.Fingerprint))
}

const createVisitor = `-- name: CreateVisitor :one
INSERT INTO visitors (id, ip_address, fingerprint, country, city, region, timezone)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + visitorColumns

type CreateVisitorParams struct {
	ID          pgtype.UUID `json:"id"`
	IpAddress   string      `json:"ip_address"`
	Fingerprint string      `json:"fingerprint"`
	Country     string      `json:"country"`
	City        string      `json:"city"`
	Region      string      `json:"region"`
	Timezone    string      `json:"timezone"`
}

func (q *Queries) CreateVisitor(ctx context.Context, arg CreateVisitorParams) (Visitor, error) {
	return scanVisitor(q.db.QueryRow(ctx, createVisitor,
		arg.ID,
		arg.IpAddress,
		arg.Fingerprint,
		arg.Country,
		arg.City,
		arg.Region,
		arg.Timezone,
	))
}

const touchVisitor = `-- name: TouchVisitor :one
UPDATE visitors
SET last_seen = now(),
    updated_at = now(),
    total_conversations = total_conversations + 1,
    fingerprint = CASE WHEN fingerprint = '' THEN $2::text ELSE fingerprint END
WHERE id = $1
RETURNING ` + visitorColumns

type TouchVisitorParams struct {
	ID          pgtype.UUID `json:"id"`
	Fingerprint string      `json:"fingerprint"`
}

func (q *Queries) TouchVisitor(ctx context.Context, arg TouchVisitorParams) (Visitor, error) {
	return scanVisitor(q.db.QueryRow(ctx, touchVisitor, arg.ID, arg.Fingerprint))
}

const getVisitor = `-- name: GetVisitor :one
SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1
`

func (q *Queries) GetVisitor(ctx context.Context, id pgtype.UUID) (Visitor, error) {
	return scanVisitor(q.db.QueryRow(ctx, getVisitor, id))
}

const saveVisitorMemory = `-- name: SaveVisitorMemory :execrows
UPDATE visitors
SET memory_state = $2,
    name = COALESCE(NULLIF($3::text, ''), name),
    email = COALESCE(NULLIF($4::text, ''), email),
    company = COALESCE(NULLIF($5::text, ''), company),
    role = COALESCE(NULLIF($6::text, ''), role),
    updated_at = now()
WHERE id = $1
`

type SaveVisitorMemoryParams struct {
	ID          pgtype.UUID `json:"id"`
	MemoryState pgtype.Text `json:"memory_state"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Company     string      `json:"company"`
	Role        string      `json:"role"`
}

func (q *Queries) SaveVisitorMemory(ctx context.Context, arg SaveVisitorMemoryParams) (int64, error) {
	result, err := q.db.Exec(ctx, saveVisitorMemory,
		arg.ID,
		arg.MemoryState,
		arg.Name,
		arg.Email,
		arg.Company,
		arg.Role,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const conversationColumns = `id, visitor_id, message_count, total_tokens, full_transcript, identified_challenges,
       email_sent, email_sent_at, summary, end_reason, started_at, ended_at`

func scanConversation(row interface{ Scan(...any) error }) (Conversation, error) {
	var i Conversation
	err := row.Scan(
		&i.ID,
		&i.VisitorID,
		&i.MessageCount,
		&i.TotalTokens,
		&i.FullTranscript,
		&i.IdentifiedChallenges,
		&i.EmailSent,
		&i.EmailSentAt,
		&i.Summary,
		&i.EndReason,
		&i.StartedAt,
		&i.EndedAt,
	)
	return i, err
}

const getOpenConversation = `-- name: GetOpenConversation :one
SELECT ` + conversationColumns + ` FROM conversations
WHERE visitor_id = $1 AND ended_at IS NULL
ORDER BY started_at DESC
LIMIT 1
`

func (q *Queries) GetOpenConversation(ctx context.Context, visitorID pgtype.UUID) (Conversation, error) {
	return scanConversation(q.db.QueryRow(ctx, getOpenConversation, visitorID))
}

const createConversation = `-- name: CreateConversation :one
INSERT INTO conversations (id, visitor_id)
VALUES ($1, $2)
ON CONFLICT (visitor_id) WHERE ended_at IS NULL DO NOTHING
RETURNING ` + conversationColumns

type CreateConversationParams struct {
	ID        pgtype.UUID `json:"id"`
	VisitorID pgtype.UUID `json:"visitor_id"`
}

func (q *Queries) CreateConversation(ctx context.Context, arg CreateConversationParams) (Conversation, error) {
	return scanConversation(q.db.QueryRow(ctx, createConversation, arg.ID, arg.VisitorID))
}

const getConversation = `-- name: GetConversation :one
SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1
`

func (q *Queries) GetConversation(ctx context.Context, id pgtype.UUID) (Conversation, error) {
	return scanConversation(q.db.QueryRow(ctx, getConversation, id))
}

const updateConversationTurn = `-- name: UpdateConversationTurn :execrows
UPDATE conversations
SET message_count = $2,
    total_tokens = $3,
    full_transcript = $4,
    identified_challenges = $5
WHERE id = $1
`

type UpdateConversationTurnParams struct {
	ID                   pgtype.UUID `json:"id"`
	MessageCount         int32       `json:"message_count"`
	TotalTokens          int32       `json:"total_tokens"`
	FullTranscript       []byte      `json:"full_transcript"`
	IdentifiedChallenges []byte      `json:"identified_challenges"`
}

func (q *Queries) UpdateConversationTurn(ctx context.Context, arg UpdateConversationTurnParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateConversationTurn,
		arg.ID,
		arg.MessageCount,
		arg.TotalTokens,
		arg.FullTranscript,
		arg.IdentifiedChallenges,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertMessage = `-- name: InsertMessage :exec
INSERT INTO messages (conversation_id, visitor_id, role, content, tokens, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertMessageParams struct {
	ConversationID pgtype.UUID        `json:"conversation_id"`
	VisitorID      pgtype.UUID        `json:"visitor_id"`
	Role           string             `json:"role"`
	Content        string             `json:"content"`
	Tokens         int32              `json:"tokens"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) InsertMessage(ctx context.Context, arg InsertMessageParams) error {
	_, err := q.db.Exec(ctx, insertMessage,
		arg.ConversationID,
		arg.VisitorID,
		arg.Role,
		arg.Content,
		arg.Tokens,
		arg.CreatedAt,
	)
	return err
}

const markEmailSent = `-- name: MarkEmailSent :execrows
UPDATE conversations SET email_sent = true, email_sent_at = $2 WHERE id = $1
`

type MarkEmailSentParams struct {
	ID          pgtype.UUID        `json:"id"`
	EmailSentAt pgtype.Timestamptz `json:"email_sent_at"`
}

func (q *Queries) MarkEmailSent(ctx context.Context, arg MarkEmailSentParams) (int64, error) {
	result, err := q.db.Exec(ctx, markEmailSent, arg.ID, arg.EmailSentAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const saveSummary = `-- name: SaveSummary :execrows
UPDATE conversations SET summary = $2 WHERE id = $1
`

type SaveSummaryParams struct {
	ID      pgtype.UUID `json:"id"`
	Summary string      `json:"summary"`
}

func (q *Queries) SaveSummary(ctx context.Context, arg SaveSummaryParams) (int64, error) {
	result, err := q.db.Exec(ctx, saveSummary, arg.ID, arg.Summary)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const closeConversation = `-- name: CloseConversation :execrows
UPDATE conversations SET ended_at = $3, end_reason = $2
WHERE id = $1 AND ended_at IS NULL
`

type CloseConversationParams struct {
	ID        pgtype.UUID        `json:"id"`
	EndReason string             `json:"end_reason"`
	EndedAt   pgtype.Timestamptz `json:"ended_at"`
}

func (q *Queries) CloseConversation(ctx context.Context, arg CloseConversationParams) (int64, error) {
	result, err := q.db.Exec(ctx, closeConversation, arg.ID, arg.EndReason, arg.EndedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertEmailLog = `-- name: InsertEmailLog :exec
INSERT INTO email_log (visitor_id, conversation_id, recipient, email_type, subject, status, error, provider_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertEmailLogParams struct {
	VisitorID      pgtype.UUID `json:"visitor_id"`
	ConversationID pgtype.UUID `json:"conversation_id"`
	Recipient      string      `json:"recipient"`
	EmailType      string      `json:"email_type"`
	Subject        string      `json:"subject"`
	Status         string      `json:"status"`
	Error          string      `json:"error"`
	ProviderID     string      `json:"provider_id"`
}

func (q *Queries) InsertEmailLog(ctx context.Context, arg InsertEmailLogParams) error {
	_, err := q.db.Exec(ctx, insertEmailLog,
		arg.VisitorID,
		arg.ConversationID,
		arg.Recipient,
		arg.EmailType,
		arg.Subject,
		arg.Status,
		arg.Error,
		arg.ProviderID,
	)
	return err
}

const searchServices = `-- name: SearchServices :many
SELECT id, name, category, description, keywords, typical_challenges, is_active, usage_count
FROM services
WHERE is_active
  AND ($1::text = '' OR category = $1::text)
  AND ($2::text = ''
       OR keywords ILIKE '%' || $2::text || '%'
       OR typical_challenges ILIKE '%' || $2::text || '%'
       OR description ILIKE '%' || $2::text || '%')
ORDER BY usage_count DESC, name
LIMIT $3
`

type SearchServicesParams struct {
	Category string `json:"category"`
	Pattern  string `json:"pattern"`
	Limit    int32  `json:"limit"`
}

func (q *Queries) SearchServices(ctx context.Context, arg SearchServicesParams) ([]Service, error) {
	rows, err := q.db.Query(ctx, searchServices, arg.Category, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Service
	for rows.Next() {
		var i Service
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.Description,
			&i.Keywords,
			&i.TypicalChallenges,
			&i.IsActive,
			&i.UsageCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const searchKnowledge = `-- name: SearchKnowledge :many
SELECT id, title, content, summary, category
FROM knowledge_base, websearch_to_tsquery('english', $1) AS query
WHERE search_vector @@ query
ORDER BY ts_rank(search_vector, query) DESC
LIMIT $2
`

type SearchKnowledgeParams struct {
	Query string `json:"query"`
	Limit int32  `json:"limit"`
}

func (q *Queries) SearchKnowledge(ctx context.Context, arg SearchKnowledgeParams) ([]KnowledgeBase, error) {
	rows, err := q.db.Query(ctx, searchKnowledge, arg.Query, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []KnowledgeBase
	for rows.Next() {
		var i KnowledgeBase
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Content,
			&i.Summary,
			&i.Category,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertKnowledge = `-- name: UpsertKnowledge :exec
INSERT INTO knowledge_base (id, title, content, summary, category)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title,
    content = EXCLUDED.content,
    summary = EXCLUDED.summary,
    category = EXCLUDED.category,
    updated_at = now()
`

type UpsertKnowledgeParams struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

func (q *Queries) UpsertKnowledge(ctx context.Context, arg UpsertKnowledgeParams) error {
	_, err := q.db.Exec(ctx, upsertKnowledge,
		arg.ID,
		arg.Title,
		arg.Content,
		arg.Summary,
		arg.Category,
	)
	return err
}

const upsertService = `-- name: UpsertService :exec
INSERT INTO services (id, name, category, description, keywords, typical_challenges, is_active, usage_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    category = EXCLUDED.category,
    description = EXCLUDED.description,
    keywords = EXCLUDED.keywords,
    typical_challenges = EXCLUDED.typical_challenges,
    is_active = EXCLUDED.is_active
`

type UpsertServiceParams struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Description       string `json:"description"`
	Keywords          string `json:"keywords"`
	TypicalChallenges string `json:"typical_challenges"`
	IsActive          bool   `json:"is_active"`
	UsageCount        int32  `json:"usage_count"`
}

func (q *Queries) UpsertService(ctx context.Context, arg UpsertServiceParams) error {
	_, err := q.db.Exec(ctx, upsertService,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Description,
		arg.Keywords,
		arg.TypicalChallenges,
		arg.IsActive,
		arg.UsageCount,
	)
	return err
}
