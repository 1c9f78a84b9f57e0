package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	FindVisitor(ctx context.Context, arg FindVisitorParams) (Visitor, error)
	CreateVisitor(ctx context.Context, arg CreateVisitorParams) (Visitor, error)
	TouchVisitor(ctx context.Context, arg TouchVisitorParams) (Visitor, error)
	GetVisitor(ctx context.Context, id pgtype.UUID) (Visitor, error)
	SaveVisitorMemory(ctx context.Context, arg SaveVisitorMemoryParams) (int64, error)
	GetOpenConversation(ctx context.Context, visitorID pgtype.UUID) (Conversation, error)
	CreateConversation(ctx context.Context, arg CreateConversationParams) (Conversation, error)
	GetConversation(ctx context.Context, id pgtype.UUID) (Conversation, error)
	UpdateConversationTurn(ctx context.Context, arg UpdateConversationTurnParams) (int64, error)
	InsertMessage(ctx context.Context, arg InsertMessageParams) error
	MarkEmailSent(ctx context.Context, arg MarkEmailSentParams) (int64, error)
	SaveSummary(ctx context.Context, arg SaveSummaryParams) (int64, error)
	CloseConversation(ctx context.Context, arg CloseConversationParams) (int64, error)
	InsertEmailLog(ctx context.Context, arg InsertEmailLogParams) error
	SearchServices(ctx context.Context, arg SearchServicesParams) ([]Service, error)
	SearchKnowledge(ctx context.Context, arg SearchKnowledgeParams) ([]KnowledgeBase, error)
	UpsertKnowledge(ctx context.Context, arg UpsertKnowledgeParams) error
	UpsertService(ctx context.Context, arg UpsertServiceParams) error
}

var _ Querier = (*Queries)(nil)
