package store

import (
	"context"
	"errors"
	"time"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store persists visitors, conversations and the lead email log, and serves
// the services catalog.
type Store interface {
	// FindVisitor returns the most recently seen visitor matching ip, or
	// fingerprint when it is non-empty.
	FindVisitor(ctx context.Context, ip, fingerprint string) (*Visitor, error)
	CreateVisitor(ctx context.Context, v NewVisitor) (*Visitor, error)
	// TouchVisitor bumps last_seen and total_conversations, and fills in the
	// fingerprint when none is stored.
	TouchVisitor(ctx context.Context, id prefixed_uuid.PrefixedUUID, fingerprint string) (*Visitor, error)
	GetVisitor(ctx context.Context, id prefixed_uuid.PrefixedUUID) (*Visitor, error)
	// SaveMemory stores the memory blob and copies every non-empty contact
	// field onto the visitor columns.
	SaveMemory(ctx context.Context, id prefixed_uuid.PrefixedUUID, state []byte, contact Contact) error

	// OpenConversation returns the visitor's open conversation, creating one when none exists.
	OpenConversation(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*Conversation, error)
	// FindOpenConversation is OpenConversation without the create.
	FindOpenConversation(ctx context.Context, visitorID prefixed_uuid.PrefixedUUID) (*Conversation, error)
	GetConversation(ctx context.Context, id prefixed_uuid.PrefixedUUID) (*Conversation, error)
	// RecordTurn appends msgs to the messages log and saves the counters,
	// transcript and challenges of conv.
	RecordTurn(ctx context.Context, conv *Conversation, msgs ...Message) error
	MarkEmailSent(ctx context.Context, id prefixed_uuid.PrefixedUUID, at time.Time) error
	SaveSummary(ctx context.Context, id prefixed_uuid.PrefixedUUID, summary string) error
	CloseConversation(ctx context.Context, id prefixed_uuid.PrefixedUUID, reason string, at time.Time) error

	LogEmail(ctx context.Context, entry EmailLog) error

	SearchServices(ctx context.Context, filter ServiceFilter) ([]Service, error)
	SearchKnowledge(ctx context.Context, terms []string, limit int) ([]KnowledgeArticle, error)
	ImportCatalog(ctx context.Context, articles []KnowledgeArticle, services []Service) error
}
