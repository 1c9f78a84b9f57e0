// Package store defines the domain records of the chatbot and the Store
// interface the agent and HTTP handlers persist them through.
package store

import (
	"encoding/json"
	"time"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

const (
	VisitorPrefix      = "vis"
	ConversationPrefix = "conv"
)

// NewVisitorID returns a fresh visitor identifier.
func NewVisitorID() prefixed_uuid.PrefixedUUID { return prefixed_uuid.New(VisitorPrefix) }

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() prefixed_uuid.PrefixedUUID { return prefixed_uuid.New(ConversationPrefix) }

// ParseVisitorID parses a "vis-<uuid>" identifier.
func ParseVisitorID(s string) (prefixed_uuid.PrefixedUUID, error) {
	return prefixed_uuid.Parse(VisitorPrefix, s)
}

// Reasons a conversation was closed.
const (
	EndReasonEmailCaptured = "email_captured"
	EndReasonMaxRounds     = "max_rounds"
	EndReasonTokenLimit    = "token_limit"
	EndReasonMemoryReset   = "memory_reset"
	EndReasonManualEmail   = "manual_email"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Email log statuses.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// Geo holds the location attributes supplied by the edge proxy.
type Geo struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Timezone string `json:"timezone"`
}

// Contact holds the optional contact columns of a visitor.
type Contact struct {
	Name    string
	Email   string
	Company string
	Role    string
}

// Visitor is a site visitor identified by IP address or fingerprint.
type Visitor struct {
	ID                 prefixed_uuid.PrefixedUUID
	IPAddress          string
	Fingerprint        string
	Geo                Geo
	Contact            Contact
	Preferences        json.RawMessage
	MemoryState        []byte
	TotalConversations int
	FirstSeen          time.Time
	LastSeen           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewVisitor holds the attributes of a first contact.
type NewVisitor struct {
	IPAddress   string
	Fingerprint string
	Geo         Geo
}

// TranscriptEntry is one message of a conversation transcript.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a run of turns between a visitor and the agent. A visitor
// has at most one open conversation.
type Conversation struct {
	ID           prefixed_uuid.PrefixedUUID
	VisitorID    prefixed_uuid.PrefixedUUID
	MessageCount int
	TotalTokens  int
	Transcript   []TranscriptEntry
	Challenges   []string
	EmailSent    bool
	EmailSentAt  *time.Time
	Summary      string
	EndReason    string
	StartedAt    time.Time
	EndedAt      *time.Time
}

// IsOpen reports whether the conversation has not been closed.
func (c *Conversation) IsOpen() bool { return c.EndedAt == nil }

// Message is a row of the messages log.
type Message struct {
	Role      string
	Content   string
	Tokens    int
	CreatedAt time.Time
}

// KnowledgeArticle is a knowledge base entry offered to the model as context.
type KnowledgeArticle struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Content  string `json:"content" yaml:"content"`
	Summary  string `json:"summary" yaml:"summary"`
	Category string `json:"category" yaml:"category"`
}

// Service is a consulting offering recommended from identified challenges.
type Service struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	Category          string `json:"category" yaml:"category"`
	Description       string `json:"description" yaml:"description"`
	Keywords          string `json:"keywords" yaml:"keywords"`
	TypicalChallenges string `json:"typical_challenges" yaml:"typical_challenges"`
	IsActive          bool   `json:"is_active" yaml:"is_active"`
	UsageCount        int    `json:"usage_count" yaml:"usage_count"`
}

// ServiceFilter narrows a service search. Zero fields match everything.
type ServiceFilter struct {
	Query    string
	Category string
	Limit    int
}

// EmailLog records one lead email attempt.
type EmailLog struct {
	VisitorID      prefixed_uuid.PrefixedUUID
	ConversationID prefixed_uuid.PrefixedUUID
	Recipient      string
	EmailType      string
	Subject        string
	Status         string
	Error          string
	ProviderID     string
	CreatedAt      time.Time
}
