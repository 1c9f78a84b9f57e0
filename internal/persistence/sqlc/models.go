package sqlc

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Visitor struct {
	ID                 pgtype.UUID        `json:"id"`
	IpAddress          string             `json:"ip_address"`
	Fingerprint        string             `json:"fingerprint"`
	Country            string             `json:"country"`
	City               string             `json:"city"`
	Region             string             `json:"region"`
	Timezone           string             `json:"timezone"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Company            string             `json:"company"`
	Role               string             `json:"role"`
	Preferences        []byte             `json:"preferences"`
	MemoryState        pgtype.Text        `json:"memory_state"`
	TotalConversations int32              `json:"total_conversations"`
	FirstSeen          pgtype.Timestamptz `json:"first_seen"`
	LastSeen           pgtype.Timestamptz `json:"last_seen"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

type Conversation struct {
	ID                   pgtype.UUID        `json:"id"`
	VisitorID            pgtype.UUID        `json:"visitor_id"`
	MessageCount         int32              `json:"message_count"`
	TotalTokens          int32              `json:"total_tokens"`
	FullTranscript       []byte             `json:"full_transcript"`
	IdentifiedChallenges []byte             `json:"identified_challenges"`
	EmailSent            bool               `json:"email_sent"`
	EmailSentAt          pgtype.Timestamptz `json:"email_sent_at"`
	Summary              string             `json:"summary"`
	EndReason            string             `json:"end_reason"`
	StartedAt            pgtype.Timestamptz `json:"started_at"`
	EndedAt              pgtype.Timestamptz `json:"ended_at"`
}

type KnowledgeBase struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

type Service struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Description       string `json:"description"`
	Keywords          string `json:"keywords"`
	TypicalChallenges string `json:"typical_challenges"`
	IsActive          bool   `json:"is_active"`
	UsageCount        int32  `json:"usage_count"`
}
