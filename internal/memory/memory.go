// Package memory holds the long-term per-visitor memory that is merged into
// every prompt and edited by directives embedded in model output.
package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultRelationship is the relationship recorded for a visitor the agent has not met before.
const DefaultRelationship = "New acquaintance"

// CoreMemory holds what the agent knows about the visitor as a person.
type CoreMemory struct {
	UserName         string   `json:"user_name"`
	Email            string   `json:"email"`
	Company          string   `json:"company"`
	Role             string   `json:"role"`
	Relationship     string   `json:"relationship"`
	PersonalityNotes string   `json:"personality_notes"`
	ImportantFacts   []string `json:"important_facts"`
}

// Memory is the serialized memory_state of a visitor.
type Memory struct {
	CoreMemory           CoreMemory       `json:"core_memory"`
	ConversationSummary  string           `json:"conversation_summary"`
	RecentTopics         []string         `json:"recent_topics"`
	IdentifiedChallenges []string         `json:"identified_challenges"`
	UserPreferences      map[string]Value `json:"user_preferences"`
	InteractionCount     int              `json:"interaction_count"`
	LastInteraction      *time.Time       `json:"last_interaction"`
}

// Seed carries the visitor columns used to initialise a fresh memory.
type Seed struct {
	Name        string
	Email       string
	Company     string
	Role        string
	Preferences []byte
}

// Default returns an empty memory.
func Default() *Memory {
	m := &Memory{
		CoreMemory: CoreMemory{Relationship: DefaultRelationship},
	}
	m.normalize()
	return m
}

// New returns a default memory seeded from the visitor row. Preferences that
// are not a JSON object are ignored.
func New(seed Seed) *Memory {
	m := Default()
	m.CoreMemory.UserName = strings.TrimSpace(seed.Name)
	m.CoreMemory.Email = strings.TrimSpace(seed.Email)
	m.CoreMemory.Company = strings.TrimSpace(seed.Company)
	m.CoreMemory.Role = strings.TrimSpace(seed.Role)

	if len(seed.Preferences) > 0 {
		var prefs Value
		if err := json.Unmarshal(seed.Preferences, &prefs); err == nil && prefs.Kind() == KindObject {
			m.UserPreferences = prefs.obj
		}
	}
	return m
}

// Encode serializes the memory into its stored JSON form.
func (m *Memory) Encode() ([]byte, error) {
	m.normalize()
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode memory: %w", err)
	}
	return data, nil
}

// Touch records an interaction at now.
func (m *Memory) Touch(now time.Time) {
	m.InteractionCount++
	t := now.UTC()
	m.LastInteraction = &t
}

// normalize replaces nil collections with empty ones so the encoded form
// always carries lists and objects rather than null.
func (m *Memory) normalize() {
	if m.CoreMemory.ImportantFacts == nil {
		m.CoreMemory.ImportantFacts = []string{}
	}
	if m.RecentTopics == nil {
		m.RecentTopics = []string{}
	}
	if m.IdentifiedChallenges == nil {
		m.IdentifiedChallenges = []string{}
	}
	if m.UserPreferences == nil {
		m.UserPreferences = map[string]Value{}
	}
}
