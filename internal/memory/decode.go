package memory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Decode parses a stored memory blob, repairing fields of the wrong shape.
// It always returns a usable memory: an empty blob yields the default and an
// unparsable one yields the default together with an error the caller should log.
func Decode(data []byte) (*Memory, error) {
	m := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return m, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return m, fmt.Errorf("unparsable memory blob, using defaults: %w", err)
	}

	if core, ok := raw["core_memory"].(map[string]any); ok {
		c := &m.CoreMemory
		setString(&c.UserName, core, "user_name")
		setString(&c.Email, core, "email")
		setString(&c.Company, core, "company")
		setString(&c.Role, core, "role")
		setString(&c.Relationship, core, "relationship")
		setString(&c.PersonalityNotes, core, "personality_notes")
		if v, ok := core["important_facts"]; ok {
			c.ImportantFacts = asStringList(v)
		}
	}

	setString(&m.ConversationSummary, raw, "conversation_summary")
	if v, ok := raw["recent_topics"]; ok {
		m.RecentTopics = asStringList(v)
	}
	if v, ok := raw["identified_challenges"]; ok {
		m.IdentifiedChallenges = asStringList(v)
	}
	if prefs, ok := raw["user_preferences"].(map[string]any); ok {
		m.UserPreferences = fromAny(prefs).obj
	}
	m.InteractionCount = asInt(raw["interaction_count"])
	m.LastInteraction = asTime(raw["last_interaction"])

	m.normalize()
	return m, nil
}

// setString assigns the stringified value of key when it is present and non-null.
func setString(dst *string, obj map[string]any, key string) {
	v, ok := obj[key]
	if !ok || v == nil {
		return
	}
	*dst = stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// asStringList keeps the string items of a list. Anything that is not a list becomes empty.
func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

func asTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
