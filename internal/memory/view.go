package memory

import (
	"encoding/json"
	"fmt"
	"strings"
)

const recentTopicsShown = 5

const instructions = `=== MEMORY INSTRUCTIONS ===
You can update memory by including [MEMORY_UPDATE: key=value] commands in your response.
Examples:
- [MEMORY_UPDATE: core_memory.user_name=John]
- [MEMORY_UPDATE: core_memory.company=TechCorp]
- [MEMORY_UPDATE: core_memory.important_facts=[Needs AI for customer service]]
- [MEMORY_UPDATE: identified_challenges=[Scaling customer support]]
- [MEMORY_UPDATE: user_preferences.contact_method=email]

These commands will be hidden from the user.`

// View renders the memory for inclusion in the system prompt.
func View(m *Memory, messageCount int) string {
	if m == nil {
		m = Default()
	}
	c := m.CoreMemory

	var b strings.Builder
	b.WriteString("=== CURRENT MEMORY STATE ===\n")
	b.WriteString("Core Memory:\n")
	fmt.Fprintf(&b, "- User Name: %s\n", or(c.UserName, "Unknown"))
	fmt.Fprintf(&b, "- Email: %s\n", or(c.Email, "Not provided"))
	fmt.Fprintf(&b, "- Company: %s\n", or(c.Company, "Not provided"))
	fmt.Fprintf(&b, "- Role: %s\n", or(c.Role, "Not provided"))
	fmt.Fprintf(&b, "- Relationship: %s\n", or(c.Relationship, DefaultRelationship))
	fmt.Fprintf(&b, "- Personality Notes: %s\n", or(c.PersonalityNotes, "None yet"))
	fmt.Fprintf(&b, "- Important Facts: %s\n", or(strings.Join(c.ImportantFacts, ", "), "None yet"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Conversation Summary: %s\n", or(m.ConversationSummary, "First conversation"))
	fmt.Fprintf(&b, "Recent Topics: %s\n", or(strings.Join(lastN(m.RecentTopics, recentTopicsShown), ", "), "None"))
	fmt.Fprintf(&b, "Identified Challenges: %s\n", or(strings.Join(m.IdentifiedChallenges, ", "), "None identified"))
	fmt.Fprintf(&b, "User Preferences: %s\n", preferencesText(m.UserPreferences))
	fmt.Fprintf(&b, "Interaction Count: %d\n", m.InteractionCount)
	fmt.Fprintf(&b, "Message Count in Current Conversation: %d\n", messageCount)
	b.WriteString("\n")
	b.WriteString(instructions)
	return b.String()
}

func or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func preferencesText(prefs map[string]Value) string {
	if len(prefs) == 0 {
		return "None"
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return "None"
	}
	return string(data)
}
