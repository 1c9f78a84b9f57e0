package knowledge

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
)

// MaxKeyTopics is the number of topics GenerateSummary lists.
const MaxKeyTopics = 5

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "was": {},
	"are": {}, "were": {}, "been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {},
	"shall": {}, "can": {}, "need": {}, "i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {},
	"your": {}, "it": {}, "its": {}, "they": {}, "them": {}, "their": {}, "this": {}, "that": {},
	"these": {}, "those": {},
}

// KeyTopics returns up to n of the most frequent words longer than three
// characters in text, ignoring common words. Ties keep first-occurrence order.
func KeyTopics(text string, n int) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	counts := make(map[string]int)
	order := []string{}
	for _, word := range words {
		if len([]rune(word)) <= 3 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// GenerateSummary describes a conversation for the sales team from its
// transcript, challenges and token total.
func GenerateSummary(transcript []store.TranscriptEntry, challenges []string, totalTokens int) string {
	userText := make([]string, 0, len(transcript))
	for _, entry := range transcript {
		if entry.Role == store.RoleUser {
			userText = append(userText, entry.Content)
		}
	}
	topics := KeyTopics(strings.Join(userText, " "), MaxKeyTopics)

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation Summary (%d messages, %d tokens):\n\n", len(transcript), totalTokens)

	if len(topics) > 0 {
		fmt.Fprintf(&b, "Topics Discussed: %s\n\n", strings.Join(topics, ", "))
	}

	if len(challenges) > 0 {
		b.WriteString("Identified Challenges:\n")
		for _, c := range challenges {
			fmt.Fprintf(&b, "• %s\n", c)
		}
		b.WriteString("\n")
	}

	focus := "business optimization"
	if len(challenges) > 0 {
		focus = challenges[0]
	}
	b.WriteString("The visitor engaged in a productive conversation about their business needs. ")
	fmt.Fprintf(&b, "They showed interest in solutions for %s.", focus)
	return b.String()
}
