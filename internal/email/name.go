package email

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
)

const namePattern = `([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`

// Patterns are tried in order against every user message. The cue words
// match in any case; the name itself must be capitalised.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:my name is|i'm|i am|this is|call me)\s+` + namePattern),
	regexp.MustCompile(`^` + namePattern + `\s+(?i:here)`),
	regexp.MustCompile(`(?i:regards|sincerely|best|thanks),?\s*` + namePattern),
	regexp.MustCompile(`^` + namePattern + `[,\s]`),
}

// Capitalised words that commonly open a message without being a name.
var notNames = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "thanks": {}, "thank": {}, "yes": {}, "no": {}, "we": {},
	"our": {}, "my": {}, "the": {}, "we're": {}, "it": {}, "its": {}, "this": {}, "that": {},
	"what": {}, "how": {}, "can": {}, "sure": {}, "ok": {}, "okay": {}, "well": {}, "just": {},
	"good": {}, "great": {}, "morning": {}, "sorry": {}, "please": {}, "currently": {},
}

func plausibleName(name string) bool {
	if len(name) < 2 || len(name) >= 50 || strings.Contains(name, "@") {
		return false
	}
	first := strings.ToLower(strings.Fields(name)[0])
	_, common := notNames[first]
	return !common
}

// DisplayNameFromTranscript finds a name the visitor gave for themselves, or
// returns "".
func DisplayNameFromTranscript(transcript []store.TranscriptEntry) string {
	for _, entry := range transcript {
		if entry.Role != store.RoleUser {
			continue
		}
		for _, p := range namePatterns {
			m := p.FindStringSubmatch(entry.Content)
			if m == nil {
				continue
			}
			if name := strings.TrimSpace(m[1]); plausibleName(name) {
				return name
			}
		}
	}
	return ""
}

// NameFromEmail guesses a display name from the local part of an address,
// e.g. "jane.doe23@example.com" gives "Jane Doe". It returns "" when
// nothing usable remains.
func NameFromEmail(address string) string {
	local, _, _ := strings.Cut(address, "@")

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r):
			return -1
		case r == '.' || r == '_' || r == '-':
			return ' '
		}
		return r
	}, local)

	parts := strings.Fields(cleaned)
	if len(strings.Join(parts, " ")) < 2 {
		return ""
	}
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
