package memory

import (
	"regexp"
	"strings"
)

var directivePattern = regexp.MustCompile(`\[MEMORY_UPDATE:\s*([^=\]]+?)\s*=\s*(\[[^\]]*\]|[^\]]*?)\s*\]`)

// ExtractDirectives returns the memory edits embedded in text and the text with
// every directive removed and surrounding whitespace trimmed.
func ExtractDirectives(text string) ([]Edit, string) {
	matches := directivePattern.FindAllStringSubmatch(text, -1)
	edits := make([]Edit, 0, len(matches))
	for _, m := range matches {
		edits = append(edits, Edit{
			Key:   strings.TrimSpace(m[1]),
			Value: strings.TrimSpace(m[2]),
		})
	}
	if len(matches) == 0 {
		return edits, strings.TrimSpace(text)
	}
	return edits, strings.TrimSpace(directivePattern.ReplaceAllString(text, ""))
}
