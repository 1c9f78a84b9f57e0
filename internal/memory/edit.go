package memory

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnknownPath is returned for edits to paths outside the memory schema.
	ErrUnknownPath = errors.New("unknown memory path")
	// ErrReadOnlyPath is returned for edits to paths the agent maintains itself.
	ErrReadOnlyPath = errors.New("read-only memory path")
	// ErrInvalidValue is returned when a value cannot be stored at its path.
	ErrInvalidValue = errors.New("invalid memory value")
)

const maxPreferenceDepth = 4

var preferenceSegment = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Edit is a single key=value instruction parsed from model output.
type Edit struct {
	Key   string
	Value string
}

// Item returns the value with a surrounding list bracket removed and whitespace trimmed.
func (e Edit) Item() string {
	v := strings.TrimSpace(e.Value)
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	return v
}

type valueKind int

const (
	valueString valueKind = iota
	valueBool
	valueAppend
)

type coerced struct {
	kind valueKind
	str  string
	b    bool
}

// coerce interprets a raw directive value: true/false become booleans, [x]
// appends x to a list and anything else is a string.
func coerce(raw string) coerced {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
		b, _ := strconv.ParseBool(strings.ToLower(raw))
		return coerced{kind: valueBool, b: b}
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		return coerced{kind: valueAppend, str: strings.TrimSpace(raw[1 : len(raw)-1])}
	}
	return coerced{kind: valueString, str: raw}
}

// Apply validates e against the memory schema and applies it.
// An empty list append is a no-op.
func (m *Memory) Apply(e Edit) error {
	path := splitPath(e.Key)
	if len(path) == 0 {
		return fmt.Errorf("%w: empty key", ErrUnknownPath)
	}
	val := coerce(e.Value)
	if val.kind == valueAppend && val.str == "" {
		return nil
	}
	m.normalize()

	switch path[0] {
	case "core_memory":
		if len(path) != 2 {
			return fmt.Errorf("%w: %s", ErrReadOnlyPath, e.Key)
		}
		c := &m.CoreMemory
		switch path[1] {
		case "user_name":
			return setStringField(&c.UserName, val, e.Key)
		case "email":
			return setStringField(&c.Email, val, e.Key)
		case "company":
			return setStringField(&c.Company, val, e.Key)
		case "role":
			return setStringField(&c.Role, val, e.Key)
		case "relationship":
			return setStringField(&c.Relationship, val, e.Key)
		case "personality_notes":
			return setStringField(&c.PersonalityNotes, val, e.Key)
		case "important_facts":
			return appendListField(&c.ImportantFacts, val, e.Key)
		}
		return fmt.Errorf("%w: %s", ErrUnknownPath, e.Key)
	case "conversation_summary":
		if len(path) != 1 {
			return fmt.Errorf("%w: %s", ErrUnknownPath, e.Key)
		}
		return setStringField(&m.ConversationSummary, val, e.Key)
	case "recent_topics":
		if len(path) != 1 {
			return fmt.Errorf("%w: %s", ErrUnknownPath, e.Key)
		}
		return appendListField(&m.RecentTopics, val, e.Key)
	case "identified_challenges":
		if len(path) != 1 {
			return fmt.Errorf("%w: %s", ErrUnknownPath, e.Key)
		}
		return appendListField(&m.IdentifiedChallenges, val, e.Key)
	case "user_preferences":
		return m.setPreference(path[1:], val, e.Key)
	case "interaction_count", "last_interaction":
		return fmt.Errorf("%w: %s", ErrReadOnlyPath, e.Key)
	}
	return fmt.Errorf("%w: %s", ErrUnknownPath, e.Key)
}

func splitPath(key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	parts := strings.Split(key, ".")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func setStringField(dst *string, val coerced, key string) error {
	switch val.kind {
	case valueBool:
		*dst = strconv.FormatBool(val.b)
	default:
		if val.str == "" {
			return fmt.Errorf("%w: empty value for %s", ErrInvalidValue, key)
		}
		*dst = val.str
	}
	return nil
}

func appendListField(dst *[]string, val coerced, key string) error {
	if val.kind == valueBool {
		return fmt.Errorf("%w: %s holds a list, not a boolean", ErrInvalidValue, key)
	}
	if val.str == "" {
		return fmt.Errorf("%w: empty value for %s", ErrInvalidValue, key)
	}
	*dst = append(*dst, val.str)
	return nil
}

// setPreference walks the user_preferences tree, creating intermediate objects
// and replacing non-object intermediates.
func (m *Memory) setPreference(path []string, val coerced, key string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: %s", ErrReadOnlyPath, key)
	}
	if len(path) > maxPreferenceDepth {
		return fmt.Errorf("%w: %s is deeper than %d levels", ErrUnknownPath, key, maxPreferenceDepth)
	}
	for _, seg := range path {
		if !preferenceSegment.MatchString(seg) {
			return fmt.Errorf("%w: invalid segment %q in %s", ErrUnknownPath, seg, key)
		}
	}

	current := m.UserPreferences
	for _, seg := range path[:len(path)-1] {
		next, ok := current[seg]
		if !ok || next.kind != KindObject || next.obj == nil {
			next = Object(nil)
			current[seg] = next
		}
		current = next.obj
	}

	leaf := path[len(path)-1]
	switch val.kind {
	case valueBool:
		current[leaf] = Bool(val.b)
	case valueAppend:
		existing := current[leaf]
		if existing.kind != KindList {
			existing = List()
		}
		existing.list = append(existing.list, String(val.str))
		current[leaf] = existing
	default:
		if val.str == "" {
			return fmt.Errorf("%w: empty value for %s", ErrInvalidValue, key)
		}
		current[leaf] = String(val.str)
	}
	return nil
}
