package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/prefixed_uuid"
)

// MemoryStore is a process-local Store used when no database is configured
// and in tests. Records are copied on the way in and out.
type MemoryStore struct {
	mu            sync.Mutex
	now           func() time.Time
	visitors      map[prefixed_uuid.PrefixedUUID]*Visitor
	conversations map[prefixed_uuid.PrefixedUUID]*Conversation
	messages      map[prefixed_uuid.PrefixedUUID][]Message
	emailLog      []EmailLog
	articles      []KnowledgeArticle
	services      []Service
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		visitors:      make(map[prefixed_uuid.PrefixedUUID]*Visitor),
		conversations: make(map[prefixed_uuid.PrefixedUUID]*Conversation),
		messages:      make(map[prefixed_uuid.PrefixedUUID][]Message),
	}
}

func copyVisitor(v *Visitor) *Visitor {
	c := *v
	c.Preferences = append(json.RawMessage(nil), v.Preferences...)
	c.MemoryState = append([]byte(nil), v.MemoryState...)
	return &c
}

func copyConversation(conv *Conversation) *Conversation {
	c := *conv
	c.Transcript = append([]TranscriptEntry{}, conv.Transcript...)
	c.Challenges = append([]string{}, conv.Challenges...)
	if conv.EmailSentAt != nil {
		t := *conv.EmailSentAt
		c.EmailSentAt = &t
	}
	if conv.EndedAt != nil {
		t := *conv.EndedAt
		c.EndedAt = &t
	}
	return &c
}

func (s *MemoryStore) FindVisitor(_ context.Context, ip, fingerprint string) (*Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *Visitor
	for _, v := range s.visitors {
		match := v.IPAddress == ip || (fingerprint != "" && v.Fingerprint == fingerprint)
		if match && (best == nil || v.LastSeen.After(best.LastSeen)) {
			best = v
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return copyVisitor(best), nil
}

func (s *MemoryStore) CreateVisitor(_ context.Context, nv NewVisitor) (*Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	v := &Visitor{
		ID:          NewVisitorID(),
		IPAddress:   nv.IPAddress,
		Fingerprint: nv.Fingerprint,
		Geo:         nv.Geo,
		Preferences: json.RawMessage(`{}`),
		FirstSeen:   now,
		LastSeen:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.visitors[v.ID] = v
	return copyVisitor(v), nil
}

func (s *MemoryStore) TouchVisitor(_ context.Context, id prefixed_uuid.PrefixedUUID, fingerprint string) (*Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now().UTC()
	v.LastSeen = now
	v.UpdatedAt = now
	v.TotalConversations++
	if v.Fingerprint == "" {
		v.Fingerprint = fingerprint
	}
	return copyVisitor(v), nil
}

func (s *MemoryStore) GetVisitor(_ context.Context, id prefixed_uuid.PrefixedUUID) (*Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyVisitor(v), nil
}

func (s *MemoryStore) SaveMemory(_ context.Context, id prefixed_uuid.PrefixedUUID, state []byte, contact Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return ErrNotFound
	}
	v.MemoryState = append([]byte(nil), state...)
	mergeContact(&v.Contact, contact)
	v.UpdatedAt = s.now().UTC()
	return nil
}

func mergeContact(dst *Contact, src Contact) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Company != "" {
		dst.Company = src.Company
	}
	if src.Role != "" {
		dst.Role = src.Role
	}
}

func (s *MemoryStore) openConversation(visitorID prefixed_uuid.PrefixedUUID) *Conversation {
	var open *Conversation
	for _, c := range s.conversations {
		if c.VisitorID == visitorID && c.IsOpen() && (open == nil || c.StartedAt.After(open.StartedAt)) {
			open = c
		}
	}
	return open
}

func (s *MemoryStore) OpenConversation(_ context.Context, visitorID prefixed_uuid.PrefixedUUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.visitors[visitorID]; !ok {
		return nil, fmt.Errorf("visitor %s: %w", visitorID, ErrNotFound)
	}
	if c := s.openConversation(visitorID); c != nil {
		return copyConversation(c), nil
	}
	c := &Conversation{
		ID:         NewConversationID(),
		VisitorID:  visitorID,
		Transcript: []TranscriptEntry{},
		Challenges: []string{},
		StartedAt:  s.now().UTC(),
	}
	s.conversations[c.ID] = c
	return copyConversation(c), nil
}

func (s *MemoryStore) FindOpenConversation(_ context.Context, visitorID prefixed_uuid.PrefixedUUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.openConversation(visitorID); c != nil {
		return copyConversation(c), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetConversation(_ context.Context, id prefixed_uuid.PrefixedUUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(c), nil
}

func (s *MemoryStore) RecordTurn(_ context.Context, conv *Conversation, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conv.ID]
	if !ok {
		return ErrNotFound
	}
	c.MessageCount = conv.MessageCount
	c.TotalTokens = conv.TotalTokens
	c.Transcript = append([]TranscriptEntry{}, conv.Transcript...)
	c.Challenges = append([]string{}, conv.Challenges...)
	s.messages[conv.ID] = append(s.messages[conv.ID], msgs...)
	return nil
}

func (s *MemoryStore) MarkEmailSent(_ context.Context, id prefixed_uuid.PrefixedUUID, at time.Time) error {
	return s.updateConversation(id, func(c *Conversation) {
		t := at.UTC()
		c.EmailSent = true
		c.EmailSentAt = &t
	})
}

func (s *MemoryStore) SaveSummary(_ context.Context, id prefixed_uuid.PrefixedUUID, summary string) error {
	return s.updateConversation(id, func(c *Conversation) { c.Summary = summary })
}

func (s *MemoryStore) CloseConversation(_ context.Context, id prefixed_uuid.PrefixedUUID, reason string, at time.Time) error {
	return s.updateConversation(id, func(c *Conversation) {
		if c.EndedAt != nil {
			return
		}
		t := at.UTC()
		c.EndedAt = &t
		c.EndReason = reason
	})
}

func (s *MemoryStore) updateConversation(id prefixed_uuid.PrefixedUUID, fn func(*Conversation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	fn(c)
	return nil
}

// Messages returns the logged messages of a conversation.
func (s *MemoryStore) Messages(id prefixed_uuid.PrefixedUUID) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages[id]...)
}

func (s *MemoryStore) LogEmail(_ context.Context, entry EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.emailLog = append(s.emailLog, entry)
	return nil
}

// EmailLog returns the recorded email attempts.
func (s *MemoryStore) EmailLog() []EmailLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmailLog(nil), s.emailLog...)
}

func (s *MemoryStore) SearchServices(_ context.Context, filter ServiceFilter) ([]Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var out []Service
	for _, svc := range s.services {
		if !svc.IsActive {
			continue
		}
		if filter.Category != "" && svc.Category != filter.Category {
			continue
		}
		if q != "" && !containsFold(q, svc.Keywords, svc.TypicalChallenges, svc.Description) {
			continue
		}
		out = append(out, svc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UsageCount > out[j].UsageCount })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func containsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// SearchKnowledge ranks articles by how many terms they contain.
func (s *MemoryStore) SearchKnowledge(_ context.Context, terms []string, limit int) ([]KnowledgeArticle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		article KnowledgeArticle
		score   int
	}
	var hits []scored
	for _, a := range s.articles {
		text := strings.ToLower(a.Title + " " + a.Summary + " " + a.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, strings.ToLower(term)) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{article: a, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]KnowledgeArticle, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h.article)
	}
	return out, nil
}

// ImportCatalog upserts articles and services by ID.
func (s *MemoryStore) ImportCatalog(_ context.Context, articles []KnowledgeArticle, services []Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range articles {
		replaced := false
		for i := range s.articles {
			if s.articles[i].ID == a.ID {
				s.articles[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			s.articles = append(s.articles, a)
		}
	}
	for _, svc := range services {
		replaced := false
		for i := range s.services {
			if s.services[i].ID == svc.ID {
				s.services[i] = svc
				replaced = true
				break
			}
		}
		if !replaced {
			s.services = append(s.services, svc)
		}
	}
	return nil
}
