// Package knowledge looks up knowledge base articles relevant to a visitor
// message and formats them as prompt context.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// DefaultSnippetLimit is the number of articles offered to the model per turn.
const DefaultSnippetLimit = 3

// Searcher finds articles matching any of the given terms, best match first.
type Searcher interface {
	Search(ctx context.Context, terms []string, limit int) ([]store.KnowledgeArticle, error)
}

// Terms splits query into lowercase search words. Punctuation and symbols
// separate words, words of two characters or fewer are dropped and
// duplicates are removed, keeping first-occurrence order.
func Terms(query string) []string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) <= 2 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
	}
	return terms
}

// Lookup turns a Searcher into prompt context. It never fails: search errors
// are logged and produce no context.
type Lookup struct {
	searcher Searcher
	limit    int
	logger   logger.Logger
}

// NewLookup creates a Lookup. A nil searcher disables knowledge context.
func NewLookup(searcher Searcher, limit int, log logger.Logger) *Lookup {
	if limit <= 0 {
		limit = DefaultSnippetLimit
	}
	return &Lookup{searcher: searcher, limit: limit, logger: log}
}

// Snippets returns the "Relevant Knowledge" block for query, or "" when
// nothing matches or the search fails.
func (l *Lookup) Snippets(ctx context.Context, query string) string {
	if l == nil || l.searcher == nil {
		return ""
	}

	terms := Terms(query)
	if len(terms) == 0 {
		return ""
	}

	articles, err := l.searcher.Search(ctx, terms, l.limit)
	if err != nil {
		l.logger.Warn("Knowledge search failed",
			logger.ErrorField(err),
			logger.IntField("terms", len(terms)))
		return ""
	}
	if len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nRelevant Knowledge:\n")
	for i, a := range articles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", a.Title, a.Summary)
	}
	return b.String()
}

// KnowledgeStore is the part of store.Store that StoreSearcher needs.
type KnowledgeStore interface {
	SearchKnowledge(ctx context.Context, terms []string, limit int) ([]store.KnowledgeArticle, error)
}

// StoreSearcher searches the knowledge_base table through the store.
type StoreSearcher struct {
	store KnowledgeStore
}

// NewStoreSearcher creates a Searcher over a store.
func NewStoreSearcher(s KnowledgeStore) *StoreSearcher {
	return &StoreSearcher{store: s}
}

// Search implements Searcher.
func (s *StoreSearcher) Search(ctx context.Context, terms []string, limit int) ([]store.KnowledgeArticle, error) {
	articles, err := s.store.SearchKnowledge(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}
	return articles, nil
}
