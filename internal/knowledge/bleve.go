package knowledge

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"

	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
)

var bleveFields = []string{"title", "summary", "content"}

// BleveSearcher is an in-memory full-text index over catalog articles.
type BleveSearcher struct {
	index    bleve.Index
	articles map[string]store.KnowledgeArticle
}

// NewBleveSearcher indexes articles into a memory-only bleve index.
func NewBleveSearcher(articles []store.KnowledgeArticle) (*BleveSearcher, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge index: %w", err)
	}

	s := &BleveSearcher{
		index:    index,
		articles: make(map[string]store.KnowledgeArticle, len(articles)),
	}

	batch := index.NewBatch()
	for _, a := range articles {
		if err := batch.Index(a.ID, map[string]interface{}{
			"title":    a.Title,
			"summary":  a.Summary,
			"content":  a.Content,
			"category": a.Category,
		}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index article %s: %w", a.ID, err)
		}
		s.articles[a.ID] = a
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to build knowledge index: %w", err)
	}
	return s, nil
}

// Search implements Searcher with a disjunction of match queries over the
// title, summary and content of each article.
func (s *BleveSearcher) Search(ctx context.Context, terms []string, limit int) ([]store.KnowledgeArticle, error) {
	if len(terms) == 0 {
		return []store.KnowledgeArticle{}, nil
	}

	queries := make([]query.Query, 0, len(terms)*len(bleveFields))
	for _, term := range terms {
		for _, field := range bleveFields {
			q := bleve.NewMatchQuery(term)
			q.SetField(field)
			queries = append(queries, q)
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), limit, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("knowledge index search failed: %w", err)
	}

	result := make([]store.KnowledgeArticle, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if a, ok := s.articles[hit.ID]; ok {
			result = append(result, a)
		}
	}
	return result, nil
}

// Len returns the number of indexed articles.
func (s *BleveSearcher) Len() int {
	return len(s.articles)
}

// Close releases the index.
func (s *BleveSearcher) Close() error {
	return s.index.Close()
}
