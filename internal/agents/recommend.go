package agents

import (
	"context"

	"github.com/lewisedginton/lead_capture_chatbot/internal/knowledge"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// maxRecommendationTerms bounds the service searches run for one challenge.
const maxRecommendationTerms = 5

// recommend returns the names of services matching the words of the most
// recent challenge. Search failures yield no recommendations.
func (a *Agent) recommend(ctx context.Context, t *turn) []string {
	limit := a.cfg.RecommendationLimit
	if limit <= 0 || len(t.conv.Challenges) == 0 {
		return nil
	}

	terms := knowledge.Terms(t.conv.Challenges[len(t.conv.Challenges)-1])
	if len(terms) > maxRecommendationTerms {
		terms = terms[:maxRecommendationTerms]
	}

	seen := make(map[string]struct{})
	var names []string
	for _, term := range terms {
		services, err := a.store.SearchServices(ctx, store.ServiceFilter{Query: term, Limit: limit})
		if err != nil {
			t.logger.Warn("Service recommendation search failed", logger.ErrorField(err))
			return names
		}
		for _, svc := range services {
			if _, ok := seen[svc.ID]; ok {
				continue
			}
			seen[svc.ID] = struct{}{}
			names = append(names, svc.Name)
			if len(names) == limit {
				return names
			}
		}
	}
	return names
}
