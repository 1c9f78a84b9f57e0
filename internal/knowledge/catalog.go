package knowledge

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/lewisedginton/lead_capture_chatbot/internal/storage_manager"
	"github.com/lewisedginton/lead_capture_chatbot/internal/store"
)

// Catalog is the knowledge base and services offering, as kept in storage.
type Catalog struct {
	Articles []store.KnowledgeArticle
	Services []store.Service
}

type catalogFile struct {
	Articles []store.KnowledgeArticle `yaml:"articles"`
	Services []catalogService         `yaml:"services"`
}

// catalogService differs from store.Service only in treating a missing
// is_active as true.
type catalogService struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Category          string `yaml:"category"`
	Description       string `yaml:"description"`
	Keywords          string `yaml:"keywords"`
	TypicalChallenges string `yaml:"typical_challenges"`
	IsActive          *bool  `yaml:"is_active"`
	UsageCount        int    `yaml:"usage_count"`
}

// ParseCatalog decodes and validates a catalog YAML document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog := &Catalog{
		Articles: file.Articles,
		Services: make([]store.Service, 0, len(file.Services)),
	}
	if catalog.Articles == nil {
		catalog.Articles = []store.KnowledgeArticle{}
	}
	for _, s := range file.Services {
		active := true
		if s.IsActive != nil {
			active = *s.IsActive
		}
		catalog.Services = append(catalog.Services, store.Service{
			ID:                s.ID,
			Name:              s.Name,
			Category:          s.Category,
			Description:       s.Description,
			Keywords:          s.Keywords,
			TypicalChallenges: s.TypicalChallenges,
			IsActive:          active,
			UsageCount:        s.UsageCount,
		})
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate checks that every entry has a unique id and a title or name.
func (c *Catalog) Validate() error {
	var result *multierror.Error

	articleIDs := make(map[string]struct{}, len(c.Articles))
	for i, a := range c.Articles {
		switch {
		case a.ID == "":
			result = multierror.Append(result, fmt.Errorf("article %d: id is required", i))
		case hasKey(articleIDs, a.ID):
			result = multierror.Append(result, fmt.Errorf("article %s: duplicate id", a.ID))
		}
		if a.Title == "" {
			result = multierror.Append(result, fmt.Errorf("article %d: title is required", i))
		}
		articleIDs[a.ID] = struct{}{}
	}

	serviceIDs := make(map[string]struct{}, len(c.Services))
	for i, s := range c.Services {
		switch {
		case s.ID == "":
			result = multierror.Append(result, fmt.Errorf("service %d: id is required", i))
		case hasKey(serviceIDs, s.ID):
			result = multierror.Append(result, fmt.Errorf("service %s: duplicate id", s.ID))
		}
		if s.Name == "" {
			result = multierror.Append(result, fmt.Errorf("service %d: name is required", i))
		}
		serviceIDs[s.ID] = struct{}{}
	}

	return result.ErrorOrNil()
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// LoadCatalog reads and parses the catalog at path from provider.
func LoadCatalog(ctx context.Context, provider storage_manager.FileProvider, path string) (*Catalog, error) {
	data, err := provider.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}
