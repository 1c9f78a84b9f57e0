package config

// Knowledge backend constants
const (
	KnowledgeBackendPostgres = "postgres"
	KnowledgeBackendBleve    = "bleve"
	KnowledgeBackendNone     = "none"
)

// KnowledgeConfig selects where knowledge snippets and the service catalog come from.
type KnowledgeConfig struct {
	// Backend is postgres, bleve or none. Empty picks postgres when a database
	// is configured and bleve otherwise.
	Backend      string `env:"KNOWLEDGE_BACKEND" yaml:"backend"`
	CatalogPath  string `env:"KNOWLEDGE_CATALOG_PATH" yaml:"catalog_path" default:"catalog.yaml"`
	SnippetLimit int    `env:"KNOWLEDGE_SNIPPET_LIMIT" yaml:"snippet_limit" default:"3"`
}
