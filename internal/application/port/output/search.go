package output

import (
	"context"

	"campus-assistant/internal/domain/entity"
)

// StructuredSearchPort is the lookup capability over the curated knowledge
// base. A miss is reported through LookupResult.Found, not through an error.
type StructuredSearchPort interface {
	Search(ctx context.Context, query string) (*entity.LookupResult, error)
}

// WebSearchPort is the open web search capability. Provider errors are
// recoverable at the runner: they become observations, not run failures.
type WebSearchPort interface {
	Search(ctx context.Context, query string) (*entity.WebSearchResult, error)
}
