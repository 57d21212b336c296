package search

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, doc query.Document, hl domain.Highlight) (result.Page, error)
	ListByType(ctx context.Context, docType string, size int) (result.Page, error)
}

// Generator turns natural language into a validated structured query.
type Generator interface {
	Generate(ctx context.Context, userQuery string) (query.Document, error)
}

// TermExtractor harvests the literal search terms of a structured query.
type TermExtractor interface {
	Extract(doc query.Document) []string
}
