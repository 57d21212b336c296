package batch

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain/query"
)

// Generator turns natural language into a validated structured query.
type Generator interface {
	Generate(ctx context.Context, userQuery string) (query.Document, error)
}

// TermExtractor harvests the literal search terms of a structured query.
type TermExtractor interface {
	Extract(doc query.Document) []string
}
