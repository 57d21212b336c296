package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	ListByType(ctx context.Context, docType string, size int) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search runs a structured query with the highlight directive attached.
func (r *Repo) Search(ctx context.Context, doc query.Document, hl domain.Highlight) (result.Page, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return result.Page{}, fmt.Errorf("encode query: %w", err)
	}

	q := &db.SearchQuery{
		Query: raw,
		Highlight: &db.Highlight{
			Fields:            hl.Fields,
			PreTags:           hl.PreTags,
			PostTags:          hl.PostTags,
			MaxAnalyzedOffset: hl.MaxAnalyzedOffset,
		},
	}
	if len(hl.Fields) == 0 {
		q.Highlight = nil
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}
	return toPage(sr), nil
}

// ListByType returns up to size documents of the given type.
func (r *Repo) ListByType(ctx context.Context, docType string, size int) (result.Page, error) {
	sr, err := r.store.ListByType(ctx, docType, size)
	if err != nil {
		return result.Page{}, fmt.Errorf("list %s: %w", docType, err)
	}
	return toPage(sr), nil
}

// toPage converts db.SearchResult into result.Page.
func toPage(sr *db.SearchResult) result.Page {
	if sr == nil {
		return result.NewPage(0, 0, nil)
	}
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.NewHit(e.ID, e.Score, e.Source, e.Highlight))
	}
	return result.NewPage(sr.Total, sr.TookMs, hits)
}
