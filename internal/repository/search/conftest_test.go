package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn     func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	listByTypeFn func(ctx context.Context, docType string, size int) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) ListByType(ctx context.Context, docType string, size int) (*db.SearchResult, error) {
	if m.listByTypeFn != nil {
		return m.listByTypeFn(ctx, docType, size)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}
