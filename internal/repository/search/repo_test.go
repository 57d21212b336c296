package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
)

// --- Search ---

func TestSearch_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	doc := query.Wrap(query.TypeFilter("book"), query.NewMatch("text_2", "eleitoral"))

	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		want := `{"query":{"bool":{"must":[{"match":{"type":"book"}},{"match":{"text_2":"eleitoral"}}]}}}`
		if string(q.Query) != want {
			t.Errorf("unexpected query: %s", q.Query)
		}
		if q.Highlight == nil || len(q.Highlight.Fields) != 11 {
			t.Fatalf("expected default highlight fields, got %+v", q.Highlight)
		}
		if q.Highlight.MaxAnalyzedOffset != 1000000 {
			t.Errorf("unexpected offset: %d", q.Highlight.MaxAnalyzedOffset)
		}
		return &db.SearchResult{
			Total:  2,
			TookMs: 4,
			Entries: []db.SearchEntry{
				{ID: "b1", Score: 2.5, Source: json.RawMessage(`{"title":"A"}`),
					Highlight: map[string][]string{"text_2": {"<em>eleitoral</em>"}}},
				{ID: "b2", Score: 1.5, Source: json.RawMessage(`{"title":"B"}`)},
			},
		}, nil
	}

	page, err := repo.Search(ctx, doc, domain.DefaultHighlight())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total() != 2 {
		t.Fatalf("expected total 2, got %d", page.Total())
	}
	hits := page.Hits()
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "b1" || hits[0].Score() != 2.5 {
		t.Errorf("unexpected first hit: %s %f", hits[0].ID(), hits[0].Score())
	}
	if hits[0].Highlight()["text_2"][0] != "<em>eleitoral</em>" {
		t.Errorf("unexpected highlight: %v", hits[0].Highlight())
	}
}

func TestSearch_NoHighlightFields(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		if q.Highlight != nil {
			t.Errorf("expected nil highlight, got %+v", q.Highlight)
		}
		return &db.SearchResult{}, nil
	}

	page, err := repo.Search(context.Background(), query.Wrap(query.TypeFilter("book")), domain.Highlight{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Empty() {
		t.Error("expected empty page")
	}
}

func TestSearch_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, _ *db.SearchQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}

	_, err := repo.Search(context.Background(), query.Wrap(query.TypeFilter("book")), domain.DefaultHighlight())
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearch_NilResult(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, _ *db.SearchQuery) (*db.SearchResult, error) {
		return nil, nil
	}

	page, err := repo.Search(context.Background(), query.Wrap(query.TypeFilter("book")), domain.DefaultHighlight())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Empty() || len(page.Hits()) != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

// --- ListByType ---

func TestListByType(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.listByTypeFn = func(_ context.Context, docType string, size int) (*db.SearchResult, error) {
		if docType != "book" || size != 50 {
			t.Errorf("unexpected args: %s %d", docType, size)
		}
		return &db.SearchResult{Total: 120, Entries: []db.SearchEntry{{ID: "b1"}}}, nil
	}

	page, err := repo.ListByType(context.Background(), "book", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total() != 120 || len(page.Hits()) != 1 {
		t.Errorf("unexpected page: total=%d hits=%d", page.Total(), len(page.Hits()))
	}
}

func TestListByType_Error(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.listByTypeFn = func(_ context.Context, _ string, _ int) (*db.SearchResult, error) {
		return nil, errors.New("connection refused")
	}

	if _, err := repo.ListByType(context.Background(), "book", 10); err == nil {
		t.Fatal("expected error")
	}
}
