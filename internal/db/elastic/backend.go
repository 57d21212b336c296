package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/olivere/elastic/v7"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// Compile-time check: Backend implements db.Searcher.
var _ db.Searcher = (*Backend)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addrs    []string
	Username string
	Password string
	Index    string
	Timeout  time.Duration
}

// Backend implements db.Searcher over a single index via olivere/elastic.
type Backend struct {
	client *elastic.Client
	index  string
	url    string
}

// NewBackend creates a client without sniffing or background health checks.
// Connectivity is verified separately via Ping / WaitForReady.
func NewBackend(cfg Config) (*Backend, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.Addrs...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, elastic.SetHttpClient(&http.Client{Timeout: cfg.Timeout}))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Backend{client: client, index: cfg.Index, url: cfg.Addrs[0]}, nil
}

// Index returns the searched index name.
func (b *Backend) Index() string { return b.index }

// Ping checks cluster connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	if _, _, err := b.client.Ping(b.url).Do(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady retries Ping with backoff until the cluster answers or timeout expires.
func (b *Backend) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := retry.Do(
		func() error { return b.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("timeout waiting for elasticsearch: %w", err)
	}
	return nil
}

// Search runs the query document with the highlight directive attached.
func (b *Backend) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	clause := gjson.GetBytes(q.Query, "query")
	if !clause.IsObject() {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrBadQuery}
	}

	source := map[string]any{"query": json.RawMessage(clause.Raw)}
	if q.Highlight != nil {
		source["highlight"] = highlightSource(q.Highlight)
	}

	res, err := b.client.Search(b.index).Source(source).Do(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return toResult(res), nil
}

// ListByType returns up to size documents whose type field matches docType.
func (b *Backend) ListByType(ctx context.Context, docType string, size int) (*db.SearchResult, error) {
	res, err := b.client.Search(b.index).
		Query(elastic.NewMatchQuery("type", docType)).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return toResult(res), nil
}

func highlightSource(h *db.Highlight) map[string]any {
	fields := make(map[string]any, len(h.Fields))
	for _, f := range h.Fields {
		fields[f] = map[string]any{}
	}
	out := map[string]any{
		"fields":    fields,
		"pre_tags":  h.PreTags,
		"post_tags": h.PostTags,
	}
	if h.MaxAnalyzedOffset > 0 {
		out["max_analyzed_offset"] = h.MaxAnalyzedOffset
	}
	return out
}

func toResult(res *elastic.SearchResult) *db.SearchResult {
	out := &db.SearchResult{
		Total:  res.TotalHits(),
		TookMs: res.TookInMillis,
	}
	if res.Hits == nil {
		return out
	}
	out.Entries = make([]db.SearchEntry, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		e := db.SearchEntry{
			ID:     hit.Id,
			Source: hit.Source,
		}
		if hit.Score != nil {
			e.Score = *hit.Score
		}
		if len(hit.Highlight) > 0 {
			e.Highlight = map[string][]string(hit.Highlight)
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}

func mapError(err error) error {
	switch {
	case elastic.IsNotFound(err):
		err = fmt.Errorf("%w: %w", db.ErrIndexNotFound, err)
	case elastic.IsStatusCode(err, http.StatusBadRequest):
		err = fmt.Errorf("%w: %w", db.ErrBadQuery, err)
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}
