package db

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the key-value facade used for budget counters.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Searcher runs structured queries against the document index.
type Searcher interface {
	Pinger
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	ListByType(ctx context.Context, docType string, size int) (*SearchResult, error)
}

// SearchQuery is a structured query plus the highlight directive.
type SearchQuery struct {
	// Query is the encoded {"query": ...} document.
	Query     json.RawMessage
	Highlight *Highlight
}

// Highlight asks the backend to mark matched terms in the listed fields.
type Highlight struct {
	Fields            []string
	PreTags           []string
	PostTags          []string
	MaxAnalyzedOffset int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int64
	TookMs  int64
	Entries []SearchEntry
}

// SearchEntry is a single document hit.
type SearchEntry struct {
	ID        string
	Score     float64
	Source    json.RawMessage
	Highlight map[string][]string
}
