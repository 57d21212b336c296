package result

import "encoding/json"

// Hit is a single matched document.
type Hit struct {
	id        string
	score     float64
	source    json.RawMessage
	highlight map[string][]string
}

// NewHit creates a search hit.
func NewHit(id string, score float64, source json.RawMessage, highlight map[string][]string) Hit {
	return Hit{id: id, score: score, source: source, highlight: highlight}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// Source returns the stored document verbatim.
func (h *Hit) Source() json.RawMessage { return h.source }

// Highlight returns matched fragments keyed by field path.
func (h *Hit) Highlight() map[string][]string { return h.highlight }

// Page is one page of hits plus the backend's total match count.
type Page struct {
	total  int64
	tookMs int64
	hits   []Hit
}

// NewPage creates a result page.
func NewPage(total, tookMs int64, hits []Hit) Page {
	return Page{total: total, tookMs: tookMs, hits: hits}
}

// Total returns the number of matching documents in the index.
func (p *Page) Total() int64 { return p.total }

// TookMs returns the backend execution time.
func (p *Page) TookMs() int64 { return p.tookMs }

// Hits returns the hits on this page.
func (p *Page) Hits() []Hit { return p.hits }

// Empty reports whether nothing matched.
func (p *Page) Empty() bool { return p.total == 0 }
