package chi

import (
	"encoding/json"
	"time"

	dombatch "github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/smartsearch/internal/domain/usage"
)

// QueryRequest is the body of POST /smartsearch and POST /queries/generate.
type QueryRequest struct {
	Query string `json:"query"`
}

// BatchRequest is the body of POST /queries/generate/batch.
type BatchRequest struct {
	Queries []string `json:"queries"`
}

// SearchHit is one matched document.
type SearchHit struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Source    json.RawMessage     `json:"source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// SearchResponse is the body of a smart search, also sent with 404 when
// nothing matched.
type SearchResponse struct {
	Total       int64          `json:"total"`
	TookMs      int64          `json:"took_ms"`
	Hits        []SearchHit    `json:"hits"`
	SearchTerms []string       `json:"search_terms"`
	Query       query.Document `json:"query"`
}

// GenerateResponse is a structured query with its search terms.
type GenerateResponse struct {
	Query       query.Document `json:"query"`
	SearchTerms []string       `json:"search_terms"`
}

// BatchItem is the outcome of one query in a batch.
type BatchItem struct {
	Input       string          `json:"input"`
	Status      string          `json:"status"`
	Query       *query.Document `json:"query,omitempty"`
	SearchTerms []string        `json:"search_terms,omitempty"`
	Error       *ErrorResponse  `json:"error,omitempty"`
}

// BatchResponse lists batch outcomes in input order.
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// ValidateResponse reports whether a document satisfies the query schema.
type ValidateResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// TermsResponse lists the search terms of a structured query.
type TermsResponse struct {
	Terms []string `json:"terms"`
}

// BooksResponse lists stored documents.
type BooksResponse struct {
	Total int64       `json:"total"`
	Items []SearchHit `json:"items"`
}

// UsageResponse reports completion token consumption.
type UsageResponse struct {
	Period          string     `json:"period"`
	PeriodStartAt   time.Time  `json:"period_start_at"`
	PeriodEndAt     time.Time  `json:"period_end_at"`
	Calls           int64      `json:"calls"`
	Tokens          int64      `json:"tokens"`
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// HealthResponse aggregates component checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func hitsToDTO(hits []result.Hit) []SearchHit {
	out := make([]SearchHit, 0, len(hits))
	for i := range hits {
		h := &hits[i]
		out = append(out, SearchHit{
			ID:        h.ID(),
			Score:     h.Score(),
			Source:    h.Source(),
			Highlight: h.Highlight(),
		})
	}
	return out
}

func searchResponse(doc query.Document, terms []string, page result.Page) SearchResponse {
	if terms == nil {
		terms = []string{}
	}
	return SearchResponse{
		Total:       page.Total(),
		TookMs:      page.TookMs(),
		Hits:        hitsToDTO(page.Hits()),
		SearchTerms: terms,
		Query:       doc,
	}
}

func batchItemToDTO(r dombatch.Result) BatchItem {
	item := BatchItem{
		Input:  r.Input(),
		Status: string(r.Status()),
	}
	if r.Err() != nil {
		item.Error = &ErrorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
		return item
	}
	doc := r.Query()
	item.Query = &doc
	item.SearchTerms = r.Terms()
	return item
}

func usageToDTO(report domusage.Report) UsageResponse {
	resp := UsageResponse{
		Period:          string(report.Period()),
		PeriodStartAt:   time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:     time.UnixMilli(report.PeriodEnd()).UTC(),
		Calls:           report.Calls(),
		Tokens:          report.Tokens(),
		TokensLimit:     report.Limit(),
		TokensRemaining: report.Remaining(),
		IsExhausted:     report.IsExhausted(),
	}
	if report.Limit() > 0 {
		resetsAt := time.UnixMilli(report.ResetsAt()).UTC()
		resp.ResetsAt = &resetsAt
	}
	return resp
}
