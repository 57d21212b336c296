package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
	"github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// Result is the outcome of a smart search.
type Result struct {
	Query query.Document
	Terms []string
	Page  result.Page
}

// Service runs natural-language searches: generate, extract terms, search.
type Service struct {
	repo      Repository
	gen       Generator
	terms     TermExtractor
	highlight domain.Highlight
	docType   string
}

// New creates a search service.
func New(repo Repository, gen Generator, terms TermExtractor) *Service {
	return &Service{
		repo:      repo,
		gen:       gen,
		terms:     terms,
		highlight: domain.DefaultHighlight(),
		docType:   query.DefaultDocumentType,
	}
}

// WithHighlight replaces the highlight directive attached to every search.
func (s *Service) WithHighlight(hl domain.Highlight) *Service {
	s.highlight = hl
	return s
}

// WithDocumentType sets the document type listed by Books.
func (s *Service) WithDocumentType(docType string) *Service {
	if docType != "" {
		s.docType = docType
	}
	return s
}

// Search generates a structured query for req, runs it and returns the hits
// together with the extracted terms. When nothing matches it returns the
// partial result and domain.ErrNoResults.
func (s *Service) Search(ctx context.Context, req *request.Request) (Result, error) {
	log := logger.FromContext(ctx)

	doc, err := s.gen.Generate(ctx, req.Query())
	if err != nil {
		return Result{}, fmt.Errorf("generate query: %w", err)
	}

	out := Result{Query: doc, Terms: s.terms.Extract(doc)}

	start := time.Now()
	page, err := s.repo.Search(ctx, doc, s.highlight)
	if err != nil {
		metrics.SearchRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return out, fmt.Errorf("%w: %w", domain.ErrSearchBackendError, err)
	}
	metrics.SearchRequestDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	out.Page = page

	if page.Empty() {
		metrics.SearchEmptyResultsTotal.Inc()
		log.Info("No results found", zap.Strings("terms", out.Terms))
		return out, domain.ErrNoResults
	}

	log.Info("Results found",
		zap.Int64("total", page.Total()),
		zap.Int64("took_ms", page.TookMs()),
		zap.Strings("terms", out.Terms),
	)
	return out, nil
}

// Books lists stored documents of the configured type.
func (s *Service) Books(ctx context.Context, p request.Page) (result.Page, error) {
	page, err := s.repo.ListByType(ctx, s.docType, p.Size())
	if err != nil {
		return result.Page{}, fmt.Errorf("%w: %w", domain.ErrSearchBackendError, err)
	}
	return page, nil
}
