package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	dombatch "github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// Batch limits.
const (
	MaxBatchSize   = 100
	DefaultWorkers = 4
)

// Service generates queries for many inputs concurrently with per-item error reporting.
// Each generation is independent; one failure never affects the others.
type Service struct {
	gen          Generator
	terms        TermExtractor
	workers      int
	maxBatchSize int
}

// New creates a batch service.
func New(gen Generator, terms TermExtractor) *Service {
	return &Service{
		gen:          gen,
		terms:        terms,
		workers:      DefaultWorkers,
		maxBatchSize: MaxBatchSize,
	}
}

// WithWorkers sets the worker pool size.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Generate runs Generate for every input on a bounded pool. Results keep input order.
func (s *Service) Generate(ctx context.Context, inputs []string) ([]dombatch.Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("batch is empty: %w", domain.ErrInvalidQuery)
	}
	if len(inputs) > s.maxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds %d: %w", len(inputs), s.maxBatchSize, domain.ErrInvalidQuery)
	}

	pool, err := ants.NewPool(min(s.workers, len(inputs)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]dombatch.Result, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = s.one(ctx, in)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = dombatch.NewError(in, fmt.Errorf("submit: %w", submitErr))
		}
	}
	wg.Wait()

	return results, nil
}

func (s *Service) one(ctx context.Context, input string) dombatch.Result {
	input = strings.TrimSpace(input)
	if input == "" {
		return dombatch.NewError(input, fmt.Errorf("query is required: %w", domain.ErrInvalidQuery))
	}
	doc, err := s.gen.Generate(ctx, input)
	if err != nil {
		return dombatch.NewError(input, err)
	}
	return dombatch.NewOK(input, doc, s.terms.Extract(doc))
}
