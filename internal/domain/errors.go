package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a structured query that fails the query schema.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrQueryNotUnderstood signals that no valid structured query could be
	// generated from the user's text.
	ErrQueryNotUnderstood = errors.New("query not understood")
	// ErrNoResults signals a search with zero hits.
	ErrNoResults = errors.New("no results")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrCompletionQuotaExceeded signals an exhausted completion token budget.
	ErrCompletionQuotaExceeded = errors.New("completion quota exceeded")
	// ErrCompletionProviderError signals a language-model provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrSearchBackendError signals a search backend failure.
	ErrSearchBackendError = errors.New("search backend error")
)

// QuotaExceededError wraps ErrCompletionQuotaExceeded with the exhausted period.
type QuotaExceededError struct {
	Period string
	Limit  int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %s limit of %d tokens reached", ErrCompletionQuotaExceeded.Error(), e.Period, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrCompletionQuotaExceeded }
