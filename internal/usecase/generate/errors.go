package generate

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

const maxResponseInError = 200

// ProviderError is a transport, timeout or quota failure of the completer.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "completion provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() []error {
	return []error{domain.ErrCompletionProviderError, e.Err}
}

// ParseError means the model answered with something that is not JSON.
type ParseError struct {
	Response string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response is not valid JSON: %q", truncate(e.Response))
}

// ShapeError means the JSON is neither a bool query with should clauses nor
// a single match, match_phrase or multi_match query.
type ShapeError struct {
	Got string
}

func (e *ShapeError) Error() string {
	return "unexpected query shape: " + e.Got
}

// SchemaViolation means the wrapped query failed the query schema.
type SchemaViolation struct {
	Err error
}

func (e *SchemaViolation) Error() string {
	return "wrapped query rejected: " + e.Err.Error()
}

func (e *SchemaViolation) Unwrap() error { return e.Err }

// GenerationFailedError is returned when every attempt failed. Last is the
// reason of the final attempt.
type GenerationFailedError struct {
	Attempts int
	Last     error
}

func (e *GenerationFailedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d attempts", domain.ErrQueryNotUnderstood, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempts: %v", domain.ErrQueryNotUnderstood, e.Attempts, e.Last)
}

// Unwrap makes errors.Is(err, domain.ErrQueryNotUnderstood) hold, as well as
// matches against the last failure.
func (e *GenerationFailedError) Unwrap() []error {
	if e.Last == nil {
		return []error{domain.ErrQueryNotUnderstood}
	}
	return []error{domain.ErrQueryNotUnderstood, e.Last}
}

// Reason names the category of the last failure, e.g. "schema_violation".
func (e *GenerationFailedError) Reason() string {
	if e.Last == nil {
		return "unknown"
	}
	return attemptResult(e.Last)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxResponseInError {
		return s
	}
	return s[:maxResponseInError] + "..."
}
