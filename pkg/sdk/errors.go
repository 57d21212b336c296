package smartsearch

import (
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery            = domain.ErrInvalidQuery
	ErrQueryNotUnderstood      = domain.ErrQueryNotUnderstood
	ErrRateLimited             = domain.ErrRateLimited
	ErrCompletionQuotaExceeded = domain.ErrCompletionQuotaExceeded
	ErrCompletionProviderError = domain.ErrCompletionProviderError
	ErrNoCompleter             = errNoCompleter
)

// GenerationFailedError is returned by Generate when every attempt failed.
// Use errors.As to read the attempt count and Reason().
type GenerationFailedError = generate.GenerationFailedError
