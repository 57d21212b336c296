package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeInvalidQuery       ErrorCode = "invalid_query"
	CodeQueryNotUnderstood ErrorCode = "query_not_understood"
	CodeNoResults          ErrorCode = "no_results"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeQuotaExceeded      ErrorCode = "completion_quota_exceeded"
	CodeProviderError      ErrorCode = "completion_provider_error"
	CodeSearchBackendError ErrorCode = "search_backend_error"
	CodeNotFound           ErrorCode = "not_found"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	// Order matters: quota and rate-limit failures arrive wrapped in a
	// generation failure and keep their own status.
	return []errorHandler{
		sentinelHandler(domain.ErrCompletionQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		generationFailedHandler,
		sentinelHandler(domain.ErrNoResults, http.StatusNotFound, CodeNoResults),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrSearchBackendError, http.StatusBadGateway, CodeSearchBackendError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the sentinel text for err so internals never leak.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCompletionQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrQueryNotUnderstood,
		domain.ErrNoResults,
		domain.ErrInvalidQuery,
		domain.ErrSearchBackendError,
		domain.ErrCompletionProviderError,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func generationFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrQueryNotUnderstood) {
		return false
	}
	var gf *generate.GenerationFailedError
	if errors.As(err, &gf) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":     CodeQueryNotUnderstood,
			"message":  msg,
			"attempts": gf.Attempts,
			"reason":   gf.Reason(),
		})
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, CodeQueryNotUnderstood, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrCompletionQuotaExceeded):
		return CodeQuotaExceeded
	case errors.Is(err, domain.ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, domain.ErrQueryNotUnderstood):
		return CodeQueryNotUnderstood
	case errors.Is(err, domain.ErrInvalidQuery):
		return CodeInvalidQuery
	case errors.Is(err, domain.ErrCompletionProviderError):
		return CodeProviderError
	default:
		return CodeInternalError
	}
}
