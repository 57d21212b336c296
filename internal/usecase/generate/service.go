package generate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
	logpkg "github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// MaxAttempts bounds the completion calls made for one user query.
const MaxAttempts = 3

// DefaultAttemptTimeout bounds a single completion call.
const DefaultAttemptTimeout = 30 * time.Second

// Attempt is the state of the generation loop: the attempt number and the
// reason the previous attempt failed.
type Attempt struct {
	N       int
	LastErr error
}

// outcome is the result of one attempt: success or failure.
type outcome interface {
	isOutcome()
}

type success struct {
	doc query.Document
}

type failure struct {
	reason error
}

func (success) isOutcome() {}
func (failure) isOutcome() {}

// Service turns free-form user text into a validated structured query.
// A Service is safe for concurrent use; each Generate call is independent.
type Service struct {
	base           Completer
	completer      Completer
	instructions   Instructions
	docType        string
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// New creates a generation service with the embedded default instructions.
func New(completer Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		base:           completer,
		docType:        query.DefaultDocumentType,
		attemptTimeout: DefaultAttemptTimeout,
		logger:         logger,
	}
	return s.WithInstructions(DefaultInstructions())
}

// WithInstructions replaces the system prompt.
func (s *Service) WithInstructions(in Instructions) *Service {
	s.instructions = in
	s.completer = domain.NewUserPrefixCompleter(s.base, in.UserPrefix)
	return s
}

// WithDocumentType sets the document kind every query is restricted to.
func (s *Service) WithDocumentType(docType string) *Service {
	if docType != "" {
		s.docType = docType
	}
	return s
}

// WithAttemptTimeout sets the per-attempt completion timeout.
func (s *Service) WithAttemptTimeout(d time.Duration) *Service {
	if d > 0 {
		s.attemptTimeout = d
	}
	return s
}

// Instructions returns the active system prompt.
func (s *Service) Instructions() Instructions { return s.instructions }

// Generate asks the model for a query up to MaxAttempts times and returns the
// first one that normalizes and passes the schema. Attempts run sequentially.
// When every attempt fails, or ctx is done, it returns *GenerationFailedError.
func (s *Service) Generate(ctx context.Context, userQuery string) (query.Document, error) {
	log := logpkg.FromContext(ctx, s.logger).With(zap.String("prompt_version", s.instructions.Version))

	start := time.Now()
	state := Attempt{}
	for state.N < MaxAttempts {
		if err := ctx.Err(); err != nil {
			state.LastErr = err
			break
		}
		state.N++

		switch o := s.attempt(ctx, userQuery).(type) {
		case success:
			metrics.GenerationAttemptsTotal.WithLabelValues(metrics.AttemptSuccess).Inc()
			metrics.GenerationDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
			log.Debug("Query generated",
				zap.Int("attempt", state.N),
				zap.Duration("duration", time.Since(start)),
			)
			return o.doc, nil
		case failure:
			state.LastErr = o.reason
			metrics.GenerationAttemptsTotal.WithLabelValues(attemptResult(o.reason)).Inc()
			log.Warn("Query generation attempt failed",
				zap.Int("attempt", state.N),
				zap.Int("max_attempts", MaxAttempts),
				zap.String("reason", attemptResult(o.reason)),
				zap.Error(o.reason),
			)
		}
	}

	metrics.GenerationFailuresTotal.Inc()
	metrics.GenerationDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
	err := &GenerationFailedError{Attempts: state.N, Last: state.LastErr}
	log.Error("Query generation failed", zap.Int("attempts", state.N), zap.Error(state.LastErr))
	return query.Document{}, err
}

// attempt runs one completion under the per-attempt timeout.
func (s *Service) attempt(ctx context.Context, userQuery string) outcome {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	res, err := s.completer.Complete(actx, domain.Prompt{
		System: s.instructions.System,
		User:   userQuery,
	})
	if err != nil {
		return failure{reason: &ProviderError{Err: err}}
	}

	doc, err := normalize(res.Text, s.docType)
	if err != nil {
		return failure{reason: err}
	}
	return success{doc: doc}
}

func attemptResult(err error) string {
	var (
		pe *ParseError
		se *ShapeError
		sv *SchemaViolation
		ve *schema.ViolationError
	)
	switch {
	case errors.As(err, &pe):
		return metrics.AttemptParseError
	case errors.As(err, &se):
		return metrics.AttemptShapeError
	case errors.As(err, &sv), errors.As(err, &ve):
		return metrics.AttemptSchemaViolation
	default:
		return metrics.AttemptProviderError
	}
}
