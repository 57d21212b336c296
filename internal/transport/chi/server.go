// Package chi exposes smart search, query generation and query tooling over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	dombatch "github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/terms"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	domusage "github.com/kailas-cloud/smartsearch/internal/domain/usage"
	batchuc "github.com/kailas-cloud/smartsearch/internal/usecase/batch"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/smartsearch/internal/usecase/usage"
	"github.com/kailas-cloud/smartsearch/internal/version"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server serves the smartsearch HTTP API.
type Server struct {
	search        *searchuc.Service
	generator     *generate.Service
	validator     *schema.Validator
	terms         *terms.Extractor
	batch         *batchuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler

	defaultPageSize int
	maxPageSize     int
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	generator *generate.Service,
	validator *schema.Validator,
	extractor *terms.Extractor,
	batch *batchuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:          search,
		generator:       generator,
		validator:       validator,
		terms:           extractor,
		batch:           batch,
		usage:           usage,
		health:          health,
		logger:          logger,
		errorHandlers:   defaultErrorHandlers(),
		defaultPageSize: request.DefaultPageSize,
		maxPageSize:     request.MaxPageSize,
	}
}

// WithPagination sets the default and maximum /books page size.
func (s *Server) WithPagination(def, limit int) *Server {
	if def > 0 {
		s.defaultPageSize = def
	}
	if limit > 0 {
		s.maxPageSize = limit
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Index)
	r.Post("/smartsearch", s.SmartSearch)
	r.Post("/queries/generate", s.GenerateQuery)
	r.Post("/queries/generate/batch", s.GenerateBatch)
	r.Post("/queries/validate", s.ValidateQuery)
	r.Post("/queries/terms", s.ExtractTerms)
	r.Get("/books", s.ListBooks)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, version.String())
}

// SmartSearch handles POST /smartsearch.
func (s *Server) SmartSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.search.Search(ctx, &req)
	setCompletionHeaders(w, usage)
	if errors.Is(err, domain.ErrNoResults) {
		writeJSON(w, http.StatusNotFound, searchResponse(res.Query, res.Terms, res.Page))
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse(res.Query, res.Terms, res.Page))
}

// GenerateQuery handles POST /queries/generate.
func (s *Server) GenerateQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	doc, err := s.generator.Generate(ctx, req.Query())
	setCompletionHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	found := s.terms.Extract(doc)
	if found == nil {
		found = []string{}
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Query: doc, SearchTerms: found})
}

// GenerateBatch handles POST /queries/generate/batch.
func (s *Server) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := s.batch.Generate(r.Context(), req.Queries)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	items := make([]BatchItem, len(results))
	for i, res := range results {
		items[i] = batchItemToDTO(res)
	}
	succeeded, failed := dombatch.Summary(results)

	writeJSON(w, http.StatusOK, BatchResponse{Items: items, Succeeded: succeeded, Failed: failed})
}

// ValidateQuery handles POST /queries/validate. Any JSON object is accepted;
// schema violations are reported in the body with status 200.
func (s *Server) ValidateQuery(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	violations, err := s.validator.Violations(json.RawMessage(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	if violations == nil {
		violations = []string{}
	}

	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(violations) == 0, Violations: violations})
}

// ExtractTerms handles POST /queries/terms.
func (s *Server) ExtractTerms(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	found, err := s.terms.ExtractRaw(body)
	if err != nil {
		var inv *query.InvalidInputError
		if errors.As(err, &inv) {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		s.handleDomainError(w, err)
		return
	}
	if found == nil {
		found = []string{}
	}

	writeJSON(w, http.StatusOK, TermsResponse{Terms: found})
}

// ListBooks handles GET /books?size=.
func (s *Server) ListBooks(w http.ResponseWriter, r *http.Request) {
	var size *int
	if err := runtime.BindQueryParameter("form", true, false, "size", r.URL.Query(), &size); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter size")
		return
	}

	n := 0
	if size != nil {
		n = *size
	}
	p, err := request.NewPage(n, s.defaultPageSize, s.maxPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	page, err := s.search.Books(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BooksResponse{Total: page.Total(), Items: hitsToDTO(page.Hits())})
}

// GetUsage handles GET /usage?period=.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter period")
		return
	}

	var value string
	if raw != nil {
		value = *raw
	}
	period, err := domusage.ParsePeriod(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageToDTO(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (request.Request, bool) {
	var body QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return request.Request{}, false
	}

	req, err := request.New(body.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return request.Request{}, false
	}
	return req, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	return body, true
}

func setCompletionHeaders(w http.ResponseWriter, usage *domain.CompletionUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.TotalTokens))
		w.Header().Set("X-Completion-Calls", strconv.Itoa(usage.Calls))
	}
}
