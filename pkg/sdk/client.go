package smartsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	dombatch "github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/fields"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/terms"
	openaiTransport "github.com/kailas-cloud/smartsearch/internal/transport/openai"
	batchuc "github.com/kailas-cloud/smartsearch/internal/usecase/batch"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
)

var errNoCompleter = errors.New("smartsearch: completer not configured (use WithOpenAI or WithCompleter)")

// Result is a generated query and its search terms.
type Result struct {
	Query       json.RawMessage
	SearchTerms []string
}

// BatchResult is the outcome of one input of GenerateBatch.
type BatchResult struct {
	Input string
	Result
	Err error
}

// Client generates, validates and inspects structured queries in process.
// A Client is safe for concurrent use.
type Client struct {
	completer domain.Completer
	generator *generate.Service
	validator *schema.Validator
	extractor *terms.Extractor
	workers   int
	obs       *observer
}

// New creates a Client. Without WithOpenAI or WithCompleter the client can
// still validate and extract terms; Generate returns ErrNoCompleter.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	allowed := fields.Default()
	if len(cfg.allowedFields) > 0 {
		var err error
		allowed, err = fields.New(cfg.allowedFields...)
		if err != nil {
			return nil, fmt.Errorf("smartsearch: allowed fields: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		completer: newCompleter(cfg),
		validator: schema.NewValidator(nil),
		extractor: terms.NewExtractor(allowed),
		workers:   cfg.workers,
		obs:       obs,
	}

	if c.completer != nil {
		gen := generate.New(c.completer, nil)
		if cfg.docType != "" {
			gen = gen.WithDocumentType(cfg.docType)
		}
		if cfg.attemptTimeout > 0 {
			gen = gen.WithAttemptTimeout(cfg.attemptTimeout)
		}
		if cfg.instructions != "" {
			in := generate.DefaultInstructions()
			in.Version = "custom"
			in.System = cfg.instructions
			gen = gen.WithInstructions(in)
		}
		c.generator = gen
	}
	return c, nil
}

func newCompleter(cfg *clientConfig) domain.Completer {
	switch {
	case cfg.completer != nil:
		return &completerAdapter{inner: cfg.completer}
	case cfg.apiKey != "":
		return openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.apiKey,
			BaseURL:  cfg.baseURL,
			Model:    cfg.model,
			Provider: "openai",
		})
	default:
		return nil
	}
}

// Ping checks that the completion provider is reachable.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.completer == nil {
		return errNoCompleter
	}
	hc, ok := c.completer.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err = hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Generate turns userQuery into a validated structured query. After three
// failed attempts the error is a *GenerationFailedError matching
// ErrQueryNotUnderstood.
func (c *Client) Generate(ctx context.Context, userQuery string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("generate", start, err) }()

	if c.generator == nil {
		return Result{}, errNoCompleter
	}
	doc, err := c.generator.Generate(ctx, userQuery)
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return Result{}, fmt.Errorf("encode query: %w", err)
	}
	return Result{Query: raw, SearchTerms: c.extractor.Extract(doc)}, nil
}

// GenerateBatch runs Generate for every input concurrently. Results keep
// input order; one failure never affects the others.
func (c *Client) GenerateBatch(ctx context.Context, inputs []string) (out []BatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("generate_batch", start, err) }()

	if c.generator == nil {
		return nil, errNoCompleter
	}
	results, err := batchuc.New(c.generator, c.extractor).
		WithWorkers(c.workers).
		Generate(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("generate batch: %w", err)
	}

	out = make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = batchResultFromDomain(r)
	}
	return out, nil
}

func batchResultFromDomain(r dombatch.Result) BatchResult {
	br := BatchResult{Input: r.Input()}
	if r.Err() != nil {
		br.Err = r.Err()
		return br
	}
	raw, err := json.Marshal(r.Query())
	if err != nil {
		br.Err = fmt.Errorf("encode query: %w", err)
		return br
	}
	br.Query = raw
	br.SearchTerms = r.Terms()
	return br
}

// Validate reports whether raw satisfies the closed query schema. The error
// is non-nil only when raw is not a JSON object.
func (c *Client) Validate(raw []byte) (ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("validate", start, err) }()

	ok, err = c.validator.Validate(raw)
	if err != nil {
		return false, fmt.Errorf("validate: %w", err)
	}
	return ok, nil
}

// Violations lists every schema constraint raw violates, nil when valid.
func (c *Client) Violations(raw []byte) (v []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("violations", start, err) }()

	v, err = c.validator.Violations(raw)
	if err != nil {
		return nil, fmt.Errorf("violations: %w", err)
	}
	return v, nil
}

// ExtractTerms returns the lowercase search terms of a structured query in
// first-occurrence order.
func (c *Client) ExtractTerms(raw []byte) (t []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("extract_terms", start, err) }()

	t, err = c.extractor.ExtractRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("extract terms: %w", err)
	}
	return t, nil
}
