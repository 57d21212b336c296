package smartsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey  string
	baseURL string
	model   string

	completer Completer

	docType        string
	allowedFields  []string
	attemptTimeout time.Duration
	instructions   string
	workers        int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenAI configures an OpenAI-compatible chat completion provider.
// Empty baseURL and model fall back to the provider defaults.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
		c.model = model
	})
}

// WithCompleter sets a custom completion provider. Takes precedence over WithOpenAI.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cp
	})
}

// WithDocumentType sets the value of the mandatory type filter.
// Default: "book".
func WithDocumentType(docType string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docType = docType
	})
}

// WithAllowedFields replaces the field paths terms are harvested from.
func WithAllowedFields(paths ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.allowedFields = paths
	})
}

// WithAttemptTimeout bounds each language-model call. Default: 30s.
func WithAttemptTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.attemptTimeout = d
	})
}

// WithInstructions replaces the system prompt sent with every attempt.
func WithInstructions(system string) Option {
	return optionFunc(func(c *clientConfig) {
		c.instructions = system
	})
}

// WithWorkers sets how many generations GenerateBatch runs at once. Default: 4.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
