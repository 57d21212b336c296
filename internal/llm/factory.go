// Package llm assembles the completion provider chain from configuration.
package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/transport/langchain"
	openaiTransport "github.com/kailas-cloud/smartsearch/internal/transport/openai"
	"github.com/kailas-cloud/smartsearch/internal/usecase/budget"
)

// NewTracker returns a budget tracker when a limit is configured, nil otherwise.
func NewTracker(cfg config.LLMConfig, logger *zap.Logger) *budget.Tracker {
	b := cfg.Budget
	if b.DailyTokenLimit <= 0 && b.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := budget.ActionWarn
	if b.Action == string(budget.ActionReject) {
		action = budget.ActionReject
	}
	return budget.NewTracker(cfg.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger)
}

// NewCompleter assembles the decorator chain: provider -> Instrumented.
// tracker may be nil.
func NewCompleter(cfg config.LLMConfig, tracker *budget.Tracker, logger *zap.Logger) (*budget.InstrumentedCompleter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var base domain.Completer
	switch cfg.Driver {
	case config.DriverLangchain:
		c, err := langchain.NewOpenAICompleter(&langchain.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Provider:    cfg.Provider,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("langchain completer: %w", err)
		}
		base = c
	case config.DriverOpenAI, "":
		base = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: float32(cfg.Temperature),
			Provider:    cfg.Provider,
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("unknown llm driver %q", cfg.Driver)
	}

	// Pass nil interface (not typed nil pointer!) when no budget is configured.
	var checker budget.Checker
	if tracker != nil {
		checker = tracker
	}
	return budget.NewInstrumentedCompleter(base, cfg.Provider, cfg.Model, checker, logger), nil
}
