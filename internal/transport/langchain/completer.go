// Package langchain adapts any langchaingo chat model to domain.Completer.
package langchain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// Completer sends prompts through a langchaingo model.
type Completer struct {
	model       llms.Model
	modelName   string
	temperature float64
	provider    string
	logger      *zap.Logger
}

// Config holds the langchaingo provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Provider    string
	Logger      *zap.Logger
}

// NewOpenAICompleter creates a Completer backed by the langchaingo OpenAI client.
func NewOpenAICompleter(cfg *Config) (*Completer, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain openai client: %w", err)
	}
	return NewCompleter(client, cfg), nil
}

// NewCompleter wraps an existing langchaingo model.
func NewCompleter(model llms.Model, cfg *Config) *Completer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "langchain"
	}
	return &Completer{
		model:       model,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		provider:    provider,
		logger:      logger,
	}
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithTemperature(c.temperature),
		llms.WithJSONMode(),
	)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.modelName, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.modelName, "api_error").Inc()
		return domain.Completion{}, fmt.Errorf("generate content: %w: %w", domain.ErrCompletionProviderError, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.modelName, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.modelName, "empty_response").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.modelName, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.modelName).Observe(duration.Seconds())

	choice := resp.Choices[0]
	out := domain.Completion{
		Text:             choice.Content,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}
	if out.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.modelName, "prompt").Add(float64(out.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.modelName, "completion").Add(float64(out.CompletionTokens))
	}

	c.logger.Debug("Chat completion received",
		zap.String("provider", c.provider),
		zap.String("model", c.modelName),
		zap.String("stop_reason", choice.StopReason),
		zap.Duration("duration", duration),
	)
	return out, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
