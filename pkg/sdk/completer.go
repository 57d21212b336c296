package smartsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Completer sends one chat turn to a language model.
// Plug in any provider with WithCompleter.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// Prompt is the system instructions plus the user's text.
type Prompt struct {
	System string
	User   string
}

// Completion carries the raw model text and token counts.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// completerAdapter wraps public Completer to satisfy internal domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	r, err := a.inner.Complete(ctx, Prompt{System: p.System, User: p.User})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}
	return domain.Completion{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}, nil
}

func (a *completerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
