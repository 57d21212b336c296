package domain

import (
	"context"
	"fmt"
	"strings"
)

// Completer is the language-model contract between layers: a prompt in,
// free text out.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Prompt is one chat turn: fixed instructions plus the user's text.
type Prompt struct {
	System string
	User   string
}

// Completion carries the raw model text and token usage through the decorator chain.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// UserPrefixCompleter is a domain decorator that prepends a fixed lead-in to
// the user turn before delegating.
type UserPrefixCompleter struct {
	inner  Completer
	prefix string
}

// NewUserPrefixCompleter creates a decorator that prepends prefix to the user turn.
func NewUserPrefixCompleter(inner Completer, prefix string) *UserPrefixCompleter {
	return &UserPrefixCompleter{inner: inner, prefix: prefix}
}

// Complete prepends the prefix and delegates to the inner completer.
func (c *UserPrefixCompleter) Complete(ctx context.Context, prompt Prompt) (Completion, error) {
	prompt.User = c.prefix + strings.TrimSpace(prompt.User)
	res, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return Completion{}, fmt.Errorf("prefixed complete: %w", err)
	}
	return res, nil
}

// HealthCheck delegates to the inner completer when it supports health checks.
func (c *UserPrefixCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
