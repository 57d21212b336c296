package domain

import (
	"context"
	"errors"
	"testing"
)

type stubCompleter struct {
	result Completion
	err    error
	got    Prompt
	health error
}

func (s *stubCompleter) Complete(_ context.Context, prompt Prompt) (Completion, error) {
	s.got = prompt
	return s.result, s.err
}

func (s *stubCompleter) HealthCheck(_ context.Context) error { return s.health }

func TestUserPrefixCompleter_PrependsPrefix(t *testing.T) {
	inner := &stubCompleter{result: Completion{Text: "{}", TotalTokens: 12}}
	c := NewUserPrefixCompleter(inner, "Build a query for: ")

	res, err := c.Complete(context.Background(), Prompt{System: "sys", User: "  direito eleitoral "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got.User != "Build a query for: direito eleitoral" {
		t.Errorf("expected prefixed user turn, got %q", inner.got.User)
	}
	if inner.got.System != "sys" {
		t.Errorf("system turn changed: %q", inner.got.System)
	}
	if res.TotalTokens != 12 {
		t.Errorf("TotalTokens = %d, want 12", res.TotalTokens)
	}
}

func TestUserPrefixCompleter_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	c := NewUserPrefixCompleter(&stubCompleter{err: innerErr}, "x: ")

	_, err := c.Complete(context.Background(), Prompt{User: "hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestUserPrefixCompleter_HealthCheck(t *testing.T) {
	want := errors.New("unhealthy")
	c := NewUserPrefixCompleter(&stubCompleter{health: want}, "")
	if err := c.HealthCheck(context.Background()); !errors.Is(err, want) {
		t.Errorf("HealthCheck() = %v, want %v", err, want)
	}
}

func TestCompletionUsage(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(10)
	UsageFromContext(ctx).AddTokens(5)
	if u.TotalTokens != 15 || u.Calls != 2 {
		t.Errorf("usage = %+v, want 15 tokens over 2 calls", *u)
	}

	var nilUsage *CompletionUsage
	nilUsage.AddTokens(3)
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil usage without collector")
	}
}

func TestQuotaExceededError(t *testing.T) {
	err := error(&QuotaExceededError{Period: "daily", Limit: 1000})
	if !errors.Is(err, ErrCompletionQuotaExceeded) {
		t.Error("expected errors.Is ErrCompletionQuotaExceeded")
	}
	if err.Error() != "completion quota exceeded: daily limit of 1000 tokens reached" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
