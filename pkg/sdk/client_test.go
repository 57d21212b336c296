package smartsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/smartsearch/internal/domain/query"
)

type stubCompleter struct {
	mu      sync.Mutex
	answers map[string]string
	prompts []Prompt
	err     error
}

func (s *stubCompleter) Complete(_ context.Context, p Prompt) (Completion, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()
	if s.err != nil {
		return Completion{}, s.err
	}
	for k, v := range s.answers {
		if strings.HasSuffix(p.User, k) {
			return Completion{Text: v, TotalTokens: 10}, nil
		}
	}
	return Completion{Text: "I cannot help with that"}, nil
}

func newTestClient(t *testing.T, cp Completer, opts ...Option) *Client {
	t.Helper()
	c, err := New(append([]Option{WithCompleter(cp)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGenerate(t *testing.T) {
	cp := &stubCompleter{answers: map[string]string{
		"direito eleitoral": "```json\n{\"query\":{\"match\":{\"text_2\":\"direito eleitoral\"}}}\n```",
	}}
	c := newTestClient(t, cp)

	res, err := c.Generate(context.Background(), "direito eleitoral")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := `{"query":{"bool":{"must":[{"match":{"type":"book"}},{"match":{"text_2":"direito eleitoral"}}]}}}`
	if string(res.Query) != want {
		t.Errorf("query = %s, want %s", res.Query, want)
	}
	if got := strings.Join(res.SearchTerms, ","); got != "direito,eleitoral" {
		t.Errorf("terms = %q, want direito,eleitoral", got)
	}
	if len(cp.prompts) != 1 || cp.prompts[0].System == "" {
		t.Errorf("expected one prompt with instructions, got %+v", cp.prompts)
	}
}

func TestGenerate_DocumentType(t *testing.T) {
	cp := &stubCompleter{answers: map[string]string{
		"lei": `{"query":{"match":{"text_2":"lei"}}}`,
	}}
	c := newTestClient(t, cp, WithDocumentType("article"))

	res, err := c.Generate(context.Background(), "lei")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.Contains(res.Query, []byte(`{"match":{"type":"article"}}`)) {
		t.Errorf("query %s lacks the article filter", res.Query)
	}
}

func TestGenerate_NotUnderstood(t *testing.T) {
	cp := &stubCompleter{}
	c := newTestClient(t, cp)

	_, err := c.Generate(context.Background(), "???")
	if !errors.Is(err, ErrQueryNotUnderstood) {
		t.Fatalf("err = %v, want ErrQueryNotUnderstood", err)
	}
	var gf *GenerationFailedError
	if !errors.As(err, &gf) {
		t.Fatalf("err = %T, want *GenerationFailedError", err)
	}
	if gf.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", gf.Attempts)
	}
	if gf.Reason() != "parse_error" {
		t.Errorf("reason = %q, want parse_error", gf.Reason())
	}
	if len(cp.prompts) != 3 {
		t.Errorf("completer called %d times, want 3", len(cp.prompts))
	}
}

func TestGenerate_NoCompleter(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Generate(context.Background(), "x"); !errors.Is(err, ErrNoCompleter) {
		t.Errorf("err = %v, want ErrNoCompleter", err)
	}
	if _, err := c.GenerateBatch(context.Background(), []string{"x"}); !errors.Is(err, ErrNoCompleter) {
		t.Errorf("batch err = %v, want ErrNoCompleter", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, ErrNoCompleter) {
		t.Errorf("ping err = %v, want ErrNoCompleter", err)
	}
}

func TestGenerateBatch(t *testing.T) {
	cp := &stubCompleter{answers: map[string]string{
		"lei":  `{"query":{"match":{"text_2":"lei"}}}`,
		"voto": `{"query":{"bool":{"should":[{"match":{"text_2":"voto"}}]}}}`,
	}}
	c := newTestClient(t, cp, WithWorkers(2), WithAttemptTimeout(time.Second))

	out, err := c.GenerateBatch(context.Background(), []string{"lei", "nada", "voto"})
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].Err != nil || out[0].Input != "lei" || len(out[0].SearchTerms) != 1 {
		t.Errorf("item 0 = %+v", out[0])
	}
	if !errors.Is(out[1].Err, ErrQueryNotUnderstood) {
		t.Errorf("item 1 err = %v, want ErrQueryNotUnderstood", out[1].Err)
	}
	if out[2].Err != nil || out[2].SearchTerms[0] != "voto" {
		t.Errorf("item 2 = %+v", out[2])
	}

	if _, err := c.GenerateBatch(context.Background(), nil); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("empty batch err = %v, want ErrInvalidQuery", err)
	}
}

func TestValidate(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ok, err := c.Validate([]byte(`{"query":{"match":{"text_2":"a"}}}`))
	if err != nil || !ok {
		t.Errorf("valid query: ok=%v err=%v", ok, err)
	}

	ok, err = c.Validate([]byte(`{"query":{"match":{"text_2":"a"}},"size":5}`))
	if err != nil || ok {
		t.Errorf("extra root key: ok=%v err=%v", ok, err)
	}

	if _, err := c.Validate([]byte(`[1,2]`)); err == nil {
		t.Error("expected error for non-object input")
	}

	v, err := c.Violations([]byte(`{"query":{"bool":{"must_not":[]}}}`))
	if err != nil {
		t.Fatalf("Violations: %v", err)
	}
	if len(v) != 1 || !strings.Contains(v[0], `unknown key "must_not"`) {
		t.Errorf("violations = %q", v)
	}
}

func TestExtractTerms(t *testing.T) {
	c, err := New(WithAllowedFields("title"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.ExtractTerms([]byte(`{"query":{"bool":{"must":[
		{"match":{"title":"Código Civil"}},
		{"match":{"text_2":"ignored"}}]}}}`))
	if err != nil {
		t.Fatalf("ExtractTerms: %v", err)
	}
	if strings.Join(got, ",") != "código,civil" {
		t.Errorf("terms = %q", got)
	}

	if _, err := c.ExtractTerms([]byte(`"text"`)); err == nil {
		t.Error("expected error for non-object input")
	}
}

func TestNew_BadFields(t *testing.T) {
	if _, err := New(WithAllowedFields("")); err == nil {
		t.Fatal("expected error for an empty field path")
	}
}

func TestObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := New(WithLogger(logger), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _ = c.Validate([]byte(`{"query":{"match":{"text_2":"a"}}}`))
	_, _ = c.Validate([]byte(`null`))

	ok := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("validate", "ok"))
	failed := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("validate", "invalid_input"))
	if ok != 1 || failed != 1 {
		t.Errorf("operations ok=%v invalid_input=%v, want 1 and 1", ok, failed)
	}
	if !strings.Contains(logs.String(), "operation failed") {
		t.Errorf("expected a warning line, got %q", logs.String())
	}

	// A second client on the same registry reuses the collectors.
	if _, err := New(WithPrometheus(reg)); err != nil {
		t.Errorf("second client: %v", err)
	}
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("validate: %w", &query.InvalidInputError{Got: "array"}), "invalid_input"},
		{&GenerationFailedError{Attempts: 3}, "not_understood"},
		{fmt.Errorf("x: %w", ErrCompletionQuotaExceeded), "provider_error"},
		{ErrNoCompleter, "not_configured"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		if got := outcome(tc.err); got != tc.want {
			t.Errorf("outcome(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("noop", time.Now(), nil)
}
