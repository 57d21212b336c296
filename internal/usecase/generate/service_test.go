package generate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// --- Mocks ---

type scriptedCompleter struct {
	mu      sync.Mutex
	replies []reply
	prompts []domain.Prompt
}

type reply struct {
	text string
	err  error
	wait bool // block until the attempt context is done
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error) {
	c.mu.Lock()
	n := len(c.prompts)
	c.prompts = append(c.prompts, prompt)
	r := c.replies[len(c.replies)-1]
	if n < len(c.replies) {
		r = c.replies[n]
	}
	c.mu.Unlock()

	if r.wait {
		<-ctx.Done()
		return domain.Completion{}, ctx.Err()
	}
	if r.err != nil {
		return domain.Completion{}, r.err
	}
	return domain.Completion{Text: r.text, TotalTokens: 42}, nil
}

func (c *scriptedCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func replies(texts ...string) *scriptedCompleter {
	c := &scriptedCompleter{}
	for _, t := range texts {
		c.replies = append(c.replies, reply{text: t})
	}
	return c
}

func assertGolden(t *testing.T, name string, doc query.Document) {
	t.Helper()
	out, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, append(out, '\n'))
}

// --- Tests ---

func TestGenerate_ShouldFlattenedIntoMust(t *testing.T) {
	c := replies(`{"query":{"bool":{
		"should":[{"match":{"text_2":"direito eleitoral"}},{"match_phrase":{"editions.authors.title":"Jane Doe"}}],
		"must_not":[{"match":{"text_2":"penal"}}],
		"minimum_should_match":1}}}`)

	doc, err := New(c, nil).Generate(context.Background(), "livros de direito eleitoral da Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls())

	assertGolden(t, "should_flattened_into_must", doc)
	assert.NoError(t, schema.Check(doc))
}

func TestGenerate_LeafWrapped(t *testing.T) {
	c := replies("```json\n" + `{"query":{"multi_match":{"query":"direito eleitoral","fields":["text_2","text_3"],"type":"best_fields","boost":2}}}` + "\n```")

	doc, err := New(c, nil).Generate(context.Background(), "direito eleitoral")
	require.NoError(t, err)

	assertGolden(t, "leaf_wrapped", doc)
}

func TestGenerate_LeafKinds(t *testing.T) {
	for _, resp := range []string{
		`{"query":{"match":{"text_3":"lei"}}}`,
		`{"query":{"match_phrase":{"text_2":"Código Civil"}}}`,
		`{"query":{"multi_match":{"query":"lei","fields":["text_2"]}},"size":5}`,
	} {
		doc, err := New(replies(resp), nil).Generate(context.Background(), "q")
		require.NoError(t, err, resp)

		b, ok := doc.Query.(*query.Bool)
		require.True(t, ok)
		require.Len(t, b.Must, 2)
		assert.Equal(t, query.TypeFilter(query.DefaultDocumentType), b.Must[0])
		assert.Empty(t, doc.Other, "root members besides query are dropped")
	}
}

func TestGenerate_NonObjectLeafWrapped(t *testing.T) {
	c := replies(`{"query":{"match":"direito"}}`)

	doc, err := New(c, nil).Generate(context.Background(), "direito")
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"bool":{"must":[{"match":{"type":"book"}},{"match":"direito"}]}}}`, string(out))
	assert.NoError(t, schema.Check(doc))
}

func TestGenerate_ExactlyThreeAttemptsOnGarbage(t *testing.T) {
	c := replies("I cannot help with that.")
	before := testutil.ToFloat64(metrics.GenerationAttemptsTotal.WithLabelValues(metrics.AttemptParseError))

	_, err := New(c, nil).Generate(context.Background(), "???")

	var gf *GenerationFailedError
	require.True(t, errors.As(err, &gf), "expected GenerationFailedError, got %v", err)
	assert.Equal(t, MaxAttempts, gf.Attempts)
	assert.Equal(t, 3, c.calls(), "no fourth attempt")
	assert.True(t, errors.Is(err, domain.ErrQueryNotUnderstood))

	var pe *ParseError
	assert.True(t, errors.As(gf.Last, &pe))

	after := testutil.ToFloat64(metrics.GenerationAttemptsTotal.WithLabelValues(metrics.AttemptParseError))
	assert.Equal(t, float64(3), after-before)
}

func TestGenerate_RetriesUntilValid(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{
		{err: errors.New("connection reset")},
		{text: `{"query":{"range":{"publish_date":{"gte":"2010"}}}}`},
		{text: `{"query":{"match":{"text_2":"eleitoral"}}}`},
	}}

	doc, err := New(c, nil).Generate(context.Background(), "eleitoral")
	require.NoError(t, err)
	assert.Equal(t, 3, c.calls())

	b := doc.Query.(*query.Bool)
	assert.Equal(t, query.NewMatch("text_2", "eleitoral"), b.Must[1])
}

func TestGenerate_StopsAtFirstSuccess(t *testing.T) {
	c := replies(`{"query":{"match":{"text_2":"a"}}}`, `{"query":{"match":{"text_2":"b"}}}`)

	_, err := New(c, nil).Generate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls())
}

func TestGenerate_FailureReasons(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
		check func(t *testing.T, last error)
	}{
		{
			name:  "provider",
			reply: reply{err: domain.ErrRateLimited},
			check: func(t *testing.T, last error) {
				var pe *ProviderError
				assert.True(t, errors.As(last, &pe))
				assert.True(t, errors.Is(last, domain.ErrCompletionProviderError))
				assert.True(t, errors.Is(last, domain.ErrRateLimited))
			},
		},
		{
			name:  "shape",
			reply: reply{text: `{"query":{"bool":{"must":[{"match":{"text_2":"a"}}]}}}`},
			check: func(t *testing.T, last error) {
				var se *ShapeError
				require.True(t, errors.As(last, &se))
				assert.Equal(t, "no usable bool.should or match clause in query keys [bool]", se.Got)
			},
		},
		{
			name:  "empty leaf",
			reply: reply{text: `{"query":{"match":"","match_phrase":null}}`},
			check: func(t *testing.T, last error) {
				var se *ShapeError
				require.True(t, errors.As(last, &se))
				assert.Equal(t, "no usable bool.should or match clause in query keys [match, match_phrase]", se.Got)
			},
		},
		{
			name:  "non-object JSON",
			reply: reply{text: `["match"]`},
			check: func(t *testing.T, last error) {
				var se *ShapeError
				assert.True(t, errors.As(last, &se))
			},
		},
		{
			name:  "schema",
			reply: reply{text: `{"query":{"bool":{"should":["direito"]}}}`},
			check: func(t *testing.T, last error) {
				var sv *SchemaViolation
				require.True(t, errors.As(last, &sv))
				assert.True(t, errors.Is(last, domain.ErrInvalidQuery))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedCompleter{replies: []reply{tt.reply}}
			_, err := New(c, nil).Generate(context.Background(), "q")

			var gf *GenerationFailedError
			require.True(t, errors.As(err, &gf))
			assert.Equal(t, 3, gf.Attempts)
			tt.check(t, gf.Last)
		})
	}
}

func TestGenerate_AttemptTimeout(t *testing.T) {
	c := &scriptedCompleter{replies: []reply{{wait: true}}}

	_, err := New(c, nil).WithAttemptTimeout(10*time.Millisecond).Generate(context.Background(), "q")

	var gf *GenerationFailedError
	require.True(t, errors.As(err, &gf))
	assert.Equal(t, 3, c.calls())
	assert.True(t, errors.Is(gf.Last, context.DeadlineExceeded))
}

func TestGenerate_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := replies(`{"query":{"match":{"text_2":"a"}}}`)

	_, err := New(c, nil).Generate(ctx, "q")

	var gf *GenerationFailedError
	require.True(t, errors.As(err, &gf))
	assert.Equal(t, 0, gf.Attempts)
	assert.Equal(t, 0, c.calls())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerate_PromptAndDocumentType(t *testing.T) {
	c := replies(`{"query":{"match":{"text_2":"a"}}}`)

	doc, err := New(c, nil).WithDocumentType("article").Generate(context.Background(), "  direito ")
	require.NoError(t, err)

	require.Equal(t, 1, c.calls())
	assert.Equal(t, DefaultInstructions().System, c.prompts[0].System)
	assert.Equal(t, DefaultUserPrefix+"direito", c.prompts[0].User)
	assert.Equal(t, query.TypeFilter("article"), doc.Query.(*query.Bool).Must[0])
}

func TestGenerate_ConcurrentCallsIndependent(t *testing.T) {
	c := replies(`{"query":{"match":{"text_2":"a"}}}`)
	svc := New(c, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(context.Background(), "a")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, c.calls())
}

func TestLoadInstructions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books_v2.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Build queries.\n"), 0o600))

	in, err := LoadInstructions(path)
	require.NoError(t, err)
	assert.Equal(t, "books_v2", in.Version)
	assert.Equal(t, "Build queries.", in.System)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte(" \n"), 0o600))
	_, err = LoadInstructions(empty)
	assert.Error(t, err)

	_, err = LoadInstructions(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDefaultInstructions(t *testing.T) {
	in := DefaultInstructions()
	assert.Equal(t, "books_v1", in.Version)
	assert.Contains(t, in.System, "editions.chapters")
	assert.Contains(t, in.System, "cross_fields")
}
