// Package terms harvests the literal search tokens of a structured query,
// the words a caller highlights in results.
package terms

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/fields"
)

// Extractor collects terms from clauses on allowed fields. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	allowed fields.Set
}

// NewExtractor creates an Extractor restricted to allowed.
func NewExtractor(allowed fields.Set) *Extractor {
	return &Extractor{allowed: allowed}
}

// Extract returns the lowercase tokens of doc in first-occurrence order,
// without duplicates. Phrases are kept whole; match and multi_match text is
// split on whitespace. It never fails: shapes it does not recognize add nothing.
func (e *Extractor) Extract(doc query.Document) []string {
	acc := newAccumulator()
	query.Walk(doc, func(c query.Clause) bool {
		switch n := c.(type) {
		case *query.MatchPhrase:
			for _, fq := range n.Fields {
				if e.allowed.Contains(fq.Field) {
					acc.add(fq.Query)
				}
			}
		case *query.Match:
			for _, fq := range n.Fields {
				if e.allowed.Contains(fq.Field) {
					acc.addWords(fq.Query)
				}
			}
		case *query.MultiMatch:
			acc.addWords(n.Query)
		}
		return true
	})
	return acc.terms
}

// ExtractRaw parses raw and extracts its terms. Only *query.InvalidInputError
// is returned.
func (e *Extractor) ExtractRaw(raw []byte) ([]string, error) {
	doc, err := query.Parse(raw)
	if err != nil {
		return nil, err
	}
	return e.Extract(doc), nil
}

type accumulator struct {
	lower cases.Caser
	seen  map[string]struct{}
	terms []string
}

func newAccumulator() *accumulator {
	return &accumulator{
		lower: cases.Lower(language.Und),
		seen:  make(map[string]struct{}),
		terms: []string{},
	}
}

func (a *accumulator) add(term string) {
	if term == "" {
		return
	}
	term = a.lower.String(term)
	if _, dup := a.seen[term]; dup {
		return
	}
	a.seen[term] = struct{}{}
	a.terms = append(a.terms, term)
}

func (a *accumulator) addWords(text string) {
	for _, w := range strings.Fields(text) {
		a.add(w)
	}
}
