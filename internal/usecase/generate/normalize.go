package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
)

// stripFences removes a surrounding markdown code fence.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// normalize turns a model response into a query restricted to docType.
//
// A bool query with should clauses becomes bool.must = [filter, should...];
// every other bool member is dropped and the should clauses become
// required. A query with a truthy match, match_phrase or multi_match member
// is kept whole, whatever that member's shape, as the second must clause.
// Anything else is a ShapeError.
func normalize(text, docType string) (query.Document, error) {
	body := stripFences(text)
	if !gjson.Valid(body) {
		return query.Document{}, &ParseError{Response: text}
	}

	parsed, err := query.Parse([]byte(body))
	if err != nil {
		return query.Document{}, &ShapeError{Got: "top-level " + describe(body)}
	}
	if parsed.Query == nil {
		return query.Document{}, &ShapeError{Got: "no query object"}
	}

	filter := query.TypeFilter(docType)
	var doc query.Document
	if b, ok := find(parsed.Query, query.KindBool).(*query.Bool); ok && b.Should != nil {
		doc = query.Wrap(filter, b.Should...)
	} else if hasLeaf(body) {
		doc = query.Wrap(filter, parsed.Query)
	} else {
		return query.Document{}, &ShapeError{Got: "no usable bool.should or match clause in query keys " + keysOf(parsed.Query)}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return query.Document{}, fmt.Errorf("encode wrapped query: %w", err)
	}
	if err := schema.Check(raw); err != nil {
		return query.Document{}, &SchemaViolation{Err: err}
	}
	return doc, nil
}

// find returns c, or the first member of a compound object, of kind k.
func find(c query.Clause, k query.Kind) query.Clause {
	if c.Kind() == k {
		return c
	}
	if comp, ok := c.(*query.Compound); ok {
		for _, m := range comp.Clauses {
			if m.Kind() == k {
				return m
			}
		}
	}
	return nil
}

// hasLeaf reports whether body.query carries a match, match_phrase or
// multi_match member that is not false, null, 0 or "".
func hasLeaf(body string) bool {
	for _, k := range []query.Kind{query.KindMultiMatch, query.KindMatchPhrase, query.KindMatch} {
		if truthy(gjson.Get(body, "query."+string(k))) {
			return true
		}
	}
	return false
}

func truthy(v gjson.Result) bool {
	switch {
	case !v.Exists():
		return false
	case v.Type == gjson.Null, v.Type == gjson.False:
		return false
	case v.Type == gjson.String:
		return v.Str != ""
	case v.Type == gjson.Number:
		return v.Num != 0
	default:
		return true
	}
}

func keysOf(c query.Clause) string {
	var keys []string
	members := []query.Clause{c}
	if comp, ok := c.(*query.Compound); ok {
		members = comp.Clauses
	}
	for _, m := range members {
		if u, ok := m.(*query.Unknown); ok {
			keys = append(keys, u.Key)
			continue
		}
		keys = append(keys, string(m.Kind()))
	}
	return "[" + strings.Join(keys, ", ") + "]"
}

func describe(body string) string {
	return query.TypeName(gjson.Parse(body))
}
