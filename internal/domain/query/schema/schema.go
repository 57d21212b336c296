// Package schema checks candidate queries against the closed query schema
// before anything reaches the search backend.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
)

var (
	rootKeys  = []string{"query"}
	queryKeys = []string{"bool", "match", "match_phrase", "multi_match", "range"}
	boolKeys  = []string{"must", "should", "filter", "minimum_should_match"}
	multiKeys = []string{"query", "fields", "type", "fuzziness"}
	rangeKeys = []string{"gte", "lte", "format"}
)

// Violation is one violated constraint at a JSON-pointer path.
type Violation struct {
	Path   string
	Reason string
}

func (v *Violation) Error() string {
	return v.Path + ": " + v.Reason
}

// ViolationError lists every constraint a document violates.
type ViolationError struct {
	errs *multierror.Error
}

func (e *ViolationError) Error() string {
	return "query schema violation: " + e.errs.Error()
}

// Unwrap makes errors.Is(err, domain.ErrInvalidQuery) hold.
func (e *ViolationError) Unwrap() error { return domain.ErrInvalidQuery }

// Violations returns the violated constraints in document order.
func (e *ViolationError) Violations() []string {
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

func formatViolations(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// Check validates doc against the query schema. doc may be raw JSON bytes,
// a string, a query.Document or any value that marshals to JSON.
// It returns nil, *query.InvalidInputError for non-object input, or
// *ViolationError.
func Check(doc any) error {
	raw, err := toJSON(doc)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(raw) {
		return &query.InvalidInputError{Got: "invalid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return &query.InvalidInputError{Got: query.TypeName(root)}
	}

	c := &checker{}
	c.root(root)
	if c.errs == nil {
		return nil
	}
	c.errs.ErrorFormat = formatViolations
	return &ViolationError{errs: c.errs}
}

func toJSON(doc any) ([]byte, error) {
	switch d := doc.(type) {
	case nil:
		return nil, &query.InvalidInputError{Got: "null"}
	case []byte:
		return d, nil
	case json.RawMessage:
		return d, nil
	case string:
		return []byte(d), nil
	case gjson.Result:
		return []byte(d.Raw), nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, &query.InvalidInputError{Got: fmt.Sprintf("%T", doc), Reason: err.Error()}
	}
	return b, nil
}

type checker struct {
	errs *multierror.Error
}

func (c *checker) fail(path, format string, args ...any) {
	c.errs = multierror.Append(c.errs, &Violation{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// closed reports unknown keys of an object and returns false if v is not an object.
func (c *checker) closed(path string, v gjson.Result, allowed []string) bool {
	if !v.IsObject() {
		c.fail(path, "must be object, got %s", query.TypeName(v))
		return false
	}
	v.ForEach(func(key, _ gjson.Result) bool {
		if !contains(allowed, key.String()) {
			c.fail(path, "unknown key %q", key.String())
		}
		return true
	})
	return true
}

func (c *checker) root(v gjson.Result) {
	c.closed("", v, rootKeys)
	q := v.Get("query")
	if !q.Exists() {
		c.fail("", "missing required key %q", "query")
		return
	}
	c.query("/query", q)
}

func (c *checker) query(path string, v gjson.Result) {
	if !c.closed(path, v, queryKeys) {
		return
	}
	v.ForEach(func(key, value gjson.Result) bool {
		p := path + "/" + escape(key.String())
		switch key.String() {
		case "bool":
			c.boolClause(p, value)
		case "match", "match_phrase":
			c.stringMap(p, value)
		case "multi_match":
			c.multiMatch(p, value)
		case "range":
			c.rangeClause(p, value)
		}
		return true
	})
}

func (c *checker) boolClause(path string, v gjson.Result) {
	if !c.closed(path, v, boolKeys) {
		return
	}
	v.ForEach(func(key, value gjson.Result) bool {
		p := path + "/" + escape(key.String())
		switch key.String() {
		case "must", "should", "filter":
			c.clauseArray(p, value)
		case "minimum_should_match":
			if value.Type != gjson.Number || value.Num != math.Trunc(value.Num) {
				c.fail(p, "must be integer, got %s", query.TypeName(value))
			}
		}
		return true
	})
}

// clauseArray checks the array and the type of its elements only.
func (c *checker) clauseArray(path string, v gjson.Result) {
	if !v.IsArray() {
		c.fail(path, "must be array, got %s", query.TypeName(v))
		return
	}
	for i, elem := range v.Array() {
		if !elem.IsObject() {
			c.fail(fmt.Sprintf("%s/%d", path, i), "must be object, got %s", query.TypeName(elem))
		}
	}
}

func (c *checker) stringMap(path string, v gjson.Result) {
	if !v.IsObject() {
		c.fail(path, "must be object, got %s", query.TypeName(v))
		return
	}
	v.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			c.fail(path+"/"+escape(key.String()), "must be string, got %s", query.TypeName(value))
		}
		return true
	})
}

func (c *checker) multiMatch(path string, v gjson.Result) {
	if !c.closed(path, v, multiKeys) {
		return
	}
	for _, req := range []string{"query", "fields"} {
		if !v.Get(req).Exists() {
			c.fail(path, "missing required key %q", req)
		}
	}
	v.ForEach(func(key, value gjson.Result) bool {
		p := path + "/" + escape(key.String())
		switch key.String() {
		case "query", "type", "fuzziness":
			if value.Type != gjson.String {
				c.fail(p, "must be string, got %s", query.TypeName(value))
			}
		case "fields":
			if !value.IsArray() {
				c.fail(p, "must be array, got %s", query.TypeName(value))
				return true
			}
			for i, f := range value.Array() {
				if f.Type != gjson.String {
					c.fail(fmt.Sprintf("%s/%d", p, i), "must be string, got %s", query.TypeName(f))
				}
			}
		}
		return true
	})
}

func (c *checker) rangeClause(path string, v gjson.Result) {
	if !v.IsObject() {
		c.fail(path, "must be object, got %s", query.TypeName(v))
		return
	}
	v.ForEach(func(field, bounds gjson.Result) bool {
		p := path + "/" + escape(field.String())
		if !c.closed(p, bounds, rangeKeys) {
			return true
		}
		bounds.ForEach(func(key, value gjson.Result) bool {
			if contains(rangeKeys, key.String()) && value.Type != gjson.String {
				c.fail(p+"/"+key.String(), "must be string, got %s", query.TypeName(value))
			}
			return true
		})
		return true
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// escape encodes a key as a JSON-pointer reference token.
func escape(key string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(key)
}
