package query

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Parse decodes a JSON object into a Document, preserving member order.
// Anything that is a JSON object parses; shapes outside the known clause set
// become Unknown nodes. Non-object input returns *InvalidInputError.
func Parse(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Document{}, &InvalidInputError{Got: "empty input"}
	}
	if !gjson.ValidBytes(raw) {
		return Document{}, &InvalidInputError{Got: "invalid JSON"}
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Document{}, &InvalidInputError{Got: TypeName(root)}
	}

	var doc Document
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "query" && value.IsObject() {
			doc.Query = decodeObject(value, 1)
			return true
		}
		doc.Other = append(doc.Other, decodeUnknown(key.String(), value, 1))
		return true
	})
	return doc, nil
}

// TypeName names the JSON type of v for diagnostics.
func TypeName(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	default:
		return "JSON"
	}
}

// decodeObject turns an object into a single clause, or a Compound when it
// carries zero or several keys.
func decodeObject(v gjson.Result, depth int) Clause {
	if depth > MaxDepth {
		return &Unknown{Raw: json.RawMessage(v.Raw)}
	}
	var members []Clause
	v.ForEach(func(key, value gjson.Result) bool {
		members = append(members, decodeMember(key.String(), value, depth+1))
		return true
	})
	if len(members) == 1 {
		return members[0]
	}
	return &Compound{Clauses: members}
}

func decodeMember(key string, v gjson.Result, depth int) Clause {
	if depth > MaxDepth {
		return &Unknown{Key: key, Raw: json.RawMessage(v.Raw)}
	}
	if v.IsObject() {
		switch Kind(key) {
		case KindMatch:
			return &Match{Fields: decodeFieldQueries(v)}
		case KindMatchPhrase:
			return &MatchPhrase{Fields: decodeFieldQueries(v)}
		case KindMultiMatch:
			return decodeMultiMatch(v)
		case KindRange:
			return decodeRange(v)
		case KindBool:
			return decodeBool(v, depth)
		}
	}
	return decodeUnknown(key, v, depth)
}

func decodeUnknown(key string, v gjson.Result, depth int) *Unknown {
	return &Unknown{
		Key:      key,
		Raw:      json.RawMessage(v.Raw),
		Children: decodeChildren(v, depth),
	}
}

// decodeChildren finds clauses beneath an unrecognized value.
func decodeChildren(v gjson.Result, depth int) []Clause {
	if depth >= MaxDepth {
		return nil
	}
	var out []Clause
	switch {
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			out = append(out, decodeMember(key.String(), value, depth+1))
			return true
		})
	case v.IsArray():
		for _, elem := range v.Array() {
			if elem.IsObject() {
				out = append(out, decodeObject(elem, depth+1))
				continue
			}
			out = append(out, decodeChildren(elem, depth+1)...)
		}
	}
	return out
}

func decodeFieldQueries(v gjson.Result) []FieldQuery {
	var out []FieldQuery
	v.ForEach(func(key, value gjson.Result) bool {
		fq := FieldQuery{Field: key.String()}
		switch {
		case value.Type == gjson.String:
			fq.Query = value.Str
		case value.IsObject():
			if q := value.Get("query"); q.Type == gjson.String {
				fq.Query = q.Str
			}
			fq.Raw = json.RawMessage(value.Raw)
		default:
			fq.Raw = json.RawMessage(value.Raw)
		}
		out = append(out, fq)
		return true
	})
	return out
}

func decodeMultiMatch(v gjson.Result) *MultiMatch {
	m := &MultiMatch{QueryAbsent: !v.Get("query").Exists()}
	v.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		switch {
		case k == "query" && value.Type == gjson.String:
			m.Query = value.Str
			return true
		case k == "fields" && isStringArray(value):
			m.Fields = make([]string, 0, len(value.Array()))
			for _, f := range value.Array() {
				m.Fields = append(m.Fields, f.Str)
			}
			return true
		case k == "type" && value.Type == gjson.String:
			m.Type = value.Str
			return true
		case k == "fuzziness" && value.Type == gjson.String:
			m.Fuzziness = value.Str
			return true
		}
		if m.Options == nil {
			m.Options = make(map[string]json.RawMessage)
		}
		m.Options[k] = json.RawMessage(value.Raw)
		return true
	})
	return m
}

func decodeRange(v gjson.Result) *Range {
	r := &Range{}
	v.ForEach(func(key, value gjson.Result) bool {
		rf := RangeField{Field: key.String()}
		clean := value.IsObject()
		if clean {
			value.ForEach(func(bound, b gjson.Result) bool {
				if b.Type != gjson.String {
					clean = false
					return false
				}
				switch bound.String() {
				case "gte":
					rf.GTE = b.Str
				case "lte":
					rf.LTE = b.Str
				case "format":
					rf.Format = b.Str
				default:
					clean = false
					return false
				}
				return true
			})
		}
		if !clean {
			rf.Raw = json.RawMessage(value.Raw)
		}
		r.Fields = append(r.Fields, rf)
		return true
	})
	return r
}

func decodeBool(v gjson.Result, depth int) *Bool {
	b := &Bool{}
	v.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		switch {
		case k == "must" && value.IsArray():
			b.Must = decodeElements(value, depth)
		case k == "filter" && value.IsArray():
			b.Filter = decodeElements(value, depth)
		case k == "should" && value.IsArray():
			b.Should = decodeElements(value, depth)
		case k == "minimum_should_match":
			b.MinimumShouldMatch = json.RawMessage(value.Raw)
		default:
			b.Other = append(b.Other, decodeUnknown(k, value, depth+1))
			k = ""
		}
		b.order = append(b.order, k)
		return true
	})
	return b
}

// decodeElements never returns nil so that an empty array re-encodes as [].
func decodeElements(v gjson.Result, depth int) []Clause {
	elems := v.Array()
	out := make([]Clause, 0, len(elems))
	for _, elem := range elems {
		if elem.IsObject() {
			out = append(out, decodeObject(elem, depth+1))
			continue
		}
		out = append(out, &Unknown{Raw: json.RawMessage(elem.Raw)})
	}
	return out
}

func isStringArray(v gjson.Result) bool {
	if !v.IsArray() {
		return false
	}
	for _, e := range v.Array() {
		if e.Type != gjson.String {
			return false
		}
	}
	return true
}
