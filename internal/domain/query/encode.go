package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type member struct {
	key   string
	value json.RawMessage
}

func writeObject(members []member) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalString(m.key))
		buf.WriteByte(':')
		buf.Write(m.value)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func marshalString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func marshalClauses(cs []Clause) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := c.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// membersOf returns the key/value pairs a clause contributes to its parent object.
func membersOf(c Clause) ([]member, error) {
	switch n := c.(type) {
	case *Compound:
		var out []member
		for _, child := range n.Clauses {
			ms, err := membersOf(child)
			if err != nil {
				return nil, err
			}
			out = append(out, ms...)
		}
		return out, nil
	case *Unknown:
		if n.Key == "" {
			return nil, fmt.Errorf("query: keyless node cannot be an object member")
		}
		return []member{{key: n.Key, value: n.Raw}}, nil
	default:
		body, err := bodyOf(c)
		if err != nil {
			return nil, err
		}
		return []member{{key: string(c.Kind()), value: body}}, nil
	}
}

// bodyOf encodes the value under a keyed clause's single key.
func bodyOf(c Clause) (json.RawMessage, error) {
	switch n := c.(type) {
	case *Match:
		return fieldQueriesBody(n.Fields), nil
	case *MatchPhrase:
		return fieldQueriesBody(n.Fields), nil
	case *MultiMatch:
		return multiMatchBody(n)
	case *Range:
		return rangeBody(n), nil
	case *Bool:
		return boolBody(n)
	default:
		return nil, fmt.Errorf("query: %s has no keyed body", c.Kind())
	}
}

func keyed(c Clause) ([]byte, error) {
	body, err := bodyOf(c)
	if err != nil {
		return nil, err
	}
	return writeObject([]member{{key: string(c.Kind()), value: body}}), nil
}

func fieldQueriesBody(fqs []FieldQuery) []byte {
	members := make([]member, 0, len(fqs))
	for _, fq := range fqs {
		v := fq.Raw
		if v == nil {
			v = marshalString(fq.Query)
		}
		members = append(members, member{key: fq.Field, value: v})
	}
	return writeObject(members)
}

func multiMatchBody(m *MultiMatch) ([]byte, error) {
	var members []member
	if _, overridden := m.Options["query"]; !overridden && !m.QueryAbsent {
		members = append(members, member{key: "query", value: marshalString(m.Query)})
	}
	if m.Fields != nil {
		fields, err := json.Marshal(m.Fields)
		if err != nil {
			return nil, fmt.Errorf("query: multi_match fields: %w", err)
		}
		members = append(members, member{key: "fields", value: fields})
	}
	if m.Type != "" {
		members = append(members, member{key: "type", value: marshalString(m.Type)})
	}
	if m.Fuzziness != "" {
		members = append(members, member{key: "fuzziness", value: marshalString(m.Fuzziness)})
	}
	keys := make([]string, 0, len(m.Options))
	for k := range m.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		members = append(members, member{key: k, value: m.Options[k]})
	}
	return writeObject(members), nil
}

func rangeBody(r *Range) []byte {
	members := make([]member, 0, len(r.Fields))
	for _, rf := range r.Fields {
		v := rf.Raw
		if v == nil {
			var bounds []member
			if rf.GTE != "" {
				bounds = append(bounds, member{key: "gte", value: marshalString(rf.GTE)})
			}
			if rf.LTE != "" {
				bounds = append(bounds, member{key: "lte", value: marshalString(rf.LTE)})
			}
			if rf.Format != "" {
				bounds = append(bounds, member{key: "format", value: marshalString(rf.Format)})
			}
			v = writeObject(bounds)
		}
		members = append(members, member{key: rf.Field, value: v})
	}
	return writeObject(members)
}

func boolBody(b *Bool) ([]byte, error) {
	var members []member
	for _, bm := range b.members() {
		switch {
		case bm.other != nil:
			ms, err := membersOf(bm.other)
			if err != nil {
				return nil, err
			}
			members = append(members, ms...)
		case bm.clauses != nil:
			arr, err := marshalClauses(bm.clauses)
			if err != nil {
				return nil, err
			}
			members = append(members, member{key: bm.key, value: arr})
		default:
			members = append(members, member{key: bm.key, value: bm.raw})
		}
	}
	return writeObject(members), nil
}

// MarshalJSON implements json.Marshaler.
func (m *Match) MarshalJSON() ([]byte, error) { return keyed(m) }

// MarshalJSON implements json.Marshaler.
func (m *MatchPhrase) MarshalJSON() ([]byte, error) { return keyed(m) }

// MarshalJSON implements json.Marshaler.
func (m *MultiMatch) MarshalJSON() ([]byte, error) { return keyed(m) }

// MarshalJSON implements json.Marshaler.
func (r *Range) MarshalJSON() ([]byte, error) { return keyed(r) }

// MarshalJSON implements json.Marshaler.
func (b *Bool) MarshalJSON() ([]byte, error) { return keyed(b) }

// MarshalJSON implements json.Marshaler.
func (c *Compound) MarshalJSON() ([]byte, error) {
	ms, err := membersOf(c)
	if err != nil {
		return nil, err
	}
	return writeObject(ms), nil
}

// MarshalJSON implements json.Marshaler. A keyless node is emitted verbatim.
func (u *Unknown) MarshalJSON() ([]byte, error) {
	if u.Key == "" {
		return u.Raw, nil
	}
	return writeObject([]member{{key: u.Key, value: u.Raw}}), nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	var members []member
	if d.Query != nil {
		q, err := d.Query.MarshalJSON()
		if err != nil {
			return nil, err
		}
		members = append(members, member{key: "query", value: q})
	}
	for _, o := range d.Other {
		ms, err := membersOf(o)
		if err != nil {
			return nil, err
		}
		members = append(members, ms...)
	}
	return writeObject(members), nil
}
