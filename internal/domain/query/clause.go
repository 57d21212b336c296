package query

import "encoding/json"

// Kind identifies a clause variant.
type Kind string

// Clause kinds. The first five are the search-engine keys the schema knows
// about; Compound and Unknown exist so that any parseable tree can be walked.
const (
	KindMatch       Kind = "match"
	KindMatchPhrase Kind = "match_phrase"
	KindMultiMatch  Kind = "multi_match"
	KindRange       Kind = "range"
	KindBool        Kind = "bool"
	KindCompound    Kind = "compound"
	KindUnknown     Kind = "unknown"
)

// Clause is a node of a structured query tree.
// The set of implementations is closed: Match, MatchPhrase, MultiMatch, Range,
// Bool, Compound and Unknown.
type Clause interface {
	json.Marshaler
	Kind() Kind
	sealed()
}

// FieldQuery is one field entry of a match or match_phrase clause.
// Raw holds the original value when it was not a bare string
// (e.g. {"query": "...", "operator": "and"}); Query is the text either way.
type FieldQuery struct {
	Field string
	Query string
	Raw   json.RawMessage
}

// Match queries fields for tokenized text.
type Match struct {
	Fields []FieldQuery
}

// MatchPhrase queries fields for an exact contiguous phrase.
type MatchPhrase struct {
	Fields []FieldQuery
}

// MultiMatch spreads one query string across several fields.
type MultiMatch struct {
	Query string
	// QueryAbsent marks a parsed clause that had no query member; it is
	// re-encoded without one.
	QueryAbsent bool
	Fields      []string
	Type      string
	Fuzziness string
	// Options keeps members other than the four above (boost, operator, ...).
	Options map[string]json.RawMessage
}

// RangeField is the bound set for one field of a range clause.
// Raw holds the original value when it carried anything other than
// string gte/lte/format members.
type RangeField struct {
	Field  string
	GTE    string
	LTE    string
	Format string
	Raw    json.RawMessage
}

// Range is a bounded comparison, used for dates.
type Range struct {
	Fields []RangeField
}

// Bool is a boolean container.
type Bool struct {
	Must   []Clause
	Filter []Clause
	Should []Clause
	// MinimumShouldMatch is kept verbatim: the backend accepts ints and
	// percentage strings alike.
	MinimumShouldMatch json.RawMessage
	// Other holds members outside must/filter/should/minimum_should_match
	// (must_not, boost, ...), always as Unknown clauses.
	Other []Clause

	// order is the parsed member sequence; "" stands for the next Other entry.
	// Members it does not name follow in must, filter, should,
	// minimum_should_match, Other order.
	order []string
}

// boolMember is one member of a bool object. Exactly one of clauses, raw
// and other is set.
type boolMember struct {
	key     string
	clauses []Clause
	raw     json.RawMessage
	other   Clause
}

// members lists the bool's members in document order.
func (b *Bool) members() []boolMember {
	var out []boolMember
	seen := make(map[string]bool, 4)
	next := 0
	add := func(key string) {
		if key == "" {
			if next < len(b.Other) {
				out = append(out, boolMember{other: b.Other[next]})
				next++
			}
			return
		}
		if seen[key] {
			return
		}
		m := boolMember{key: key}
		switch key {
		case "must":
			m.clauses = b.Must
		case "filter":
			m.clauses = b.Filter
		case "should":
			m.clauses = b.Should
		case "minimum_should_match":
			m.raw = b.MinimumShouldMatch
		}
		if m.clauses == nil && m.raw == nil {
			return
		}
		seen[key] = true
		out = append(out, m)
	}
	for _, k := range b.order {
		add(k)
	}
	for _, k := range []string{"must", "filter", "should", "minimum_should_match"} {
		add(k)
	}
	for next < len(b.Other) {
		add("")
	}
	return out
}

// Compound is an object carrying more than one clause key, e.g. a bool
// element {"match": {...}, "range": {...}}.
type Compound struct {
	Clauses []Clause
}

// Unknown is a member the model is not expected to produce (nested, term,
// must_not, boost, ...). Raw is re-emitted verbatim; Children are the clauses
// found beneath it so traversal can still reach them.
// An empty Key means Raw is a whole object or non-object array element.
type Unknown struct {
	Key      string
	Raw      json.RawMessage
	Children []Clause
}

func (*Match) Kind() Kind       { return KindMatch }
func (*MatchPhrase) Kind() Kind { return KindMatchPhrase }
func (*MultiMatch) Kind() Kind  { return KindMultiMatch }
func (*Range) Kind() Kind       { return KindRange }
func (*Bool) Kind() Kind        { return KindBool }
func (*Compound) Kind() Kind    { return KindCompound }
func (*Unknown) Kind() Kind     { return KindUnknown }

func (*Match) sealed()       {}
func (*MatchPhrase) sealed() {}
func (*MultiMatch) sealed()  {}
func (*Range) sealed()       {}
func (*Bool) sealed()        {}
func (*Compound) sealed()    {}
func (*Unknown) sealed()     {}

// NewMatch creates a match clause on a single field.
func NewMatch(field, text string) *Match {
	return &Match{Fields: []FieldQuery{{Field: field, Query: text}}}
}

// NewMatchPhrase creates a match_phrase clause on a single field.
func NewMatchPhrase(field, phrase string) *MatchPhrase {
	return &MatchPhrase{Fields: []FieldQuery{{Field: field, Query: phrase}}}
}
