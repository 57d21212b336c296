package query

// DefaultDocumentType is the document kind every generated query is restricted to.
const DefaultDocumentType = "book"

// MaxDepth caps decoding and traversal depth. Input is always a finite tree;
// the cap only bounds pathological nesting.
const MaxDepth = 64

// Document is a structured search query: the root "query" clause plus any
// other root members (size, highlight, ...) kept as Unknown clauses.
// A Document is created per user query and not mutated after validation.
type Document struct {
	Query Clause
	Other []Clause
}

// TypeFilter builds the mandatory {"match": {"type": docType}} clause.
func TypeFilter(docType string) *Match {
	return NewMatch("type", docType)
}

// Wrap builds {"query": {"bool": {"must": [filter, clauses...]}}}.
func Wrap(filter Clause, clauses ...Clause) Document {
	must := make([]Clause, 0, len(clauses)+1)
	must = append(must, filter)
	must = append(must, clauses...)
	return Document{Query: &Bool{Must: must}}
}
