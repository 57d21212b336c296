package query

// Walk visits every clause of doc depth-first in document order: the root
// query first, then the other root members. Returning false from fn skips the
// children of that clause.
func Walk(doc Document, fn func(Clause) bool) {
	if doc.Query != nil {
		walk(doc.Query, fn, 1)
	}
	for _, o := range doc.Other {
		walk(o, fn, 1)
	}
}

func walk(c Clause, fn func(Clause) bool, depth int) {
	if c == nil || depth > MaxDepth {
		return
	}
	if !fn(c) {
		return
	}
	var children []Clause
	switch n := c.(type) {
	case *Bool:
		for _, m := range n.members() {
			if m.other != nil {
				children = append(children, m.other)
				continue
			}
			children = append(children, m.clauses...)
		}
	case *Compound:
		children = n.Clauses
	case *Unknown:
		children = n.Children
	case *Match, *MatchPhrase, *MultiMatch, *Range:
		// leaves
	}
	for _, child := range children {
		walk(child, fn, depth+1)
	}
}
