package fields

import (
	"fmt"
	"strings"
)

var defaultPaths = []string{
	"id",
	"title",
	"author",
	"publish_date",
	"text_1",
	"text_2",
	"text_3",
	"text_4",
	"text_5",
	"tags.title",
	"filters.title",
	"editions.book_num_id",
	"editions.is_actual",
	"editions.isbn",
	"editions.subtitle",
	"editions.num_id",
	"editions.pages",
	"editions.number",
	"editions.is_published",
	"editions.publish_date",
	"editions.description",
	"editions.title",
	"editions.authors.title",
	"editions.chapters.chapter_type",
	"editions.chapters.num_id",
	"editions.chapters.order",
	"editions.chapters.id",
	"editions.chapters.language",
	"editions.chapters.type",
	"editions.chapters.title",
	"editions.chapters.pdf",
	"editions.chapters.ocr",
}

// Set is an immutable set of dotted field paths that carry search terms.
// The zero value is an empty set. Safe for concurrent use.
type Set struct {
	paths []string
	index map[string]struct{}
}

// New validates and creates a Set. Paths must be non-empty, without
// surrounding whitespace, and unique.
func New(paths ...string) (Set, error) {
	s := Set{
		paths: make([]string, 0, len(paths)),
		index: make(map[string]struct{}, len(paths)),
	}
	for _, p := range paths {
		if p == "" {
			return Set{}, fmt.Errorf("field path is required")
		}
		if strings.TrimSpace(p) != p {
			return Set{}, fmt.Errorf("field path %q has surrounding whitespace", p)
		}
		if strings.HasPrefix(p, ".") || strings.HasSuffix(p, ".") || strings.Contains(p, "..") {
			return Set{}, fmt.Errorf("field path %q has an empty segment", p)
		}
		if _, dup := s.index[p]; dup {
			return Set{}, fmt.Errorf("duplicate field path %q", p)
		}
		s.index[p] = struct{}{}
		s.paths = append(s.paths, p)
	}
	return s, nil
}

// Default returns the book index field set.
func Default() Set {
	s, err := New(defaultPaths...)
	if err != nil {
		panic(err)
	}
	return s
}

// Contains reports whether path is in the set.
func (s Set) Contains(path string) bool {
	_, ok := s.index[path]
	return ok
}

// List returns a copy of the paths in insertion order.
func (s Set) List() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len returns the number of paths.
func (s Set) Len() int { return len(s.paths) }
