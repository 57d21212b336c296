package request

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Request limits.
const (
	// MaxQueryLength is the maximum allowed natural-language query length in characters.
	MaxQueryLength  = 4096
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Request is a validated natural-language search query.
type Request struct {
	query string
}

// New trims and validates a user query.
func New(query string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	return Request{query: query}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Page is a validated listing size.
type Page struct {
	size int
}

// NewPage validates a listing size. Zero selects def; sizes above limit are clamped.
// def and limit fall back to DefaultPageSize and MaxPageSize when not positive.
func NewPage(size, def, limit int) (Page, error) {
	if def <= 0 {
		def = DefaultPageSize
	}
	if limit <= 0 {
		limit = MaxPageSize
	}
	if size < 0 {
		return Page{}, fmt.Errorf("size must not be negative")
	}
	if size == 0 {
		size = def
	}
	if size > limit {
		size = limit
	}
	return Page{size: size}, nil
}

// Size returns the number of documents to list.
func (p Page) Size() int { return p.size }
