package domain

// Highlight is the highlight directive sent with every smart search.
type Highlight struct {
	Fields            []string
	PreTags           []string
	PostTags          []string
	MaxAnalyzedOffset int
}

// DefaultHighlight returns the directive tuned for the book index.
func DefaultHighlight() Highlight {
	return Highlight{
		Fields: []string{
			"text_2",
			"text_3",
			"text_4",
			"text_5",
			"tags.title",
			"editions.title",
			"editions.subtitle",
			"editions.description",
			"editions.authors.title",
			"editions.chapters.title",
			"editions.chapters.ocr",
		},
		PreTags:           []string{"<em>"},
		PostTags:          []string{"</em>"},
		MaxAnalyzedOffset: 1000000,
	}
}
