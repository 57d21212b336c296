package batch

import "github.com/kailas-cloud/smartsearch/internal/domain/query"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of generating one query in a batch.
type Result struct {
	input  string
	status ItemStatus
	doc    query.Document
	terms  []string
	err    error
}

// NewOK creates a successful batch result.
func NewOK(input string, doc query.Document, terms []string) Result {
	return Result{input: input, status: StatusOK, doc: doc, terms: terms}
}

// NewError creates a failed batch result.
func NewError(input string, err error) Result {
	return Result{input: input, status: StatusError, err: err}
}

// Input returns the natural-language query of this item.
func (r Result) Input() string { return r.input }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Query returns the generated structured query (zero on error).
func (r Result) Query() query.Document { return r.doc }

// Terms returns the extracted search terms (nil on error).
func (r Result) Terms() []string { return r.terms }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts outcomes across results.
func Summary(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.status == StatusOK {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
