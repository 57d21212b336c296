package query

import "fmt"

// InvalidInputError reports input that is not a JSON object at all.
// It is a programmer error and is never retried.
type InvalidInputError struct {
	Got    string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid input: expected JSON object, got %s: %s", e.Got, e.Reason)
	}
	return fmt.Sprintf("invalid input: expected JSON object, got %s", e.Got)
}
