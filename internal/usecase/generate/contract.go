package generate

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Completer sends a prompt to the language model.
type Completer interface {
	Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error)
}
