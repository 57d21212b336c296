package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
)

// GenerateResult is the output of the generate command.
type GenerateResult struct {
	Query       query.Document `json:"query"`
	SearchTerms []string       `json:"search_terms"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <query...>",
		Short: "Generate a structured query from natural language",
		Long: `Ask the language model for a structured query (up to three attempts),
normalize it, check it against the query schema and print it together with
its search terms. Nothing is sent to the search backend.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, cmd, strings.Join(args, " "))
		},
	}
}

func runGenerate(opts *RootOptions, cmd *cobra.Command, text string) error {
	out := opts.formatter(cmd)

	req, err := request.New(text)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	rt, err := opts.Build(opts)
	if err != nil {
		return err
	}

	doc, err := rt.Generator.Generate(cmd.Context(), req.Query())
	if err != nil {
		code, details := generationFailure(err)
		_ = out.Error(code, safeMessage(err), details)
		return &ExitError{Code: ExitFailure}
	}

	res := GenerateResult{Query: doc, SearchTerms: rt.Extractor.Extract(doc)}
	return out.Success(res, func(w io.Writer) {
		pretty, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Fprintln(w, string(pretty))
		fmt.Fprintf(w, "search terms: %s\n", strings.Join(res.SearchTerms, ", "))
	})
}

// generationFailure maps a Generate error to an output code and details.
func generationFailure(err error) (string, any) {
	var details map[string]any
	var gf *generate.GenerationFailedError
	if errors.As(err, &gf) {
		details = map[string]any{"attempts": gf.Attempts, "reason": gf.Reason()}
	}
	switch {
	case errors.Is(err, domain.ErrCompletionQuotaExceeded), errors.Is(err, domain.ErrRateLimited):
		return ErrCodeProvider, details
	case errors.Is(err, domain.ErrQueryNotUnderstood):
		return ErrCodeNotUnderstood, details
	case errors.Is(err, domain.ErrInvalidQuery):
		return ErrCodeInvalidQuery, details
	default:
		return ErrCodeProvider, details
	}
}

func safeMessage(err error) string {
	for _, s := range []error{
		domain.ErrCompletionQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrQueryNotUnderstood,
		domain.ErrInvalidQuery,
		domain.ErrCompletionProviderError,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
