package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// TermsResult is the output of the terms command.
type TermsResult struct {
	Terms []string `json:"terms"`
}

// NewTermsCommand creates the terms command.
func NewTermsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "terms [file|-]",
		Short: "Extract the search terms of a structured query",
		Long: `Print the lowercase literal terms a structured query searches for, in
first-occurrence order. Phrases stay whole; match and multi_match text is
split on whitespace. Reads stdin when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerms(rootOpts, cmd, args)
		},
	}
}

func runTerms(opts *RootOptions, cmd *cobra.Command, args []string) error {
	out := opts.formatter(cmd)

	raw, err := readInput(opts, args)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	extractor, err := opts.extractor()
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return err
	}

	found, err := extractor.ExtractRaw(raw)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	return out.Success(TermsResult{Terms: found}, func(w io.Writer) {
		for _, t := range found {
			fmt.Fprintln(w, t)
		}
	})
}
