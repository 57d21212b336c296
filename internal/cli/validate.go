package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
)

// ValidationResult is the output of the validate command.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Check a structured query against the query schema",
		Long: `Check a JSON query document against the closed query schema and list
every violated constraint. Reads stdin when no file or "-" is given.
Exits 1 when the query is rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command, args []string) error {
	out := opts.formatter(cmd)

	raw, err := readInput(opts, args)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	violations, err := schema.NewValidator(nil).Violations(raw)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	if len(violations) > 0 {
		_ = out.Error(ErrCodeInvalidQuery, "query violates the schema", ValidationResult{Violations: violations})
		if opts.Format == "text" {
			for _, v := range violations {
				fmt.Fprintf(out.Writer, "  %s\n", v)
			}
		}
		return &ExitError{Code: ExitFailure}
	}

	return out.Success(ValidationResult{Valid: true}, func(w io.Writer) {
		fmt.Fprintln(w, "query is valid")
	})
}

// readInput reads the file named by args[0], or stdin for "-" and no args.
func readInput(opts *RootOptions, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		if opts.Stdin == nil {
			return nil, fmt.Errorf("no input")
		}
		data, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filepath.Clean(args[0]))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}
