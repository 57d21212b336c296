// Package cli implements the querygen command line: offline query generation,
// schema validation and term extraction.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/fields"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/terms"
	"github.com/kailas-cloud/smartsearch/internal/llm"
	logpkg "github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Generator turns natural language into a validated structured query.
type Generator interface {
	Generate(ctx context.Context, userQuery string) (query.Document, error)
}

// Runtime is what the generating commands need from configuration.
type Runtime struct {
	Generator    Generator
	Extractor    *terms.Extractor
	Workers      int
	MaxBatchSize int
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Env    string
	Format string
	Fields []string
	Stdin  io.Reader

	// Build wires the generator from configuration. Replaced in tests.
	Build func(opts *RootOptions) (*Runtime, error)
}

// NewRootCommand creates the root command for the querygen CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{Build: BuildRuntime, Stdin: os.Stdin})
}

// NewRootCommandWithOptions creates the root command around opts.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "querygen",
		Short: "Natural-language to structured search query tooling",
		Long: `querygen turns natural-language requests into validated structured
search queries, checks candidate queries against the query schema and
extracts the literal search terms of a query.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringSliceVar(&opts.Fields, "fields", nil,
		"fields that carry search terms (default: built-in book fields)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTermsCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))

	return cmd
}

// extractor builds the term extractor from --fields.
func (o *RootOptions) extractor() (*terms.Extractor, error) {
	if len(o.Fields) == 0 {
		return terms.NewExtractor(fields.Default()), nil
	}
	set, err := fields.New(o.Fields...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --fields", err)
	}
	return terms.NewExtractor(set), nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// BuildRuntime loads config/<env>.yaml and assembles the completion chain.
// Budget counters stay in memory: the CLI never touches the key-value store.
func BuildRuntime(opts *RootOptions) (*Runtime, error) {
	cfg, err := config.LoadLLM(opts.Env)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		logger = zap.NewNop()
	}

	completer, err := llm.NewCompleter(cfg.LLM, llm.NewTracker(cfg.LLM, logger), logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "create completer", err)
	}

	instructions := generate.DefaultInstructions()
	if cfg.LLM.PromptFile != "" {
		instructions, err = generate.LoadInstructions(cfg.LLM.PromptFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load prompt", err)
		}
	}

	if len(opts.Fields) == 0 {
		opts.Fields = cfg.Terms.AllowedFields
	}
	extractor, err := opts.extractor()
	if err != nil {
		return nil, err
	}

	gen := generate.New(completer, logger).
		WithInstructions(instructions).
		WithDocumentType(cfg.Search.DocumentType).
		WithAttemptTimeout(time.Duration(cfg.LLM.AttemptTimeoutSec) * time.Second)

	return &Runtime{
		Generator:    gen,
		Extractor:    extractor,
		Workers:      cfg.Batch.Workers,
		MaxBatchSize: cfg.Batch.MaxBatchSize,
	}, nil
}
