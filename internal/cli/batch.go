package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	dombatch "github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/query"
	batchuc "github.com/kailas-cloud/smartsearch/internal/usecase/batch"
)

// BatchItem is the outcome of one input line.
type BatchItem struct {
	Input       string          `json:"input"`
	Status      string          `json:"status"`
	Query       *query.Document `json:"query,omitempty"`
	SearchTerms []string        `json:"search_terms,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// BatchResult is the output of the batch command.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Generate structured queries for a file of requests",
		Long: `Generate a structured query for every non-blank line of a file. Lines
are processed concurrently on a bounded worker pool and each one is an
independent generation. Results keep input order. Exits 1 when any line
failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, cmd, args, workers)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent generations (default: batch.workers from config)")

	return cmd
}

func runBatch(opts *RootOptions, cmd *cobra.Command, args []string, workers int) error {
	out := opts.formatter(cmd)

	raw, err := readInput(opts, args)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}
	inputs, err := readLines(raw)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	rt, err := opts.Build(opts)
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = rt.Workers
	}

	svc := batchuc.New(rt.Generator, rt.Extractor).
		WithWorkers(workers).
		WithMaxBatchSize(rt.MaxBatchSize)
	results, err := svc.Generate(cmd.Context(), inputs)
	if err != nil {
		_ = out.Error(ErrCodeInput, err.Error(), nil)
		return &ExitError{Code: ExitCommandError}
	}

	res := BatchResult{Items: make([]BatchItem, len(results))}
	for i, r := range results {
		res.Items[i] = batchItem(r)
	}
	res.Succeeded, res.Failed = dombatch.Summary(results)

	if err := out.Success(res, func(w io.Writer) { writeBatchText(w, res) }); err != nil {
		return err
	}
	if res.Failed > 0 {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

func batchItem(r dombatch.Result) BatchItem {
	item := BatchItem{Input: r.Input(), Status: string(r.Status())}
	if r.Err() != nil {
		item.Error = safeMessage(r.Err())
		return item
	}
	doc := r.Query()
	item.Query = &doc
	item.SearchTerms = r.Terms()
	return item
}

func writeBatchText(w io.Writer, res BatchResult) {
	for _, item := range res.Items {
		if item.Error != "" {
			fmt.Fprintf(w, "error\t%s\t%s\n", item.Input, item.Error)
			continue
		}
		fmt.Fprintf(w, "ok\t%s\t%s\n", item.Input, strings.Join(item.SearchTerms, ", "))
	}
	fmt.Fprintf(w, "%d succeeded, %d failed\n", res.Succeeded, res.Failed)
}

// readLines returns the trimmed non-blank lines of data.
func readLines(data []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return lines, nil
}
