// Package batch runs the plate pipeline over many files and renders reports.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/placa/internal/pipeline"
)

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// Config holds the batch options.
type Config struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	Format          string
	OutputFile      string
}

// Validate checks the report format.
func (c Config) Validate() error {
	switch c.Format {
	case "", FormatText, FormatJSON, FormatCSV:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want text, json or csv)", c.Format)
	}
}

// Processor is the part of the pipeline used here.
type Processor interface {
	ProcessFiles(ctx context.Context, paths []string) []pipeline.Outcome
}

// Result holds the outcome of a batch run.
type Result struct {
	Outcomes []pipeline.Outcome
	Rows     []Row
	Duration time.Duration
}

// ProcessBatch discovers the images under inputs and runs p on each of
// them. Individual failures are recorded in the result and do not abort the
// batch.
func ProcessBatch(ctx context.Context, p Processor, inputs []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	files, err := DiscoverImageFiles(inputs, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	start := time.Now()
	outcomes := p.ProcessFiles(ctx, files)
	res := &Result{Outcomes: outcomes, Duration: time.Since(start)}
	res.Rows = make([]Row, len(outcomes))
	for i, o := range outcomes {
		res.Rows[i] = NewRow(o)
	}
	return res, ctx.Err()
}

// Failed returns the number of failed images.
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded returns the number of images that produced a result.
func (r *Result) Succeeded() int { return len(r.Outcomes) - r.Failed() }

// FormatResults renders the rows in format.
func (r *Result) FormatResults(format string) (string, error) {
	return FormatRows(r.Rows, format)
}

// SaveResults writes the report to outputFile, or to w when outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if outputFile == "" {
		_, err = io.WriteString(w, output)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// PrintStats writes a summary of the run to w.
func (r *Result) PrintStats(w io.Writer) {
	total := len(r.Outcomes)
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", total)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", r.Succeeded())
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", r.Failed())
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if total > 0 {
		_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", (r.Duration / time.Duration(total)).Round(time.Millisecond))
	}
}
