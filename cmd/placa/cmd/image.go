package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/placa/internal/batch"
	"github.com/MeKo-Tech/placa/internal/pipeline"
)

// imageCmd reads the plate of one image.
var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Read the plate of a single image",
	Long: `Locate, rectify and enhance the yellow plate of one image, read it
through the OCR backend and print the normalized plate and city.

The enhanced plate is written to <output-dir>/<name>_prep.jpg. Any failure
aborts with a non-zero exit status.

Examples:
  placa image car.jpg
  placa image car.jpg --format json
  placa image car.jpg --ocr-backend none --debug-dir debug/`,
	Args: cobra.ExactArgs(1),
	RunE: runImageCommand,
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.Flags().StringP("format", "f", batch.FormatText, "output format (text, json, csv)")
	imageCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
}

func runImageCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := slog.Default()

	p, err := buildPipeline(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}

	res, err := p.ProcessFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out, err := batch.FormatRows([]batch.Row{batch.NewRow(pipeline.Outcome{Path: args[0], Result: res})}, cfg.Output.Format)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), cfg.Output.File, out)
}

// writeReport writes out to file, or to w when file is empty.
func writeReport(w io.Writer, file, out string) error {
	if file == "" {
		_, err := io.WriteString(w, out)
		return err
	}
	if err := os.WriteFile(file, []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
