package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/placa/internal/batch"
	"github.com/MeKo-Tech/placa/internal/pipeline"
)

// batchCmd processes many images, continuing past failures.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Read the plates of many images",
	Long: `Process every supported image of the given files and directories.
A failed image is reported in its row and does not stop the batch.

Supported formats: JPEG, PNG, BMP, TIFF, WebP

Examples:
  placa batch placas/
  placa batch placas/ --recursive --workers 4
  placa batch a.jpg b.png --format json --output results.json
  placa batch placas/ --include 'placa_*' --exclude '*_prep.jpg' --progress`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatchCommand,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringP("format", "f", batch.FormatText, "output format (text, json, csv)")
	batchCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "only process base names matching these patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip base names matching these patterns")
	batchCmd.Flags().IntP("workers", "w", 1, "number of images processed concurrently")
	batchCmd.Flags().Bool("progress", false, "draw a progress bar on stderr")
	batchCmd.Flags().Bool("stats", false, "print processing statistics on stderr")
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := slog.Default()
	showProgress, _ := cmd.Flags().GetBool("progress")
	showStats, _ := cmd.Flags().GetBool("stats")

	p, err := buildPipeline(cmd.Context(), cfg, logger, func(b *pipeline.Builder) {
		if showProgress {
			b.WithProgressCallback(pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Reading plates"))
		} else {
			b.WithProgressCallback(pipeline.NewLogProgressCallback(logger, slog.LevelDebug, 10))
		}
	})
	if err != nil {
		return err
	}

	bcfg := cfg.ToBatchConfig()
	res, err := batch.ProcessBatch(cmd.Context(), p, args, bcfg)
	if err != nil {
		return err
	}

	if err := res.SaveResults(cmd.OutOrStdout(), bcfg.Format, bcfg.OutputFile); err != nil {
		return err
	}
	if showStats {
		res.PrintStats(cmd.ErrOrStderr())
	}
	logger.Info("batch finished", "images", len(res.Outcomes), "failed", res.Failed(), "duration", res.Duration)
	return nil
}
