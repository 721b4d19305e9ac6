package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/placa/internal/plate"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [text...]",
	Short: "Normalize raw OCR text into plate and city",
	Long: `Apply the plate normalization rules to raw OCR text given as arguments,
or read from stdin when no argument is given.

Examples:
  placa normalize "abc-123, bogota"
  echo "JUNI540 BOGOTA DC" | placa normalize --json`,
	RunE: runNormalizeCommand,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().Bool("json", false, "print the result as JSON")
}

func runNormalizeCommand(cmd *cobra.Command, args []string) error {
	raw := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = strings.TrimSpace(string(b))
	}

	res := plate.Normalize(raw)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "plate: %s | city: %s\n", res.Plate, res.City)
	return err
}
