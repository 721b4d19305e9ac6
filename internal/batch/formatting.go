package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/placa/internal/pipeline"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Row is one report line.
type Row struct {
	File       string  `json:"file"`
	RawOCR     string  `json:"raw_ocr"`
	Plate      string  `json:"plate"`
	City       string  `json:"city"`
	Strict     bool    `json:"strict"`
	DurationS  float64 `json:"duration_s"`
	OCRS       float64 `json:"ocr_s"`
	Enhanced   string  `json:"enhanced,omitempty"`
	Error      string  `json:"error,omitempty"`
	FailedWith string  `json:"failure_kind,omitempty"`
}

// NewRow converts a pipeline outcome.
func NewRow(o pipeline.Outcome) Row {
	row := Row{File: o.Path}
	if o.Err != nil {
		row.Error = o.Err.Error()
		if k := pipeline.KindOf(o.Err); k != 0 {
			row.FailedWith = k.String()
		}
		return row
	}
	if r := o.Result; r != nil {
		row.RawOCR = r.RawText
		row.Plate = r.Plate.Plate
		row.City = r.Plate.City
		row.Strict = r.Plate.Strict
		row.DurationS = r.Duration().Seconds()
		row.OCRS = r.OCRDuration().Seconds()
		row.Enhanced = r.EnhancedPath
	}
	return row
}

// FormatRows renders rows in format. Unknown formats are rejected.
func FormatRows(rows []Row, format string) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(rows)
	case FormatCSV:
		return formatCSV(rows)
	case FormatText, "":
		return formatText(rows), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func formatJSON(rows []Row) (string, error) {
	if rows == nil {
		rows = []Row{}
	}
	bts, err := json.MarshalIndent(struct {
		Images []Row `json:"images"`
	}{rows}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

func formatCSV(rows []Row) (string, error) {
	var out strings.Builder
	w := csv.NewWriter(&out)
	if err := w.Write([]string{"file", "raw_ocr", "plate", "city", "strict", "duration_s", "error"}); err != nil {
		return "", err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.File,
			r.RawOCR,
			r.Plate,
			r.City,
			strconv.FormatBool(r.Strict),
			strconv.FormatFloat(r.DurationS, 'f', 3, 64),
			r.Error,
		}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return out.String(), w.Error()
}

func formatText(rows []Row) string {
	var out strings.Builder
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(&out, "file: %s | error: %s\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(&out, "file: %s | raw ocr: %s | plate: %s | city: %s | time: %.3f s\n",
			r.File, r.RawOCR, r.Plate, r.City, r.DurationS)
	}
	return out.String()
}
