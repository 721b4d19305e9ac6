package pipeline

import (
	"time"

	"github.com/MeKo-Tech/placa/internal/plate"
	"github.com/MeKo-Tech/placa/internal/rectify"
	"github.com/MeKo-Tech/placa/internal/region"
)

// Box is an axis-aligned pixel rectangle.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// RegionInfo describes the selected plate region in source coordinates.
type RegionInfo struct {
	Corners rectify.OrderedQuad `json:"corners"`
	Box     Box                 `json:"box"`
	Area    float64             `json:"area"`
	Aspect  float64             `json:"aspect"`
	Method  region.FitMethod    `json:"method"`
}

// Timing holds per stage durations.
type Timing struct {
	SegmentNs int64 `json:"segment_ns"`
	RegionNs  int64 `json:"region_ns"`
	RectifyNs int64 `json:"rectify_ns"`
	EnhanceNs int64 `json:"enhance_ns"`
	OCRNs     int64 `json:"ocr_ns"`
	TotalNs   int64 `json:"total_ns"`
}

// Result is the outcome of processing one image.
type Result struct {
	File         string       `json:"file"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	Kernel       int          `json:"kernel"`
	Region       RegionInfo   `json:"region"`
	PlateWidth   int          `json:"plate_width"`
	PlateHeight  int          `json:"plate_height"`
	EnhancedPath string       `json:"enhanced_path"`
	RawText      string       `json:"raw_ocr"`
	OCRSkipped   bool         `json:"ocr_skipped,omitempty"`
	Plate        plate.Result `json:"plate"`
	Timing       Timing       `json:"timing"`
}

// Duration is the total processing time.
func (r *Result) Duration() time.Duration { return time.Duration(r.Timing.TotalNs) }

// OCRDuration is the time spent waiting on the recognizer.
func (r *Result) OCRDuration() time.Duration { return time.Duration(r.Timing.OCRNs) }

// Outcome pairs an input with its result or failure.
type Outcome struct {
	Path   string
	Result *Result
	Err    error
}
