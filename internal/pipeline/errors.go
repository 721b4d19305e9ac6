package pipeline

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an image produced no plate.
type FailureKind int

const (
	ReadFailure FailureKind = iota + 1
	NoRegionFound
	DegenerateRectification
	PersistFailure
	OcrUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case ReadFailure:
		return "read_failure"
	case NoRegionFound:
		return "no_region_found"
	case DegenerateRectification:
		return "degenerate_rectification"
	case PersistFailure:
		return "persist_failure"
	case OcrUnavailable:
		return "ocr_unavailable"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON and CSV reports.
func (k FailureKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// StageError is returned by the pipeline for a failed image.
type StageError struct {
	Kind FailureKind
	Path string
	Err  error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind of err, or 0 when err is not a StageError.
func KindOf(err error) FailureKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func stageErr(kind FailureKind, path string, err error) error {
	return &StageError{Kind: kind, Path: path, Err: err}
}
