package enhance

import (
	"errors"
	"fmt"
	"image"
)

const (
	// BackendNative is the pure Go implementation.
	BackendNative = "native"
	// BackendGoCV delegates to OpenCV and needs the gocv build tag.
	BackendGoCV = "gocv"
)

// ErrBackendUnavailable is returned for a backend not linked into the binary.
var ErrBackendUnavailable = errors.New("enhance: backend not available; build with -tags=gocv")

// Backend turns a color image into the sharpened grayscale plate.
type Backend interface {
	Name() string
	Enhance(img image.Image, cfg Config) (*image.Gray, error)
}

// NewBackend resolves a backend by name. The empty name selects the build default.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "":
		return newDefaultBackend(), nil
	case BackendNative:
		return nativeBackend{}, nil
	case BackendGoCV:
		return newGoCVBackend()
	default:
		return nil, fmt.Errorf("enhance: unknown backend %q", name)
	}
}
