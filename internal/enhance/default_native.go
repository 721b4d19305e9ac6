//go:build !gocv

package enhance

func newDefaultBackend() Backend { return nativeBackend{} }

func newGoCVBackend() (Backend, error) { return nil, ErrBackendUnavailable }
