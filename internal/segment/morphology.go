package segment

import (
	"fmt"

	"github.com/MeKo-Tech/placa/internal/mempool"
)

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // erode then dilate, removes specks
	MorphClosing // dilate then erode, fills gaps
)

func (op MorphologicalOp) String() string {
	switch op {
	case MorphNone:
		return "none"
	case MorphDilate:
		return "dilate"
	case MorphErode:
		return "erode"
	case MorphOpening:
		return "open"
	case MorphClosing:
		return "close"
	default:
		return fmt.Sprintf("MorphologicalOp(%d)", int(op))
	}
}

// Kernel is a square, all-ones structuring element anchored at Size/2.
type Kernel struct {
	Size int
}

// KernelConfig derives the kernel side from the image width.
type KernelConfig struct {
	Divisor int // side = width / Divisor before clamping
	Min     int
	Max     int
}

// DefaultKernelConfig returns the width/100 clamped to [3,15] rule.
func DefaultKernelConfig() KernelConfig {
	return KernelConfig{Divisor: 100, Min: 3, Max: 15}
}

// KernelForWidth scales the structuring element with the image width.
func KernelForWidth(width int, cfg KernelConfig) Kernel {
	div := cfg.Divisor
	if div <= 0 {
		div = 100
	}
	k := width / div
	k = max(k, cfg.Min)
	if cfg.Max > 0 {
		k = min(k, cfg.Max)
	}
	return Kernel{Size: max(k, 1)}
}

// offsets returns the inclusive window [lo, hi] relative to the anchor.
func (k Kernel) offsets() (int, int) {
	a := k.Size / 2
	return -a, k.Size - 1 - a
}

// MorphConfig describes one morphological pass.
type MorphConfig struct {
	Operation  MorphologicalOp
	Kernel     Kernel
	Iterations int
}

// ApplyMorphologicalOperation runs cfg on m and returns a new mask. Opening
// and closing with n iterations erode (dilate) n times, then dilate (erode)
// n times. Pixels outside the mask never contribute.
func ApplyMorphologicalOperation(m *Mask, cfg MorphConfig) *Mask {
	if cfg.Operation == MorphNone || cfg.Kernel.Size <= 1 || cfg.Iterations <= 0 {
		return m.Clone()
	}
	out := m
	repeat := func(f func(*Mask, Kernel) *Mask) {
		for range cfg.Iterations {
			out = f(out, cfg.Kernel)
		}
	}
	switch cfg.Operation {
	case MorphDilate:
		repeat(Dilate)
	case MorphErode:
		repeat(Erode)
	case MorphOpening:
		repeat(Erode)
		repeat(Dilate)
	case MorphClosing:
		repeat(Dilate)
		repeat(Erode)
	}
	if out == m {
		return m.Clone()
	}
	return out
}

// Open is erosion followed by dilation.
func Open(m *Mask, k Kernel, iterations int) *Mask {
	return ApplyMorphologicalOperation(m, MorphConfig{Operation: MorphOpening, Kernel: k, Iterations: iterations})
}

// Close is dilation followed by erosion.
func Close(m *Mask, k Kernel, iterations int) *Mask {
	return ApplyMorphologicalOperation(m, MorphConfig{Operation: MorphClosing, Kernel: k, Iterations: iterations})
}

// Dilate sets a pixel when any pixel under the kernel window is set.
func Dilate(m *Mask, k Kernel) *Mask {
	return separable(m, k, func(count, window int) bool { return count > 0 })
}

// Erode keeps a pixel only when every in-bounds pixel under the window is set.
func Erode(m *Mask, k Kernel) *Mask {
	return separable(m, k, func(count, window int) bool { return window > 0 && count == window })
}

// separable applies a rectangular min/max filter as a horizontal pass
// followed by a vertical pass, counting set pixels with running prefix sums.
func separable(m *Mask, k Kernel, keep func(count, window int) bool) *Mask {
	lo, hi := k.offsets()
	w, h := m.Width, m.Height
	tmp := mempool.Bool.Get(w * h)
	defer mempool.Bool.Put(tmp)
	prefix := mempool.Int.Get(max(w, h) + 1)
	defer mempool.Int.Put(prefix)

	for y := range h {
		row := m.Pix[y*w : (y+1)*w]
		for x := range w {
			prefix[x+1] = prefix[x] + b2i(row[x])
		}
		for x := range w {
			a, b := max(x+lo, 0), min(x+hi, w-1)
			tmp[y*w+x] = keep(prefix[b+1]-prefix[a], b-a+1)
		}
	}

	out := NewMask(w, h)
	for x := range w {
		for y := range h {
			prefix[y+1] = prefix[y] + b2i(tmp[y*w+x])
		}
		for y := range h {
			a, b := max(y+lo, 0), min(y+hi, h-1)
			out.Pix[y*w+x] = keep(prefix[b+1]-prefix[a], b-a+1)
		}
	}
	return out
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}
