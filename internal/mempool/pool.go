// Package mempool recycles the scratch slices of per-pixel image passes.
package mempool

import "sync"

const step = 1024

// Buffers is a sized pool of []T. Slices are bucketed by capacity in
// multiples of 1024 elements.
type Buffers[T any] struct {
	pools sync.Map // size class -> *sync.Pool
}

var (
	// Bool serves mask scratch planes.
	Bool Buffers[bool]
	// Int serves label planes and prefix sums.
	Int Buffers[int]
)

func sizeClass(n int) int {
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

func (b *Buffers[T]) pool(cls int) *sync.Pool {
	if p, ok := b.pools.Load(cls); ok {
		return p.(*sync.Pool)
	}
	p, _ := b.pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		s := make([]T, cls)
		return &s
	}})
	return p.(*sync.Pool)
}

// Get returns a zeroed slice of length n. Return it with Put.
func (b *Buffers[T]) Get(n int) []T {
	n = max(n, 0)
	cls := sizeClass(n)
	sp := b.pool(cls).Get().(*[]T)
	buf := (*sp)[:n]
	clear(buf)
	return buf
}

// Put hands buf back for reuse. nil and foreign-sized slices are dropped.
func (b *Buffers[T]) Put(buf []T) {
	c := cap(buf)
	if c == 0 || c%step != 0 {
		return
	}
	buf = buf[:c]
	b.pool(c).Put(&buf)
}
