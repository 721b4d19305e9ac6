package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 1024},
		{1, 1024},
		{1024, 1024},
		{1025, 2048},
		{1500, 2048},
		{10000, 10240},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, sizeClass(tt.input), "n=%d", tt.input)
	}
}

func TestGetReturnsZeroedSlices(t *testing.T) {
	var pool Buffers[int]

	buf := pool.Get(300)
	require.Len(t, buf, 300)
	assert.Equal(t, 1024, cap(buf))
	for i := range buf {
		buf[i] = i + 1
	}
	pool.Put(buf)

	again := pool.Get(1000)
	require.Len(t, again, 1000)
	for _, v := range again {
		require.Zero(t, v)
	}
}

func TestPutIgnoresForeignSlices(t *testing.T) {
	var pool Buffers[bool]
	assert.NotPanics(t, func() {
		pool.Put(nil)
		pool.Put(make([]bool, 10))
	})
	assert.Len(t, pool.Get(0), 0)
}

func TestConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				n := (g+1)*(i+1)*37 + 1
				buf := Bool.Get(n)
				if len(buf) != n {
					t.Errorf("len %d, want %d", len(buf), n)
					return
				}
				for j := range buf {
					if buf[j] {
						t.Error("dirty buffer")
						return
					}
					buf[j] = true
				}
				Bool.Put(buf)
			}
		}()
	}
	wg.Wait()
}
