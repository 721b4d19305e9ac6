package utils

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBoxOrdersCoordinates(t *testing.T) {
	b := NewBox(10, 8, 2, 3)
	assert.Equal(t, Box{MinX: 2, MinY: 3, MaxX: 10, MaxY: 8}, b)
	assert.Equal(t, 8.0, b.Width())
	assert.Equal(t, 5.0, b.Height())
}

func TestBoxQuadIsClockwiseFromTopLeft(t *testing.T) {
	q := NewBox(0, 0, 4, 2).Quad()
	assert.Equal(t, Quad{{0, 0}, {4, 0}, {4, 2}, {0, 2}}, q)
}

func TestPixelBoundingBox(t *testing.T) {
	pts := []image.Point{{5, 7}, {9, 7}, {9, 10}, {5, 10}}
	b := PixelBoundingBox(pts)
	// five columns and four rows of pixels
	assert.Equal(t, Box{MinX: 5, MinY: 7, MaxX: 10, MaxY: 11}, b)
	assert.Equal(t, Box{}, PixelBoundingBox(nil))
}

func TestDistanceAndFinite(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Pt(0, 0), Pt(3, 4)), 1e-12)
	assert.True(t, Pt(1, 2).IsFinite())
	assert.False(t, Pt(math.NaN(), 0).IsFinite())
	assert.False(t, Pt(0, math.Inf(1)).IsFinite())
}
