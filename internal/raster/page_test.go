package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// striped builds a w x h page whose row y is painted with gray level y%256.
func striped(w, h int) Page {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: uint8(y % 256)})
		}
	}
	return New(img)
}

func rowGray(t *testing.T, p Page, y int) uint8 {
	t.Helper()
	b := p.Image().Bounds()
	r, _, _, _ := p.Image().At(b.Min.X, b.Min.Y+y).RGBA()
	return uint8(r >> 8)
}

func TestTargetHeight(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{1000, 2500},
		{100, 250},
		{1, 2},
		{3, 8},
		{5, 12},
		{0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetHeight(tt.width, 2.5), "width %d", tt.width)
	}
}

func TestSplit(t *testing.T) {
	p := striped(10, 60)

	parts := p.Split(25)
	require.Len(t, parts, 3)
	assert.Equal(t, 25, parts[0].Height())
	assert.Equal(t, 25, parts[1].Height())
	assert.Equal(t, 10, parts[2].Height())
	assert.Equal(t, uint8(25), rowGray(t, parts[1], 0))
	assert.Equal(t, uint8(50), rowGray(t, parts[2], 0))

	even := p.Split(20)
	require.Len(t, even, 3)
	for _, part := range even {
		assert.Equal(t, 20, part.Height())
		assert.Equal(t, 10, part.Width())
	}
}

func TestCropTop(t *testing.T) {
	p := striped(8, 30)

	top, leftover := p.CropTop(12)
	assert.Equal(t, 12, top.Height())
	assert.Equal(t, 18, leftover.Height())
	assert.Equal(t, uint8(12), rowGray(t, leftover, 0))

	whole, empty := p.CropTop(30)
	assert.Equal(t, 30, whole.Height())
	assert.Equal(t, 0, empty.Height())
}

func TestVConcatUsesNarrowerWidth(t *testing.T) {
	a := striped(12, 5)
	b := striped(10, 7)

	got := VConcat(a, b)
	assert.Equal(t, 10, got.Width())
	assert.Equal(t, 12, got.Height())
	assert.Equal(t, uint8(4), rowGray(t, got, 4))
	assert.Equal(t, uint8(0), rowGray(t, got, 5))
	assert.Equal(t, uint8(6), rowGray(t, got, 11))
}

func TestVConcatOfCroppedPages(t *testing.T) {
	p := striped(10, 40)
	_, bottom := p.CropTop(30)

	got := VConcat(bottom, bottom)
	assert.Equal(t, 20, got.Height())
	assert.Equal(t, uint8(30), rowGray(t, got, 10))
}

func TestFromDecodedAnchorsAtOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 15, 25))
	p := FromDecoded(src)
	assert.Equal(t, image.Point{}, p.Image().Bounds().Min)
	assert.Equal(t, 10, p.Width())
	assert.Equal(t, 20, p.Height())
}

func TestFromDecodedDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
		}
	}
	src.SetNRGBA(1, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	p := FromDecoded(src)
	img, ok := p.Image().(*image.RGBA)
	require.True(t, ok)
	assert.True(t, img.Opaque())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.RGBAAt(1, 2))
}

func TestNewKeepsOpaqueAndFlattensTranslucent(t *testing.T) {
	opaque := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}
	assert.Same(t, opaque, New(opaque).Image())

	clear := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	clear.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 0})
	p := New(clear)
	img, ok := p.Image().(*image.RGBA)
	require.True(t, ok)
	assert.True(t, img.Opaque())
	assert.Equal(t, color.RGBA{R: 200, A: 255}, img.RGBAAt(0, 0))
}
