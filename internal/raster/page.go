package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Page is a decoded raster page. Crops share pixels with their parent, so a
// Page must never be drawn into once it has been handed out.
type Page struct {
	img image.Image
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

type opaquer interface {
	Opaque() bool
}

// New wraps img as a Page. Opaque images that can be cropped in place are
// kept as they are; anything else is normalized like FromDecoded.
func New(img image.Image) Page {
	if _, ok := img.(subImager); ok && isOpaque(img) {
		return Page{img: img}
	}
	return Page{img: toRGB(img)}
}

// FromDecoded normalizes a freshly decoded image to opaque RGBA anchored at
// the origin.
func FromDecoded(img image.Image) Page {
	return Page{img: toRGB(img)}
}

func isOpaque(img image.Image) bool {
	o, ok := img.(opaquer)
	return ok && o.Opaque()
}

// toRGB drops the alpha channel. Transparent pixels keep their stored
// color at full opacity instead of being composited onto black.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if isOpaque(img) {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return dst
}

// Image returns the underlying pixels.
func (p Page) Image() image.Image { return p.img }

func (p Page) Width() int {
	if p.img == nil {
		return 0
	}
	return p.img.Bounds().Dx()
}

func (p Page) Height() int {
	if p.img == nil {
		return 0
	}
	return p.img.Bounds().Dy()
}

// Crop returns the rectangle of p spanning columns [0,width) and rows [y0,y1),
// both relative to the page's top-left corner. Out-of-range values are clamped.
func (p Page) Crop(width, y0, y1 int) Page {
	b := p.img.Bounds()
	width = clamp(width, 0, b.Dx())
	y0 = clamp(y0, 0, b.Dy())
	y1 = clamp(y1, y0, b.Dy())
	r := image.Rect(b.Min.X, b.Min.Y+y0, b.Min.X+width, b.Min.Y+y1)
	return Page{img: p.img.(subImager).SubImage(r)}
}

// CropTop splits p after the first n rows, returning the top part and the leftover.
// The leftover has zero height when n >= p.Height().
func (p Page) CropTop(n int) (top, leftover Page) {
	w, h := p.Width(), p.Height()
	return p.Crop(w, 0, n), p.Crop(w, n, h)
}

// Split cuts p into consecutive slices of height target. Every slice but the
// last is exactly target rows; the last holds whatever remains.
func (p Page) Split(target int) []Page {
	if target < 1 {
		target = 1
	}
	w, h := p.Width(), p.Height()
	parts := make([]Page, 0, (h+target-1)/target)
	for y := 0; y < h; y += target {
		parts = append(parts, p.Crop(w, y, min(y+target, h)))
	}
	return parts
}

// VConcat stacks top above bottom. Both are cropped to the narrower width to
// absorb scanner width jitter.
func VConcat(top, bottom Page) Page {
	w := min(top.Width(), bottom.Width())
	ht, hb := top.Height(), bottom.Height()
	dst := image.NewRGBA(image.Rect(0, 0, w, ht+hb))
	draw.Draw(dst, image.Rect(0, 0, w, ht), top.img, top.img.Bounds().Min, draw.Src)
	draw.Draw(dst, image.Rect(0, ht, w, ht+hb), bottom.img, bottom.img.Bounds().Min, draw.Src)
	return Page{img: dst}
}

// TargetHeight is the page height pinned to width: round(width * multiplier),
// rounding half to even, never less than one row.
func TargetHeight(width int, multiplier float64) int {
	t := int(math.RoundToEven(float64(width) * multiplier))
	if t < 1 {
		return 1
	}
	return t
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
