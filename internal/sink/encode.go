package sink

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gen2brain/webp"
)

// Format names an output codec.
type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat accepts the codec names and their common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "webp":
		return FormatWebP, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want webp, jpeg or png)", s)
	}
}

// Extension is the file suffix written for the format, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	default:
		return ".webp"
	}
}

// ContentType is the MIME type of the encoded output.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "image/webp"
	}
}

// Options controls the final encode.
type Options struct {
	Format   Format
	Quality  int
	Lossless bool
}

const DefaultQuality = 80

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatWebP
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Encode writes img to w using the configured codec. PNG is always lossless
// and JPEG never is; Lossless only changes WebP output.
func Encode(w io.Writer, img image.Image, o Options) error {
	o = o.withDefaults()
	switch o.Format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: o.Quality})
	case FormatPNG:
		return png.Encode(w, img)
	default:
		return webp.Encode(w, img, webp.Options{Quality: o.Quality, Lossless: o.Lossless, Method: 4})
	}
}
