package imagerender

import (
	"context"
	"fmt"
	"io"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/raster"
	"github.com/local/repage/internal/source"
)

const DefaultDPI = 150

// Document renders the pages of a PDF, CBZ, EPUB or XPS file in order.
// It satisfies source.Reader, so failed pages surface as *source.DecodeError.
type Document struct {
	path string
	dpi  float64
	doc  *fitz.Document
	next int
}

// Open opens a document for rendering at dpi.
func Open(path string, dpi int) (*Document, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	log.Debug().Str("document", path).Int("pages", doc.NumPage()).Int("dpi", dpi).Msg("opened document")
	return &Document{path: path, dpi: float64(dpi), doc: doc}, nil
}

// NumPage is the number of pages in the document.
func (d *Document) NumPage() int { return d.doc.NumPage() }

func (d *Document) Next(ctx context.Context) (raster.Page, error) {
	if err := ctx.Err(); err != nil {
		return raster.Page{}, err
	}
	if d.next >= d.doc.NumPage() {
		return raster.Page{}, io.EOF
	}
	// go-fitz uses 0-based indexing
	idx := d.next
	d.next++

	img, err := d.doc.ImageDPI(idx, d.dpi)
	if err != nil {
		return raster.Page{}, &source.DecodeError{
			Path: fmt.Sprintf("%s#page=%d", d.path, idx+1),
			Err:  fmt.Errorf("failed to render page: %w", err),
		}
	}
	p := raster.New(img)
	log.Debug().
		Int("page", idx+1).
		Int("width", p.Width()).
		Int("height", p.Height()).
		Msg("rendered document page")
	return p, nil
}

func (d *Document) Close() error { return d.doc.Close() }
