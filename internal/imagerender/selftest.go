package imagerender

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// SelfTest renders a one page CBZ built in a scratch directory. It fails
// when the MuPDF bindings cannot open or rasterize documents.
func SelfTest(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "repage-selftest-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "probe.cbz")
	if err := writeProbe(path); err != nil {
		return fmt.Errorf("write probe document: %w", err)
	}

	doc, err := Open(path, 72)
	if err != nil {
		return err
	}
	defer doc.Close()
	if doc.NumPage() != 1 {
		return fmt.Errorf("probe document has %d pages, want 1", doc.NumPage())
	}
	p, err := doc.Next(ctx)
	if err != nil {
		return err
	}
	if p.Width() == 0 || p.Height() == 0 {
		return fmt.Errorf("probe page rendered empty")
	}
	return nil
}

func writeProbe(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("1.png")
	if err != nil {
		return err
	}
	if err := png.Encode(w, image.NewGray(image.Rect(0, 0, 8, 16))); err != nil {
		return err
	}
	return zw.Close()
}
