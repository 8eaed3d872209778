package filetype

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, fn func(f *os.File) error) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, fn(f))
	require.NoError(t, f.Close())
	return p
}

func TestDetectImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	pngPath := writeFile(t, "a.png", func(f *os.File) error { return png.Encode(f, img) })
	jpgPath := writeFile(t, "b.jpg", func(f *os.File) error { return jpeg.Encode(f, img, nil) })

	d := New()
	info, err := d.Detect(pngPath)
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.MIMEType)
	assert.True(t, info.IsImage)
	assert.True(t, info.Decodable)

	ok, err := d.IsPage(jpgPath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDetectRejectsMislabelledText(t *testing.T) {
	p := writeFile(t, "3.png", func(f *os.File) error {
		_, err := f.WriteString("not really a picture\n")
		return err
	})

	ok, err := New().IsPage(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectMissingFile(t *testing.T) {
	_, err := New().Detect(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("001.PNG", PageExtensions))
	assert.True(t, HasExtension("x.JpEg", PageExtensions))
	assert.False(t, HasExtension("cover.gif", PageExtensions))
	assert.True(t, HasExtension("cover.gif", ChapterImageExtensions))
	assert.False(t, HasExtension("notes", PageExtensions))
}

func TestIsDocument(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n%%EOF\n"), 0o644))
	fb2 := filepath.Join(dir, "book.fb2")
	require.NoError(t, os.WriteFile(fb2, []byte("plain text body"), 0o644))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain text body"), 0o644))

	d := New()
	for path, want := range map[string]bool{pdf: true, fb2: true, txt: false} {
		ok, err := d.IsDocument(path)
		require.NoError(t, err)
		assert.Equal(t, want, ok, filepath.Base(path))
	}

	_, err := d.IsDocument(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}
