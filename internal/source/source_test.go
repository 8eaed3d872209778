package source

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/repage/internal/raster"
)

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func drain(t *testing.T, r Reader) []raster.Page {
	t.Helper()
	var pages []raster.Page
	for {
		p, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return pages
		}
		require.NoError(t, err)
		pages = append(pages, p)
	}
}

func TestCompareNames(t *testing.T) {
	names := []string{"b.png", "10.png", "2.png", "a.png", "1.jpg", "01.png", "cover.webp", "003.webp"}
	slices.SortFunc(names, CompareNames)
	assert.Equal(t, []string{"01.png", "1.jpg", "2.png", "003.webp", "10.png", "a.png", "b.png", "cover.webp"}, names)
}

func TestCompareNamesIsTotal(t *testing.T) {
	names := []string{"1.png", "01.png", "x.png", "-1.png", "+1.png"}
	for _, a := range names {
		assert.Equal(t, 0, CompareNames(a, a))
		for _, b := range names {
			if a != b {
				assert.Equal(t, -CompareNames(b, a), CompareNames(a, b), "%s vs %s", a, b)
				assert.NotEqual(t, 0, CompareNames(a, b), "%s vs %s", a, b)
			}
		}
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "10.png", 2, 2)
	writePNG(t, dir, "2.PNG", 2, 2)
	writePNG(t, dir, "1.png", 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "5.png"), 0o755))

	paths, err := List(dir)
	require.NoError(t, err)
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"1.png", "2.PNG", "10.png"}, names)
}

func TestListRejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "1.png", 2, 2)

	_, err := List(filepath.Join(dir, "1.png"))
	var de *DirectoryError
	require.ErrorAs(t, err, &de)

	_, err = List(filepath.Join(dir, "missing"))
	require.ErrorAs(t, err, &de)
}

func TestDirSourceReportsDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "1.png", 3, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.png"), []byte("garbage"), 0o644))

	src, err := NewDirSource(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Len())

	p, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, p.Width())
	assert.Equal(t, 4, p.Height())

	_, err = src.Next(context.Background())
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, filepath.Join(dir, "2.png"), de.Path)

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSkipUndecodable(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "1.png", 5, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.png"), []byte("garbage"), 0o644))
	writePNG(t, dir, "3.png", 5, 20)

	src, err := NewDirSource(dir)
	require.NoError(t, err)

	pages := drain(t, SkipUndecodable(src))
	require.Len(t, pages, 2)
	assert.Equal(t, 10, pages[0].Height())
	assert.Equal(t, 20, pages[1].Height())
}

func TestSkipUndecodablePassesOtherErrors(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "1.png", 5, 10)
	src, err := NewDirSource(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SkipUndecodable(src).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRescanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "2.png", 2, 7)
	writePNG(t, dir, "1.png", 2, 3)

	for i := 0; i < 2; i++ {
		src, err := NewDirSource(dir)
		require.NoError(t, err)
		pages := drain(t, src)
		require.Len(t, pages, 2)
		assert.Equal(t, 3, pages[0].Height())
		assert.Equal(t, 7, pages[1].Height())
	}
}
