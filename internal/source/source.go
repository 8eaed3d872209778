package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"github.com/local/repage/internal/filetype"
	"github.com/local/repage/internal/metrics"
	"github.com/local/repage/internal/raster"
)

// Reader yields pages one at a time. Next returns io.EOF once the input is
// exhausted and a *DecodeError for a page that could not be read.
type Reader interface {
	Next(ctx context.Context) (raster.Page, error)
}

// CheckDir verifies that dir exists and is a directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &DirectoryError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &DirectoryError{Path: dir}
	}
	return nil
}

// List returns the page files of dir in reading order.
func List(dir string) ([]string, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !filetype.HasExtension(e.Name(), filetype.PageExtensions) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.SortFunc(names, CompareNames)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// Open decodes a single page file. Anything that does not sniff as a
// decodable image is rejected before decoding.
func Open(detector *filetype.Detector, path string) (raster.Page, error) {
	ok, err := detector.IsPage(path)
	if err != nil {
		return raster.Page{}, &DecodeError{Path: path, Err: err}
	}
	if !ok {
		return raster.Page{}, &DecodeError{Path: path, Err: errors.New("content is not a supported image")}
	}

	f, err := os.Open(path)
	if err != nil {
		return raster.Page{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return raster.Page{}, &DecodeError{Path: path, Err: err}
	}
	p := raster.FromDecoded(img)
	log.Debug().Str("file", path).Str("format", format).Int("width", p.Width()).Int("height", p.Height()).Msg("decoded page")
	return p, nil
}

// DirSource reads the pages of a directory lazily, in List order.
type DirSource struct {
	detector *filetype.Detector
	paths    []string
	next     int
}

// NewDirSource lists dir and prepares to read its pages.
func NewDirSource(dir string) (*DirSource, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}
	return &DirSource{detector: filetype.New(), paths: paths}, nil
}

// Len is the number of candidate page files found.
func (s *DirSource) Len() int { return len(s.paths) }

func (s *DirSource) Next(ctx context.Context) (raster.Page, error) {
	if err := ctx.Err(); err != nil {
		return raster.Page{}, err
	}
	if s.next >= len(s.paths) {
		return raster.Page{}, io.EOF
	}
	path := s.paths[s.next]
	s.next++
	return Open(s.detector, path)
}

type skipping struct {
	r Reader
}

// SkipUndecodable drops pages that fail with a *DecodeError, logging a
// warning for each. Any other error is passed through.
func SkipUndecodable(r Reader) Reader {
	return &skipping{r: r}
}

func (s *skipping) Next(ctx context.Context) (raster.Page, error) {
	for {
		p, err := s.r.Next(ctx)
		var de *DecodeError
		if errors.As(err, &de) {
			log.Warn().Err(de.Err).Str("file", de.Path).Msg("could not open page, skipping it")
			metrics.IncRead("skipped")
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				err = fmt.Errorf("read page: %w", err)
			}
			return raster.Page{}, err
		}
		metrics.IncRead("decoded")
		return p, nil
	}
}
