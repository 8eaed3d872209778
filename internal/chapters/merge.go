package chapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/filetype"
	"github.com/local/repage/internal/source"
)

// FinalDir is the folder, inside a series folder, that receives merged images.
const FinalDir = "final"

var imageNumberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// Result summarizes a merge.
type Result struct {
	Destination string
	Chapters    []string
	Copied      int
}

// Chapters lists the chapter folders of base in reading order, excluding the
// merge destination itself.
func Chapters(base string) ([]string, error) {
	if err := source.CheckDir(base); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.EqualFold(e.Name(), FinalDir) {
			names = append(names, e.Name())
		}
	}
	Sort(names)
	return names, nil
}

// imageNumber is the first decimal number in the file stem, or 0.
func imageNumber(name string) float64 {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := imageNumberRe.FindString(stem)
	if m == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(m, 64)
	return f
}

// chapterImages lists the image files of one chapter folder in page order.
func chapterImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !filetype.HasExtension(e.Name(), filetype.ChapterImageExtensions) {
			continue
		}
		// Stat follows symlinks, so linked images are copied too.
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	slices.SortStableFunc(names, func(a, b string) int {
		na, nb := imageNumber(a), imageNumber(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	})
	return names, nil
}

// Merge copies the images of every chapter folder of base into base/final,
// renaming them 1.<ext>, 2.<ext>, ... across chapters.
func Merge(ctx context.Context, base string) (Result, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return Result{}, err
	}
	chapters, err := Chapters(base)
	if err != nil {
		return Result{}, err
	}

	dest := filepath.Join(base, FinalDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Result{}, fmt.Errorf("create destination folder: %w", err)
	}
	res := Result{Destination: dest, Chapters: chapters}

	for _, ch := range chapters {
		dir := filepath.Join(base, ch)
		log.Info().Str("chapter", ch).Str("key", ParseChapter(ch).String()).Msg("processing chapter folder")
		images, err := chapterImages(dir)
		if err != nil {
			return res, fmt.Errorf("list images of %s: %w", ch, err)
		}
		for _, img := range images {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			src := filepath.Join(dir, img)
			dst := filepath.Join(dest, fmt.Sprintf("%d%s", res.Copied+1, filepath.Ext(img)))
			if err := copyFile(src, dst); err != nil {
				return res, fmt.Errorf("copy %s: %w", src, err)
			}
			res.Copied++
			log.Debug().Str("from", src).Str("to", dst).Msg("copied image")
		}
	}

	log.Info().Str("destination", dest).Int("chapters", len(chapters)).Int("images", res.Copied).Msg("all images have been merged")
	return res, nil
}

// copyFile copies src to dst keeping its permission bits and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
