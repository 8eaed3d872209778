package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/raster"
)

// WriteError reports the output page that could not be persisted. It aborts the run.
type WriteError struct {
	Index int
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write page %d to %s: %v", e.Index, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Dir writes pages into a directory as 1.<ext>, 2.<ext>, ...
type Dir struct {
	dir     string
	opts    Options
	next    int
	written []string
}

// NewDir prepares dir for output, creating it when absent.
func NewDir(dir string, opts Options) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Dir{dir: dir, opts: opts.withDefaults(), next: 1}, nil
}

// Count is the number of pages written so far.
func (d *Dir) Count() int { return d.next - 1 }

// Last returns the index and path of the most recently written page.
func (d *Dir) Last() (int, string) {
	if len(d.written) == 0 {
		return 0, ""
	}
	return d.next - 1, d.written[len(d.written)-1]
}

func (d *Dir) Write(ctx context.Context, p raster.Page) error {
	idx := d.next
	path := filepath.Join(d.dir, fmt.Sprintf("%d%s", idx, d.opts.Format.Extension()))
	if err := d.save(p, path); err != nil {
		log.Error().Err(err).Int("page", idx).Str("file", path).Msg("failed to save page")
		return &WriteError{Index: idx, Path: path, Err: err}
	}
	d.next++
	d.written = append(d.written, path)
	log.Info().Int("page", idx).Str("file", path).Int("width", p.Width()).Int("height", p.Height()).Msg("saved page")
	return nil
}

func (d *Dir) save(p raster.Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, p.Image(), d.opts); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", d.opts.Format, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Mirror receives a copy of every page file after it has been written locally.
type Mirror interface {
	Put(ctx context.Context, localPath string, index int, contentType string) error
}

// Teed is a Dir followed by a Mirror.
type Teed struct {
	dir    *Dir
	mirror Mirror
}

// Tee writes to dir and then hands each new file to mirror. A mirror failure
// is reported like a local write failure.
func Tee(dir *Dir, mirror Mirror) *Teed {
	return &Teed{dir: dir, mirror: mirror}
}

func (t *Teed) Write(ctx context.Context, p raster.Page) error {
	if err := t.dir.Write(ctx, p); err != nil {
		return err
	}
	idx, path := t.dir.Last()
	if err := t.mirror.Put(ctx, path, idx, t.dir.opts.Format.ContentType()); err != nil {
		return &WriteError{Index: idx, Path: path, Err: err}
	}
	return nil
}
