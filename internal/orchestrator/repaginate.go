package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/filetype"
	"github.com/local/repage/internal/imagerender"
	"github.com/local/repage/internal/metrics"
	"github.com/local/repage/internal/recompose"
	"github.com/local/repage/internal/sink"
	"github.com/local/repage/internal/source"
)

// ErrNotDocument is returned for inputs that are not a PDF, CBZ, EPUB or
// other renderable container.
var ErrNotDocument = errors.New("not a renderable document")

// Options carries the layout and encode settings of a run.
type Options struct {
	Multiplier float64
	Tolerance  int
	Output     sink.Options

	// Mirror, when set, returns the mirror for an output directory. A nil
	// result means the directory is written locally only.
	Mirror func(outputDir string) sink.Mirror
}

// Repaginate runs the engine over the image pages of inputDir and writes
// the result to outputDir.
func Repaginate(ctx context.Context, inputDir, outputDir string, opts Options) (recompose.Stats, error) {
	src, err := source.NewDirSource(inputDir)
	if err != nil {
		return recompose.Stats{}, err
	}
	log.Info().Str("input", inputDir).Str("output", outputDir).Int("candidates", src.Len()).Msg("repaginating folder")
	return run(ctx, source.SkipUndecodable(src), outputDir, opts)
}

// RepaginateDocument renders every page of a PDF, CBZ or EPUB at dpi and
// repaginates the result into outputDir.
func RepaginateDocument(ctx context.Context, path, outputDir string, dpi int, opts Options) (recompose.Stats, error) {
	ok, err := filetype.New().IsDocument(path)
	if err != nil {
		return recompose.Stats{}, &imagerender.DocumentError{Path: path, Err: err}
	}
	if !ok {
		return recompose.Stats{}, &imagerender.DocumentError{Path: path, Err: ErrNotDocument}
	}

	expected, isPDF, countErr := imagerender.DeterminePDFPages(path)
	if countErr != nil {
		log.Warn().Err(countErr).Str("document", path).Msg("pdfcpu could not count pages, continuing with renderer")
	}

	doc, err := imagerender.Open(path, dpi)
	if err != nil {
		return recompose.Stats{}, &imagerender.DocumentError{Path: path, Err: err}
	}
	defer doc.Close()

	if isPDF && countErr == nil && expected != doc.NumPage() {
		log.Warn().Int("pdfcpu_pages", expected).Int("renderer_pages", doc.NumPage()).Str("document", path).Msg("page count mismatch")
	}
	log.Info().Str("document", path).Str("output", outputDir).Int("pages", doc.NumPage()).Msg("repaginating document")
	return run(ctx, source.SkipUndecodable(doc), outputDir, opts)
}

func run(ctx context.Context, r recompose.Reader, outputDir string, opts Options) (recompose.Stats, error) {
	started := time.Now()
	dir, err := sink.NewDir(outputDir, opts.Output)
	if err != nil {
		return recompose.Stats{}, err
	}

	var w recompose.Writer = dir
	if opts.Mirror != nil {
		if m := opts.Mirror(outputDir); m != nil {
			w = sink.Tee(dir, m)
		}
	}

	stats, err := recompose.New(opts.Multiplier, opts.Tolerance).Run(ctx, r, w)
	metrics.ObserveRun(time.Since(started))
	if err != nil {
		return stats, err
	}
	log.Info().
		Int("read", stats.Read).
		Int("emitted", stats.Emitted).
		Int("splits", stats.Splits).
		Int("merges", stats.Merges).
		Int("width_flushes", stats.WidthFlushes).
		Dur("took", time.Since(started)).
		Msg("repagination finished")
	return stats, nil
}
