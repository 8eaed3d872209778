package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/chapters"
	"github.com/local/repage/internal/metrics"
	"github.com/local/repage/internal/source"
	"github.com/local/repage/internal/store"
)

// OutputDir is the folder, next to final/, that receives repaginated pages.
const OutputDir = "output"

// StatusStore records per-folder outcomes so interrupted batches can resume.
type StatusStore interface {
	Set(ctx context.Context, folder string, st store.FolderStatus) error
	Get(ctx context.Context, folder string) (store.FolderStatus, bool, error)
	Forget(ctx context.Context, folder string) error
}

// BatchOptions configures a collection run.
type BatchOptions struct {
	Options
	Resume bool
	Reset  bool // forget recorded statuses before processing each folder
	Status StatusStore // optional
	RunID  string
}

// BatchResult lists the folders by outcome.
type BatchResult struct {
	Done    []string
	Failed  []string
	Skipped []string
}

// subfolders returns the directories directly under collection, sorted by name.
func subfolders(collection string) ([]string, error) {
	if err := source.CheckDir(collection); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(collection)
	if err != nil {
		return nil, &source.DirectoryError{Path: collection, Err: err}
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(collection, e.Name()))
		}
	}
	return dirs, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// RepaginateAll repaginates <sub>/final into <sub>/output for every
// subfolder of collection. A failing folder is logged and the loop moves on;
// only cancellation or an unreadable collection stops the batch.
func RepaginateAll(ctx context.Context, collection string, opts BatchOptions) (BatchResult, error) {
	var res BatchResult
	dirs, err := subfolders(collection)
	if err != nil {
		return res, err
	}

	for _, sub := range dirs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		final := filepath.Join(sub, chapters.FinalDir)
		if !isDir(final) {
			log.Warn().Str("folder", sub).Msg("'final' folder not found, skipping")
			res.Skipped = append(res.Skipped, sub)
			metrics.IncFolder("skipped")
			continue
		}

		if opts.Reset && opts.Status != nil {
			if err := opts.Status.Forget(ctx, sub); err != nil {
				log.Warn().Err(err).Str("folder", sub).Msg("could not reset folder status")
			}
		}

		if opts.Resume && opts.Status != nil {
			st, ok, err := opts.Status.Get(ctx, sub)
			if err != nil {
				log.Warn().Err(err).Str("folder", sub).Msg("could not read folder status")
			} else if ok && st.State == store.StateDone {
				log.Info().Str("folder", sub).Int("pages", st.Pages).Msg("already done, skipping")
				res.Skipped = append(res.Skipped, sub)
				metrics.IncFolder("skipped")
				continue
			}
		}

		out := filepath.Join(sub, OutputDir)
		if isDir(out) {
			log.Info().Str("output", out).Msg("'output' folder already exists")
		}

		start := time.Now()
		record(ctx, opts, sub, store.FolderStatus{State: store.StateRunning, Start: &start})

		stats, err := Repaginate(ctx, final, out, opts.Options)
		end := time.Now()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			log.Error().Err(err).Str("folder", sub).Msg("repagination failed")
			record(ctx, opts, sub, store.FolderStatus{State: store.StateFailed, Pages: stats.Emitted, Message: err.Error(), Start: &start, End: &end})
			res.Failed = append(res.Failed, sub)
			metrics.IncFolder("failed")
			continue
		}

		record(ctx, opts, sub, store.FolderStatus{State: store.StateDone, Pages: stats.Emitted, Start: &start, End: &end})
		res.Done = append(res.Done, sub)
		metrics.IncFolder("done")
	}
	return res, nil
}

func record(ctx context.Context, opts BatchOptions, folder string, st store.FolderStatus) {
	if opts.Status == nil {
		return
	}
	if opts.RunID != "" {
		st.Metadata = map[string]string{"run_id": opts.RunID}
	}
	if err := opts.Status.Set(ctx, folder, st); err != nil {
		log.Warn().Err(err).Str("folder", folder).Str("state", st.State).Msg("could not record folder status")
	}
}

// MergeAll runs the chapter merger on every subfolder of collection.
func MergeAll(ctx context.Context, collection string) (BatchResult, error) {
	var res BatchResult
	dirs, err := subfolders(collection)
	if err != nil {
		return res, err
	}
	for _, sub := range dirs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Info().Str("folder", sub).Msg("processing manga folder")
		r, err := chapters.Merge(ctx, sub)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return res, err
			}
			log.Error().Err(err).Str("folder", sub).Msg("merge failed, skipping to next folder")
			res.Failed = append(res.Failed, sub)
			metrics.IncFolder("failed")
			continue
		}
		log.Info().Str("folder", sub).Int("images", r.Copied).Msg("finished merging")
		res.Done = append(res.Done, sub)
		metrics.IncFolder("done")
	}
	return res, nil
}
