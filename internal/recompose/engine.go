// Package recompose turns a stream of variable-height pages into pages whose
// height is pinned to a multiple of their width.
package recompose

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/local/repage/internal/metrics"
	"github.com/local/repage/internal/raster"
)

const (
	DefaultMultiplier = 2.5
	DefaultTolerance  = 10
)

// Reason records why a page was emitted.
type Reason string

const (
	ReasonExact         Reason = "exact"
	ReasonSplit         Reason = "split"
	ReasonMerged        Reason = "merged"
	ReasonFinal         Reason = "final"
	ReasonWidthMismatch Reason = "width_mismatch"
)

// Reader supplies decoded pages in order and returns io.EOF when exhausted.
type Reader interface {
	Next(ctx context.Context) (raster.Page, error)
}

// Writer persists finished pages in emission order.
type Writer interface {
	Write(ctx context.Context, p raster.Page) error
}

// Stats summarizes a run.
type Stats struct {
	Read         int
	Emitted      int
	Splits       int
	Merges       int
	WidthFlushes int
}

// Engine holds the layout parameters. The zero value is not usable; use New.
type Engine struct {
	Multiplier float64
	Tolerance  int
}

func New(multiplier float64, tolerance int) *Engine {
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{Multiplier: multiplier, Tolerance: tolerance}
}

// pending is the accumulator: a partial page waiting for more rows.
type pending struct {
	page    raster.Page
	present bool
}

func (p *pending) hold(pg raster.Page) { *p = pending{page: pg, present: true} }
func (p *pending) clear()              { *p = pending{} }

type run struct {
	ctx   context.Context
	w     Writer
	stats Stats
}

func (r *run) emit(p raster.Page, reason Reason) error {
	if err := r.w.Write(r.ctx, p); err != nil {
		return err
	}
	r.stats.Emitted++
	metrics.IncEmitted(string(reason))
	log.Debug().Int("width", p.Width()).Int("height", p.Height()).Str("reason", string(reason)).Msg("emitted page")
	return nil
}

func (e *Engine) target(width int) int {
	return raster.TargetHeight(width, e.Multiplier)
}

func (e *Engine) compatible(a, b int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= e.Tolerance
}

// split emits every full slice of p and returns the short remainder, if any,
// as the new accumulator.
func (e *Engine) split(r *run, p raster.Page, target int) (pending, error) {
	r.stats.Splits++
	parts := p.Split(target)
	last := parts[len(parts)-1]
	for _, part := range parts[:len(parts)-1] {
		if err := r.emit(part, ReasonSplit); err != nil {
			return pending{}, err
		}
	}
	if last.Height() == target {
		return pending{}, r.emit(last, ReasonSplit)
	}
	return pending{page: last, present: true}, nil
}

// Run drains src through the state machine, writing every finished page to dst.
// It stops at the first read or write failure.
func (e *Engine) Run(ctx context.Context, src Reader, dst Writer) (Stats, error) {
	r := &run{ctx: ctx, w: dst}
	var acc pending

	read := func() (raster.Page, bool, error) {
		p, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return raster.Page{}, false, nil
		}
		if err != nil {
			return raster.Page{}, false, err
		}
		r.stats.Read++
		return p, true, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}

		if !acc.present {
			p, ok, err := read()
			if err != nil {
				return r.stats, err
			}
			if !ok {
				return r.stats, nil
			}
			target := e.target(p.Width())
			switch {
			case p.Height() > target:
				if acc, err = e.split(r, p, target); err != nil {
					return r.stats, err
				}
			case p.Height() == target:
				if err := r.emit(p, ReasonExact); err != nil {
					return r.stats, err
				}
			default:
				acc.hold(p)
			}
			continue
		}

		a := acc.page
		target := e.target(a.Width())
		if a.Height() > target {
			var err error
			if acc, err = e.split(r, a, target); err != nil {
				return r.stats, err
			}
			continue
		}
		if a.Height() == target {
			acc.clear()
			if err := r.emit(a, ReasonExact); err != nil {
				return r.stats, err
			}
			continue
		}

		n, ok, err := read()
		if err != nil {
			return r.stats, err
		}
		if !ok {
			acc.clear()
			if err := r.emit(a, ReasonFinal); err != nil {
				return r.stats, err
			}
			continue
		}

		if !e.compatible(a.Width(), n.Width()) {
			log.Debug().Int("held_width", a.Width()).Int("next_width", n.Width()).Msg("width mismatch, flushing held page")
			r.stats.WidthFlushes++
			acc.hold(n)
			if err := r.emit(a, ReasonWidthMismatch); err != nil {
				return r.stats, err
			}
			continue
		}

		r.stats.Merges++
		needed := target - a.Height()
		switch {
		case n.Height() > needed:
			top, leftover := n.CropTop(needed)
			if leftover.Height() > 0 {
				acc.hold(leftover)
			} else {
				acc.clear()
			}
			if err := r.emit(raster.VConcat(a, top), ReasonMerged); err != nil {
				return r.stats, err
			}
		case n.Height() == needed:
			acc.clear()
			if err := r.emit(raster.VConcat(a, n), ReasonMerged); err != nil {
				return r.stats, err
			}
		default:
			acc.hold(raster.VConcat(a, n))
		}
	}
}

// Describe renders the stats for a one-line summary.
func (s Stats) Describe() string {
	return fmt.Sprintf("%d pages in, %d pages out (%d splits, %d merges, %d width flushes)",
		s.Read, s.Emitted, s.Splits, s.Merges, s.WidthFlushes)
}
