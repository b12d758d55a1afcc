package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/axisgrid/internal/artifact"
	"github.com/specialistvlad/axisgrid/internal/config"
	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/fsutil"
	"github.com/specialistvlad/axisgrid/internal/imagecodec"
	"github.com/specialistvlad/axisgrid/internal/lifecycle"
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/settings"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// Options control a run.
type Options struct {
	OutDir string
	// Format overrides the grids' own image format when set.
	Format      string
	Dry         bool
	Overwrite   bool
	SkipInvalid bool
}

// GridSummary reports what happened to one grid.
type GridSummary struct {
	Title    string
	Cells    int
	Rendered int
	Existing int
	Failed   int
	Invalid  int
}

// Engine runs grids against one backend.
type Engine struct {
	lc      *lifecycle.Lifecycle
	backend synth.Backend
	opts    *synth.Options
	saver   *artifact.Saver
	cfg     Options
}

// New creates an engine. saver must be the one lc hands images to.
func New(lc *lifecycle.Lifecycle, backend synth.Backend, opts *synth.Options, saver *artifact.Saver, cfg Options) *Engine {
	return &Engine{lc: lc, backend: backend, opts: opts, saver: saver, cfg: cfg}
}

type plan struct {
	grid  *lifecycle.Grid
	title string
	cells []lifecycle.Cell
	sum   *GridSummary
}

// Run validates every grid, then runs them in order. Shared backend
// settings are restored when Run returns, and pending saves are joined.
// Cancellation of ctx stops the run at the next coordinate boundary.
func (e *Engine) Run(ctx context.Context, grids ...*config.Grid) ([]*GridSummary, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	plans := make([]*plan, 0, len(grids))
	for _, g := range grids {
		p, err := e.prepare(ctx, g)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	var allCells []lifecycle.Cell
	for _, p := range plans {
		allCells = append(allCells, p.cells...)
	}
	if len(plans) > 0 {
		e.lc.PreRun(ctx, plans[0].grid, allCells)
	}

	runErr := settings.Guard(ctx, e.opts, e.backend, func(ctx context.Context) error {
		for _, p := range plans {
			if err := e.runGrid(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if e.saver != nil {
		if err := e.saver.Wait(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to save images: %w", err))
		}
	}

	summaries := make([]*GridSummary, len(plans))
	for i, p := range plans {
		summaries[i] = p.sum
	}
	if runErr != nil {
		return summaries, runErr
	}
	logger.Info("✅ Grid run finished.", "grids", len(plans), "duration", time.Since(start))
	return summaries, nil
}

// prepare validates a grid and enumerates the coordinates still to run.
func (e *Engine) prepare(ctx context.Context, g *config.Grid) (*plan, error) {
	ctx, logger := ctxlog.With(ctx, "grid", g.Title)

	format := g.Format
	if e.cfg.Format != "" {
		format = e.cfg.Format
	}
	format, err := imagecodec.Canonical(format)
	if err != nil {
		return nil, fmt.Errorf("grid '%s': %w", g.Title, err)
	}

	p := &plan{
		grid:  lifecycle.NewGrid(synth.NewRequest(), format),
		title: g.Title,
		sum:   &GridSummary{Title: g.Title},
	}
	if err := e.validate(ctx, p, g); err != nil {
		return nil, err
	}

	cells, err := Cells(g, e.cfg.OutDir, format, e.cfg.Dry)
	if err != nil {
		return nil, err
	}
	p.sum.Cells = len(cells)
	for _, c := range cells {
		if !e.cfg.Dry && !e.cfg.Overwrite && fsutil.Exists(c.Path) && !e.lc.RequiresRender(c) {
			p.sum.Existing++
			continue
		}
		p.cells = append(p.cells, c)
	}
	logger.Debug("Grid prepared.", "cells", p.sum.Cells, "existing", p.sum.Existing, "invalid_values", p.sum.Invalid)
	return p, nil
}

// validate cleans every parameter of the grid before anything runs.
// Invalid axis values are marked skipped when SkipInvalid is set.
func (e *Engine) validate(ctx context.Context, p *plan, g *config.Grid) error {
	logger := ctxlog.FromContext(ctx)
	for _, param := range g.Params {
		if _, err := e.lc.Validate(ctx, p.grid, param.Name, param.Value); err != nil {
			return fmt.Errorf("grid '%s': %w", g.Title, err)
		}
	}

	for _, axis := range g.Axes {
		if _, err := e.lc.Registry().Resolve(axis.Mode); err != nil {
			return fmt.Errorf("grid '%s': %w", g.Title, err)
		}
		for _, v := range axis.Values {
			if v.Skip {
				continue
			}
			for _, param := range v.Params {
				_, err := e.lc.Validate(ctx, p.grid, param.Name, param.Value)
				if err == nil {
					continue
				}
				var verr *mode.ValidationError
				if !e.cfg.SkipInvalid || !errors.As(err, &verr) {
					return fmt.Errorf("grid '%s': axis '%s': %w", g.Title, axis.Title, err)
				}
				logger.Warn("Skipping invalid axis value.", "axis", axis.Title, "value", v.Title, "error", err)
				v.Skip = true
				p.sum.Invalid++
				break
			}
		}
	}
	return nil
}

func (e *Engine) runGrid(ctx context.Context, p *plan) error {
	ctx, logger := ctxlog.With(ctx, "grid", p.title)
	logger.Info("▶️ Starting grid.", "cells", len(p.cells))

	for _, cell := range p.cells {
		if err := ctx.Err(); err != nil {
			logger.Warn("Grid run cancelled.", "remaining", len(p.cells)-p.sum.Rendered-p.sum.Failed)
			return err
		}

		_, err := e.lc.RunCell(ctx, p.grid, cell)
		if err == nil {
			p.sum.Rendered++
			continue
		}

		var (
			rerr *lifecycle.RenderError
			verr *mode.ValidationError
		)
		switch {
		case errors.As(err, &rerr):
			logger.Error("Cell failed to render.", "cell", cell.Path, "error", err)
			p.sum.Failed++
		case errors.As(err, &verr) && e.cfg.SkipInvalid:
			logger.Warn("Skipping invalid cell.", "cell", cell.Path, "error", err)
			p.sum.Failed++
		default:
			return fmt.Errorf("grid '%s': %w", p.title, err)
		}
	}
	return nil
}
