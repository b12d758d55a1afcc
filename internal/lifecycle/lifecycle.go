// Package lifecycle runs one grid coordinate from parameter application to
// saved image: it cleans and queues every axis value, snapshots the shared
// backend settings, applies the queue, renders, post-processes, hands the
// image to the background saver, and restores the snapshot.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/specialistvlad/axisgrid/internal/artifact"
	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/settings"
	"github.com/specialistvlad/axisgrid/internal/steps"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// SeedSource picks a concrete seed for requests asking for a random one.
type SeedSource func() int64

// RandomSeeds draws seeds the way the backend does when left to itself.
func RandomSeeds() int64 {
	return rand.Int64N(1 << 32)
}

// Param is one axis value of a coordinate, as written.
type Param struct {
	Name  string
	Value string
}

// Cell is one coordinate handed over by the engine.
type Cell struct {
	Params []Param
	Path   string
	Dry    bool
}

// All yields the coordinate's parameters in order.
func (c Cell) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, p := range c.Params {
			if !yield(p.Name, p.Value) {
				return
			}
		}
	}
}

// ParamMap returns the coordinate's parameters keyed by name.
func (c Cell) ParamMap() map[string]string {
	m := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		m[p.Name] = p.Value
	}
	return m
}

// Result is what a rendered coordinate produced.
type Result struct {
	Path    string
	Image   image.Image
	Index   int
	Seed    int64
	Info    string
	Params  map[string]any
	Request *synth.Request
}

// Config wires a Lifecycle.
type Config struct {
	Registry *mode.Registry
	Backend  synth.Backend
	Options  *synth.Options
	Saver    *artifact.Saver
	Progress *Progress
	Seeds    SeedSource

	// ValidateReplace makes a text substitution fail when its match text
	// is in neither prompt.
	ValidateReplace bool
}

// Lifecycle implements the per-coordinate hooks.
type Lifecycle struct {
	registry        *mode.Registry
	backend         synth.Backend
	opts            *synth.Options
	saver           *artifact.Saver
	progress        *Progress
	seeds           SeedSource
	validateReplace bool
}

// New creates a Lifecycle. Progress and Seeds default when unset.
func New(cfg Config) *Lifecycle {
	l := &Lifecycle{
		registry:        cfg.Registry,
		backend:         cfg.Backend,
		opts:            cfg.Options,
		saver:           cfg.Saver,
		progress:        cfg.Progress,
		seeds:           cfg.Seeds,
		validateReplace: cfg.ValidateReplace,
	}
	if l.progress == nil {
		l.progress = &Progress{}
	}
	if l.seeds == nil {
		l.seeds = RandomSeeds
	}
	return l
}

// Registry returns the mode registry coordinates are resolved against.
func (l *Lifecycle) Registry() *mode.Registry {
	return l.registry
}

// Progress returns the run's progress tracker.
func (l *Lifecycle) Progress() *Progress {
	return l.progress
}

func (l *Lifecycle) env(req *synth.Request) mode.Env {
	return mode.Env{Request: req, Options: l.opts, Backend: l.backend}
}

// Validate resolves and cleans one axis value against the grid's base
// request without queueing anything.
func (l *Lifecycle) Validate(ctx context.Context, grid *Grid, name, raw string) (any, error) {
	m, err := l.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return l.registry.Clean(ctx, l.env(grid.Base.Clone()), m, name, raw)
}

// InitCall starts a coordinate with a fresh request and an empty queue.
func (l *Lifecycle) InitCall(grid *Grid) *CallState {
	return &CallState{Grid: grid, Request: grid.Base.Clone(), State: StateInit}
}

// ParamAdd resolves and cleans one axis value and queues it. It reports
// whether the value is applied directly; deferred modes only queue their
// substitutions.
func (l *Lifecycle) ParamAdd(ctx context.Context, call *CallState, name, raw string) (bool, error) {
	call.State = StateParamApply
	m, err := l.registry.Resolve(name)
	if err != nil {
		return false, err
	}
	value, err := l.registry.Clean(ctx, l.env(call.Request), m, name, raw)
	if err != nil {
		return false, err
	}

	call.Grid.observe(m.Key(), value)

	if m.Deferred() {
		subs, err := m.Substitutions(value)
		if err != nil {
			return false, &mode.ValidationError{Param: name, Value: raw, Reason: err.Error()}
		}
		for _, s := range subs {
			call.Ops = append(call.Ops, Op{Kind: TextSubstitution, Mode: m, Param: name, Substitution: s})
		}
		return false, nil
	}
	call.Ops = append(call.Ops, Op{Kind: DirectField, Mode: m, Param: name, Value: value})
	return true, nil
}

// RequiresRender reports whether the cell touches a mode that is not
// dry-safe. An existing image says nothing about such a setting, so the
// cell has to be rendered again even when its output is already on disk.
func (l *Lifecycle) RequiresRender(cell Cell) bool {
	for _, p := range cell.Params {
		if m, err := l.registry.Resolve(p.Name); err == nil && !m.Dry {
			return true
		}
	}
	return false
}

// PreDry captures the shared settings the coordinate must give back.
func (l *Lifecycle) PreDry(call *CallState) {
	call.State = StatePreDry
	call.snapshot = l.opts.Snapshot()
}

// Apply runs the queue: every direct op in order, then every substitution
// in order. A dry run skips modes that are not dry-safe.
func (l *Lifecycle) Apply(ctx context.Context, call *CallState, dry bool) error {
	logger := ctxlog.FromContext(ctx)
	env := l.env(call.Request)

	for _, op := range call.Ops {
		if op.Kind != DirectField {
			continue
		}
		if dry && !op.Mode.Dry {
			logger.Debug("Skipping mode that needs a render during a dry run.", "mode", op.Mode.Name)
			continue
		}
		if err := op.Mode.Apply(ctx, env, op.Value); err != nil {
			return fmt.Errorf("failed to apply '%s': %w", op.Param, err)
		}
	}

	req := call.Request
	for _, op := range call.Ops {
		if op.Kind != TextSubstitution {
			continue
		}
		if l.validateReplace && !strings.Contains(req.Prompt, op.Match) && !strings.Contains(req.NegativePrompt, op.Match) {
			return &mode.ValidationError{
				Param:  op.Param,
				Value:  op.Match,
				Reason: fmt.Sprintf("not in prompt '%s' nor negative prompt '%s'", req.Prompt, req.NegativePrompt),
			}
		}
		req.Prompt = strings.ReplaceAll(req.Prompt, op.Match, op.Replace)
		req.NegativePrompt = strings.ReplaceAll(req.NegativePrompt, op.Match, op.Replace)
	}
	return nil
}

// CountSteps estimates the sampling steps of every cell.
func (l *Lifecycle) CountSteps(grid *Grid, cells []Cell) int {
	params := make([]iter.Seq2[string, string], len(cells))
	for i, c := range cells {
		params[i] = c.All()
	}
	return steps.Total(grid.Base, params)
}

// PreRun fixes the run's progress totals before the first coordinate.
func (l *Lifecycle) PreRun(ctx context.Context, grid *Grid, cells []Cell) {
	total := l.CountSteps(grid, cells)
	if l.progress.Begin(total, len(cells)) {
		ctxlog.FromContext(ctx).Info("▶️ Starting grid run.", "cells", len(cells), "steps", total)
	}
}

func (l *Lifecycle) render(ctx context.Context, call *CallState, path string) (*synth.Result, error) {
	req := call.Request
	req.BatchSize = 1
	req.NIter = 1
	if req.Seed < 0 {
		req.Seed = l.seeds()
	}
	if req.Subseed < 0 {
		req.Subseed = l.seeds()
	}

	// Cancellation is honored between coordinates, never mid-render.
	res, err := l.backend.Render(context.WithoutCancel(ctx), l.opts, req)
	if err != nil {
		return nil, &RenderError{Path: path, Err: err}
	}
	if len(res.Images) < 1 {
		return nil, &RenderError{Path: path, Images: len(res.Images)}
	}
	return res, nil
}

// PostDry picks and post-processes the output image, computes its metadata
// and schedules the save.
func (l *Lifecycle) PostDry(ctx context.Context, call *CallState, cell Cell, res *synth.Result) *Result {
	call.State = StatePostProcess
	req := call.Request

	index := req.ResultIndex
	if index >= len(res.Images) {
		index = len(res.Images) - 1
	}
	if index < 0 {
		index = 0
	}
	img := res.Images[index]
	if req.OutWidth > 0 && req.OutHeight > 0 {
		img = artifact.Resize(img, req.OutWidth, req.OutHeight)
	}

	seed := req.Seed
	if index < len(res.Seeds) {
		seed = res.Seeds[index]
	}
	out := &Result{
		Path:    cell.Path,
		Image:   img,
		Index:   index,
		Seed:    seed,
		Info:    Infotext(req, l.opts, seed),
		Params:  BaseParamData(req, l.opts),
		Request: req,
	}
	if l.saver != nil {
		l.saver.Save(img, call.Grid.Format, artifact.Record{
			Path:   cell.Path,
			Axes:   cell.ParamMap(),
			Params: out.Params,
			Info:   out.Info,
			Seed:   seed,
		})
	}
	return out
}

// RunCell drives one coordinate through the whole lifecycle. The shared
// settings captured at PRE_DRY are restored on every exit path. Dry runs
// return a nil Result.
func (l *Lifecycle) RunCell(ctx context.Context, grid *Grid, cell Cell) (res *Result, err error) {
	ctx, logger := ctxlog.With(ctx, "cell", cell.Path)
	start := time.Now()
	logger.Debug("▶️ Starting cell.", "dry", cell.Dry)
	l.progress.Start(cell.Path)
	defer func() {
		l.progress.Finish(steps.ForCell(grid.Base, cell.All()), err != nil)
	}()

	call := l.InitCall(grid)
	for _, p := range cell.Params {
		if _, err := l.ParamAdd(ctx, call, p.Name, p.Value); err != nil {
			return nil, err
		}
	}

	l.PreDry(call)
	defer func() {
		call.State = StateRestore
		if rerr := settings.RestoreCell(context.WithoutCancel(ctx), l.opts, l.backend, call.snapshot); rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore settings after '%s': %w", cell.Path, rerr))
		}
		call.State = StateDone
	}()

	call.State = StateDryOrRender
	if err := l.Apply(ctx, call, cell.Dry); err != nil {
		return nil, err
	}
	if cell.Dry {
		if l.RequiresRender(cell) {
			logger.Debug("Cell changes settings that only a render can show.")
		}
		return nil, nil
	}

	rendered, err := l.render(ctx, call, cell.Path)
	if err != nil {
		return nil, err
	}
	res = l.PostDry(ctx, call, cell, rendered)
	logger.Info("✅ Finished cell.", "seed", res.Seed, "duration", time.Since(start))
	return res, nil
}
