package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/specialistvlad/axisgrid/internal/artifact"
	"github.com/specialistvlad/axisgrid/internal/config"
	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/engine"
	"github.com/specialistvlad/axisgrid/internal/gridfile"
	"github.com/specialistvlad/axisgrid/internal/lifecycle"
	"github.com/specialistvlad/axisgrid/internal/metaindex"
)

// Run loads the grids and renders them, or lists the modes when asked to.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() {
		err = errors.Join(err, a.closeHealthCheckServer())
	}()

	if err := a.setup(ctx); err != nil {
		if a.closeBackend != nil {
			a.closeBackend()
		}
		return err
	}
	defer a.closeBackend()

	if a.config.ListModes {
		return a.ListModes(ctx, a.outW)
	}

	var loader config.Loader = gridfile.NewLoader(a.registry)
	model, err := loader.Load(ctx, a.config.GridPath)
	if err != nil {
		return fmt.Errorf("failed to load grids: %w", err)
	}
	if len(model.Grids) == 0 {
		a.logger.Warn("No grids found, nothing to render.", "path", a.config.GridPath)
		return nil
	}
	a.logger.Info("Grids loaded successfully.", "grids", len(model.Grids))

	var recorder artifact.Recorder
	if a.config.IndexPath != "" {
		idx, err := metaindex.Open(a.config.IndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()
		a.logger.Info("Recording cell metadata.", "index", a.config.IndexPath, "run_id", idx.RunID())
		recorder = idx
	}

	var enc artifact.Encoder = a.backend
	if !a.config.PublishMetadata {
		enc = bareEncoder{a.backend}
	}
	// Unbounded: the render loop must never wait on a pending write.
	saver := artifact.NewSaver(ctx, enc, recorder, 0)

	lc := lifecycle.New(lifecycle.Config{
		Registry:        a.registry,
		Backend:         a.backend,
		Options:         a.options,
		Saver:           saver,
		Progress:        a.progress,
		ValidateReplace: a.config.ValidateReplace,
	})
	eng := engine.New(lc, a.backend, a.options, saver, engine.Options{
		OutDir:      a.config.OutDir,
		Format:      a.config.Format,
		Dry:         a.config.DryRun,
		Overwrite:   a.config.Overwrite,
		SkipInvalid: a.config.SkipInvalid,
	})

	a.logger.Info("🚀 Starting grid run...", "dry_run", a.config.DryRun)
	summaries, runErr := eng.Run(ctx, model.Grids...)
	for _, s := range summaries {
		a.logger.Info("Grid summary.",
			"title", s.Title,
			"cells", s.Cells,
			"rendered", s.Rendered,
			"existing", s.Existing,
			"failed", s.Failed,
			"invalid", s.Invalid,
		)
	}
	if runErr != nil {
		return fmt.Errorf("grid run failed: %w", runErr)
	}
	a.logger.Info("🏁 Grid run finished.")
	return nil
}

// bareEncoder drops the generation info so written images carry no
// metadata.
type bareEncoder struct {
	enc artifact.Encoder
}

func (b bareEncoder) Encode(w io.Writer, img image.Image, format, _ string) error {
	return b.enc.Encode(w, img, format, "")
}
