// Package settings guards the backend's shared configuration. A Transaction
// captures the model, VAE and face-restoration settings when a scope begins
// and writes them back when it ends, whatever way it ends.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// Transaction is an open capture of shared settings.
type Transaction struct {
	opts     *synth.Options
	backend  synth.Backend
	saved    synth.Settings
	released bool
}

// Begin captures the current settings of opts.
func Begin(opts *synth.Options, b synth.Backend) *Transaction {
	return &Transaction{opts: opts, backend: b, saved: opts.Snapshot()}
}

// Saved returns the captured settings.
func (t *Transaction) Saved() synth.Settings {
	return t.saved
}

// Release restores the captured settings and reloads the model and VAE so
// the backend is live on them again. Only the first call has an effect.
func (t *Transaction) Release(ctx context.Context) error {
	if t.released {
		return nil
	}
	t.released = true

	t.opts.Restore(t.saved)
	var errs []error
	if err := t.backend.ReloadModel(ctx, t.opts); err != nil {
		errs = append(errs, fmt.Errorf("failed to reload model '%s': %w", t.saved.Model, err))
	}
	if err := t.backend.ReloadVAE(ctx, t.opts); err != nil {
		errs = append(errs, fmt.Errorf("failed to reload VAE '%s': %w", t.saved.VAE, err))
	}
	return errors.Join(errs...)
}

// Guard runs fn inside a transaction. The settings are restored when fn
// returns, fails or panics; a panic is re-raised after the restore. A
// release failure is reported alongside fn's own error.
func Guard(ctx context.Context, opts *synth.Options, b synth.Backend, fn func(ctx context.Context) error) (err error) {
	tx := Begin(opts, b)
	releaseCtx := context.WithoutCancel(ctx)
	defer func() {
		if p := recover(); p != nil {
			if rerr := tx.Release(releaseCtx); rerr != nil {
				ctxlog.FromContext(ctx).Error("Failed to restore settings after panic.", "error", rerr)
			}
			panic(p)
		}
		if rerr := tx.Release(releaseCtx); rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore settings: %w", rerr))
		}
	}()
	return fn(ctx)
}
