package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/axisgrid/internal/localbackend"
	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOptions() *synth.Options {
	return synth.NewOptions(map[string]any{
		synth.OptModel:                "A",
		synth.OptVAE:                  "V",
		synth.OptCodeFormerWeight:     0.5,
		synth.OptFaceRestorationModel: "CodeFormer",
	})
}

func mutate(opts *synth.Options) {
	opts.Set(synth.OptModel, "B")
	opts.Set(synth.OptVAE, "W")
	opts.Set(synth.OptCodeFormerWeight, 0.9)
	opts.Set(synth.OptFaceRestorationModel, "GFPGAN")
}

func TestGuard_RestoresOnSuccessAndFailure(t *testing.T) {
	for _, fail := range []bool{false, true} {
		opts := newOptions()
		b := localbackend.New(localbackend.Config{})
		before := opts.Snapshot()

		err := Guard(context.Background(), opts, b, func(ctx context.Context) error {
			mutate(opts)
			if fail {
				return errors.New("render failed")
			}
			return nil
		})

		if fail {
			assert.EqualError(t, err, "render failed")
		} else {
			assert.NoError(t, err)
		}
		assert.Equal(t, before, opts.Snapshot())

		model, vae := b.Loaded()
		assert.Equal(t, "A", model)
		assert.Equal(t, "V", vae)
	}
}

func TestGuard_RestoresOnPanic(t *testing.T) {
	opts := newOptions()
	b := localbackend.New(localbackend.Config{})

	assert.PanicsWithValue(t, "boom", func() {
		_ = Guard(context.Background(), opts, b, func(ctx context.Context) error {
			mutate(opts)
			panic("boom")
		})
	})
	assert.Equal(t, "A", opts.String(synth.OptModel))
	models, vaes := b.Reloads()
	assert.Equal(t, 1, models)
	assert.Equal(t, 1, vaes)
}

func TestGuard_RestoresOnCancelledContext(t *testing.T) {
	opts := newOptions()
	b := localbackend.New(localbackend.Config{})
	ctx, cancel := context.WithCancel(context.Background())

	err := Guard(ctx, opts, b, func(ctx context.Context) error {
		mutate(opts)
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "A", opts.String(synth.OptModel))
}

func TestRelease_OnlyOnce(t *testing.T) {
	opts := newOptions()
	b := localbackend.New(localbackend.Config{})
	tx := Begin(opts, b)

	require.NoError(t, tx.Release(context.Background()))
	opts.Set(synth.OptModel, "C")
	require.NoError(t, tx.Release(context.Background()))

	assert.Equal(t, "C", opts.String(synth.OptModel))
	assert.Equal(t, "A", tx.Saved().Model)
}

func TestRestoreCell_ReloadsOnlyWhatChanged(t *testing.T) {
	opts := newOptions()
	b := localbackend.New(localbackend.Config{})
	snapshot := opts.Snapshot()

	require.NoError(t, RestoreCell(context.Background(), opts, b, snapshot))
	models, vaes := b.Reloads()
	assert.Zero(t, models)
	assert.Zero(t, vaes)

	opts.Set(synth.OptModel, "B")
	opts.Set(synth.OptCodeFormerWeight, 0.1)
	require.NoError(t, RestoreCell(context.Background(), opts, b, snapshot))

	models, vaes = b.Reloads()
	assert.Equal(t, 1, models)
	assert.Zero(t, vaes)
	assert.Equal(t, snapshot, opts.Snapshot())
}
