package localbackend

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Deterministic(t *testing.T) {
	b := New(Config{})
	req := synth.NewRequest()
	req.Seed = 42
	req.BatchSize = 2
	req.Width, req.Height = 1024, 64

	first, err := b.Render(context.Background(), synth.NewOptions(nil), req)
	require.NoError(t, err)
	second, err := b.Render(context.Background(), synth.NewOptions(nil), req)
	require.NoError(t, err)

	require.Len(t, first.Images, 2)
	assert.Equal(t, []int64{42, 43}, first.Seeds)
	assert.Equal(t, first.Images[0].At(0, 0), second.Images[0].At(0, 0))
	assert.NotEqual(t, first.Images[0].At(0, 0), first.Images[1].At(0, 0))
	assert.Equal(t, maxSide, first.Images[0].Bounds().Dx())
	assert.Equal(t, 64, first.Images[0].Bounds().Dy())
	assert.Len(t, b.Renders(), 2)
}

func TestRender_Hook(t *testing.T) {
	boom := errors.New("out of memory")
	b := New(Config{Render: func(context.Context, *synth.Options, *synth.Request) (*synth.Result, error) {
		return nil, boom
	}})
	_, err := b.Render(context.Background(), synth.NewOptions(nil), synth.NewRequest())
	require.ErrorIs(t, err, boom)
	assert.Len(t, b.Renders(), 1, "failed renders are still recorded")
}

func TestReloads(t *testing.T) {
	b := New(Config{})
	opts := synth.NewOptions(map[string]any{synth.OptModel: "m.safetensors"})

	require.NoError(t, b.ReloadModel(context.Background(), opts))
	require.NoError(t, b.ReloadVAE(context.Background(), opts))
	require.NoError(t, b.ReloadModel(context.Background(), opts))

	model, vae := b.Loaded()
	assert.Equal(t, "m.safetensors", model)
	assert.Equal(t, synth.VAEAutomatic, vae)
	models, vaes := b.Reloads()
	assert.Equal(t, 2, models)
	assert.Equal(t, 1, vaes)
}

func TestCatalogAndExtensions(t *testing.T) {
	b := New(Config{
		Catalogs:   map[synth.CatalogKind][]string{synth.CatalogSamplers: {"Only"}},
		Extensions: map[string]*synth.Extension{"x": {Name: "x", Catalogs: map[string][]string{"modes": {"a"}}}},
	})

	samplers, err := b.Catalog(context.Background(), synth.CatalogSamplers)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, samplers)

	models, err := b.Catalog(context.Background(), synth.CatalogModels)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalogs[synth.CatalogModels], models)

	_, err = b.Catalog(context.Background(), "nope")
	assert.Error(t, err)

	ext, ok, err := b.ProbeExtension(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, ok)
	ext.Catalogs["modes"] = nil
	again, _, _ := b.ProbeExtension(context.Background(), "x")
	assert.Equal(t, []string{"a"}, again.Catalogs["modes"], "probe hands out copies")

	_, ok, err = b.ProbeExtension(context.Background(), "y")
	require.NoError(t, err)
	assert.False(t, ok)
}
