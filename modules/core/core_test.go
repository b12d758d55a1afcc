package core

import (
	"context"
	"testing"

	"github.com/specialistvlad/axisgrid/internal/localbackend"
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*mode.Registry, mode.Env, *localbackend.Backend) {
	t.Helper()
	b := localbackend.New(localbackend.Config{})
	r := mode.NewRegistry()
	require.NoError(t, r.Install(context.Background(), b, &Module{}))
	env := mode.Env{
		Request: synth.NewRequest(),
		Options: synth.NewOptions(map[string]any{synth.OptModel: "v1-5-pruned-emaonly.safetensors [6ce0161689]"}),
		Backend: b,
	}
	return r, env, b
}

func cleanAndApply(t *testing.T, r *mode.Registry, env mode.Env, name, raw string) {
	t.Helper()
	ctx := context.Background()
	m, err := r.Resolve(name)
	require.NoError(t, err)
	v, err := r.Clean(ctx, env, m, name, raw)
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, env, v))
}

func TestRegister_AllBuiltinsAreUnique(t *testing.T) {
	r, _, _ := setup(t)
	assert.Equal(t, len(modes()), r.Len())
	for _, name := range []string{"cfgscale", "CFG_Scale", " cfg scale ", "HIGHRES UPSCALE TO WIDTH"} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, name)
	}
	assert.Error(t, (&Module{}).Register(r), "registering twice must fail")
}

func TestDryFlags(t *testing.T) {
	r, _, _ := setup(t)
	for name, dry := range map[string]bool{
		"Model": false, "VAE": false, "ClipSkip": false, "HighRes Checkpoint": false,
		"Sampler": true, "Steps": true, "Prompt Replace": true,
	} {
		m, err := r.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, dry, m.Dry, name)
	}
}

func TestModel_CleanAndApplyReloads(t *testing.T) {
	r, env, b := setup(t)
	m, err := r.Resolve("model")
	require.NoError(t, err)

	v, err := r.Clean(context.Background(), env, m, "model", "sd_xl_base")
	require.NoError(t, err)
	assert.Equal(t, "sd_xl_base_1.0", v)

	require.NoError(t, m.Apply(context.Background(), env, v))
	assert.Equal(t, "sd_xl_base_1.0.safetensors [31e35c80fc]", env.Options.String(synth.OptModel))
	model, _ := b.Loaded()
	assert.Equal(t, "sd_xl_base_1.0.safetensors [31e35c80fc]", model)
}

func TestModel_UnknownListsCatalog(t *testing.T) {
	r, env, _ := setup(t)
	m, _ := r.Resolve("Model")
	_, err := r.Clean(context.Background(), env, m, "Model", "nonexistent")

	var verr *mode.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, localbackend.DefaultCatalogs[synth.CatalogModels], verr.Valid)
}

func TestHighResUpscaler_LatentAndModelUpscalers(t *testing.T) {
	r, env, _ := setup(t)
	ctx := context.Background()

	cleanAndApply(t, r, env, "HighRes Upscaler", "Latent (nearest)")
	assert.Equal(t, "Latent (nearest)", env.Request.HRUpscaler)

	cleanAndApply(t, r, env, "highres_upscaler", "r-esrgan 4x+")
	assert.Equal(t, "R-ESRGAN 4x+", env.Request.HRUpscaler)

	m, err := r.Resolve("HighRes Upscaler")
	require.NoError(t, err)
	_, err = r.Clean(ctx, env, m, "HighRes Upscaler", "Bicubic9000")
	var verr *mode.ValidationError
	require.ErrorAs(t, err, &verr)
	want := append(
		append([]string(nil), localbackend.DefaultCatalogs[synth.CatalogLatentModes]...),
		localbackend.DefaultCatalogs[synth.CatalogUpscalers]...,
	)
	assert.Equal(t, want, verr.Valid)
}

func TestVAE_Keywords(t *testing.T) {
	r, env, b := setup(t)
	cleanAndApply(t, r, env, "VAE", "None")
	assert.Equal(t, synth.VAENone, env.Options.String(synth.OptVAE))
	cleanAndApply(t, r, env, "VAE", "auto")
	assert.Equal(t, synth.VAEAutomatic, env.Options.String(synth.OptVAE))
	cleanAndApply(t, r, env, "VAE", "vae-ft-mse")
	assert.Equal(t, "vae-ft-mse-840000-ema-pruned.safetensors", env.Options.String(synth.OptVAE))

	_, vaeReloads := b.Reloads()
	assert.Equal(t, 3, vaeReloads)
}

func TestRestoreFaces(t *testing.T) {
	r, env, _ := setup(t)
	cleanAndApply(t, r, env, "Restore Faces", "gfpgan")
	assert.True(t, env.Request.RestoreFaces)
	assert.Equal(t, "GFPGAN", env.Options.String(synth.OptFaceRestorationModel))

	cleanAndApply(t, r, env, "Restore Faces", "false")
	assert.False(t, env.Request.RestoreFaces)
}

func TestEnableHR_DefaultsDenoising(t *testing.T) {
	r, env, _ := setup(t)
	cleanAndApply(t, r, env, "Enable HighRes Fix", "yes")
	require.NotNil(t, env.Request.DenoisingStrength)
	assert.Equal(t, 0.75, *env.Request.DenoisingStrength)

	env.Request = synth.NewRequest()
	cleanAndApply(t, r, env, "Denoising", "0.4")
	cleanAndApply(t, r, env, "Enable HighRes Fix", "true")
	assert.Equal(t, 0.4, *env.Request.DenoisingStrength)
}

func TestSettingOverrides(t *testing.T) {
	r, env, _ := setup(t)
	cleanAndApply(t, r, env, "ClipSkip", "2")
	cleanAndApply(t, r, env, "ETA Noise Seed Delta", "31337")
	assert.Equal(t, map[string]any{
		synth.OptClipSkip:          int64(2),
		synth.OptEtaNoiseSeedDelta: int64(31337),
	}, env.Request.OverrideSettings)

	m, _ := r.Resolve("ClipSkip")
	_, err := r.Clean(context.Background(), env, m, "ClipSkip", "13")
	assert.Error(t, err)
}

func TestStyles(t *testing.T) {
	r, env, _ := setup(t)
	cleanAndApply(t, r, env, "Styles", "Cinematic, water")
	assert.Equal(t, []string{"cinematic", "watercolor"}, env.Request.Styles)

	m, _ := r.Resolve("Styles")
	_, err := r.Clean(context.Background(), env, m, "Styles", "cinematic,noir")
	var verr *mode.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "noir", verr.Value)
}

func TestParsePromptReplace(t *testing.T) {
	subs, err := ParsePromptReplace("cat=dog && red = blue")
	require.NoError(t, err)
	assert.Equal(t, []mode.Substitution{{Match: "cat", Replace: "dog"}, {Match: "red", Replace: "blue"}}, subs)

	_, err = ParsePromptReplace("cat=dog && nothing")
	assert.ErrorContains(t, err, "missing '=' symbol, for 'nothing'")
}

func TestParsePromptReplaceList(t *testing.T) {
	entries := ParsePromptReplaceList([]string{"cat", "dog", "fox"})
	require.Len(t, entries, 3)
	assert.Equal(t, "dog", entries[1].Title)
	assert.Equal(t, map[string]string{"promptreplace": "cat=dog"}, entries[1].Params)
	assert.Equal(t, map[string]string{"promptreplace": "cat=cat"}, entries[0].Params)

	explicit := ParsePromptReplaceList([]string{"cat=dog", "cat=fox"})
	assert.Nil(t, explicit[0].Params)
	assert.Equal(t, "cat=fox", explicit[1].Title)
}

func TestPromptReplace_IsDeferred(t *testing.T) {
	r, env, _ := setup(t)
	m, _ := r.Resolve("promptreplace")
	assert.True(t, m.Deferred())
	assert.Nil(t, m.Apply)

	_, err := r.Clean(context.Background(), env, m, "promptreplace", "=dog")
	assert.Error(t, err)
}
