package lifecycle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/stretchr/testify/assert"
)

func TestBaseParamData(t *testing.T) {
	req := synth.NewRequest()
	req.Prompt = "a cat"
	req.Seed = 7
	req.RestoreFaces = true
	req.SubseedStrength = 0.3
	req.Subseed = 99
	req.SetOverride(synth.OptClipSkip, int64(2))
	opts := synth.NewOptions(map[string]any{
		synth.OptModel:                "models/sd_xl_base_1.0.safetensors [31e35c80fc]",
		synth.OptFaceRestorationModel: "GFPGAN",
		synth.OptEtaNoiseSeedDelta:    31337,
	})

	want := map[string]any{
		"sampler":          "Euler a",
		"scheduler":        "",
		"seed":             int64(7),
		"restorefaces":     "GFPGAN",
		"steps":            20,
		"cfgscale":         7.0,
		"model":            "sd_xl_base_1.0",
		"vae":              nil,
		"width":            512,
		"height":           512,
		"prompt":           "a cat",
		"negativeprompt":   "",
		"varseed":          int64(99),
		"varstrength":      0.3,
		"clipskip":         int64(2),
		"codeformerweight": 0.5,
		"denoising":        nil,
		"eta":              nil,
		"sigmachurn":       nil,
		"sigmatmin":        nil,
		"sigmatmax":        nil,
		"sigmanoise":       1.0,
		"ENSD":             int64(31337),
	}
	if diff := cmp.Diff(want, BaseParamData(req, opts)); diff != "" {
		t.Errorf("BaseParamData() mismatch (-want +got):\n%s", diff)
	}
}

func TestInfotext(t *testing.T) {
	req := synth.NewRequest()
	req.Prompt = "a cat"
	req.NegativePrompt = "blurry"
	d := 0.75
	req.DenoisingStrength = &d
	req.EnableHR = true
	opts := synth.NewOptions(map[string]any{
		synth.OptModel: "v1-5-pruned-emaonly.safetensors [6ce0161689]",
		synth.OptVAE:   "vae-ft-mse-840000-ema-pruned.safetensors",
	})

	got := Infotext(req, opts, 42)
	assert.Equal(t, "a cat\nNegative prompt: blurry\n"+
		"Steps: 20, Sampler: Euler a, CFG scale: 7, Seed: 42, Size: 512x512, "+
		"Model: v1-5-pruned-emaonly, VAE: vae-ft-mse-840000-ema-pruned, "+
		"Denoising strength: 0.75, Hires upscale: 2", got)
}
