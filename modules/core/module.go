// Package core registers the built-in setting modes: every generation
// parameter the backend exposes plus the grid-only output controls.
package core

import (
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// Module implements the mode.Module interface for this package.
type Module struct{}

// Register registers the built-in modes.
func (m *Module) Register(r *mode.Registry) error {
	for _, md := range modes() {
		if err := r.Register(md); err != nil {
			return err
		}
	}
	return nil
}

func modes() []*mode.Mode {
	unit := func(name, field string) *mode.Mode {
		return &mode.Mode{Name: name, Type: mode.Decimal, Min: mode.Bound(0), Max: mode.Bound(1), Dry: true, Apply: mode.Field(field)}
	}
	integer := func(name, field string) *mode.Mode {
		return &mode.Mode{Name: name, Type: mode.Integer, Dry: true, Apply: mode.Field(field)}
	}
	samplers := mode.Catalog(synth.CatalogSamplers)
	upscalers := mode.Catalogs(synth.CatalogLatentModes, synth.CatalogUpscalers)

	return []*mode.Mode{
		{Name: "Model", Type: mode.Text, Apply: applyModel, Clean: cleanModel, ValidValues: mode.Catalog(synth.CatalogModels)},
		{Name: "VAE", Type: mode.Text, Apply: applyVAE, Clean: cleanVAE, ValidValues: mode.Catalog(synth.CatalogVAEs, "none", "auto", "automatic")},
		{Name: "Sampler", Type: mode.Text, Dry: true, Apply: mode.Field("sampler_name"), ValidValues: samplers},
		{Name: "Scheduler", Type: mode.Text, Dry: true, Apply: mode.Field("scheduler"), ValidValues: mode.Catalog(synth.CatalogSchedulers)},
		integer("Seed", "seed"),
		{Name: "Steps", Type: mode.Integer, Min: mode.Bound(0), Max: mode.Bound(200), Dry: true, Apply: mode.Field("steps")},
		{Name: "CFG Scale", Type: mode.Decimal, Min: mode.Bound(0), Max: mode.Bound(500), Dry: true, Apply: mode.Field("cfg_scale")},
		integer("Width", "width"),
		integer("Height", "height"),
		{Name: "Prompt", Type: mode.Text, Dry: true, Apply: mode.Field("prompt")},
		{Name: "Negative Prompt", Type: mode.Text, Dry: true, Apply: mode.Field("negative_prompt")},
		{Name: "Prompt Replace", Type: mode.Text, Dry: true, Clean: cleanPromptReplace, ParseList: ParsePromptReplaceList, Substitutions: ParsePromptReplace},
		{Name: "Styles", Type: mode.Text, Dry: true, Apply: applyStyles, Clean: cleanStyles, ValidValues: mode.Catalog(synth.CatalogStyles)},
		integer("Var Seed", "subseed"),
		unit("Var Strength", "subseed_strength"),
		{Name: "ClipSkip", Type: mode.Integer, Min: mode.Bound(1), Max: mode.Bound(12), Apply: mode.Override(synth.OptClipSkip)},
		unit("Denoising", "denoising_strength"),
		unit("ETA", "eta"),
		unit("Sigma Churn", "s_churn"),
		unit("Sigma TMin", "s_tmin"),
		unit("Sigma TMax", "s_tmax"),
		unit("Sigma Noise", "s_noise"),
		{Name: "Out Width", Type: mode.Integer, Min: mode.Bound(0), Dry: true, Apply: mode.Field("out_width")},
		{Name: "Out Height", Type: mode.Integer, Min: mode.Bound(0), Dry: true, Apply: mode.Field("out_height")},
		{Name: "Restore Faces", Type: mode.Text, Dry: true, Apply: applyRestoreFaces, ValidValues: mode.Catalog(synth.CatalogFaceRestorers, "true", "false")},
		{Name: "CodeFormer Weight", Type: mode.Decimal, Min: mode.Bound(0), Max: mode.Bound(1), Dry: true, Apply: applyCodeFormerWeight},
		{Name: "Tiling", Type: mode.Boolean, Dry: true, Apply: mode.Field("tiling")},
		unit("Image Mask Weight", "inpainting_mask_weight"),
		{Name: "ETA Noise Seed Delta", Type: mode.Integer, Dry: true, Apply: mode.Override(synth.OptEtaNoiseSeedDelta)},
		{Name: "Enable HighRes Fix", Type: mode.Boolean, Dry: true, Apply: applyEnableHR},
		{Name: "HighRes Scale", Type: mode.Decimal, Min: mode.Bound(1), Max: mode.Bound(16), Dry: true, Apply: mode.Field("hr_scale")},
		{Name: "HighRes Steps", Type: mode.Integer, Min: mode.Bound(0), Max: mode.Bound(200), Dry: true, Apply: mode.Field("hr_second_pass_steps")},
		integer("HighRes Resize Width", "hr_resize_x"),
		integer("HighRes Resize Height", "hr_resize_y"),
		integer("HighRes Upscale to Width", "hr_upscale_to_x"),
		integer("HighRes Upscale to Height", "hr_upscale_to_y"),
		{Name: "HighRes Upscaler", Type: mode.Text, Dry: true, Apply: mode.Field("hr_upscaler"), ValidValues: upscalers},
		{Name: "HighRes Sampler", Type: mode.Text, Dry: true, Apply: mode.Field("hr_sampler_name"), ValidValues: samplers},
		{Name: "HighRes Checkpoint", Type: mode.Text, Apply: mode.Field("hr_checkpoint_name"), Clean: cleanModel, ValidValues: mode.Catalog(synth.CatalogModels)},
		{Name: "Image CFG Scale", Type: mode.Decimal, Min: mode.Bound(0), Max: mode.Bound(500), Dry: true, Apply: mode.Field("image_cfg_scale")},
		{Name: "Use Result Index", Type: mode.Integer, Min: mode.Bound(0), Max: mode.Bound(500), Dry: true, Apply: mode.Field("result_index")},
	}
}
