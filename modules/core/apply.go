package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

func lookupIn(ctx context.Context, env mode.Env, kind synth.CatalogKind, name string) (string, []string, error) {
	list, err := env.Backend.Catalog(ctx, kind)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return mode.BestInList(name, list), list, nil
}

func applyModel(ctx context.Context, env mode.Env, value any) error {
	model, _, err := lookupIn(ctx, env, synth.CatalogModels, value.(string))
	if err != nil {
		return err
	}
	if model == "" {
		return fmt.Errorf("model '%s' is no longer available", value)
	}
	env.Options.Set(synth.OptModel, model)
	return env.Backend.ReloadModel(ctx, env.Options)
}

func cleanModel(ctx context.Context, env mode.Env, name string, value any) (any, error) {
	raw := value.(string)
	model, valid, err := lookupIn(ctx, env, synth.CatalogModels, raw)
	if err != nil {
		return nil, err
	}
	if model == "" {
		return nil, &mode.ValidationError{Param: name, Value: raw, Reason: "model name unrecognized", Valid: valid}
	}
	return mode.ChooseBetterFileName(raw, model), nil
}

func isVAEKeyword(clean string) bool {
	return clean == "none" || clean == "auto" || clean == "automatic"
}

func applyVAE(ctx context.Context, env mode.Env, value any) error {
	vae := mode.CleanName(value.(string))
	switch {
	case vae == "none":
		vae = synth.VAENone
	case isVAEKeyword(vae):
		vae = synth.VAEAutomatic
	default:
		found, _, err := lookupIn(ctx, env, synth.CatalogVAEs, vae)
		if err != nil {
			return err
		}
		if found == "" {
			return fmt.Errorf("VAE '%s' is no longer available", value)
		}
		vae = found
	}
	env.Options.Set(synth.OptVAE, vae)
	return env.Backend.ReloadVAE(ctx, env.Options)
}

func cleanVAE(ctx context.Context, env mode.Env, name string, value any) (any, error) {
	raw := value.(string)
	if clean := mode.CleanName(raw); isVAEKeyword(clean) {
		return clean, nil
	}
	vae, valid, err := lookupIn(ctx, env, synth.CatalogVAEs, raw)
	if err != nil {
		return nil, err
	}
	if vae == "" {
		return nil, &mode.ValidationError{Param: name, Value: raw, Reason: "VAE name unrecognized", Valid: valid}
	}
	return mode.ChooseBetterFileName(raw, vae), nil
}

func applyCodeFormerWeight(_ context.Context, env mode.Env, value any) error {
	env.Options.Set(synth.OptCodeFormerWeight, value.(float64))
	return nil
}

// applyRestoreFaces takes "false" to disable face restoration and anything
// else to enable it, selecting the named restorer when one matches.
func applyRestoreFaces(ctx context.Context, env mode.Env, value any) error {
	input := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
	if input == "false" {
		env.Request.RestoreFaces = false
		return nil
	}
	env.Request.RestoreFaces = true
	restorer, _, err := lookupIn(ctx, env, synth.CatalogFaceRestorers, input)
	if err != nil {
		return err
	}
	if restorer != "" {
		env.Options.Set(synth.OptFaceRestorationModel, restorer)
	}
	return nil
}

func applyEnableHR(_ context.Context, env mode.Env, value any) error {
	enabled := value.(bool)
	env.Request.EnableHR = enabled
	if enabled && env.Request.DenoisingStrength == nil {
		d := 0.75
		env.Request.DenoisingStrength = &d
	}
	return nil
}

func splitStyles(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func applyStyles(_ context.Context, env mode.Env, value any) error {
	env.Request.Styles = splitStyles(value.(string))
	return nil
}

// cleanStyles resolves every comma-separated style against the catalog.
func cleanStyles(ctx context.Context, env mode.Env, name string, value any) (any, error) {
	raw := value.(string)
	valid, err := env.Backend.Catalog(ctx, synth.CatalogStyles)
	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	styles := splitStyles(raw)
	for i, s := range styles {
		best := mode.BestInList(s, valid)
		if best == "" {
			return nil, &mode.ValidationError{Param: name, Value: s, Reason: "style unrecognized", Valid: valid}
		}
		styles[i] = best
	}
	return strings.Join(styles, ","), nil
}
