package lifecycle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

func optionFor(req *synth.Request, opts *synth.Options, key string) any {
	if v, ok := req.OverrideSettings[key]; ok {
		return v
	}
	v, _ := opts.Get(key)
	return v
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func nonZero(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func displayName(file string) string {
	return strings.NewReplacer(",", "", ":", "").Replace(mode.ChooseBetterFileName("", file))
}

func vaeName(opts *synth.Options) any {
	switch vae := opts.String(synth.OptVAE); vae {
	case "", synth.VAENone, synth.VAEAutomatic:
		return nil
	default:
		return displayName(vae)
	}
}

// BaseParamData flattens the parameters a cell was rendered with into the
// map published next to the grid. Keys are normalized parameter names;
// unset values are nil.
func BaseParamData(req *synth.Request, opts *synth.Options) map[string]any {
	data := map[string]any{
		"sampler":          req.SamplerName,
		"scheduler":        req.Scheduler,
		"seed":             req.Seed,
		"restorefaces":     nil,
		"steps":            req.Steps,
		"cfgscale":         req.CFGScale,
		"model":            displayName(opts.String(synth.OptModel)),
		"vae":              vaeName(opts),
		"width":            req.Width,
		"height":           req.Height,
		"prompt":           req.Prompt,
		"negativeprompt":   req.NegativePrompt,
		"varseed":          nil,
		"varstrength":      nil,
		"clipskip":         toInt64(optionFor(req, opts, synth.OptClipSkip)),
		"codeformerweight": opts.Float(synth.OptCodeFormerWeight),
		"denoising":        nil,
		"eta":              nonZero(req.Eta),
		"sigmachurn":       nonZero(req.SChurn),
		"sigmatmin":        nonZero(req.STmin),
		"sigmatmax":        nonZero(req.STmax),
		"sigmanoise":       nonZero(req.SNoise),
		"ENSD":             nil,
	}
	if req.RestoreFaces {
		data["restorefaces"] = opts.String(synth.OptFaceRestorationModel)
	}
	if req.SubseedStrength != 0 {
		data["varseed"] = req.Subseed
		data["varstrength"] = req.SubseedStrength
	}
	if req.DenoisingStrength != nil {
		data["denoising"] = *req.DenoisingStrength
	}
	if ensd := toInt64(optionFor(req, opts, synth.OptEtaNoiseSeedDelta)); ensd != 0 {
		data["ENSD"] = ensd
	}
	return data
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Infotext renders the generation parameters line stored inside every
// image: the prompt, the negative prompt, then comma-separated key: value
// pairs.
func Infotext(req *synth.Request, opts *synth.Options, seed int64) string {
	type pair struct{ key, value string }
	pairs := []pair{
		{"Steps", strconv.Itoa(req.Steps)},
		{"Sampler", req.SamplerName},
	}
	if req.Scheduler != "" {
		pairs = append(pairs, pair{"Schedule type", req.Scheduler})
	}
	pairs = append(pairs,
		pair{"CFG scale", formatFloat(req.CFGScale)},
		pair{"Seed", strconv.FormatInt(seed, 10)},
		pair{"Size", fmt.Sprintf("%dx%d", req.Width, req.Height)},
		pair{"Model", displayName(opts.String(synth.OptModel))},
	)
	if vae, ok := vaeName(opts).(string); ok {
		pairs = append(pairs, pair{"VAE", vae})
	}
	if req.SubseedStrength != 0 {
		pairs = append(pairs,
			pair{"Variation seed", strconv.FormatInt(req.Subseed, 10)},
			pair{"Variation seed strength", formatFloat(req.SubseedStrength)},
		)
	}
	if req.DenoisingStrength != nil {
		pairs = append(pairs, pair{"Denoising strength", formatFloat(*req.DenoisingStrength)})
	}
	if req.RestoreFaces {
		pairs = append(pairs, pair{"Face restoration", opts.String(synth.OptFaceRestorationModel)})
	}
	if clip := toInt64(optionFor(req, opts, synth.OptClipSkip)); clip > 1 {
		pairs = append(pairs, pair{"Clip skip", strconv.FormatInt(clip, 10)})
	}
	if ensd := toInt64(optionFor(req, opts, synth.OptEtaNoiseSeedDelta)); ensd != 0 {
		pairs = append(pairs, pair{"ENSD", strconv.FormatInt(ensd, 10)})
	}
	if req.EnableHR {
		pairs = append(pairs, pair{"Hires upscale", formatFloat(req.HRScale)})
		if req.HRSecondPassSteps != 0 {
			pairs = append(pairs, pair{"Hires steps", strconv.Itoa(req.HRSecondPassSteps)})
		}
		if req.HRUpscaler != "" {
			pairs = append(pairs, pair{"Hires upscaler", req.HRUpscaler})
		}
	}
	if req.Tiling {
		pairs = append(pairs, pair{"Tiling", "True"})
	}

	var b strings.Builder
	b.WriteString(req.Prompt)
	if req.NegativePrompt != "" {
		b.WriteString("\nNegative prompt: ")
		b.WriteString(req.NegativePrompt)
	}
	b.WriteString("\n")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.key, p.value)
	}
	return b.String()
}
