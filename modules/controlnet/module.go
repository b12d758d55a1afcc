// Package controlnet registers the setting modes of the ControlNet
// companion extension. Every mode refuses values unless the backend allows
// other scripts to drive the extension.
package controlnet

import (
	"context"
	"errors"
	"slices"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

const (
	// ExtensionName is the name probed on the backend.
	ExtensionName = "controlnet"
	// OptAllowScriptControl must be enabled for any ControlNet mode to validate.
	OptAllowScriptControl = "control_net_allow_script_control"
)

// ErrScriptControlDisabled is returned by every mode's clean hook while
// OptAllowScriptControl is off.
var ErrScriptControlDisabled = errors.New("ControlNet options cannot currently work, enable 'Allow other script to control this extension' in the ControlNet settings first")

// Module implements mode.Extension.
type Module struct {
	catalogs map[string][]string
}

// Probe reports whether the backend has the extension loaded and records
// its preprocessor, model and image catalogs.
func (m *Module) Probe(ctx context.Context, b synth.Backend) bool {
	prober, ok := b.(synth.ExtensionProber)
	if !ok {
		return false
	}
	ext, present, err := prober.ProbeExtension(ctx, ExtensionName)
	if err != nil || !present {
		return false
	}
	m.catalogs = ext.Catalogs
	return true
}

func (m *Module) catalog(name string) mode.ValuesFunc {
	return func(context.Context, mode.Env) ([]string, error) {
		return slices.Clone(m.catalogs[name]), nil
	}
}

// checked wraps the script-control check around an optional catalog match.
func (m *Module) checked(values mode.ValuesFunc) mode.CleanFunc {
	return func(ctx context.Context, env mode.Env, name string, value any) (any, error) {
		if !env.Options.Bool(OptAllowScriptControl) {
			return nil, ErrScriptControlDisabled
		}
		if values == nil {
			return value, nil
		}
		valid, err := values(ctx, env)
		if err != nil {
			return nil, err
		}
		best := mode.BestInList(value.(string), valid)
		if best == "" {
			return nil, &mode.ValidationError{Param: name, Value: value.(string), Reason: "value not recognized", Valid: valid}
		}
		return best, nil
	}
}

// Register registers the extension's modes.
func (m *Module) Register(r *mode.Registry) error {
	plain := m.checked(nil)
	ranged := func(name, field string, t mode.ValueType, lo, hi float64) *mode.Mode {
		return &mode.Mode{Name: name, Type: t, Min: mode.Bound(lo), Max: mode.Bound(hi), Dry: true, Apply: mode.Field(field), Clean: plain}
	}
	listed := func(name, field, catalog string) *mode.Mode {
		values := m.catalog(catalog)
		return &mode.Mode{Name: name, Type: mode.Text, Dry: true, Apply: mode.Field(field), Clean: m.checked(values), ValidValues: values}
	}

	for _, md := range []*mode.Mode{
		{Name: "[ControlNet] Enable", Type: mode.Boolean, Dry: true, Apply: mode.Field("control_net_enabled"), Clean: plain},
		listed("[ControlNet] Preprocessor", "control_net_module", "preprocessors"),
		listed("[ControlNet] Model", "control_net_model", "models"),
		ranged("[ControlNet] Weight", "control_net_weight", mode.Decimal, 0, 2),
		ranged("[ControlNet] Guidance Strength", "control_net_guidance_strength", mode.Decimal, 0, 1),
		ranged("[ControlNet] Annotator Resolution", "control_net_pres", mode.Integer, 0, 2048),
		ranged("[ControlNet] Threshold A", "control_net_pthr_a", mode.Integer, 0, 256),
		ranged("[ControlNet] Threshold B", "control_net_pthr_b", mode.Integer, 0, 256),
		listed("[ControlNet] Image", "control_net_input_image", "images"),
	} {
		if err := r.Register(md); err != nil {
			return err
		}
	}
	return nil
}
