// Package dynthres registers the setting modes of the dynamic thresholding
// companion extension.
package dynthres

import (
	"context"
	"slices"

	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
)

// ExtensionName is the name probed on the backend.
const ExtensionName = "dynamic_thresholding"

// DefaultModes is used when the extension does not publish its "modes"
// catalog.
var DefaultModes = []string{
	"Constant", "Linear Down", "Cosine Down", "Half Cosine Down",
	"Linear Up", "Cosine Up", "Half Cosine Up", "Power Up", "Power Down",
	"Linear Repeating", "Cosine Repeating", "Sawtooth",
}

// Module implements mode.Extension.
type Module struct {
	modes []string
}

// Probe reports whether the backend has the extension loaded.
func (m *Module) Probe(ctx context.Context, b synth.Backend) bool {
	prober, ok := b.(synth.ExtensionProber)
	if !ok {
		return false
	}
	ext, present, err := prober.ProbeExtension(ctx, ExtensionName)
	if err != nil || !present {
		return false
	}
	m.modes = DefaultModes
	if published := ext.Catalogs["modes"]; len(published) > 0 {
		m.modes = slices.Clone(published)
	}
	return true
}

// Register registers the extension's modes.
func (m *Module) Register(r *mode.Registry) error {
	if m.modes == nil {
		m.modes = DefaultModes
	}
	modes := mode.Fixed(m.modes...)
	decimal := func(name, field string, lo, hi float64) *mode.Mode {
		return &mode.Mode{Name: name, Type: mode.Decimal, Min: mode.Bound(lo), Max: mode.Bound(hi), Dry: true, Apply: mode.Field(field)}
	}

	for _, md := range []*mode.Mode{
		{Name: "[DynamicThreshold] Enable", Type: mode.Boolean, Dry: true, Apply: mode.Field("dynthres_enabled")},
		decimal("[DynamicThreshold] Mimic Scale", "dynthres_mimic_scale", 0, 500),
		decimal("[DynamicThreshold] Threshold Percentile", "dynthres_threshold_percentile", 0, 100),
		{Name: "[DynamicThreshold] Mimic Mode", Type: mode.Text, Dry: true, Apply: mode.Field("dynthres_mimic_mode"), ValidValues: modes},
		{Name: "[DynamicThreshold] CFG Mode", Type: mode.Text, Dry: true, Apply: mode.Field("dynthres_cfg_mode"), ValidValues: modes},
		decimal("[DynamicThreshold] Mimic Scale Minimum", "dynthres_mimic_scale_min", 0, 100),
		decimal("[DynamicThreshold] CFG Scale Minimum", "dynthres_cfg_scale_min", 0, 100),
		decimal("[DynamicThreshold] Experiment Mode", "dynthres_experiment_mode", 0, 100000),
		decimal("[DynamicThreshold] Scheduler Value", "dynthres_scheduler_val", 0, 100),
		{Name: "[DynamicThreshold] Scaling Startpoint", Type: mode.Text, Dry: true, Apply: mode.Field("dynthres_scaling_startpoint"), ValidValues: mode.Fixed("ZERO", "MEAN")},
		{Name: "[DynamicThreshold] Variability Measure", Type: mode.Text, Dry: true, Apply: mode.Field("dynthres_variability_measure"), ValidValues: mode.Fixed("STD", "AD")},
		decimal("[DynamicThreshold] Interpolate Phi", "dynthres_interpolate_phi", 0, 1),
		{Name: "[DynamicThreshold] Separate Feature Channels", Type: mode.Boolean, Dry: true, Apply: mode.Field("dynthres_separate_feature_channels")},
	} {
		if err := r.Register(md); err != nil {
			return err
		}
	}
	return nil
}
