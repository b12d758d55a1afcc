package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetField(t *testing.T) {
	testCases := []struct {
		name  string
		field string
		value any
		check func(t *testing.T, r *Request)
	}{
		{
			name: "string", field: "sampler_name", value: "DDIM",
			check: func(t *testing.T, r *Request) { assert.Equal(t, "DDIM", r.SamplerName) },
		},
		{
			name: "int from int64", field: "steps", value: int64(33),
			check: func(t *testing.T, r *Request) { assert.Equal(t, 33, r.Steps) },
		},
		{
			name: "float from int64", field: "cfg_scale", value: int64(9),
			check: func(t *testing.T, r *Request) { assert.Equal(t, 9.0, r.CFGScale) },
		},
		{
			name: "pointer float", field: "denoising_strength", value: 0.4,
			check: func(t *testing.T, r *Request) {
				require.NotNil(t, r.DenoisingStrength)
				assert.Equal(t, 0.4, *r.DenoisingStrength)
			},
		},
		{
			name: "bool", field: "tiling", value: true,
			check: func(t *testing.T, r *Request) { assert.True(t, r.Tiling) },
		},
		{
			name: "string list from csv", field: "styles", value: "a, b",
			check: func(t *testing.T, r *Request) { assert.Equal(t, []string{"a", "b"}, r.Styles) },
		},
		{
			name: "unknown goes to extra", field: "dynthres_enabled", value: true,
			check: func(t *testing.T, r *Request) {
				v, ok := r.ExtraValue("dynthres_enabled")
				require.True(t, ok)
				assert.Equal(t, true, v)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRequest()
			require.NoError(t, SetField(r, tc.field, tc.value))
			tc.check(t, r)
		})
	}
}

func TestSetField_TypeMismatch(t *testing.T) {
	r := NewRequest()
	assert.Error(t, SetField(r, "steps", "twenty"))
	assert.Error(t, SetField(r, "steps", 2.5))
	assert.Error(t, SetField(r, "tiling", "yes"))
}

func TestClone_IsDeep(t *testing.T) {
	d := 0.5
	r := NewRequest()
	r.Styles = []string{"x"}
	r.DenoisingStrength = &d
	r.SetOverride(OptClipSkip, 2)

	c := r.Clone()
	require.Empty(t, cmp.Diff(r, c))

	c.Styles[0] = "y"
	*c.DenoisingStrength = 0.9
	c.OverrideSettings[OptClipSkip] = 3

	assert.Equal(t, "x", r.Styles[0])
	assert.Equal(t, 0.5, *r.DenoisingStrength)
	assert.Equal(t, 2, r.OverrideSettings[OptClipSkip])
}

func TestOptions_SnapshotRestore(t *testing.T) {
	o := NewOptions(map[string]any{OptModel: "A", OptFaceRestorationModel: "GFPGAN"})
	before := o.Snapshot()

	o.Set(OptModel, "B")
	o.Set(OptVAE, "kl.pt")
	o.Set(OptCodeFormerWeight, 0.9)
	o.Set(OptFaceRestorationModel, "CodeFormer")
	o.Restore(before)

	assert.Equal(t, Settings{Model: "A", VAE: VAEAutomatic, CodeFormerWeight: 0.5, FaceRestorationModel: "GFPGAN"}, o.Snapshot())
	assert.Equal(t, 1, o.Int(OptClipSkip))
}

func TestRequest_Params(t *testing.T) {
	r := NewRequest()
	r.Prompt = "a cat"
	r.SetOverride("CLIP_stop_at_last_layers", 2)
	require.NoError(t, SetField(r, "threshold_enable", true))

	p := r.Params()
	assert.Equal(t, "a cat", p["prompt"])
	assert.Equal(t, 20, p["steps"])
	assert.Equal(t, true, p["threshold_enable"])
	assert.Equal(t, map[string]any{"CLIP_stop_at_last_layers": 2}, p["override_settings"])
	_, hasDenoise := p["denoising_strength"]
	assert.False(t, hasDenoise, "unset pointer fields are omitted")
}
