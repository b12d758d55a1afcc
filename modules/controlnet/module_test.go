package controlnet

import (
	"context"
	"testing"

	"github.com/specialistvlad/axisgrid/internal/localbackend"
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, allow bool) (*mode.Registry, mode.Env) {
	t.Helper()
	b := localbackend.New(localbackend.Config{Extensions: map[string]*synth.Extension{
		ExtensionName: {Name: ExtensionName, Catalogs: map[string][]string{
			"preprocessors": {"canny", "depth_midas"},
			"models":        {"control_v11p_sd15_canny [d14c016b]"},
			"images":        {"poses/standing.png"},
		}},
	}})
	r := mode.NewRegistry()
	require.NoError(t, r.Install(context.Background(), b, &Module{}))
	env := mode.Env{
		Request: synth.NewRequest(),
		Options: synth.NewOptions(map[string]any{OptAllowScriptControl: allow}),
		Backend: b,
	}
	return r, env
}

func TestClean_RequiresScriptControl(t *testing.T) {
	r, env := setup(t, false)
	m, err := r.Resolve("[ControlNet] Weight")
	require.NoError(t, err)

	_, err = r.Clean(context.Background(), env, m, "weight", "1.0")
	var verr *mode.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrScriptControlDisabled.Error(), verr.Reason)
}

func TestClean_MatchesCatalogs(t *testing.T) {
	r, env := setup(t, true)
	ctx := context.Background()

	m, err := r.Resolve("[controlnet]model")
	require.NoError(t, err)
	v, err := r.Clean(ctx, env, m, "model", "sd15_canny")
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, env, v))
	got, _ := env.Request.ExtraValue("control_net_model")
	assert.Equal(t, "control_v11p_sd15_canny [d14c016b]", got)

	m, _ = r.Resolve("[ControlNet] Preprocessor")
	_, err = r.Clean(ctx, env, m, "pre", "openpose")
	assert.Error(t, err)

	m, _ = r.Resolve("[ControlNet] Threshold A")
	_, err = r.Clean(ctx, env, m, "a", "300")
	assert.Error(t, err)
}
