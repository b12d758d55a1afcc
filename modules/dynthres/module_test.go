package dynthres

import (
	"context"
	"testing"

	"github.com/specialistvlad/axisgrid/internal/localbackend"
	"github.com/specialistvlad/axisgrid/internal/mode"
	"github.com/specialistvlad/axisgrid/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall_AbsentExtension(t *testing.T) {
	r := mode.NewRegistry()
	require.NoError(t, r.Install(context.Background(), localbackend.New(localbackend.Config{}), &Module{}))
	assert.Zero(t, r.Len())
}

func TestInstall_PresentExtension(t *testing.T) {
	b := localbackend.New(localbackend.Config{Extensions: map[string]*synth.Extension{
		ExtensionName: {Name: ExtensionName, Catalogs: map[string][]string{"modes": {"Constant", "Power Up"}}},
	}})
	r := mode.NewRegistry()
	require.NoError(t, r.Install(context.Background(), b, &Module{}))
	assert.Equal(t, 13, r.Len())

	env := mode.Env{Request: synth.NewRequest(), Options: synth.NewOptions(nil), Backend: b}
	m, err := r.Resolve("[dynamicthreshold] mimic mode")
	require.NoError(t, err)

	v, err := r.Clean(context.Background(), env, m, "mimic", "power up")
	require.NoError(t, err)
	require.NoError(t, m.Apply(context.Background(), env, v))
	got, _ := env.Request.ExtraValue("dynthres_mimic_mode")
	assert.Equal(t, "Power Up", got)

	_, err = r.Clean(context.Background(), env, m, "mimic", "Sawtooth")
	assert.Error(t, err)
}
