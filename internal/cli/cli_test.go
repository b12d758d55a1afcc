package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/specialistvlad/axisgrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{
		"-out", "renders",
		"-backend", "socketio",
		"-backend-url", "http://127.0.0.1:7860",
		"-backend-timeout", "90s",
		"-skip-invalid",
		"-index", "cells.db",
		"grids/samplers.hcl",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "grids/samplers.hcl", cfg.GridPath)
	assert.Equal(t, "renders", cfg.OutDir)
	assert.Equal(t, app.BackendSocketIO, cfg.Backend)
	assert.Equal(t, 90*time.Second, cfg.BackendTimeout)
	assert.True(t, cfg.SkipInvalid)
	assert.True(t, cfg.ValidateReplace)
	assert.True(t, cfg.PublishMetadata)
	assert.Equal(t, "cells.db", cfg.IndexPath)
	assert.Equal(t, map[string]bool{
		"out": true, "backend": true, "backend-url": true,
		"backend-timeout": true, "skip-invalid": true, "index": true,
	}, cfg.Explicit)
}

func TestParse_GridFlagWins(t *testing.T) {
	cfg, _, err := Parse([]string{"-g", "b.hcl", "c.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "b.hcl", cfg.GridPath)
}

func TestParse_ListModesNeedsNoGrid(t *testing.T) {
	cfg, exit, err := Parse([]string{"-list-modes"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.True(t, cfg.ListModes)
}

func TestParse_NoGridPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "log format", args: []string{"-log-format", "xml", "g.hcl"}, want: "invalid log-format"},
		{name: "log level", args: []string{"-log-level", "loud", "g.hcl"}, want: "invalid log-level"},
		{name: "backend", args: []string{"-backend", "cloud", "g.hcl"}, want: "invalid backend"},
		{name: "unknown flag", args: []string{"-nope"}, want: "flag provided but not defined"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
