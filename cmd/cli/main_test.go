package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_StartupError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A run-config file with a syntax error fails inside app.NewApp().
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "run.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(`backend "local" {`), 0o600))

	args := []string{"-config", configPath, tempDir}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "application startup failed")
	require.Contains(t, runErr.Error(), "failed to parse run config")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_DryRunLocal(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	gridDir := t.TempDir()
	grid := `
grid { title = "Steps" }
axis "steps" {
  values = ["10", "20"]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(gridDir, "steps.hcl"), []byte(grid), 0o600))
	outDir := t.TempDir()
	args := []string{"-dry-run", "-out", outDir, gridDir}

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Empty(t, entries, "a dry run must not write images")
}
