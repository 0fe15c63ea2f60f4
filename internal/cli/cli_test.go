package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "funnel.yaml")
	content := "log_level: error\nstore:\n  driver: file\n  path: " + filepath.Join(dir, "snapshots") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cfgPath, input string, fresh bool) string {
	t.Helper()
	var out bytes.Buffer
	err := Execute(RunOptions{
		ConfigPath: cfgPath,
		Product:    "health",
		Headless:   true,
		Fast:       true,
		Fresh:      fresh,
		In:         strings.NewReader(input),
		Out:        &out,
	})
	require.NoError(t, err)
	return out.String()
}

func TestExecute_SuspendAndResume(t *testing.T) {
	cfg := writeConfig(t)

	out := run(t, cfg, "Asha\n1\n28\n", false)
	assert.Contains(t, out, "Asha")
	assert.NotContains(t, out, "Welcome back")

	out = run(t, cfg, "", false)
	assert.Contains(t, out, "Welcome back, Asha")

	out = run(t, cfg, "", true)
	assert.NotContains(t, out, "Welcome back")
}

func TestExecute_RejectsConflictingModes(t *testing.T) {
	err := Execute(RunOptions{ConfigPath: writeConfig(t), Product: "health", JSON: true, Headless: true})
	assert.Error(t, err)
}

func TestExecute_UnknownProduct(t *testing.T) {
	err := Execute(RunOptions{
		ConfigPath: writeConfig(t),
		Product:    "pets",
		Headless:   true,
		In:         strings.NewReader(""),
		Out:        &bytes.Buffer{},
	})
	assert.ErrorContains(t, err, "pets")
}

func TestRunSession_JSON(t *testing.T) {
	cfg := writeConfig(t)
	var out bytes.Buffer
	err := Execute(RunOptions{
		ConfigPath: cfg,
		Product:    "motor",
		JSON:       true,
		Fast:       true,
		In:         strings.NewReader(""),
		Out:        &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"type":"prompt"`)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(nil))
	assert.Error(t, handleExecutionError(assert.AnError))
}
