package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "health:")
	assert.Contains(t, out, "motor:")
	assert.Contains(t, out, "life:")

	_, err = execute(t, "validate", "pets")
	assert.Error(t, err)
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph", "life")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
}

func TestSnapshotCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "funnel.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("store:\n  driver: sqlite\n  path: "+filepath.Join(dir, "funnel.db")+"\n"), 0o644))

	out, err := execute(t, "snapshot", "ls", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved snapshots found.")

	_, err = execute(t, "snapshot", "inspect", "health", "--config", cfg)
	assert.Error(t, err)

	out, err = execute(t, "snapshot", "rm", "health", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed snapshot 'health'")
}
