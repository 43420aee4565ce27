package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cardflow version ")
}

func TestValidateCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	path := testutils.WriteFlowFile(t, ".", "flow.yaml", testutils.SampleFlow())

	out, err := run(t, "validate", path, "--entry", "welcome")
	assert.ErrorIs(t, err, cli.ErrIssuesFound)
	assert.Contains(t, out, "Unreachable: Bye (bye)")
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	src := testutils.WriteFlowFile(t, dir, "sample.json", testutils.SampleFlow())

	_, err := run(t, "import", src, "sample", "--store", "sqlite")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".cardflow", "flows.db"))

	out, err := run(t, "list", "--store", "sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sample\n", out)

	out, err = run(t, "edges", "sample", "photo", "--store", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "<- Welcome (welcome)")
}
