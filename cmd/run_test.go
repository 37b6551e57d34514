package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRunCmd_ProducesCombinedResult(t *testing.T) {
	dir := t.TempDir()
	workdir := filepath.Join(dir, "work")
	indir := filepath.Join(dir, "in")
	outdir := filepath.Join(dir, "out")

	_, err := executeRoot(t, "run",
		"--workdir", workdir,
		"--indir", indir,
		"--outdir", outdir,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outdir, "result.out"))
	require.NoError(t, err)
	assert.Equal(t, "FOO-DATA\nBAR-DATA\n", string(data))
}

func TestRunCmd_DryRunLeavesNoOutputs(t *testing.T) {
	dir := t.TempDir()
	workdir := filepath.Join(dir, "work")
	indir := filepath.Join(dir, "in")
	outdir := filepath.Join(dir, "out")

	_, err := executeRoot(t, "run",
		"--workdir", workdir,
		"--indir", indir,
		"--outdir", outdir,
		"--dry-run",
	)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(outdir, "result.out"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCmd_RejectsUnknownSubmitter(t *testing.T) {
	dir := t.TempDir()
	_, err := executeRoot(t, "run",
		"--workdir", filepath.Join(dir, "work"),
		"--indir", filepath.Join(dir, "in"),
		"--outdir", filepath.Join(dir, "out"),
		"--submit", "bogus",
	)
	require.Error(t, err)
}
