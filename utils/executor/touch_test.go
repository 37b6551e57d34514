package executor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kris-hansen/flowctl/utils/action"
	"github.com/kris-hansen/flowctl/utils/fileset"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchExecutor_BumpsExistingOutputOnly(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.out")
	missing := filepath.Join(dir, "missing.out")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(existing, past, past))

	inputs, err := fileset.Of()
	require.NoError(t, err)
	outputs, err := fileset.Of(existing, missing)
	require.NoError(t, err)
	j, err := job.New(job.Options{
		Name:    "build",
		Inputs:  inputs,
		Outputs: outputs,
		Action:  action.NewShellScript(action.FragmentLine("echo", "hi")),
	})
	require.NoError(t, err)

	e := NewTouchExecutor()
	require.NoError(t, e.RunJobs([]*job.Job{j}, RunOptions{}))

	assert.Equal(t, job.Done, j.State())
	info, err := os.Stat(existing)
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(past))
	_, err = os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "touch must never create a missing output")
}
