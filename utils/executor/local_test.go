package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kris-hansen/flowctl/utils/action"
	"github.com/kris-hansen/flowctl/utils/fileset"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShellJob(t *testing.T, name, out string, res resources.Resources) *job.Job {
	t.Helper()
	inputs, err := fileset.Of()
	require.NoError(t, err)
	outputs, err := fileset.Of(out)
	require.NoError(t, err)

	j, err := job.New(job.Options{
		Name:      name,
		Inputs:    inputs,
		Outputs:   outputs,
		Resources: res,
		Action:    action.NewShellScript(action.FragmentLine("touch", out)),
	})
	require.NoError(t, err)
	return j
}

func TestLocalExecutor_SerialRunMarksJobsDone(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	j := newShellJob(t, "build", out, resources.Resources{"threads": 1})

	e := NewLocalExecutor()
	err := e.RunJobs([]*job.Job{j}, RunOptions{Threads: 1})
	require.NoError(t, err)

	assert.Equal(t, job.Done, j.State())
	_, statErr := os.Stat(out)
	assert.NoError(t, statErr)
}

func TestLocalExecutor_ParallelRunCompletesAllJobs(t *testing.T) {
	dir := t.TempDir()
	jobs := make([]*job.Job, 4)
	for i := range jobs {
		out := filepath.Join(dir, "out"+string(rune('a'+i))+".txt")
		jobs[i] = newShellJob(t, "build"+string(rune('a'+i)), out, resources.Resources{"threads": 1})
	}

	e := NewLocalExecutor()
	err := e.RunJobs(jobs, RunOptions{Threads: 2})
	require.NoError(t, err)

	for _, j := range jobs {
		assert.Equal(t, job.Done, j.State())
	}
}

func TestLocalExecutor_JobRequestingTooManyThreadsFails(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	j := newShellJob(t, "build", out, resources.Resources{"threads": 8})
	other := newShellJob(t, "build2", filepath.Join(dir, "out2.txt"), resources.Resources{"threads": 1})

	e := NewLocalExecutor()
	err := e.RunJobs([]*job.Job{j, other}, RunOptions{Threads: 2})
	require.Error(t, err)
	assert.Equal(t, job.Failed, j.State())
}

func TestLocalExecutor_ForceUnlinksStaleOutputBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	inputs, err := fileset.Of()
	require.NoError(t, err)
	outputs, err := fileset.Of(out)
	require.NoError(t, err)

	j, err := job.New(job.Options{
		Name:    "build",
		Inputs:  inputs,
		Outputs: outputs,
		// A guard that only creates the output if missing: without a prior
		// unlink, forcing this job would leave the stale content in place.
		Action: action.NewShellScript(action.FragmentLine(
			"test", "-f", out, action.Safe("||"), "sh", "-c", "echo fresh > "+out,
		)),
	})
	require.NoError(t, err)

	e := NewLocalExecutor()
	err = e.RunJobs([]*job.Job{j}, RunOptions{Threads: 1, Force: true})
	require.NoError(t, err)

	assert.Equal(t, job.Done, j.State())
	content, readErr := os.ReadFile(out)
	require.NoError(t, readErr)
	assert.Equal(t, "fresh\n", string(content))
}

func TestRun_DryRunMarksJobsDoneWithoutExecuting(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	j := newShellJob(t, "build", out, resources.Resources{"threads": 1})

	e := NewLocalExecutor()
	err := Run(e, []*job.Job{j}, RunOptions{DryRun: true, Threads: 1})
	require.NoError(t, err)

	assert.Equal(t, job.Done, j.State())
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "dry run must not touch files")
}
