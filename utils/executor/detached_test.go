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

func newTrackedJob(t *testing.T, name, statusPath string) *job.Job {
	t.Helper()
	inputs, err := fileset.Of()
	require.NoError(t, err)
	outputs, err := fileset.Of()
	require.NoError(t, err)

	act := action.NewShellScript(action.FragmentLine("true"))
	act.EnableTracking(statusPath)

	j, err := job.New(job.Options{Name: name, Inputs: inputs, Outputs: outputs, Action: act})
	require.NoError(t, err)
	return j
}

func TestDetachedExecutor_PollsUntilStatusFileReportsSuccess(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status")
	j := newTrackedJob(t, "submit_me", statusPath)

	submitted := false
	submit := func(jobs []*job.Job, args SubmitArgs) ([]string, error) {
		submitted = true
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = os.WriteFile(statusPath, []byte("0"), 0o644)
		}()
		ids := make([]string, len(jobs))
		for i := range jobs {
			ids[i] = "job-id"
		}
		return ids, nil
	}

	e := NewDetachedExecutor(submit, 10*time.Millisecond, SubmitArgs{})
	err := e.RunJobs([]*job.Job{j}, RunOptions{})
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, job.Done, j.State())
}

func TestDetachedExecutor_NonZeroStatusFailsJob(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status")
	j := newTrackedJob(t, "submit_me", statusPath)
	require.NoError(t, os.WriteFile(statusPath, []byte("1"), 0o644))

	submit := func(jobs []*job.Job, args SubmitArgs) ([]string, error) {
		ids := make([]string, len(jobs))
		for i := range jobs {
			ids[i] = "job-id"
		}
		return ids, nil
	}

	e := NewDetachedExecutor(submit, 5*time.Millisecond, SubmitArgs{})
	err := e.RunJobs([]*job.Job{j}, RunOptions{})
	require.Error(t, err)
	var batchErr *DetachedJobsFailedError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, job.Failed, j.State())
}

func TestDetachedExecutor_SubmitterErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	j := newTrackedJob(t, "submit_me", filepath.Join(dir, "status"))

	submit := func(jobs []*job.Job, args SubmitArgs) ([]string, error) {
		return nil, assertErr
	}

	e := NewDetachedExecutor(submit, 5*time.Millisecond, SubmitArgs{})
	err := e.RunJobs([]*job.Job{j}, RunOptions{})
	require.Error(t, err)
}

var assertErr = &testSubmitError{}

type testSubmitError struct{}

func (e *testSubmitError) Error() string { return "submit failed" }
