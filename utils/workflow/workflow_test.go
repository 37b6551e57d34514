package workflow

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFileAction(name, content string) job.ActionFactory {
	return job.Func(name, func(ctx job.Context) error {
		for _, p := range ctx.Outputs.Flatten() {
			if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeIfMissingAction only writes its outputs when they don't already
// exist, so forcing a job whose output is already present only regenerates
// it if the executor unlinked it first.
func writeIfMissingAction(name, content string) job.ActionFactory {
	return job.Func(name, func(ctx job.Context) error {
		for _, p := range ctx.Outputs.Flatten() {
			if _, err := os.Stat(p); err == nil {
				continue
			}
			if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
				return err
			}
		}
		return nil
	})
}

func concatAction(name string) job.ActionFactory {
	return job.Func(name, func(ctx job.Context) error {
		var combined []byte
		for _, p := range ctx.Inputs.Flatten() {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			combined = append(combined, data...)
		}
		out, err := ctx.Outputs.Get(0)
		if err != nil {
			return err
		}
		return os.WriteFile(out.(string), combined, 0o644)
	})
}

func newTestWorkflow(t *testing.T, cfg Config) *Workflow {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	if cfg.WorkflowRoot == "" {
		cfg.WorkflowRoot = t.TempDir()
	}
	wf, err := New(cfg)
	require.NoError(t, err)
	return wf
}

func TestWorkflow_TwoStagePipeline(t *testing.T) {
	dir := t.TempDir()
	wf := newTestWorkflow(t, Config{WorkflowRoot: dir})

	fooOut := filepath.Join(dir, "foo.out")
	barOut := filepath.Join(dir, "bar.out")

	_, err := wf.CollectJob(CollectOptions{
		Name:          "make_foo",
		ExecLocal:     true,
		Inputs:        []string{},
		Outputs:       []string{fooOut},
		ActionFactory: writeFileAction("make_foo", "FOO"),
	})
	require.NoError(t, err)
	_, err = wf.CollectJob(CollectOptions{
		Name:          "make_bar",
		ExecLocal:     true,
		Inputs:        []string{},
		Outputs:       []string{barOut},
		ActionFactory: writeFileAction("make_bar", "BAR"),
	})
	require.NoError(t, err)
	require.NoError(t, wf.ExecuteJobs(false))

	fooJob, ok := wf.Job("make_foo")
	require.True(t, ok)
	assert.Equal(t, job.Done, fooJob.State())

	resultOut := filepath.Join(dir, "result.out")
	finalJob, err := wf.CollectJob(CollectOptions{
		Name:          "combine",
		ExecLocal:     true,
		Inputs:        []string{fooOut, barOut},
		Outputs:       []string{resultOut},
		ActionFactory: concatAction("combine"),
	})
	require.NoError(t, err)
	require.NoError(t, wf.ExecuteJobs(true))

	assert.Equal(t, job.Done, finalJob.State())
	data, err := os.ReadFile(resultOut)
	require.NoError(t, err)
	assert.Equal(t, "FOOBAR", string(data))
}

func TestWorkflow_DuplicateJobNameFails(t *testing.T) {
	dir := t.TempDir()
	wf := newTestWorkflow(t, Config{WorkflowRoot: dir})

	opts := CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{},
		Outputs:       []string{filepath.Join(dir, "out.txt")},
		ActionFactory: writeFileAction("build", "x"),
	}
	_, err := wf.CollectJob(opts)
	require.NoError(t, err)

	_, err = wf.CollectJob(opts)
	require.Error(t, err)
	var dup *job.DuplicateJobError
	assert.ErrorAs(t, err, &dup)
}

func TestWorkflow_UpToDateJobIsNotRequeued(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	base := time.Now()
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(in, base, base))
	require.NoError(t, os.WriteFile(out, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(out, base.Add(time.Hour), base.Add(time.Hour)))

	wf := newTestWorkflow(t, Config{WorkflowRoot: dir})
	_, err := wf.CollectJob(CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{in},
		Outputs:       []string{out},
		ActionFactory: writeFileAction("build", "should not run"),
	})
	require.NoError(t, err)
	assert.Empty(t, wf.jobQueue)
}

func TestWorkflow_ForceRequeuesUpToDateJob(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	base := time.Now()
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(in, base, base))
	require.NoError(t, os.WriteFile(out, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(out, base.Add(time.Hour), base.Add(time.Hour)))

	wf := newTestWorkflow(t, Config{WorkflowRoot: dir, Force: true})
	_, err := wf.CollectJob(CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{in},
		Outputs:       []string{out},
		ActionFactory: writeFileAction("build", "forced"),
	})
	require.NoError(t, err)
	assert.Len(t, wf.jobQueue, 1)
}

func TestWorkflow_ForceUnlinksStaleOutputBeforeRerunning(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	base := time.Now()
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(in, base, base))
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))
	require.NoError(t, os.Chtimes(out, base.Add(time.Hour), base.Add(time.Hour)))

	wf := newTestWorkflow(t, Config{WorkflowRoot: dir, Force: true})
	_, err := wf.CollectJob(CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{in},
		Outputs:       []string{out},
		ActionFactory: writeIfMissingAction("build", "fresh"),
	})
	require.NoError(t, err)
	require.NoError(t, wf.ExecuteJobs(false))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))
}

func TestWorkflow_MissingInputFailsPreCondition(t *testing.T) {
	dir := t.TempDir()
	wf := newTestWorkflow(t, Config{WorkflowRoot: dir})

	_, err := wf.CollectJob(CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{filepath.Join(dir, "missing.txt")},
		Outputs:       []string{filepath.Join(dir, "out.txt")},
		ActionFactory: writeFileAction("build", "x"),
	})
	require.Error(t, err)
	var faulty *job.FaultyFilesError
	assert.ErrorAs(t, err, &faulty)
}

func TestWorkflow_GroupedJobsCleansIntermediates(t *testing.T) {
	dir := t.TempDir()
	wf := newTestWorkflow(t, Config{WorkflowRoot: dir})

	fooIn := filepath.Join(dir, "foo.in")
	barIn := filepath.Join(dir, "bar.in")
	require.NoError(t, os.WriteFile(fooIn, []byte("foo"), 0o644))
	require.NoError(t, os.WriteFile(barIn, []byte("bar"), 0o644))

	fooOut := filepath.Join(dir, "foo.out")
	barOut := filepath.Join(dir, "bar.out")
	resultOut := filepath.Join(dir, "result.out")

	err := wf.GroupedJobs("transform_and_combine", true, nil, nil, func() error {
		if _, err := wf.CollectJob(CollectOptions{
			Name:          "transform_foo",
			ExecLocal:     true,
			Inputs:        []string{fooIn},
			Outputs:       []string{fooOut},
			ActionFactory: concatAction("transform_foo"),
		}); err != nil {
			return err
		}
		if _, err := wf.CollectJob(CollectOptions{
			Name:          "transform_bar",
			ExecLocal:     true,
			Inputs:        []string{barIn},
			Outputs:       []string{barOut},
			ActionFactory: concatAction("transform_bar"),
		}); err != nil {
			return err
		}
		if err := wf.ExecuteJobs(false); err != nil {
			return err
		}

		if _, err := wf.CollectJob(CollectOptions{
			Name:          "combine",
			ExecLocal:     true,
			Inputs:        []string{fooOut, barOut},
			Outputs:       []string{resultOut},
			ActionFactory: concatAction("combine"),
		}); err != nil {
			return err
		}
		return wf.ExecuteJobs(false)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(resultOut)
	require.NoError(t, err)
	assert.Equal(t, "foobar", string(data))

	_, err = os.Stat(fooOut)
	assert.True(t, os.IsNotExist(err), "intermediate foo.out should have been cleaned up")
	_, err = os.Stat(barOut)
	assert.True(t, os.IsNotExist(err), "intermediate bar.out should have been cleaned up")
}

func TestWorkflow_DeleteOutputsDiscardsCollectedOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	wf := newTestWorkflow(t, Config{WorkflowRoot: dir, DeleteOutputs: true})
	_, err := wf.CollectJob(CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{},
		Outputs:       []string{out},
		ActionFactory: writeFileAction("build", "x"),
	})
	require.NoError(t, err)
	require.NoError(t, wf.ExecuteJobs(true))

	wf.DeleteCollectedOutputs()
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestWorkflow_TouchBumpsExistingOutputMtimeOnly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	base := time.Now()
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(in, base, base))
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))
	require.NoError(t, os.Chtimes(out, base.Add(-time.Hour), base.Add(-time.Hour)))

	wf := newTestWorkflow(t, Config{WorkflowRoot: dir, Touch: true, Force: true})
	_, err := wf.CollectJob(CollectOptions{
		Name:          "build",
		ExecLocal:     true,
		Inputs:        []string{in},
		Outputs:       []string{out},
		ActionFactory: writeFileAction("build", "fresh"),
	})
	require.NoError(t, err)
	require.NoError(t, wf.ExecuteJobs(true))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(data), "touch must not run the action")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(base))
}
