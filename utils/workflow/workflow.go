// Package workflow implements the orchestrator: job collection with
// up-to-date skipping, flushing collected jobs to an executor, and grouped
// job batches with intermediate-file cleanup.
package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/kris-hansen/flowctl/utils/action"
	"github.com/kris-hansen/flowctl/utils/executor"
	"github.com/kris-hansen/flowctl/utils/fileset"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/progress"
	"github.com/kris-hansen/flowctl/utils/resources"
	"github.com/kris-hansen/flowctl/utils/wfconfig"
	"github.com/kris-hansen/flowctl/utils/workdir"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config configures a Workflow. Zero values mean: run in the current
// directory's ".workflow" subdirectory, one thread, no resource file, run
// everything locally and serially.
type Config struct {
	Name string

	WorkflowRoot string // default: current working directory
	WorkflowDir  string // default: ".workflow"

	DryRun          bool
	Force           bool
	KeepTemp        bool
	ForceDeleteTemp bool
	PrintCommands   bool
	Touch           bool
	DeleteOutputs   bool

	Threads       int
	ResourcesPath string // relative to WorkflowRoot; empty means auto-detected defaults

	// SubmitJobs, when set, routes non-exec_local jobs through a
	// DetachedExecutor instead of running them locally.
	SubmitJobs executor.Submitter
	CheckDelay time.Duration

	DebugFlags map[string]bool

	// Reporter receives job state-transition events; nil falls back to
	// plain wfconfig.Log lines.
	Reporter progress.Reporter
}

// Workflow is the orchestrator: a job registry, a pending queue, and the
// executors jobs are flushed to.
type Workflow struct {
	name string

	workdir    *workdir.Workdir
	resources  *resources.RootResources
	debugFlags map[string]bool

	dryRun          bool
	printCommands   bool
	force           bool
	keepTemp        bool
	forceDeleteTemp bool
	touch           bool
	deleteOutputs   bool
	threads         int

	exec              executor.Executor
	execStatusTrack   bool
	localExec         executor.Executor
	localStatusTrack  bool
	statusTrackingDir *workdir.Workdir
	reporter          progress.Reporter

	jobQueue []*job.Job
	jobs     map[string]any // string -> *job.Job, or string -> map[any]*job.Job for batches
	jobOrder []string       // names in first-collected order, for DeleteCollectedOutputs

	collectingGroup bool
	groupName       string
	groupBatches    [][]*job.Job
	groupPre        []GroupCondition
	groupPost       []GroupCondition
}

// New builds a Workflow, resolving directories, the resources file, and
// the executor pair (normal + local-only) from cfg.
func New(cfg Config) (*Workflow, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("workflow: name must not be empty")
	}

	root := cfg.WorkflowRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("workflow: resolving working directory: %w", err)
		}
		root = wd
	}
	dir := cfg.WorkflowDir
	if dir == "" {
		dir = ".workflow"
	}
	wdRoot := workdir.NewRoot(filepath.Join(root, dir))

	if cfg.Touch && cfg.DeleteOutputs {
		return nil, fmt.Errorf("workflow: must not set both Touch and DeleteOutputs")
	}
	keepTemp := cfg.KeepTemp || cfg.DeleteOutputs
	forceDeleteTemp := cfg.ForceDeleteTemp && !cfg.DeleteOutputs
	if keepTemp && forceDeleteTemp {
		return nil, fmt.Errorf("workflow: must not set both ForceDeleteTemp and KeepTemp")
	}

	var rr *resources.RootResources
	if cfg.ResourcesPath == "" {
		rr = resources.Empty()
	} else {
		var err error
		rr, err = resources.Read(filepath.Join(root, cfg.ResourcesPath))
		if err != nil {
			return nil, err
		}
	}

	jobScriptsDir, err := wdRoot.AcquireDir("job-scripts", true, false)
	if err != nil {
		return nil, err
	}

	submitJobs := cfg.SubmitJobs
	touch := cfg.Touch
	deleteOutputs := cfg.DeleteOutputs

	// `touch` and `delete_outputs` each force both executors to a single
	// strategy, discarding any submit_jobs configuration, mirroring
	// workflow.py's force_executor.
	var normalExec, localOnlyExec executor.Executor
	switch {
	case touch:
		te := executor.NewTouchExecutor()
		normalExec, localOnlyExec = te, te
	case deleteOutputs:
		le := executor.NewLocalExecutor()
		normalExec, localOnlyExec = le, le
	case submitJobs != nil:
		args := executor.SubmitArgs{Workdir: jobScriptsDir.Root(), DebugFlags: cfg.DebugFlags}
		checkDelay := cfg.CheckDelay
		normalExec = executor.NewDetachedExecutor(submitJobs, checkDelay, args)
		localOnlyExec = executor.NewLocalExecutor()
	default:
		le := executor.NewLocalExecutor()
		normalExec, localOnlyExec = le, le
	}

	wf := &Workflow{
		name:            cfg.Name,
		workdir:         wdRoot,
		resources:       rr,
		debugFlags:      cfg.DebugFlags,
		dryRun:          cfg.DryRun || deleteOutputs,
		printCommands:   cfg.PrintCommands,
		force:           cfg.Force || deleteOutputs,
		keepTemp:        keepTemp,
		forceDeleteTemp: forceDeleteTemp,
		touch:           touch,
		deleteOutputs:   deleteOutputs,
		threads:         cfg.Threads,
		exec:            normalExec,
		execStatusTrack: normalExec.RequiresStatusTracking(),
		localExec:       localOnlyExec,
		localStatusTrack: localOnlyExec.RequiresStatusTracking(),
		reporter:        cfg.Reporter,
		jobs:            make(map[string]any),
	}
	if wf.threads <= 0 {
		wf.threads = 1
	}

	if wf.execStatusTrack || wf.localStatusTrack {
		statusDir, err := wdRoot.AcquireDir("status", true, false)
		if err != nil {
			return nil, err
		}
		wf.statusTrackingDir = statusDir
	}

	wfconfig.Log("starting workflow `%s`", wf.name)
	return wf, nil
}

// Workdir exposes the workflow's root working directory, for definitions
// that need to acquire their own scratch subpaths.
func (wf *Workflow) Workdir() *workdir.Workdir {
	return wf.workdir
}

// Config snapshots the effective configuration for reporting.
func (wf *Workflow) Config() map[string]any {
	return map[string]any{
		"name":               wf.name,
		"debug_flags":        wf.debugFlags,
		"workdir":            wf.workdir.String(),
		"dry_run":            wf.dryRun,
		"print_commands":     wf.printCommands,
		"touch":              wf.touch,
		"delete_outputs":     wf.deleteOutputs,
		"force":              wf.force,
		"keep_temp":          wf.keepTemp,
		"force_delete_temp":  wf.forceDeleteTemp,
		"threads":            wf.threads,
		"status_tracking":    wf.execStatusTrack,
		"local_status_track": wf.localStatusTrack,
	}
}

// CollectOptions describes one job to collect. Resources selects which
// resource entry to draw from: nil uses Name, a string names another
// entry, a map[string]any overrides Name's own entry.
type CollectOptions struct {
	Name           string
	Index          any // nil, int, or job.MultiIndex
	ExecLocal      bool
	Inputs         any // anything fileset.FromAny accepts
	Outputs        any
	Action         action.Action
	ActionFactory  job.ActionFactory
	Log            string
	Resources      any // nil, string, or map[string]any
	PreConditions  []job.Condition
	PostConditions []job.Condition
}

// CollectJob builds, registers, and — unless already up to date — queues a
// job for the next flush. Inside a group every job is queued.
func (wf *Workflow) CollectJob(opts CollectOptions) (*job.Job, error) {
	if opts.Name == "" {
		return nil, &job.IllegalArgumentError{Message: "job is missing `name`"}
	}
	if !identifier.MatchString(opts.Name) {
		return nil, &job.IllegalArgumentError{Message: fmt.Sprintf("job name %q is not a valid identifier", opts.Name)}
	}
	if opts.Action == nil && opts.ActionFactory == nil {
		return nil, &job.IllegalArgumentError{Message: fmt.Sprintf("job %q is missing `action`", opts.Name)}
	}

	inputs, err := fileset.FromAny(opts.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := fileset.FromAny(opts.Outputs)
	if err != nil {
		return nil, err
	}

	res, err := wf.resolveResources(opts.Name, opts.Resources)
	if err != nil {
		return nil, err
	}

	describe := fullnameDescribe(opts.Name, opts.Index)
	preConditions := append([]job.Condition{job.CheckInputsExist(describe)}, opts.PreConditions...)
	postConditions := append(append([]job.Condition{}, opts.PostConditions...), job.CheckUpToDate(describe))

	act := opts.Action
	if act == nil {
		ctx := job.Context{Name: opts.Name, Index: opts.Index, Inputs: inputs, Outputs: outputs, Log: opts.Log}
		act, err = opts.ActionFactory(ctx)
		if err != nil {
			return nil, err
		}
	}

	j, err := job.New(job.Options{
		Name:           opts.Name,
		Index:          opts.Index,
		ExecLocal:      opts.ExecLocal,
		Inputs:         inputs,
		Outputs:        outputs,
		Action:         act,
		Log:            opts.Log,
		Resources:      res,
		PreConditions:  preConditions,
		PostConditions: postConditions,
	})
	if err != nil {
		return nil, err
	}

	if err := wf.registerJob(j); err != nil {
		return nil, err
	}

	if (!j.ExecLocal && wf.execStatusTrack) || (j.ExecLocal && wf.localStatusTrack) {
		statusPath, err := wf.statusTrackingDir.AcquireFile(j.Hash(), false)
		if err != nil {
			return nil, err
		}
		j.EnableTracking(statusPath)
	}

	return j, nil
}

func (wf *Workflow) resolveResources(name string, override any) (resources.Resources, error) {
	switch v := override.(type) {
	case nil:
		return wf.resources.Lookup(name), nil
	case string:
		return wf.resources.Lookup(v), nil
	case map[string]any:
		merged := wf.resources.Lookup(name)
		out := make(resources.Resources, len(merged)+len(v))
		for k, val := range merged {
			out[k] = val
		}
		for k, val := range v {
			out[k] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("workflow: job %q: resources override must be nil, a string, or a map", name)
	}
}

func fullnameDescribe(name string, index any) string {
	j := &job.Job{Name: name, Index: index}
	return j.Describe()
}

// registerJob enqueues j (unless it is already up to date and Force is
// unset) and records it in the job registry, detecting duplicates.
func (wf *Workflow) registerJob(j *job.Job) error {
	if wf.collectingGroup {
		wf.jobQueue = append(wf.jobQueue, j)
	} else {
		if err := j.CheckPreConditions(); err != nil {
			return err
		}
		upToDate := j.PostConditionsOK()
		if wf.force || !upToDate {
			wfconfig.DebugLog("queued job %s", j.Describe())
			wf.jobQueue = append(wf.jobQueue, j)
		} else {
			wfconfig.DebugLog("skipping job %s: all outputs are up-to-date", j.Describe())
		}
	}

	if j.Index == nil {
		if existing, ok := wf.jobs[j.Name]; ok {
			if existingJob, ok := existing.(*job.Job); ok {
				return &job.DuplicateJobError{Existing: existingJob.Describe(), Duplicate: j.Describe()}
			}
			return &job.DuplicateJobError{Existing: j.Name, Duplicate: j.Describe()}
		}
		wf.jobs[j.Name] = j
		wf.jobOrder = append(wf.jobOrder, j.Name)
		return nil
	}

	batch, ok := wf.jobs[j.Name].(map[any]*job.Job)
	if !ok {
		batch = make(map[any]*job.Job)
		wf.jobs[j.Name] = batch
		wf.jobOrder = append(wf.jobOrder, j.Name)
	}
	// A MultiIndex holds a slice and cannot be a map key; key it by its
	// rendered form instead.
	key := j.Index
	if mi, ok := key.(job.MultiIndex); ok {
		key = mi.String()
	}
	if existing, ok := batch[key]; ok {
		return &job.DuplicateJobError{Existing: existing.Describe(), Duplicate: j.Describe()}
	}
	batch[key] = j
	return nil
}

// Job returns a previously-collected, non-batch job by name.
func (wf *Workflow) Job(name string) (*job.Job, bool) {
	j, ok := wf.jobs[name].(*job.Job)
	return j, ok
}

// JobBatch returns a previously-collected batch by name, keyed by index (a
// MultiIndex index is keyed by its String() form).
func (wf *Workflow) JobBatch(name string) (map[any]*job.Job, bool) {
	b, ok := wf.jobs[name].(map[any]*job.Job)
	return b, ok
}

// discardFiles removes every file/directory in fl, silently skipping a
// missing path.
func discardFiles(fl *fileset.FileList) {
	for _, p := range fl.Flatten() {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		wfconfig.DebugLog("discarding file %s", p)
		if info.IsDir() {
			_ = os.RemoveAll(p)
		} else {
			_ = os.Remove(p)
		}
	}
}

// DeleteCollectedOutputs discards the outputs of every collected job, in
// reverse collection order, used when Config.DeleteOutputs is set.
func (wf *Workflow) DeleteCollectedOutputs() {
	wfconfig.Log("discarding outputs of all collected jobs")
	for i := len(wf.jobOrder) - 1; i >= 0; i-- {
		switch v := wf.jobs[wf.jobOrder[i]].(type) {
		case *job.Job:
			wfconfig.Log("discarding outputs of job %s", v.Describe())
			discardFiles(v.Outputs)
		case map[any]*job.Job:
			for _, j := range v {
				wfconfig.Log("discarding outputs of job %s", j.Describe())
				discardFiles(j.Outputs)
			}
		}
	}
	wfconfig.Log("all outputs discarded")
}
