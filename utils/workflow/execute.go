package workflow

import (
	"github.com/kris-hansen/flowctl/utils/executor"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// ExecuteJobs flushes the pending queue: while collecting a group it only
// moves the queue into the current batch, otherwise it runs every queued
// job to completion (or returns the first error) and resets the queue.
func (wf *Workflow) ExecuteJobs(final bool) error {
	suffix := ""
	if wf.dryRun {
		suffix = " (dry run)"
	}

	if len(wf.jobQueue) == 0 {
		if !wf.collectingGroup {
			if final {
				wfconfig.Log("nothing to be done%s", suffix)
			} else {
				wfconfig.DebugLog("no jobs to be flushed%s", suffix)
			}
		}
		return nil
	}

	if err := wf.finalizeQueue(); err != nil {
		return err
	}

	if !wf.collectingGroup {
		if final {
			wfconfig.Log("all jobs done%s", suffix)
		} else {
			wfconfig.DebugLog("flushed jobs%s", suffix)
		}
	}
	return nil
}

// finalizeQueue either appends the queue to the current group batch, or
// runs it: normal jobs on wf.exec, exec_local jobs on wf.localExec. A
// single failed job's outputs are discarded before the error propagates;
// an aggregate batch failure (parallel/detached) is not, matching the
// original engine's except-clause which only special-cases a lone
// JobFailed.
func (wf *Workflow) finalizeQueue() error {
	if wf.collectingGroup {
		if len(wf.jobQueue) > 0 {
			wf.groupBatches = append(wf.groupBatches, wf.jobQueue)
			wf.jobQueue = nil
		}
		return nil
	}

	var localJobs, normalJobs []*job.Job
	for _, j := range wf.jobQueue {
		if j.ExecLocal {
			localJobs = append(localJobs, j)
		} else {
			normalJobs = append(normalJobs, j)
		}
	}

	opts := executor.RunOptions{
		DryRun:        wf.dryRun,
		Force:         wf.force,
		PrintCommands: wf.printCommands,
		Threads:       wf.threads,
		Reporter:      wf.reporter,
	}

	if len(normalJobs) > 0 {
		if err := executor.Run(wf.exec, normalJobs, opts); err != nil {
			wf.discardOnSingleFailure(err)
			return err
		}
	}
	if len(localJobs) > 0 {
		if err := executor.Run(wf.localExec, localJobs, opts); err != nil {
			wf.discardOnSingleFailure(err)
			return err
		}
	}

	if wf.dryRun {
		// A dry run marks jobs DONE without touching any file (spec.md
		// §4.7), so the outputs it would otherwise check for here are, by
		// design, not actually present yet.
		wf.jobQueue = nil
		return nil
	}

	return wf.checkOutputsComplete()
}

func (wf *Workflow) discardOnSingleFailure(err error) {
	if jf, ok := err.(*executor.JobFailedError); ok {
		discardFiles(jf.Job.Outputs)
	}
}

// checkOutputsComplete re-checks every flushed job's outputs against its
// inputs once more, aggregating every job with a faulty result into one
// error rather than stopping at the first, then resets the queue.
func (wf *Workflow) checkOutputsComplete() error {
	var faulty []job.JobFiles
	for _, j := range wf.jobQueue {
		ok, err := job.UpToDate(j.Inputs, j.Outputs)
		if err != nil {
			return err
		}
		if !ok {
			faulty = append(faulty, job.JobFiles{Job: j.Describe(), Files: j.Outputs.Flatten()})
		}
	}

	wf.jobQueue = nil

	if len(faulty) > 0 {
		return job.IncompleteOutputsBatch(faulty)
	}
	return nil
}
