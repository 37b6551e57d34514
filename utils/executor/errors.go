package executor

import (
	"fmt"
	"strings"

	"github.com/kris-hansen/flowctl/utils/job"
)

func errTooManyThreads(describe string, want, have int) error {
	return fmt.Errorf("job %s requested %d threads, exceeding the pool size %d", describe, want, have)
}

// JobFailedError reports that a single job's action failed.
type JobFailedError struct {
	Job    *job.Job
	Reason error
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.Job.Describe(), e.Reason)
}

func (e *JobFailedError) Unwrap() error { return e.Reason }

// JobBatchFailedError aggregates JobFailedErrors from a local parallel run.
type JobBatchFailedError struct {
	Failures  []*JobFailedError
	TotalJobs int
}

func (e *JobBatchFailedError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.Error()
	}
	return fmt.Sprintf("%d of %d batch job(s) failed:\n%s", len(e.Failures), e.TotalJobs, strings.Join(reasons, "\n"))
}

// DetachedJobsFailedError aggregates jobs that finished FAILED under a
// DetachedExecutor's poll loop.
type DetachedJobsFailedError struct {
	Jobs      []*job.Job
	TotalJobs int
}

func (e *DetachedJobsFailedError) Error() string {
	specs := make([]string, len(e.Jobs))
	for i, j := range e.Jobs {
		specs[i] = j.Describe()
	}
	return fmt.Sprintf("%d of %d detached job(s) failed:\n%s\nCheck log files for details.",
		len(e.Jobs), e.TotalJobs, strings.Join(specs, "\n"))
}
