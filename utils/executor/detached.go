package executor

import (
	"fmt"
	"reflect"
	"time"

	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/progress"
	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// SubmitArgs is the pre-bound option bag a Submitter may draw arguments
// from; BindSubmitter selects them by parameter type.
type SubmitArgs struct {
	Workdir    string
	DebugFlags map[string]bool
}

// Submitter maps a batch of jobs (already wrapped for status tracking) to
// one opaque external ID per job, in job order. Implementations may accept
// any subset of SubmitArgs's fields as additional named parameters; see
// BindSubmitter.
type Submitter func(jobs []*job.Job, args SubmitArgs) ([]string, error)

// DetachedExecutor submits jobs to an external scheduler via Submitter and
// polls each job's tracking status file until it reaches a terminal state.
type DetachedExecutor struct {
	Submit     Submitter
	CheckDelay time.Duration
	Args       SubmitArgs
}

// NewDetachedExecutor builds a DetachedExecutor polling every checkDelay.
func NewDetachedExecutor(submit Submitter, checkDelay time.Duration, args SubmitArgs) *DetachedExecutor {
	return &DetachedExecutor{Submit: submit, CheckDelay: checkDelay, Args: args}
}

func (e *DetachedExecutor) RequiresStatusTracking() bool { return true }

func (e *DetachedExecutor) RunJobs(jobs []*job.Job, opts RunOptions) error {
	if opts.PrintCommands {
		for _, j := range jobs {
			fmt.Println(j.String())
		}
	}

	if err := e.submitJobs(jobs); err != nil {
		return err
	}
	return e.waitForJobs(jobs, opts.Reporter)
}

func (e *DetachedExecutor) submitJobs(jobs []*job.Job) error {
	ids, err := e.Submit(jobs, e.Args)
	if err != nil {
		return fmt.Errorf("executor: submitting jobs: %w", err)
	}
	if len(ids) != len(jobs) {
		return fmt.Errorf("executor: submitter returned %d ids for %d jobs", len(ids), len(jobs))
	}
	for i, j := range jobs {
		j.SetID(ids[i])
	}
	return nil
}

// waitForJobs polls every check_delay for each still-WAITING job's
// tracking status, transitioning it on a terminal (>= 0) code.
func (e *DetachedExecutor) waitForJobs(jobs []*job.Job, reporter progress.Reporter) error {
	delay := e.CheckDelay
	if delay <= 0 {
		delay = 15 * time.Second
	}

	numFinished := 0
	for numFinished < len(jobs) {
		time.Sleep(delay)

		for _, j := range jobs {
			if j.State() != job.Waiting {
				continue
			}
			status, err := j.Action.GetStatus()
			if err != nil {
				return fmt.Errorf("executor: reading status for job %s: %w", j.Describe(), err)
			}
			if status >= 0 {
				numFinished++
				if status == 0 {
					_ = j.Done()
				} else {
					_ = j.Failed(status)
				}
				reportJob(j, reporter)
			} else if reporter != nil {
				reporter.JobWaiting(j.Describe())
			} else {
				wfconfig.DebugLog("waiting for job %s...", j.Describe())
			}
		}
	}

	var failed []*job.Job
	for _, j := range jobs {
		if j.State() == job.Failed {
			failed = append(failed, j)
		}
	}
	if len(failed) > 0 {
		return &DetachedJobsFailedError{Jobs: failed, TotalJobs: len(jobs)}
	}
	return nil
}

var _ Executor = (*DetachedExecutor)(nil)

// BindSubmitter adapts a function whose parameters are any subset/order of
// ([]*job.Job, string, map[string]bool) — matching SubmitArgs's fields —
// into a Submitter, mirroring the original engine's signature-introspection
// of `submit_jobs` (selecting only the optargs a given plugin declares).
func BindSubmitter(fn interface{}) Submitter {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()

	return func(jobs []*job.Job, args SubmitArgs) ([]string, error) {
		in := make([]reflect.Value, ft.NumIn())
		for i := 0; i < ft.NumIn(); i++ {
			switch ft.In(i) {
			case reflect.TypeOf([]*job.Job(nil)):
				in[i] = reflect.ValueOf(jobs)
			case reflect.TypeOf(""):
				in[i] = reflect.ValueOf(args.Workdir)
			case reflect.TypeOf(map[string]bool(nil)):
				in[i] = reflect.ValueOf(args.DebugFlags)
			default:
				in[i] = reflect.Zero(ft.In(i))
			}
		}
		out := fv.Call(in)
		ids, _ := out[0].Interface().([]string)
		if len(out) > 1 && !out[1].IsNil() {
			return ids, out[1].Interface().(error)
		}
		return ids, nil
	}
}
