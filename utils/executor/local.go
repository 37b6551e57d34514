package executor

import (
	"sync"
	"time"

	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/progress"
	"golang.org/x/sync/semaphore"
)

// admissionPoll is the interval at which the parallel path re-checks which
// pending jobs now fit in the available thread pool.
const admissionPoll = 100 * time.Millisecond

// LocalExecutor runs jobs in-process: serially when there is no
// concurrency to gain, otherwise respecting each job's declared thread
// count against a fixed-size pool.
type LocalExecutor struct{}

// NewLocalExecutor builds a LocalExecutor.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

func (e *LocalExecutor) RequiresStatusTracking() bool { return false }

func (e *LocalExecutor) RunJobs(jobs []*job.Job, opts RunOptions) error {
	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}

	if threads == 1 || len(jobs) <= 1 {
		return e.runSerial(jobs, opts.PrintCommands, opts.Force, opts.Reporter)
	}
	return e.runParallel(jobs, opts.PrintCommands, opts.Force, threads, opts.Reporter)
}

func (e *LocalExecutor) runSerial(jobs []*job.Job, printCommands, force bool, reporter progress.Reporter) error {
	for _, j := range jobs {
		if err := executeJob(j, printCommands, force, reporter); err != nil {
			return err
		}
	}
	return nil
}

// runParallel admits pending jobs against a semaphore.Weighted sized to
// threads, polling the remaining list every admissionPoll while jobs whose
// thread requirement doesn't yet fit wait their turn. A job requesting more
// threads than the whole pool is failed immediately rather than left to
// deadlock.
func (e *LocalExecutor) runParallel(jobs []*job.Job, printCommands, force bool, threads int, reporter progress.Reporter) error {
	sem := semaphore.NewWeighted(int64(threads))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []*JobFailedError

	remaining := make([]*job.Job, len(jobs))
	copy(remaining, jobs)

	for len(remaining) > 0 {
		var next []*job.Job
		for _, j := range remaining {
			want := j.Resources.Threads()
			if want <= 0 {
				want = 1
			}

			if want > threads {
				_ = j.Failed(1)
				mu.Lock()
				failures = append(failures, &JobFailedError{
					Job:    j,
					Reason: errTooManyThreads(j.Describe(), want, threads),
				})
				mu.Unlock()
				continue
			}

			if !sem.TryAcquire(int64(want)) {
				next = append(next, j)
				continue
			}

			wg.Add(1)
			go func(j *job.Job, want int64) {
				defer wg.Done()
				defer sem.Release(want)
				if err := executeJob(j, printCommands, force, reporter); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}(j, int64(want))
		}

		remaining = next
		if len(remaining) > 0 {
			time.Sleep(admissionPoll)
		}
	}

	wg.Wait()

	if len(failures) > 0 {
		return &JobBatchFailedError{Failures: failures, TotalJobs: len(jobs)}
	}
	return nil
}

var _ Executor = (*LocalExecutor)(nil)
