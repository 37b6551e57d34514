package executor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/kris-hansen/flowctl/utils/action"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/progress"
	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// executeJob runs a single job's action in-process (PythonCode) or as a
// subprocess (anything else), transitioning it to DONE or FAILED. When
// force is set, it unlinks all of the job's existing outputs first, so an
// action that only conditionally overwrites its outputs is still forced to
// regenerate them.
func executeJob(j *job.Job, printCommands, force bool, reporter progress.Reporter) *JobFailedError {
	if n, ok := j.Resources["ncpus"]; ok {
		if toInt(n) > 1 {
			wfconfig.Log("warning: unsupported operation for local execution: job %s requested %v CPUs", j.Describe(), n)
		}
	}

	if force {
		for _, p := range j.Outputs.Flatten() {
			_ = os.Remove(p)
		}
	}

	if printCommands {
		fmt.Println(j.String())
	}

	if pc, ok := j.Action.(*action.PythonCode); ok {
		if err := pc.Run(); err != nil {
			_ = j.Failed(1)
			writeFailureLog(j, err)
			reportJob(j, reporter)
			return &JobFailedError{Job: j, Reason: err}
		}
		_ = j.Done()
		reportJob(j, reporter)
		return nil
	}

	argv, err := j.Action.ToCommand()
	if err != nil {
		_ = j.Failed(1)
		reportJob(j, reporter)
		return &JobFailedError{Job: j, Reason: err}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if j.Log != "" {
		logFile, err := os.Create(j.Log)
		if err != nil {
			_ = j.Failed(1)
			reportJob(j, reporter)
			return &JobFailedError{Job: j, Reason: fmt.Errorf("opening log %s: %w", j.Log, err)}
		}
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Run(); err != nil {
		code := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		_ = j.Failed(code)
		reportJob(j, reporter)
		return &JobFailedError{Job: j, Reason: err}
	}

	_ = j.Done()
	reportJob(j, reporter)
	return nil
}

func writeFailureLog(j *job.Job, reason error) {
	if j.Log == "" {
		return
	}
	f, err := os.Create(j.Log)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintln(f, reason.Error())
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
