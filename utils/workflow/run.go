package workflow

import (
	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// Definition is a workflow body: it collects jobs against wf (directly or
// via GroupedJobs) and returns when there is nothing left to collect.
type Definition func(wf *Workflow) error

// Run builds a Workflow from cfg and drives one full run: the definition,
// a final flush, and — when Config.DeleteOutputs is set — discarding every
// collected job's outputs regardless of how the definition ended.
//
// A definition error is fatal unless DeleteOutputs is set, in which case
// it is treated as "the workflow was stopped partway through, now clean
// up" rather than propagated, since delete_outputs runs are by
// construction a controlled teardown rather than a real build.
func Run(cfg Config, definition Definition) error {
	wf, err := New(cfg)
	if err != nil {
		return err
	}

	wfconfig.Log("running workflow `%s`", wf.name)
	runErr := definition(wf)
	if runErr == nil {
		runErr = wf.ExecuteJobs(true)
	}

	if runErr != nil {
		if !wf.deleteOutputs {
			return runErr
		}
		wfconfig.Log("workflow `%s` stopped early: %v", wf.name, runErr)
	}

	if wf.deleteOutputs {
		wf.DeleteCollectedOutputs()
	}

	wfconfig.Log("workflow `%s` finished", wf.name)
	return nil
}
