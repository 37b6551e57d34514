package workflow

import (
	"fmt"
	"os"

	"github.com/kris-hansen/flowctl/utils/fileset"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// GroupContext is what a group pre/post condition is evaluated against.
type GroupContext struct {
	Name       string
	FirstBatch []*job.Job
	LastBatch  []*job.Job
}

// GroupCondition gates a job group the way job.Condition gates a single
// job: return an error to fail the check.
type GroupCondition func(GroupContext) error

// GroupedJobs runs body while collecting every job it submits through
// CollectJob into batches rather than flushing them immediately. Once body
// returns, the whole group is checked against pre/post conditions as one
// unit: if the group's outputs are already up to date relative to its
// inputs, none of its batches run at all; otherwise every batch flushes in
// order. With tempIntermediates set, any file that is an input or output
// of some batch but not an input of the first batch or an output of the
// last is deleted afterward (unless KeepTemp is set).
//
// Forcing the workflow (Config.Force) without DeleteOutputs bypasses
// grouping entirely: body's jobs collect and flush exactly as if
// GroupedJobs were not used, since the whole point of re-checking by group
// is moot when every job runs regardless.
func (wf *Workflow) GroupedJobs(name string, tempIntermediates bool, pre, post []GroupCondition, body func() error) error {
	if wf.force && !wf.deleteOutputs {
		return body()
	}
	return wf.collectJobGroup(name, tempIntermediates && !wf.deleteOutputs, pre, post, body)
}

func (wf *Workflow) collectJobGroup(name string, tempIntermediates bool, pre, post []GroupCondition, body func() error) error {
	wf.collectingGroup = true
	wf.groupBatches = nil
	wf.groupName = name
	wf.groupPre = append([]GroupCondition{checkGroupedJobsPreconditions}, pre...)
	wf.groupPost = append(append([]GroupCondition{}, post...), isGroupUpToDate)

	defer func() {
		wf.groupName = ""
		wf.groupBatches = nil
		wf.collectingGroup = false
	}()

	if err := body(); err != nil {
		return err
	}
	if err := wf.ExecuteJobs(true); err != nil {
		return err
	}
	if err := wf.executeGroupJobBatches(); err != nil {
		return err
	}
	if tempIntermediates {
		wf.cleanGroupIntermediates()
	}
	return nil
}

func (wf *Workflow) groupContext() GroupContext {
	return GroupContext{
		Name:       wf.groupName,
		FirstBatch: wf.groupBatches[0],
		LastBatch:  wf.groupBatches[len(wf.groupBatches)-1],
	}
}

func (wf *Workflow) checkGroupPreConditions() error {
	ctx := GroupContext{Name: wf.groupName, FirstBatch: wf.groupBatches[0]}
	for _, c := range wf.groupPre {
		if err := c(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (wf *Workflow) groupUpToDate() bool {
	ctx := wf.groupContext()
	for _, c := range wf.groupPost {
		if c(ctx) != nil {
			return false
		}
	}
	return true
}

func checkGroupedJobsPreconditions(ctx GroupContext) error {
	for _, j := range ctx.FirstBatch {
		if err := j.CheckPreConditions(); err != nil {
			return err
		}
	}
	return nil
}

func isGroupUpToDate(ctx GroupContext) error {
	groupInputs, err := fileListUnion(ctx.FirstBatch, batchInputs)
	if err != nil {
		return err
	}
	groupOutputs, err := fileListUnion(ctx.LastBatch, batchOutputs)
	if err != nil {
		return err
	}
	ok, err := job.UpToDate(groupInputs, groupOutputs)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("group `%s`: missing or out-dated outputs", ctx.Name)
	}
	return nil
}

// executeGroupJobBatches runs the accumulated batches unless the group as
// a whole is already up to date, in which case the batches are discarded
// (their contents never ran, so there's nothing to clean up) unless
// ForceDeleteTemp was set, which needs them kept around for
// cleanGroupIntermediates.
func (wf *Workflow) executeGroupJobBatches() error {
	numJobs := 0
	for _, batch := range wf.groupBatches {
		numJobs += len(batch)
	}
	if numJobs == 0 {
		wfconfig.Log("nothing to execute in group `%s`", wf.groupName)
		return nil
	}

	if err := wf.checkGroupPreConditions(); err != nil {
		return err
	}

	if wf.groupUpToDate() {
		wfconfig.DebugLog("skipping group `%s`: all outputs are up-to-date", wf.groupName)
		if !wf.forceDeleteTemp {
			wf.groupBatches = nil
		}
		return nil
	}

	wf.collectingGroup = false
	defer func() { wf.collectingGroup = true }()
	for _, batch := range wf.groupBatches {
		wf.jobQueue = batch
		if err := wf.ExecuteJobs(false); err != nil {
			return err
		}
	}
	return nil
}

func (wf *Workflow) cleanGroupIntermediates() {
	if len(wf.groupBatches) == 0 {
		return
	}

	all := make(map[string]struct{})
	for _, batch := range wf.groupBatches {
		for _, j := range batch {
			for _, p := range j.Inputs.Flatten() {
				all[p] = struct{}{}
			}
			for _, p := range j.Outputs.Flatten() {
				all[p] = struct{}{}
			}
		}
	}

	interfaceFiles := make(map[string]struct{})
	for _, j := range wf.groupBatches[0] {
		for _, p := range j.Inputs.Flatten() {
			interfaceFiles[p] = struct{}{}
		}
	}
	last := wf.groupBatches[len(wf.groupBatches)-1]
	for _, j := range last {
		for _, p := range j.Outputs.Flatten() {
			interfaceFiles[p] = struct{}{}
		}
	}

	for p := range all {
		if _, isInterface := interfaceFiles[p]; isInterface {
			continue
		}
		if wf.keepTemp {
			wfconfig.Log("keeping temporary intermediate file `%s`", p)
			continue
		}
		if _, err := os.Stat(p); err == nil {
			wfconfig.Log("removing temporary intermediate file `%s`", p)
			_ = os.Remove(p)
		} else {
			wfconfig.DebugLog("no need to delete temporary intermediate file `%s`", p)
		}
	}
}

func batchInputs(j *job.Job) []string  { return j.Inputs.Flatten() }
func batchOutputs(j *job.Job) []string { return j.Outputs.Flatten() }

func fileListUnion(jobs []*job.Job, pick func(*job.Job) []string) (*fileset.FileList, error) {
	var items []any
	for _, j := range jobs {
		for _, p := range pick(j) {
			items = append(items, p)
		}
	}
	return fileset.Of(items...)
}
