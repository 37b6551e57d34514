package job

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/kris-hansen/flowctl/utils/action"
	"github.com/kris-hansen/flowctl/utils/fileset"
	"github.com/kris-hansen/flowctl/utils/resources"
)

// Job is a named unit of work: inputs and outputs (FileLists), an action,
// optional log path, resources, and pre/post conditions gating collection
// and completion.
type Job struct {
	mu sync.Mutex

	Name      string
	Index     any // nil, int, or MultiIndex
	ExecLocal bool
	Inputs    *fileset.FileList
	Outputs   *fileset.FileList
	Action    action.Action
	Log       string
	Resources resources.Resources

	PreConditions  []Condition
	PostConditions []Condition

	state    State
	exitCode int
	id       string // opaque, assigned on detached submission
}

// New builds a Job, validating the local_only/exec_local interaction and
// the index's shape.
func New(opts Options) (*Job, error) {
	if opts.Name == "" {
		return nil, &IllegalArgumentError{Message: "job name must not be empty"}
	}
	if opts.Action == nil {
		return nil, &IllegalArgumentError{Message: fmt.Sprintf("job %q: action must not be nil", opts.Name)}
	}
	if opts.Action.LocalOnly() && !opts.ExecLocal {
		return nil, &IllegalArgumentError{Message: fmt.Sprintf("job %q: must set exec_local=true for a local-only action", opts.Name)}
	}

	switch opts.Index.(type) {
	case nil, int, MultiIndex:
	default:
		return nil, &IllegalArgumentError{Message: fmt.Sprintf("job %q: index must be nil, int, or MultiIndex", opts.Name)}
	}

	j := &Job{
		Name:           opts.Name,
		Index:          opts.Index,
		ExecLocal:      opts.ExecLocal,
		Inputs:         opts.Inputs,
		Outputs:        opts.Outputs,
		Action:         opts.Action,
		Log:            opts.Log,
		Resources:      opts.Resources,
		PreConditions:  opts.PreConditions,
		PostConditions: opts.PostConditions,
		state:          Waiting,
		exitCode:       -1,
	}
	return j, nil
}

// Options configures New. Inputs/Outputs/Resources default to empty values
// when left unset.
type Options struct {
	Name           string
	Index          any
	ExecLocal      bool
	Inputs         *fileset.FileList
	Outputs        *fileset.FileList
	Action         action.Action
	Log            string
	Resources      resources.Resources
	PreConditions  []Condition
	PostConditions []Condition
}

// IsBatch reports whether this job is one member of an indexed batch.
func (j *Job) IsBatch() bool {
	return j.Index != nil
}

// Fullname is Name if Index is nil, else "Name.index".
func (j *Job) Fullname() string {
	if j.Index == nil {
		return j.Name
	}
	return j.Name + "." + indexString(j.Index)
}

// Hash is the MD5 hex digest of Fullname, used as the status-file name.
func (j *Job) Hash() string {
	sum := md5.Sum([]byte(j.Fullname()))
	return hex.EncodeToString(sum[:])
}

// SetID records the opaque external ID assigned on detached submission.
func (j *Job) SetID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.id = id
}

// ID returns the opaque external ID, or "" if the job was not (yet)
// submitted to a detached executor.
func (j *Job) ID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id
}

// Describe renders "`fullname`" or "`fullname` (id=...)" for logging.
func (j *Job) Describe() string {
	j.mu.Lock()
	id := j.id
	j.mu.Unlock()

	if id == "" {
		return fmt.Sprintf("`%s`", j.Fullname())
	}
	return fmt.Sprintf("`%s` (id=%s)", j.Fullname(), id)
}

// String renders the job's action, suffixed with "&> log" when it has a
// log path.
func (j *Job) String() string {
	actionStr := j.Action.String()
	if j.Log == "" {
		return actionStr
	}
	if strings.Contains(actionStr, "\n") {
		return fmt.Sprintf("{\n%s\n} &> %s", actionStr, j.Log)
	}
	return fmt.Sprintf("%s &> %s", actionStr, j.Log)
}

// Output returns the sole output path, erroring unless the job has exactly
// one declared output.
func (j *Job) Output() (string, error) {
	if j.Outputs.Len() != 1 {
		return "", fmt.Errorf("job %s: Output() requires exactly one output, has %d", j.Describe(), j.Outputs.Len())
	}
	return j.Outputs.Flatten()[0], nil
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// ExitCode returns the job's exit code (-1 until finished).
func (j *Job) ExitCode() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode
}

// Context snapshots the job's fields injectable into conditions/factories.
func (j *Job) Context() Context {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Context{
		Name:     j.Name,
		Index:    j.Index,
		Inputs:   j.Inputs,
		Outputs:  j.Outputs,
		Log:      j.Log,
		State:    j.state,
		ExitCode: j.exitCode,
	}
}

// Done transitions a WAITING job to DONE, clearing its tracking status
// file. Only valid on a WAITING job.
func (j *Job) Done() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.IsFinished() {
		return fmt.Errorf("job %s: Done() called on a finished job", j.Fullname())
	}
	j.state = Done
	j.exitCode = 0
	return j.Action.CleanUpTrackingStatusFile()
}

// Failed transitions a WAITING job to FAILED with exitCode, clearing its
// tracking status file. Only valid on a WAITING job.
func (j *Job) Failed(exitCode int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.IsFinished() {
		return fmt.Errorf("job %s: Failed() called on a finished job", j.Fullname())
	}
	j.state = Failed
	j.exitCode = exitCode
	return j.Action.CleanUpTrackingStatusFile()
}

// EnableTracking wires up status tracking on the job's underlying action.
func (j *Job) EnableTracking(statusPath string) {
	j.Action.EnableTracking(statusPath)
}

// CheckPreConditions runs every pre-condition, stopping at the first
// failure.
func (j *Job) CheckPreConditions() error {
	ctx := j.Context()
	for _, c := range j.PreConditions {
		if err := c(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CheckPostConditions runs every post-condition, stopping at the first
// failure.
func (j *Job) CheckPostConditions() error {
	ctx := j.Context()
	for _, c := range j.PostConditions {
		if err := c(ctx); err != nil {
			return err
		}
	}
	return nil
}

// PostConditionsOK reports whether CheckPostConditions would succeed,
// without propagating the specific error.
func (j *Job) PostConditionsOK() bool {
	return j.CheckPostConditions() == nil
}
