package job

import (
	"github.com/kris-hansen/flowctl/utils/action"
	"github.com/kris-hansen/flowctl/utils/fileset"
)

// Context is the structural subset of a Job's fields made available to
// conditions and action factories. See DESIGN.md "utils/job and
// utils/action: Context instead of name-based reflection" for why this
// replaces the original's name-based keyword injection.
type Context struct {
	Name     string
	Index    any // nil, int, or MultiIndex
	Inputs   *fileset.FileList
	Outputs  *fileset.FileList
	Log      string
	State    State
	ExitCode int
}

// Condition is a pre- or post-condition: it returns an error when the
// condition fails, nil when it holds.
type Condition func(Context) error

// ActionFactory produces an Action from a job's context, used when
// collect_job's action argument is a callable rather than a literal Action.
type ActionFactory func(Context) (action.Action, error)
