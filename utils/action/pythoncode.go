package action

import "fmt"

// PythonCode wraps an in-process callable. It cannot be rendered to an OS
// argv and may only be executed by a local executor.
type PythonCode struct {
	tracking
	name string
	fn   func() error
}

// NewPythonCode wraps fn under name (used for logging/String()).
func NewPythonCode(name string, fn func() error) *PythonCode {
	return &PythonCode{name: name, fn: fn}
}

func (p *PythonCode) LocalOnly() bool { return true }

func (p *PythonCode) ToCommand() ([]string, error) {
	return nil, fmt.Errorf("action: PythonCode %q can only be executed locally", p.name)
}

// Run invokes the wrapped function directly, in-process.
func (p *PythonCode) Run() error {
	return p.fn()
}

func (p *PythonCode) String() string {
	return p.name + "()"
}

var _ Action = (*PythonCode)(nil)
