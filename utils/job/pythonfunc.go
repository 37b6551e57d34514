package job

import "github.com/kris-hansen/flowctl/utils/action"

// Func adapts a Context-accepting function into an ActionFactory producing
// a PythonCode action, the Go equivalent of the original engine's
// python_code decorator: at collection time the engine calls the factory
// with the job's Context, and fn only reads the fields it needs.
func Func(name string, fn func(Context) error) ActionFactory {
	return func(ctx Context) (action.Action, error) {
		return action.NewPythonCode(name, func() error {
			return fn(ctx)
		}), nil
	}
}
