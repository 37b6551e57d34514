package job

import (
	"math"
	"os"

	"github.com/kris-hansen/flowctl/utils/fileset"
)

// UpToDate implements the freshness predicate: let I = max(mtime(inputs))
// (-inf if no inputs), O = min(mtime(outputs)) (-inf if any output is
// missing, +inf if there are no outputs at all). A job is up-to-date iff
// O is not -inf and I <= O.
//
// This mirrors the original engine's check_up_to_date arithmetic exactly,
// including its two edge cases: a job with no declared outputs is
// vacuously up-to-date (O = +inf), and a job with no declared inputs is
// up-to-date iff none of its outputs are missing (I = -inf).
func UpToDate(inputs, outputs *fileset.FileList) (bool, error) {
	i := math.Inf(-1)
	for _, p := range inputs.Flatten() {
		info, err := os.Stat(p)
		if err != nil {
			return false, err
		}
		if t := float64(info.ModTime().UnixNano()); t > i {
			i = t
		}
	}

	o := math.Inf(1)
	for _, p := range outputs.Flatten() {
		info, err := os.Stat(p)
		var t float64
		if err == nil {
			t = float64(info.ModTime().UnixNano())
		} else if os.IsNotExist(err) {
			t = math.Inf(-1)
		} else {
			return false, err
		}
		if t < o {
			o = t
		}
	}

	if math.IsInf(o, -1) {
		return false, nil
	}
	return i <= o, nil
}

// missingPaths returns the subset of fl's flattened paths that are missing
// on disk.
func missingPaths(fl *fileset.FileList) []string {
	var missing []string
	for _, p := range fl.Flatten() {
		if _, err := os.Stat(p); err != nil && os.IsNotExist(err) {
			missing = append(missing, p)
		}
	}
	return missing
}

// CheckInputsExist is the built-in pre-condition: every declared input
// must exist, else MissingInputs.
func CheckInputsExist(describe string) Condition {
	return func(ctx Context) error {
		if missing := missingPaths(ctx.Inputs); len(missing) > 0 {
			return MissingInputs(describe, missing)
		}
		return nil
	}
}

// CheckUpToDate is the built-in post-condition: outputs must exist and be
// no older than the newest input, else IncompleteOutputs.
func CheckUpToDate(describe string) Condition {
	return func(ctx Context) error {
		ok, err := UpToDate(ctx.Inputs, ctx.Outputs)
		if err != nil {
			return err
		}
		if !ok {
			return IncompleteOutputs(describe, missingOrStaleOutputs(ctx.Outputs))
		}
		return nil
	}
}

func missingOrStaleOutputs(outputs *fileset.FileList) []string {
	missing := missingPaths(outputs)
	if len(missing) > 0 {
		return missing
	}
	return outputs.Flatten()
}
