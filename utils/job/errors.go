package job

import (
	"fmt"
	"strings"
)

// DuplicateJobError is returned by collection when a job with the same
// fullname is already registered.
type DuplicateJobError struct {
	Existing  string // describe() of the existing job
	Duplicate string // describe() of the job that collided with it
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("duplicate job %s", e.Existing)
}

// FaultyFilesError reports, per job, a set of files that are missing or
// out of date. Used for both MissingInputs and IncompleteOutputs.
type FaultyFilesError struct {
	Description string
	JobFiles    []JobFiles
}

// JobFiles pairs a job's describe() string with the offending file paths.
type JobFiles struct {
	Job   string
	Files []string
}

func (e *FaultyFilesError) Error() string {
	var b strings.Builder
	b.WriteString(e.Description)
	b.WriteString(":\n")
	for _, jf := range e.JobFiles {
		b.WriteString("  ")
		b.WriteString(jf.Job)
		b.WriteString(":\n")
		for _, f := range jf.Files {
			b.WriteString("    - ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// MissingInputs reports that one or more of a job's declared inputs do not
// exist on disk.
func MissingInputs(jobDescribe string, files []string) error {
	return &FaultyFilesError{
		Description: "missing input file(s)",
		JobFiles:    []JobFiles{{Job: jobDescribe, Files: files}},
	}
}

// IncompleteOutputs reports that a job's outputs are missing or out of
// date relative to its inputs.
func IncompleteOutputs(jobDescribe string, files []string) error {
	return &FaultyFilesError{
		Description: "missing or out-dated output file(s)",
		JobFiles:    []JobFiles{{Job: jobDescribe, Files: files}},
	}
}

// IncompleteOutputsBatch aggregates several jobs' faulty output files into
// a single error, mirroring a flush that checks every job in the queue at
// once rather than one at a time.
func IncompleteOutputsBatch(jobFiles []JobFiles) error {
	return &FaultyFilesError{
		Description: "missing or out-dated output file(s)",
		JobFiles:    jobFiles,
	}
}

// IllegalArgumentError reports a malformed collect_job argument (bad name,
// bad index, action/exec_local mismatch, etc).
type IllegalArgumentError struct {
	Message string
}

func (e *IllegalArgumentError) Error() string {
	return e.Message
}
