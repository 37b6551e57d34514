// Package submitter implements the pluggable Submitter interface
// (utils/executor.Submitter) with two concrete plugins: LocalSubmitter, a
// Popen-and-forget submitter useful for tests and local smoke runs, and
// SlurmSubmitter, grounded on original_source's
// interfaces/slurm.py submit_jobs.
package submitter

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/kris-hansen/flowctl/utils/executor"
	"github.com/kris-hansen/flowctl/utils/job"
	"github.com/kris-hansen/flowctl/utils/resources"
	"github.com/kris-hansen/flowctl/utils/retry"
	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// LocalSubmitter launches each job's rendered command as a detached
// background process (fire-and-forget) and assigns it a random opaque ID,
// the bundled example/test submitter for exercising DetachedExecutor
// without a real scheduler.
func LocalSubmitter(jobs []*job.Job, args executor.SubmitArgs) ([]string, error) {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		argv, err := j.Action.ToCommand()
		if err != nil {
			return nil, fmt.Errorf("submitter: rendering job %s: %w", j.Describe(), err)
		}

		cmd := exec.Command(argv[0], argv[1:]...)
		if j.Log != "" {
			if f, err := os.Create(j.Log); err == nil {
				cmd.Stdout = f
				cmd.Stderr = f
			}
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("submitter: starting job %s: %w", j.Describe(), err)
		}
		go cmd.Wait() // fire-and-forget: status is observed via the tracking file

		ids[i] = uuid.NewString()
		wfconfig.DebugLog("submitter: local-submitted job %s as %s (pid=%d)", j.Describe(), ids[i], cmd.Process.Pid)
	}
	return ids, nil
}

const (
	solitaryJobTemplate = "#!/bin/bash\n%s\n"
	batchCommandLine    = "%s) %s ;;"
	batchJobTemplate    = `#!/bin/bash

if [ -z "${SLURM_ARRAY_TASK_ID+x}" ]
then
    echo "missing SLURM_ARRAY_TASK_ID" >&2
    exit 1
fi

case "$SLURM_ARRAY_TASK_ID" in
%s
*)
    echo "Unhandled job id: $SLURM_ARRAY_TASK_ID" >&2
    exit 1
    ;;
esac
`
)

// SlurmSubmitter batches jobs by name, writes one launch script
// per batch into workdir (a job-scripts Workdir rooted by the caller), and
// submits via `sbatch --parsable`. When args.DebugFlags["slurm"] is set, it
// short-circuits to launching the script directly via exec.Command instead
// of calling sbatch, exactly as debug_flags={"slurm"} does in the original.
func SlurmSubmitter(jobs []*job.Job, args executor.SubmitArgs) ([]string, error) {
	batches := groupByNameIndex(jobs)
	debug := args.DebugFlags["slurm"]

	idOf := make(map[*job.Job]string, len(jobs))
	for _, batch := range batches {
		scriptPath := args.Workdir + "/" + batch[0].Name + ".sh"

		var batchIDs []string
		var err error
		if len(batch) == 1 && !batch[0].IsBatch() {
			var id string
			id, err = submitSolitaryJob(batch[0], scriptPath, debug)
			batchIDs = []string{id}
		} else {
			batchIDs, err = submitBatchJob(batch, scriptPath, debug)
		}
		if err != nil {
			return nil, err
		}
		for k, j := range batch {
			idOf[j] = batchIDs[k]
		}
	}

	// Batching reorders jobs by name; report IDs in the caller's job order.
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = idOf[j]
	}
	return ids, nil
}

func groupByNameIndex(jobs []*job.Job) [][]*job.Job {
	sorted := make([]*job.Job, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var batches [][]*job.Job
	var current []*job.Job
	for _, j := range sorted {
		if len(current) > 0 && current[0].Name != j.Name {
			batches = append(batches, current)
			current = nil
		}
		current = append(current, j)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func prepareParams(batch []*job.Job) []string {
	base := batch[0].Resources
	merged := make(resources.Resources, len(base)+1)
	for k, v := range base {
		merged[k] = v
	}
	if len(batch) > 1 || batch[0].IsBatch() {
		indices := make([]string, len(batch))
		for i, j := range batch {
			indices[i] = fmt.Sprint(j.Index)
		}
		merged["array"] = strings.Join(indices, ",")
	}

	opts := resources.DefaultCLIOptions()
	opts.Translate = map[string]any{"ncpus": "c"}
	return merged.ToCLI(opts)
}

func submitSolitaryJob(j *job.Job, scriptPath string, debug bool) (string, error) {
	script := fmt.Sprintf(solitaryJobTemplate, j.String())
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return "", fmt.Errorf("submitter: writing %s: %w", scriptPath, err)
	}
	return submitScript(scriptPath, prepareParams([]*job.Job{j}), debug)
}

func submitBatchJob(batch []*job.Job, scriptPath string, debug bool) ([]string, error) {
	lines := make([]string, len(batch))
	for i, j := range batch {
		lines[i] = fmt.Sprintf(batchCommandLine, fmt.Sprint(j.Index), j.String())
	}
	script := fmt.Sprintf(batchJobTemplate, strings.Join(lines, "\n"))
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return nil, fmt.Errorf("submitter: writing %s: %w", scriptPath, err)
	}

	slurmID, err := submitScript(scriptPath, prepareParams(batch), debug)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(batch))
	for i, j := range batch {
		ids[i] = fmt.Sprintf("%s.%s", slurmID, fmt.Sprint(j.Index))
	}
	return ids, nil
}

func submitScript(scriptPath string, params []string, debug bool) (string, error) {
	if debug {
		cmd := exec.Command("/bin/bash", scriptPath)
		if err := cmd.Start(); err != nil {
			return "", fmt.Errorf("submitter: debug-launching %s: %w", scriptPath, err)
		}
		go cmd.Wait()
		return "DEBUG", nil
	}

	argv := append([]string{"sbatch", "--parsable"}, params...)
	argv = append(argv, scriptPath)
	wfconfig.DebugLog("submitter: submitting using %s", strings.Join(argv, " "))

	result, err := retry.WithRetry(func() (interface{}, error) {
		out, err := exec.Command(argv[0], argv[1:]...).Output()
		return out, err
	}, retry.IsTransientSubmitError, retry.DefaultConfig)
	if err != nil {
		return "", fmt.Errorf("submitter: sbatch failed: %w", err)
	}

	stdout := strings.TrimSpace(string(result.([]byte)))
	return strings.Join(strings.Split(stdout, ";"), "/"), nil
}
