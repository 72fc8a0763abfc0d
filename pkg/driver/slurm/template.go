package slurm

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/kong-job/kong/pkg/layout"
)

// Options carries the Slurm-specific submission knobs spec.md §4.1/4.4
// expect on top of the common JobSpec fields.
type Options struct {
	Account    string
	Queue      string
	Walltime   string // HH:MM:SS or Go duration; "" means the scheduler default
	ScratchDir string
}

const batchTemplate = `#!/bin/sh
#SBATCH --job-name=kong-{{.JobID}}
{{- if .Account}}
#SBATCH --account={{.Account}}
{{- end}}
{{- if .Queue}}
#SBATCH --partition={{.Queue}}
{{- end}}
{{- if .Walltime}}
#SBATCH --time={{.Walltime}}
{{- end}}
#SBATCH --cpus-per-task={{.NProc}}
{{- if .MemoryMB}}
#SBATCH --mem={{.MemoryMB}}M
{{- end}}
#SBATCH --output={{.SlurmOut}}
#SBATCH --error={{.SlurmOut}}

exec {{.JobScript}}
`

const scriptTemplate = `#!/bin/sh
set -u
export KONG_JOB_ID={{.JobID}}
export KONG_JOB_OUTPUT_DIR={{.OutputDir}}
export KONG_JOB_LOG_DIR={{.LogDir}}
export KONG_JOB_NPROC={{.NProc}}
export KONG_JOB_SCRATCHDIR={{.ScratchDir}}

mkdir -p "$KONG_JOB_SCRATCHDIR"

{{.Command}} > {{.StdoutFile}} 2> {{.StderrFile}}
echo $? > {{.ExitStatusFile}}
`

var (
	batchTmpl  = template.Must(template.New("slurm.batch").Parse(batchTemplate))
	scriptTmpl = template.Must(template.New("slurm.script").Parse(scriptTemplate))
)

type batchVars struct {
	JobID     int64
	Account   string
	Queue     string
	Walltime  string
	NProc     int
	MemoryMB  int64
	SlurmOut  string
	JobScript string
}

type scriptVars struct {
	JobID                                  int64
	Command, OutputDir, LogDir, ScratchDir string
	NProc                                  int
	StdoutFile, StderrFile, ExitStatusFile string
}

// WriteSubmission renders both the sbatch batch file and the job
// script it execs, for job id against paths, and writes them out: the
// job script executable (0755), the batch file as plain 0644.
func WriteSubmission(paths layout.Paths, jobID int64, command string, cores int, memory int64, opts Options) error {
	sv := scriptVars{
		JobID:          jobID,
		Command:        command,
		OutputDir:      paths.OutputDir,
		LogDir:         paths.LogDir,
		ScratchDir:     opts.ScratchDir,
		NProc:          cores,
		StdoutFile:     paths.Stdout,
		StderrFile:     paths.Stderr,
		ExitStatusFile: paths.ExitStatus,
	}
	var sbuf bytes.Buffer
	if err := scriptTmpl.Execute(&sbuf, sv); err != nil {
		return fmt.Errorf("slurm: rendering jobscript: %w", err)
	}
	if err := os.WriteFile(paths.JobScript, sbuf.Bytes(), 0o755); err != nil {
		return err
	}

	bv := batchVars{
		JobID:     jobID,
		Account:   opts.Account,
		Queue:     opts.Queue,
		Walltime:  opts.Walltime,
		NProc:     cores,
		MemoryMB:  memory / (1024 * 1024),
		SlurmOut:  paths.SlurmOut,
		JobScript: paths.JobScript,
	}
	var bbuf bytes.Buffer
	if err := batchTmpl.Execute(&bbuf, bv); err != nil {
		return fmt.Errorf("slurm: rendering batch file: %w", err)
	}
	return os.WriteFile(paths.BatchFile, bbuf.Bytes(), 0o644)
}
