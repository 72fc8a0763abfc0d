package htcondor

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/kong-job/kong/pkg/layout"
)

// Options carries the HTCondor-specific submission knobs.
type Options struct {
	Universe        string
	SubmitFileExtra string
	Walltime        int64 // seconds; +MaxRuntime
}

// batchfileTemplate mirrors the original driver's batchfile_tpl_str:
// log points at the single file shared by every job this driver ever
// submits, since condor_history can only read one user log.
const batchfileTemplate = `universe = {{.Universe}}
log = {{.LogFile}}
executable = {{.JobScript}}
request_cpus = {{.NProc}}
request_memory = {{.MemoryMB}}
batch_name = kong_job_{{.JobID}}
+MaxRuntime = {{.Walltime}}

{{.SubmitFileExtra}}

queue 1
`

// jobscriptTemplate mirrors jobscript_tpl_str: stdout and stderr are
// redirected into the same file, since vanilla-universe condor offers
// no independent stderr stream separate from stdout at this layer.
const jobscriptTemplate = `#!/bin/sh
export KONG_JOB_ID={{.JobID}}
export KONG_JOB_OUTPUT_DIR={{.OutputDir}}
export KONG_JOB_LOG_DIR={{.LogDir}}
export KONG_JOB_NPROC={{.NProc}}
export KONG_JOB_SCRATCHDIR=$_CONDOR_SCRATCH_DIR

mkdir -p "$KONG_JOB_SCRATCHDIR"

({{.Command}}) > {{.StdoutFile}} 2>&1
echo $? > {{.ExitStatusFile}}
`

var (
	batchTmpl  = template.Must(template.New("htcondor.batch").Parse(batchfileTemplate))
	scriptTmpl = template.Must(template.New("htcondor.script").Parse(jobscriptTemplate))
)

type batchVars struct {
	JobID           int64
	Universe        string
	LogFile         string
	JobScript       string
	NProc           int
	MemoryMB        int64
	Walltime        int64
	SubmitFileExtra string
}

type scriptVars struct {
	JobID                      int64
	Command, OutputDir, LogDir string
	NProc                      int
	StdoutFile, ExitStatusFile string
}

// WriteSubmission renders the batchfile (pointing at the shared
// sharedLogFile) and jobscript for job id, writing the jobscript
// executable (0755) and the batchfile as plain 0644.
func WriteSubmission(paths layout.Paths, sharedLogFile string, jobID int64, command string, cores int, memory int64, opts Options) error {
	sv := scriptVars{
		JobID:          jobID,
		Command:        command,
		OutputDir:      paths.OutputDir,
		LogDir:         paths.LogDir,
		NProc:          cores,
		StdoutFile:     paths.Stdout,
		ExitStatusFile: paths.ExitStatus,
	}
	var sbuf bytes.Buffer
	if err := scriptTmpl.Execute(&sbuf, sv); err != nil {
		return fmt.Errorf("htcondor: rendering jobscript: %w", err)
	}
	if err := os.WriteFile(paths.JobScript, sbuf.Bytes(), 0o755); err != nil {
		return err
	}

	bv := batchVars{
		JobID:           jobID,
		Universe:        opts.Universe,
		LogFile:         sharedLogFile,
		JobScript:       paths.JobScript,
		NProc:           cores,
		MemoryMB:        memory / (1024 * 1024),
		Walltime:        opts.Walltime,
		SubmitFileExtra: opts.SubmitFileExtra,
	}
	var bbuf bytes.Buffer
	if err := batchTmpl.Execute(&bbuf, bv); err != nil {
		return fmt.Errorf("htcondor: rendering batch file: %w", err)
	}
	return os.WriteFile(paths.BatchFile, bbuf.Bytes(), 0o644)
}
