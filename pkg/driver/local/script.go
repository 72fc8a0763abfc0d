package local

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/kong-job/kong/pkg/layout"
)

// scriptTemplate is the jobscript.sh payload every local job runs
// under. It exports the KONG_* contract, redirects stdout/stderr into
// the job's log directory, traps termination signals to record a
// signal-induced exit code, and finally writes the payload's real
// exit code to exit_status.txt.
const scriptTemplate = `#!/bin/sh
set -u
export KONG_JOB_ID={{.JobID}}
export KONG_JOB_OUTPUT_DIR={{.OutputDir}}
export KONG_JOB_LOG_DIR={{.LogDir}}
export KONG_JOB_NPROC={{.NProc}}
export KONG_JOB_SCRATCHDIR={{.ScratchDir}}

on_signal() {
  sig=$1
  echo "$((128 + sig))" > {{.ExitStatusFile}}
  exit "$((128 + sig))"
}
trap 'on_signal 15' TERM
trap 'on_signal 2' INT

mkdir -p "$KONG_JOB_SCRATCHDIR"

{{.Command}} > {{.StdoutFile}} 2> {{.StderrFile}}
echo $? > {{.ExitStatusFile}}
`

type scriptVars struct {
	JobID          int64
	Command        string
	OutputDir      string
	LogDir         string
	ScratchDir     string
	NProc          int
	StdoutFile     string
	StderrFile     string
	ExitStatusFile string
}

var scriptTmpl = template.Must(template.New("jobscript").Parse(scriptTemplate))

// WriteScript renders jobscript.sh for job and writes it, executable,
// into paths.JobScript.
func WriteScript(paths layout.Paths, jobID int64, command string, cores int, scratchDir string) error {
	vars := scriptVars{
		JobID:          jobID,
		Command:        command,
		OutputDir:      paths.OutputDir,
		LogDir:         paths.LogDir,
		ScratchDir:     scratchDir,
		NProc:          cores,
		StdoutFile:     paths.Stdout,
		StderrFile:     paths.Stderr,
		ExitStatusFile: paths.ExitStatus,
	}

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, vars); err != nil {
		return fmt.Errorf("local: rendering jobscript: %w", err)
	}
	return os.WriteFile(paths.JobScript, buf.Bytes(), 0o755)
}
