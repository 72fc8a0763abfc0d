package grid

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/kong-job/kong/pkg/layout"
)

// descriptorTemplate is an audit-only record of what this job would
// have been submitted as, written for operator reference — nothing
// execs it, since Panda submission happens externally via
// pathena/prun before the task id ever reaches Kong.
const descriptorTemplate = `# kong grid task descriptor (informational only)
job_id: {{.JobID}}
task_id: {{.TaskID}}
command: {{.Command}}
cores: {{.Cores}}
log_dir: {{.LogDir}}
output_dir: {{.OutputDir}}
`

var descriptorTmpl = template.Must(template.New("grid.descriptor").Parse(descriptorTemplate))

type descriptorVars struct {
	JobID             int64
	TaskID            string
	Command           string
	Cores             int
	LogDir, OutputDir string
}

// WriteDescriptor renders the audit descriptor into paths.BatchFile.
func WriteDescriptor(paths layout.Paths, jobID int64, taskID, command string, cores int) error {
	vars := descriptorVars{
		JobID:     jobID,
		TaskID:    taskID,
		Command:   command,
		Cores:     cores,
		LogDir:    paths.LogDir,
		OutputDir: paths.OutputDir,
	}
	var buf bytes.Buffer
	if err := descriptorTmpl.Execute(&buf, vars); err != nil {
		return fmt.Errorf("grid: rendering task descriptor: %w", err)
	}
	return os.WriteFile(paths.BatchFile, buf.Bytes(), 0o644)
}
