package batchbase

import (
	"io"
	"os"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/model"
)

// Stdout opens the captured stdout file under the job's log directory.
// Batch drivers whose submission template redirects stdout there (the
// common case) can use this default directly; HTCondor uses it too,
// since its jobscript sends stderr into the same stdout file.
func (b Base) Stdout(job *model.Job) (io.ReadCloser, error) {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return nil, err
	}
	paths := layout.ForJob(b.JobDir, b.OutDir, job.ID)
	return os.Open(paths.Stdout)
}

// Stderr opens the captured stderr file, same default as Stdout.
// HTCondor overrides it, since it has no separate stderr file.
func (b Base) Stderr(job *model.Job) (io.ReadCloser, error) {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return nil, err
	}
	paths := layout.ForJob(b.JobDir, b.OutDir, job.ID)
	return os.Open(paths.Stderr)
}
