package driver

import "context"

// Executor runs a batch of independent units of work, bounding how
// much of it proceeds concurrently. BulkCleanup takes one as a
// parameter so callers can trade off parallelism against backend load
// without a driver needing its own pool; BulkRemove takes none and
// picks its executor internally.
type Executor interface {
	// Run invokes fn once per index in [0, n). Run returns once every
	// fn has returned; the first non-nil error is returned, but every
	// fn still runs to completion (errors from other indices are
	// dropped, matching best-effort cleanup semantics).
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// SerialExecutor runs work items one at a time on the calling
// goroutine. It is the default in tests, where deterministic ordering
// matters more than throughput.
type SerialExecutor struct{}

func (SerialExecutor) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var first error
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			if first == nil {
				first = err
			}
			break
		}
		if err := fn(ctx, i); err != nil && first == nil {
			first = err
		}
	}
	return first
}
