package driver

import (
	"sync"

	"github.com/kong-job/kong/pkg/model"
)

// WaitIterator is the lazy sequence Wait returns: each call to Next
// blocks until the next poll round completes, yielding the current
// (freshly synced) view of every job in the set. It stops producing
// rounds once every job is terminal, once the caller's context is
// cancelled, or once the wait's timeout elapses — in the last two
// cases Err returns the reason after Next reports no more rounds.
type WaitIterator struct {
	rounds chan []*model.Job
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// NewWaitIterator constructs an iterator; the producer side (a
// BatchDriverBase poll loop or the local driver's own waitpid-based
// loop) calls emit/fail/finish as rounds complete.
func NewWaitIterator() *WaitIterator {
	return &WaitIterator{
		rounds: make(chan []*model.Job, 1),
		done:   make(chan struct{}),
	}
}

// Next blocks for the next round. ok is false once the iterator is
// finished (check Err to distinguish clean completion from failure).
func (w *WaitIterator) Next() (jobs []*model.Job, ok bool) {
	jobs, ok = <-w.rounds
	return
}

// Err returns the error that ended the wait, if any (TimeoutError or
// a context cancellation), once Next has returned ok=false.
func (w *WaitIterator) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Emit publishes one poll round. It is the producer-side half of the
// iterator, called by a driver's poll loop; it returns false if the
// consumer has already abandoned the iterator (done closed).
func (w *WaitIterator) Emit(jobs []*model.Job) bool {
	select {
	case w.rounds <- jobs:
		return true
	case <-w.done:
		return false
	}
}

// Fail ends the iterator with an error (e.g. ErrTimeout).
func (w *WaitIterator) Fail(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
	w.Finish()
}

// Done reports the channel a producer should select on alongside its
// own ticker/timeout to notice consumer abandonment.
func (w *WaitIterator) Done() <-chan struct{} {
	return w.done
}

// Finish ends the iterator cleanly (every job reached a terminal
// status).
func (w *WaitIterator) Finish() {
	w.once.Do(func() {
		close(w.rounds)
		close(w.done)
	})
}

// Drain consumes every remaining round, returning the last one seen
// (or nil if none) and the iterator's terminal error. Convenience for
// callers that only want the final state, matching the blocking
// `wait(...)` entry point in the spec (as opposed to progress-reporting
// callers that consume rounds themselves).
func Drain(it *WaitIterator) ([]*model.Job, error) {
	var last []*model.Job
	for {
		jobs, ok := it.Next()
		if !ok {
			return last, it.Err()
		}
		last = jobs
	}
}
