package notify

import (
	"context"

	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/model"
)

// Event is what a Notifier is told about: a wait that ended, either
// because every job went terminal or because the deadline elapsed.
type Event struct {
	Jobs     []*model.Job
	TimedOut bool
	Err      error
}

// Notifier is the external collaborator the session calls on wait
// completion/timeout. Concrete chat/email dispatch is out of scope;
// this is the seam a future implementation plugs into.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// Console is a Notifier that logs the event via pkg/log rather than
// dispatching anywhere external — the notifier the CLI installs, the
// session's default when Options.Notifier is nil, and a reasonable
// stand-in in tests.
type Console struct{}

func (Console) Name() string { return "console" }

func (Console) Notify(ctx context.Context, event Event) error {
	l := log.WithComponent("notify").Info()
	if event.TimedOut {
		l = log.WithComponent("notify").Warn()
	}
	l = l.Int("job_count", len(event.Jobs)).Bool("timed_out", event.TimedOut)
	if event.Err != nil {
		l = l.Err(event.Err)
	}
	l.Msg("wait completed")
	return nil
}

// Registry resolves NotifierConfig entries (by name) to a Notifier.
// Only "console" is built in; unknown names are a configuration
// error rather than a silent no-op.
type Registry map[string]func(extra map[string]any) (Notifier, error)

// DefaultRegistry returns the built-in set of constructible notifiers.
func DefaultRegistry() Registry {
	return Registry{
		"console": func(extra map[string]any) (Notifier, error) {
			return Console{}, nil
		},
	}
}
