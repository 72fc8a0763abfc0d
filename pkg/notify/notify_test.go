package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/notify"
)

func TestConsoleNotifyNeverErrors(t *testing.T) {
	c := notify.Console{}
	require.Equal(t, "console", c.Name())

	err := c.Notify(context.Background(), notify.Event{
		Jobs:     []*model.Job{{ID: 1}, {ID: 2}},
		TimedOut: true,
		Err:      errors.New("deadline exceeded"),
	})
	require.NoError(t, err)
}

func TestDefaultRegistryBuildsConsole(t *testing.T) {
	reg := notify.DefaultRegistry()
	ctor, ok := reg["console"]
	require.True(t, ok)

	n, err := ctor(nil)
	require.NoError(t, err)
	require.Equal(t, "console", n.Name())
}
