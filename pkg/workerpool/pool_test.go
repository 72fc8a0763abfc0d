package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/workerpool"
)

func TestPoolRunsEveryIndex(t *testing.T) {
	p := workerpool.New(4)
	var count int64
	err := p.Run(context.Background(), 100, func(ctx context.Context, i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 100, count)
}

func TestPoolCollectsFirstErrorButRunsAll(t *testing.T) {
	p := workerpool.New(8)
	var count int64
	errBoom := errors.New("boom")
	err := p.Run(context.Background(), 50, func(ctx context.Context, i int) error {
		atomic.AddInt64(&count, 1)
		if i == 10 {
			return errBoom
		}
		return nil
	})
	require.ErrorIs(t, err, errBoom)
	require.EqualValues(t, 50, count)
}

func TestPoolClampsWorkersToWorkload(t *testing.T) {
	p := workerpool.New(1000)
	err := p.Run(context.Background(), 3, func(ctx context.Context, i int) error { return nil })
	require.NoError(t, err)
}

func TestPoolZeroWork(t *testing.T) {
	p := workerpool.New(4)
	called := false
	err := p.Run(context.Background(), 0, func(ctx context.Context, i int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.False(t, called)
}
