package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsValue(t *testing.T) {
	p := New(2)
	f := Submit(context.Background(), p, func(context.Context) (int, error) { return 42, nil })

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmitPropagatesError(t *testing.T) {
	p := New(1)
	want := errors.New("boom")
	f := Submit(context.Background(), p, func(context.Context) (string, error) { return "", want })

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, want)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const size = 3
	p := New(size)
	var current, peak atomic.Int64
	release := make(chan struct{})

	futures := make([]*Future[struct{}], 0, 10)
	for _i := 0; _i < 10; _i++ {
		futures = append(futures, Submit(context.Background(), p, func(context.Context) (struct{}, error) {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			current.Add(-1)
			return struct{}{}, nil
		}))
	}

	assert.Eventually(t, func() bool { return p.Running() == size }, time.Second, 5*time.Millisecond)
	close(release)
	for _, f := range futures {
		_, err := f.Await(context.Background())
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int64(size))
}

func TestPanicBecomesUnexpectedFailure(t *testing.T) {
	p := New(1)
	f := Submit(context.Background(), p, func(context.Context) (int, error) { panic("kaboom") })

	_, err := f.Await(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, tmserrors.ErrUnexpected))

	// the slot is released after a panic
	f = Submit(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestQueuedTaskHonoursDeadline(t *testing.T) {
	p := New(1)
	block := make(chan struct{})
	defer close(block)
	Submit(context.Background(), p, func(context.Context) (int, error) { <-block; return 0, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	f := Submit(ctx, p, func(context.Context) (int, error) { ran.Store(true); return 0, nil })

	<-f.Done()
	_, err := f.Await(context.Background())
	assert.True(t, errors.Is(err, tmserrors.ErrTimeout))
	assert.False(t, ran.Load())
}

func TestShutdownWaitsAndRejects(t *testing.T) {
	p := New(1)
	var finished atomic.Bool
	Submit(context.Background(), p, func(context.Context) (int, error) {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return 0, nil
	})

	require.NoError(t, p.Shutdown(context.Background()))
	assert.True(t, finished.Load())

	f := Submit(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
	_, err := f.Await(context.Background())
	assert.True(t, errors.Is(err, tmserrors.ErrUnexpected))
}

func TestShutdownTimeout(t *testing.T) {
	p := New(1)
	block := make(chan struct{})
	defer close(block)
	Submit(context.Background(), p, func(context.Context) (int, error) { <-block; return 0, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
}
