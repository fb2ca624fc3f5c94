package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"golang.org/x/sync/semaphore"
)

// Pool runs blocking work on at most size goroutines at a time.
type Pool struct {
	sem     *semaphore.Weighted
	size    int64
	running atomic.Int64
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the task finishes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the task has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Submit schedules fn. The task waits for a free slot; if ctx ends first the
// future fails with ctx's error and fn never runs. A panic in fn becomes an
// UnexpectedFailure.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		f.err = tmserrors.NewDomainError(tmserrors.ErrorTypeUnexpected, "pool_closed", "worker pool is shut down")
		close(f.done)
		return f
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer close(f.done)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.err = acquireError(err)
			return
		}
		defer p.sem.Release(1)
		p.running.Add(1)
		defer p.running.Add(-1)

		defer func() {
			if r := recover(); r != nil {
				logutils.Log.WithField("panic", r).Errorf("Worker task panicked\n%s", debug.Stack())
				f.err = tmserrors.NewDomainError(tmserrors.ErrorTypeUnexpected, "panic",
					fmt.Sprintf("worker task panicked: %v", r))
			}
		}()
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Running returns how many tasks hold a slot right now.
func (p *Pool) Running() int64 {
	return p.running.Load()
}

func (p *Pool) Size() int64 {
	return p.size
}

// Shutdown refuses new work and waits for running tasks or ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (*Pool) Name() string {
	return "worker-pool"
}

func acquireError(err error) error {
	if tmserrors.IsTimeout(err) {
		return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeTimeout, "queue_timeout", "no free worker before deadline").
			WithUserMessage("error.fetch.timeout")
	}
	return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "cancelled", "cancelled while waiting for a worker")
}
