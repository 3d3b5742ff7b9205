// Package worker runs per-file checks on a bounded goroutine pool.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware unit of work.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	wg   sync.WaitGroup
}

const releaseTimeout = 10 * time.Second

// New creates a pool of size workers. size <= 0 means GOMAXPROCS.
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p := &Pool{}
	ap, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v interface{}) {
			zap.L().Error("worker panic recovered",
				zap.Any("panic", v),
				zap.Stack("stack"),
			)
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	p.pool = ap
	return p, nil
}

// Submit queues task. If ctx is already done the task is not queued and
// ctx.Err() is returned; a task dequeued after cancellation is skipped.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		select {
		case <-ctx.Done():
			zap.L().Debug("task skipped: context cancelled", zap.Error(ctx.Err()))
			return
		default:
		}
		task(ctx)
	})
	if err != nil {
		p.wg.Done()
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Wait blocks until every submitted task has returned (or panicked).
func (p *Pool) Wait() { p.wg.Wait() }

// Release stops the pool, waiting up to a bounded timeout for running tasks.
func (p *Pool) Release() {
	if err := p.pool.ReleaseTimeout(releaseTimeout); err != nil {
		zap.L().Warn("worker pool release timeout", zap.Error(err))
	}
}

func (p *Pool) Cap() int { return p.pool.Cap() }
