package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"TripBot/internal/lib/sl"

	"golang.org/x/sync/semaphore"
)

const taskTimeout = 2 * time.Minute

// Pool runs background tasks with bounded parallelism. Tasks submitted after
// Stop are dropped.
type Pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	log    *slog.Logger
}

func NewPool(size int, log *slog.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
		log:    log.With(sl.Module("worker.pool")),
	}
}

// Go schedules task and returns immediately; the task waits for a free slot.
func (p *Pool) Go(name string, task func(ctx context.Context)) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("task dropped, pool stopped", slog.String("task", name))
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			p.log.Warn("task cancelled before start", slog.String("task", name))
			return
		}
		defer p.sem.Release(1)

		ctx, cancel := context.WithTimeout(p.ctx, taskTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("task panic", slog.String("task", name), slog.Any("panic", r))
			}
		}()

		t := time.Now()
		task(ctx)
		p.log.Debug("task done", slog.String("task", name), slog.Duration("took", time.Since(t)))
	}()
}

// Stop refuses new tasks and waits for running ones until ctx expires, then
// cancels them.
func (p *Pool) Stop(ctx context.Context) {
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
	case <-ctx.Done():
		p.cancel()
		<-done
	}
	p.cancel()
}
