// Package worker runs background analysis tasks with bounded concurrency.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/logger"
)

var (
	// ErrClosed is returned by Dispatch after Shutdown has begun.
	ErrClosed = errors.New("worker pool is shut down")
	// ErrDuplicate is returned when a task with the same key is still running.
	ErrDuplicate = errors.New("task already in flight")
)

const defaultConcurrency = 4

// Pool is a keyed fire-and-forget task runner. At most one task per key is in
// flight and at most Concurrency tasks execute at once; the rest wait for a
// slot in their own goroutine so Dispatch never blocks.
type Pool struct {
	log    logger.Logger
	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New creates a pool. concurrency <= 0 uses the default of 4.
func New(concurrency int, log logger.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		log:      log,
		sem:      make(chan struct{}, concurrency),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
}

// Dispatch schedules task under key and returns immediately.
func (p *Pool) Dispatch(key string, task scans.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if _, busy := p.inflight[key]; busy {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	p.inflight[key] = struct{}{}
	p.wg.Add(1)

	go p.run(key, task)
	return nil
}

func (p *Pool) run(key string, task scans.Task) {
	defer p.wg.Done()
	defer p.release(key)

	select {
	case p.sem <- struct{}{}:
	case <-p.ctx.Done():
		p.log.Warn("task dropped before start", logger.String("key", key))
		return
	}
	defer func() { <-p.sem }()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked",
				logger.String("key", key),
				logger.Any("panic", r),
			)
		}
	}()

	task(p.ctx)
}

func (p *Pool) release(key string) {
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}

// InFlight returns the number of tasks queued or running.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// InFlightKeys returns the keys of tasks queued or running, sorted.
func (p *Pool) InFlightKeys() []string {
	p.mu.Lock()
	keys := make([]string, 0, len(p.inflight))
	for k := range p.inflight {
		keys = append(keys, k)
	}
	p.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Wait blocks until every dispatched task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown stops accepting work and waits for running tasks until ctx is
// done, at which point the tasks' context is cancelled.
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
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
