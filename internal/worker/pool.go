// Package worker provides a fixed-size pool for the long-running,
// player-affecting operations (payments, ledger recomputes, lottery
// resolution) that must not hold up request handlers. Submissions return a
// handle instead of being fire-and-forget, and the pool drains cleanly on
// shutdown.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Submit after the pool has been shut down.
var ErrClosed = errors.New("worker pool is closed")

// ErrQueueFull is returned when the submission queue has no room. Callers
// treat it as backpressure and surface a retry to the client.
var ErrQueueFull = errors.New("worker queue is full")

// Task is a unit of background work. The context is cancelled when the pool
// shuts down.
type Task func(ctx context.Context) error

// Handle tracks a submitted task.
type Handle struct {
	label string
	done  chan struct{}
	err   error
}

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Err returns the task error. Only valid after Done is closed.
func (h *Handle) Err() error { return h.err }

type submission struct {
	task   Task
	handle *Handle
}

// Pool runs tasks on a fixed set of goroutines.
type Pool struct {
	tasks   chan submission
	log     *logrus.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts size workers with a queue of depth queue.
func NewPool(size, queue int, log *logrus.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:  make(chan submission, queue),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			defer p.workers.Done()
			for sub := range p.tasks {
				p.run(sub)
			}
		}()
	}
	return p
}

func (p *Pool) run(sub submission) {
	defer close(sub.handle.done)
	defer func() {
		if rec := recover(); rec != nil {
			sub.handle.err = fmt.Errorf("task %s panicked: %v", sub.handle.label, rec)
			p.log.Errorf("background task %s panicked: %v", sub.handle.label, rec)
		}
	}()
	if err := sub.task(p.ctx); err != nil {
		sub.handle.err = err
		p.log.Errorf("background task %s failed: %v", sub.handle.label, err)
	}
}

// Submit queues a task and returns its handle. Fails fast with ErrQueueFull
// rather than blocking a request handler on a saturated queue.
func (p *Pool) Submit(label string, task Task) (*Handle, error) {
	h := &Handle{label: label, done: make(chan struct{})}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	select {
	case p.tasks <- submission{task: task, handle: h}:
		return h, nil
	default:
		return nil, ErrQueueFull
	}
}

// Shutdown stops accepting work, cancels task contexts and waits for
// in-flight tasks up to the given context's deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
