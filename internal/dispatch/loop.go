// Package dispatch provides the single-consumer loop that owns all tab and
// embedder state. Other goroutines hand work to it instead of touching that
// state directly.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned once the loop has stopped accepting work.
var ErrClosed = errors.New("dispatch: loop closed")

// DefaultQueueSize bounds the number of pending tasks.
const DefaultQueueSize = 256

// Poster is the part of Loop that event producers depend on.
type Poster interface {
	Post(fn func()) bool
	TryPost(fn func()) bool
}

// Loop runs queued functions one at a time on the goroutine that calls Run.
type Loop struct {
	queue  chan func()
	closed chan struct{}
	once   sync.Once
	logger *slog.Logger
}

var _ Poster = (*Loop)(nil)

// New creates a loop with a queue of the given size.
func New(size int, logger *slog.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:  make(chan func(), size),
		closed: make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn, waiting for room when the queue is full. It reports false
// if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.closed:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.closed:
		return false
	}
}

// TryPost queues fn only if there is room right now.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case <-l.closed:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	default:
		return false
	}
}

// Do runs fn on the loop and returns its error. It must not be called from
// the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	select {
	case l.queue <- task:
	case <-l.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.closed:
		// The task may still have run during shutdown drain.
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued tasks until ctx is cancelled or Close is called. Tasks
// already queued at that point are drained first.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
		case <-ctx.Done():
			l.Close()
			l.drain()
			return ctx.Err()
		case <-l.closed:
			l.drain()
			return nil
		}
	}
}

// RunPending executes every task queued so far and returns how many ran.
// Tests use it to step the loop deterministically.
func (l *Loop) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
			n++
		default:
			return n
		}
	}
}

// Close stops accepting new work. Run returns after draining.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.closed) })
}

// Closed is closed once Close has been called.
func (l *Loop) Closed() <-chan struct{} {
	return l.closed
}

func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
		default:
			return
		}
	}
}

func (l *Loop) run(fn func()) {
	// Recover from panics to keep the loop alive
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch task panic recovered", "error", fmt.Sprint(r))
		}
	}()
	fn()
}
