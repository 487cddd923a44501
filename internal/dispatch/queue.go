// Package dispatch provides a serial task queue that stands in for the main
// thread: notification handlers, session callbacks and state transitions run
// on it one at a time, in submission order.
package dispatch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/tonebarrier/internal/errors"
	"github.com/tphakala/tonebarrier/internal/logger"
)

// DefaultBufferSize is the task buffer used when NewQueue gets a non-positive size
const DefaultBufferSize = 64

// ErrQueueClosed is returned when a task is submitted after Close.
var ErrQueueClosed = errors.NewStd("dispatch queue closed")

// QueueStats holds task counters
type QueueStats struct {
	Submitted uint64
	Executed  uint64
	Panics    uint64
}

// Queue runs submitted tasks sequentially on a single goroutine.
type Queue struct {
	name  string
	tasks chan func()

	mu     sync.RWMutex // guards sends against close
	closed bool
	done   chan struct{}

	submitted atomic.Uint64
	executed  atomic.Uint64
	panics    atomic.Uint64

	log logger.Logger
}

// NewQueue creates a queue and starts its worker goroutine.
func NewQueue(name string, bufferSize int) *Queue {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	q := &Queue{
		name:  name,
		tasks: make(chan func(), bufferSize),
		done:  make(chan struct{}),
		log:   logger.Global().Module("dispatch").With(logger.String("queue", name)),
	}
	go q.worker()
	return q
}

func (q *Queue) worker() {
	defer close(q.done)
	q.log.Debug("queue worker started")

	for task := range q.tasks {
		q.run(task)
	}
	q.log.Debug("queue worker stopped")
}

// run executes one task, keeping the worker alive if it panics
func (q *Queue) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.panics.Add(1)
			q.log.Error("task panicked", logger.String("panic", fmt.Sprint(r)))
		}
		q.executed.Add(1)
	}()
	task()
}

// Async enqueues fn and returns immediately. It returns false if the queue is closed.
// It blocks only while the task buffer is full.
func (q *Queue) Async(fn func()) bool {
	if fn == nil {
		return false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	q.submitted.Add(1)
	q.tasks <- fn
	return true
}

// Sync enqueues fn and waits for it to finish. It must not be called from a
// task running on the same queue.
func (q *Queue) Sync(fn func()) error {
	finished := make(chan struct{})
	if !q.Async(func() {
		defer close(finished)
		fn()
	}) {
		return ErrQueueClosed
	}
	<-finished
	return nil
}

// Close stops accepting tasks, drains the ones already queued and waits up to
// timeout for the worker to exit. Calling Close more than once is safe.
func (q *Queue) Close(timeout time.Duration) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-time.After(timeout):
		return errors.Newf("dispatch queue %s did not drain within %s", q.name, timeout).
			Component("dispatch").
			Category(errors.CategoryState).
			Context("operation", "close_queue").
			Build()
	}
}

// Stats returns current queue counters
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Submitted: q.submitted.Load(),
		Executed:  q.executed.Load(),
		Panics:    q.panics.Load(),
	}
}

// Name returns the queue name
func (q *Queue) Name() string {
	return q.name
}
