package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Dispatcher decouples emitting from delivery. Emit only enqueues; Run
// drains the queue into the downstream Emitter on its own goroutine, so a
// slow listener never holds up the caller.
type Dispatcher struct {
	next  Emitter
	queue *changeQueue
}

// NewDispatcher creates a Dispatcher delivering to next.
func NewDispatcher(next Emitter) *Dispatcher {
	return &Dispatcher{next: next, queue: newChangeQueue()}
}

// Emit enqueues c. Returns ErrDispatcherClosed after Close.
func (d *Dispatcher) Emit(_ context.Context, c Change) error {
	if !d.queue.Enqueue(c) {
		return ErrDispatcherClosed
	}
	return nil
}

// Run delivers queued changes until ctx is canceled or Close is called and
// the queue has drained. Delivery errors are logged and dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		for {
			c, ok := d.queue.TryDequeue()
			if !ok {
				break
			}
			if err := d.next.Emit(ctx, c); err != nil {
				slog.Warn("change delivery failed",
					"change_id", c.ChangeID,
					"user", c.UserID,
					"type", c.Type,
					"error", err,
				)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, open := <-d.queue.Wait():
			if !open && d.queue.Len() == 0 {
				return nil
			}
		}
	}
}

// Close stops accepting changes. Run returns once the queue is drained.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// Pending returns the number of undelivered changes.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// ErrDispatcherClosed is returned by Emit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// changeQueue is a thread-safe unbounded FIFO.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type changeQueue struct {
	mu      sync.Mutex
	changes []Change
	closed  bool
	signal  chan struct{} // buffered, size 1
}

func newChangeQueue() *changeQueue {
	return &changeQueue{
		changes: make([]Change, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds c to the back of the queue. Returns false if closed.
func (q *changeQueue) Enqueue(c Change) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.changes = append(q.changes, c)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front change without blocking.
func (q *changeQueue) TryDequeue() (Change, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.changes) == 0 {
		return Change{}, false
	}

	c := q.changes[0]
	q.changes[0] = Change{}
	if len(q.changes) == 1 {
		q.changes = q.changes[:0]
	} else {
		q.changes = q.changes[1:]
	}
	return c, true
}

// Wait returns a channel that signals when changes may be available. It is
// closed by Close.
func (q *changeQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *changeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.changes)
}

// Close signals that no more changes will be enqueued.
func (q *changeQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
