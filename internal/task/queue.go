package task

import (
	"errors"
	"sync"

	"github.com/hupe1980/segcore/internal/vector"
)

// ErrQueueClosed is returned to producers enqueuing after Close.
var ErrQueueClosed = errors.New("task queue closed")

// Queue is the bounded FIFO of boolean batch vectors between the
// producing task and the consuming cursor. Producers park when the
// queue is at capacity; the consumer parks while it is empty and at
// least one producer remains. A nil enqueue is the end-of-stream
// sentinel: it decrements the outstanding-producer count without
// occupying capacity.
//
// One mutex plus two condition variables protect the state; no lock
// is held during evaluation or copy-out.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items     []*vector.Bool
	capacity  int
	producers int
	closed    bool
}

// NewQueue creates a queue with the given soft capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// RegisterProducer adds one outstanding producer. Start calls it
// before the first batch is produced.
func (q *Queue) RegisterProducer() {
	q.mu.Lock()
	q.producers++
	q.mu.Unlock()
}

// Enqueue appends one batch, blocking while the queue is full. A nil
// vec signals end-of-stream for one producer.
func (q *Queue) Enqueue(vec *vector.Bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if vec == nil {
		q.producers--
		q.notEmpty.Broadcast()
		return nil
	}

	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, vec)
	q.notEmpty.Signal()
	return nil
}

// Dequeue removes the next batch in FIFO order. ok is false once the
// queue is empty and no producer remains, or after Close drained the
// backlog.
func (q *Queue) Dequeue() (vec *vector.Bool, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && q.producers > 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}

	vec = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.notFull.Signal()
	return vec, true
}

// Close is sticky: later enqueues fail, parked producers wake and
// observe the failure, and the consumer drains whatever was already
// queued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len returns the current backlog size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
