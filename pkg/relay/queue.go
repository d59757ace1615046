// ABOUTME: Buffer exchange queue between the audio and network contexts
// ABOUTME: Mutex-guarded FIFO with swap-based draining and a wake signal
package relay

import (
	"sync"

	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
)

// Queue is an unbounded FIFO of buffers. Push and Drain may be called from
// different goroutines; each holds the lock only for a slice append or swap.
type Queue struct {
	mu    sync.Mutex
	items []audio.Buffer
	wake  chan struct{}
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{
		items: make([]audio.Buffer, 0, 16),
		wake:  make(chan struct{}, 1),
	}
}

// Push appends buf and signals Wake without blocking
func (q *Queue) Push(buf audio.Buffer) {
	q.mu.Lock()
	q.items = append(q.items, buf)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Drain returns every queued buffer in push order and leaves the queue empty.
// spare becomes the queue's new backing slice; pass the slice returned by the
// previous Drain (with its elements cleared) to avoid allocating.
func (q *Queue) Drain(spare []audio.Buffer) []audio.Buffer {
	q.mu.Lock()
	out := q.items
	q.items = spare[:0]
	q.mu.Unlock()
	return out
}

// Len returns the number of queued buffers
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wake is signalled after a Push; one signal may cover several pushes
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// recycle clears buffer references so drained buffers can be collected
func recycle(bufs []audio.Buffer) []audio.Buffer {
	clear(bufs)
	return bufs[:0]
}
