package stream

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO between the watch side and the consumer. Pushes
// never block; the consumer drains in order and sees the terminal error only
// after every queued chunk.
type queue struct {
	mu     sync.Mutex
	items  [][]byte
	err    error
	closed bool
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(chunk []byte) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, chunk)
	q.mu.Unlock()
	q.signal()
}

// close marks the end of the stream. The first error wins.
func (q *queue) close(err error) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.err = err
	}
	q.mu.Unlock()
	q.signal()
}

func (q *queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) pop(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			chunk := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			more := len(q.items) > 0 || q.closed
			q.mu.Unlock()
			if more {
				// Leave a token for the next caller.
				q.signal()
			}
			return chunk, nil
		}
		if q.closed {
			err := q.err
			q.mu.Unlock()
			q.signal()
			return nil, err
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
