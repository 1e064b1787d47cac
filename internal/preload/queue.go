package preload

import "sync"

// pathQueue is an unbounded multi-producer multi-consumer FIFO of paths.
// Pop blocks until an item arrives or the queue is closed.
type pathQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []string
	closed bool
}

func newPathQueue() *pathQueue {
	q := &pathQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a path. Returns false if the queue is closed.
func (q *pathQueue) Push(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, path)
	q.cond.Signal()
	return true
}

// Pop removes and returns the oldest path, blocking while the queue is empty.
// Returns false once the queue is closed and drained of nothing (pending items
// are discarded on close: shutdown cancels queued-but-unstarted work).
func (q *pathQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return "", false
	}
	path := q.items[0]
	q.items = q.items[1:]
	return path, true
}

// Close wakes all blocked consumers and discards queued items.
func (q *pathQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the number of queued paths.
func (q *pathQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
