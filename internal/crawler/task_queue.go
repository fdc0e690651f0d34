package crawler

import (
	"context"
	"sync"
)

type taskKind int

const (
	visitTask taskKind = iota
	inspectTask
)

func (k taskKind) String() string {
	if k == visitTask {
		return "visit"
	}
	return "inspect"
}

// task is one unit of crawl work. For a visit, url is the page to fetch.
// For an inspect, url is the referrer page and links are the links to probe.
type task struct {
	kind  taskKind
	url   string
	links []string
}

// taskQueue is an unbounded FIFO shared by a fixed set of workers. It also
// holds the outstanding-task counter: push increments it, finish decrements
// it, and done is closed the moment it drops to zero. A task pushes its
// children before it finishes, so the counter can only reach zero once no
// work is left anywhere.
type taskQueue struct {
	mu     sync.Mutex
	items  []task
	active int
	peak   int
	run    int
	closed bool

	notify chan struct{}
	done   chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// push enqueues t. It never blocks and returns false once the queue has drained.
func (q *taskQueue) push(t task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, t)
	q.active++
	if q.active > q.peak {
		q.peak = q.active
	}
	q.mu.Unlock()

	q.signal()
	return true
}

// pop blocks until a task is available, the queue drains, or ctx ends
func (q *taskQueue) pop(ctx context.Context) (task, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			t := q.items[0]
			q.items[0] = task{}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return t, true
		}
		if q.closed {
			q.mu.Unlock()
			return task{}, false
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			return task{}, false
		}
	}
}

// finish marks one popped task as complete
func (q *taskQueue) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active--
	q.run++
	if q.active == 0 && !q.closed {
		q.closed = true
		close(q.done)
	}
}

// counts returns the active, peak and completed task counts
func (q *taskQueue) counts() (active, peak, run int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active, q.peak, q.run
}

func (q *taskQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
