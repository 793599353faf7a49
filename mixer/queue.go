package mixer

import (
	"container/list"
	"sync"

	"github.com/coinfold/mixer/core"
)

// taskQueue is the shared unbounded FIFO between the submission path and
// every task re-enqueueing itself (producers) and the single scheduling loop
// (consumer). Take blocks cooperatively while the queue is empty.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *list.List
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends the task to the back of the queue so long-running tasks
// interleave with other requests instead of monopolizing the scheduler.
func (q *taskQueue) Push(t *core.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	t.State = core.TaskWaiting
	q.items.PushBack(t)
	q.cond.Signal()
}

// Take removes and returns the front task, blocking until one is available.
// It returns false once the queue has been closed and drained.
func (q *taskQueue) Take() (*core.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return nil, false
	}
	front := q.items.Remove(q.items.Front())
	return front.(*core.Task), true
}

func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
