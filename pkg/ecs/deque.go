package ecs

import "sync"

// task is one system execution scheduled onto the worker pool.
type task struct {
	run func()
}

// taskDeque is one worker's double-ended task queue. The owning worker pushes and pops
// at the bottom (LIFO, keeping recently-pushed work hot in its cache); idle workers
// steal from the top (FIFO), so the two ends rarely contend on the same task. Each deque
// has its own lock; there is no queue-wide lock shared by all workers.
type taskDeque struct {
	mu    sync.Mutex
	tasks []*task
}

// push adds a task to the bottom of the deque.
func (d *taskDeque) push(t *task) {
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.mu.Unlock()
}

// pop removes and returns the most recently pushed task. Called only by the owner.
func (d *taskDeque) pop() (*task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.tasks)
	if n == 0 {
		return nil, false
	}
	t := d.tasks[n-1]
	d.tasks[n-1] = nil
	d.tasks = d.tasks[:n-1]
	return t, true
}

// steal removes and returns the oldest task. Called by other workers when their own
// deque is empty.
func (d *taskDeque) steal() (*task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.tasks) == 0 {
		return nil, false
	}
	t := d.tasks[0]
	d.tasks[0] = nil
	d.tasks = d.tasks[1:]
	return t, true
}

// size returns the current number of queued tasks.
func (d *taskDeque) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}
