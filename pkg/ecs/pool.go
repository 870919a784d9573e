package ecs

import (
	"sync"

	"github.com/charcoal-engine/charcoal/pkg/assert"
)

// workerPool is a fixed pool of OS-threads-backed goroutines sharing a set of
// work-stealing deques for the lifetime of the world. Work arrives in discrete waves:
// dispatch distributes one batch of tasks across the deques, wakes every worker, and
// blocks until the whole batch has run. Workers drain their own deque bottom-first and
// steal from the top of their siblings' deques when empty.
type workerPool struct {
	size   int
	deques []*taskDeque
	wake   []chan struct{} // one wake signal per worker per wave
	wg     sync.WaitGroup  // counts in-flight tasks of the current wave
	done   chan struct{}   // closed on shutdown
	closed sync.Once
}

// newWorkerPool starts size workers. Panics if size < 1; the caller resolves the
// default from config before getting here.
func newWorkerPool(size int) *workerPool {
	assert.That(size >= 1, "worker pool size must be at least 1, got %d", size)

	p := &workerPool{
		size:   size,
		deques: make([]*taskDeque, size),
		wake:   make([]chan struct{}, size),
		done:   make(chan struct{}),
	}
	for i := range p.deques {
		p.deques[i] = &taskDeque{}
		// Buffered so dispatch never blocks on a worker that is already awake.
		p.wake[i] = make(chan struct{}, 1)
	}

	for i := range p.size {
		go p.worker(i)
	}
	return p
}

// dispatch runs one wave: all tasks are queued before any worker wakes, so every task is
// visible to the steal scan of every worker. Blocks until the last task of the wave has
// finished. Tasks must not call dispatch.
func (p *workerPool) dispatch(tasks []*task) {
	if len(tasks) == 0 {
		return
	}

	p.wg.Add(len(tasks))
	for i, t := range tasks {
		p.deques[i%p.size].push(t)
	}

	for i := range p.size {
		select {
		case p.wake[i] <- struct{}{}:
		default: // worker already has a pending wake
		}
	}

	p.wg.Wait()
}

// close shuts the workers down. Safe to call more than once; must not race a dispatch.
func (p *workerPool) close() {
	p.closed.Do(func() {
		close(p.done)
	})
}

// worker is the body of worker i: sleep until woken, then run tasks until neither its
// own deque nor any sibling's has work left.
func (p *workerPool) worker(i int) {
	own := p.deques[i]
	for {
		select {
		case <-p.done:
			return
		case <-p.wake[i]:
		}

		for {
			t, ok := own.pop()
			if !ok {
				t, ok = p.stealFor(i)
			}
			if !ok {
				break
			}
			t.run()
			p.wg.Done()
		}
	}
}

// stealFor scans the other workers' deques once, oldest-task-first, starting after i so
// the load spreads instead of everyone hammering worker 0.
func (p *workerPool) stealFor(i int) (*task, bool) {
	for off := 1; off < p.size; off++ {
		victim := p.deques[(i+off)%p.size]
		if t, ok := victim.steal(); ok {
			return t, true
		}
	}
	return nil, false
}
