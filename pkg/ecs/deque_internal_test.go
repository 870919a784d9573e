package ecs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskDeque_OwnerPopsLIFO(t *testing.T) {
	t.Parallel()
	d := &taskDeque{}

	var order []int
	for i := range 3 {
		d.push(&task{run: func() { order = append(order, i) }})
	}
	assert.Equal(t, 3, d.size())

	for {
		task, ok := d.pop()
		if !ok {
			break
		}
		task.run()
	}
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, d.size())

	_, ok := d.pop()
	assert.False(t, ok)
}

func TestTaskDeque_ThiefStealsFIFO(t *testing.T) {
	t.Parallel()
	d := &taskDeque{}

	var order []int
	for i := range 3 {
		d.push(&task{run: func() { order = append(order, i) }})
	}

	for {
		task, ok := d.steal()
		if !ok {
			break
		}
		task.run()
	}
	assert.Equal(t, []int{0, 1, 2}, order)

	_, ok := d.steal()
	assert.False(t, ok)
}

func TestTaskDeque_ConcurrentStealersClaimEachTaskOnce(t *testing.T) {
	t.Parallel()
	d := &taskDeque{}

	const taskCount = 1024
	var runs [taskCount]atomic.Int32
	for i := range taskCount {
		d.push(&task{run: func() { runs[i].Add(1) }})
	}

	var wg sync.WaitGroup
	claim := func(next func() (*task, bool)) {
		defer wg.Done()
		for {
			task, ok := next()
			if !ok {
				return
			}
			task.run()
		}
	}

	wg.Add(5)
	go claim(d.pop) // the owner
	for range 4 {
		go claim(d.steal)
	}
	wg.Wait()

	for i := range taskCount {
		assert.Equal(t, int32(1), runs[i].Load(), "task %d", i)
	}
}

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	t.Parallel()
	p := newWorkerPool(4)
	defer p.close()

	var ran atomic.Int64
	tasks := make([]*task, 100)
	for i := range tasks {
		tasks[i] = &task{run: func() { ran.Add(1) }}
	}

	p.dispatch(tasks)
	assert.Equal(t, int64(100), ran.Load())
}

func TestWorkerPool_DispatchBlocksUntilWaveDone(t *testing.T) {
	t.Parallel()
	p := newWorkerPool(2)
	defer p.close()

	var slow atomic.Bool
	p.dispatch([]*task{{run: func() {
		time.Sleep(20 * time.Millisecond)
		slow.Store(true)
	}}})
	assert.True(t, slow.Load(), "dispatch returned before the wave finished")
}

func TestWorkerPool_SequentialWaves(t *testing.T) {
	t.Parallel()
	p := newWorkerPool(3)
	defer p.close()

	var total atomic.Int64
	for range 10 {
		tasks := make([]*task, 7)
		for i := range tasks {
			tasks[i] = &task{run: func() { total.Add(1) }}
		}
		p.dispatch(tasks)
	}
	assert.Equal(t, int64(70), total.Load())
}

func TestWorkerPool_IdleWorkersSteal(t *testing.T) {
	t.Parallel()
	// More tasks than workers, with one deliberately slow task: the remaining workers
	// must steal the rest instead of waiting behind it.
	p := newWorkerPool(4)
	defer p.close()

	var ran atomic.Int64
	tasks := make([]*task, 32)
	tasks[0] = &task{run: func() {
		time.Sleep(30 * time.Millisecond)
		ran.Add(1)
	}}
	for i := 1; i < len(tasks); i++ {
		tasks[i] = &task{run: func() { ran.Add(1) }}
	}

	start := time.Now()
	p.dispatch(tasks)
	elapsed := time.Since(start)

	assert.Equal(t, int64(32), ran.Load())
	// The fast tasks ride alongside the slow one, so the wave takes roughly one
	// slow-task duration, not several.
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestWorkerPool_EmptyDispatch(t *testing.T) {
	t.Parallel()
	p := newWorkerPool(1)
	defer p.close()

	p.dispatch(nil)
	p.dispatch([]*task{})
}

func TestWorkerPool_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	p := newWorkerPool(2)

	var ran atomic.Int64
	p.dispatch([]*task{{run: func() { ran.Add(1) }}})
	require.Equal(t, int64(1), ran.Load())

	p.close()
	p.close()
}
