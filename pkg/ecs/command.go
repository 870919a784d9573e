package ecs

import "sync"

// commandKind discriminates the deferred structural commands.
type commandKind uint8

const (
	cmdDespawn commandKind = iota
	cmdAttach
	cmdDetach
)

func (k commandKind) String() string {
	switch k {
	case cmdDespawn:
		return "despawn"
	case cmdAttach:
		return "attach"
	case cmdDetach:
		return "detach"
	default:
		return "unknown"
	}
}

// structuralCommand is one buffered mutation of the world's shape: despawning an entity
// or attaching/detaching a component. Commands issued mid-wave are queued here instead of
// applied, so no system ever observes an entity or component disappearing under it.
type structuralCommand struct {
	kind   commandKind
	entity EntityID
	arena  abstractArena // nil for despawn
	value  Component     // attach only
}

// commandQueue buffers structural commands issued during a scheduling wave. Systems run
// on multiple workers, so enqueueing is locked; the queue preserves issue order, which is
// also the order commands are applied in at the wave boundary.
type commandQueue struct {
	mu      sync.Mutex
	pending []structuralCommand
}

func (q *commandQueue) enqueue(cmd structuralCommand) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()
}

// drain removes and returns all pending commands in issue order.
func (q *commandQueue) drain() []structuralCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.pending
	q.pending = nil
	return drained
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
