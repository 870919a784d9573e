package ecs

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/charcoal-engine/charcoal/pkg/assert"
)

// MaxEntityIndex is the maximum slot index the allocator will hand out.
const MaxEntityIndex = math.MaxUint32 - 1

// EntityID is a unique identifier for an entity. It pairs a slot index with a generation
// counter so that identifiers left over from a destroyed entity can be detected as stale
// even after the slot is reused. Two EntityIDs are equal only if both fields match.
type EntityID struct {
	index      uint32
	generation uint32
}

// Index returns the allocator slot index of the entity.
func (id EntityID) Index() uint32 {
	return id.index
}

// Generation returns the generation counter of the entity.
func (id EntityID) Generation() uint32 {
	return id.generation
}

// String renders the identifier for logging and debugging.
func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.index, id.generation)
}

// entityIDJSON is the wire form of an EntityID. The fields are unexported on EntityID to
// keep the identifier opaque, so snapshots go through this struct.
type entityIDJSON struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// MarshalJSON implements json.Marshaler.
func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityIDJSON{Index: id.index, Generation: id.generation})
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	var wire entityIDJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return eris.Wrap(err, "failed to unmarshal entity id")
	}
	id.index = wire.Index
	id.generation = wire.Generation
	return nil
}

// slot is the allocator's per-index bookkeeping. An EntityID is valid iff the slot at its
// index is alive and carries the same generation.
type slot struct {
	alive      bool
	generation uint32
}

// entityAllocator issues and reclaims entity identifiers. Destroyed slots are recycled
// lowest-index-first so entity indices stay dense. Generation counters are allowed to
// wrap; a collision after 2^32 reuses of a single slot is an accepted, unmitigated risk.
//
// Systems may spawn entities mid-wave from multiple worker threads, so all methods are
// safe for concurrent use.
type entityAllocator struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32 // dead slot indices, kept sorted ascending
}

func newEntityAllocator() entityAllocator {
	return entityAllocator{
		slots: make([]slot, 0),
		free:  make([]uint32, 0),
	}
}

// create allocates a free slot, reusing the lowest-index dead slot if any exist and
// appending a fresh slot otherwise. The returned id carries the slot's current generation.
func (a *entityAllocator) create() EntityID {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index uint32
	if len(a.free) > 0 {
		index = a.free[0]
		a.free = a.free[1:]
		assert.That(!a.slots[index].alive, "free list contained a live slot")
	} else {
		assert.That(len(a.slots) <= MaxEntityIndex, "max number of entities exceeded")
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}

	a.slots[index].alive = true
	return EntityID{index: index, generation: a.slots[index].generation}
}

// destroy marks the entity's slot dead and bumps its generation so outstanding copies of
// the id become stale. Returns ErrInvalidEntity if the id fails the validity invariant.
func (a *entityAllocator) destroy(id EntityID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.validLocked(id) {
		return eris.Wrapf(ErrInvalidEntity, "destroy %s", id)
	}

	a.slots[id.index].alive = false
	a.slots[id.index].generation++

	at, _ := slices.BinarySearch(a.free, id.index)
	a.free = slices.Insert(a.free, at, id.index)
	return nil
}

// isAlive reports whether the id refers to a currently live entity. It never fails;
// stale and never-allocated ids simply report false.
func (a *entityAllocator) isAlive(id EntityID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.validLocked(id)
}

// count returns the number of live entities.
func (a *entityAllocator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots) - len(a.free)
}

func (a *entityAllocator) validLocked(id EntityID) bool {
	if id.index >= uint32(len(a.slots)) {
		return false
	}
	s := a.slots[id.index]
	return s.alive && s.generation == id.generation
}
