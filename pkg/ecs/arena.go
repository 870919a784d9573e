package ecs

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/charcoal-engine/charcoal/pkg/assert"
)

// arenaFactory is a function that creates a new abstractArena instance.
type arenaFactory func() abstractArena

// abstractArena is the internal type-erased interface over a generic arena. The world
// holds one abstract handle per registered component type and downcasts to the concrete
// arena[T] at access time.
type abstractArena interface {
	name() string
	len() int
	has(id EntityID) bool

	// insertAbstract boxes the component value. Prefer arena[T].insert when the concrete
	// type is known; this path exists for deferred attach commands.
	insertAbstract(id EntityID, value Component) error
	// dropEntity discards the entity's component, if present. Used when an entity is
	// destroyed and when a deferred detach commits.
	dropEntity(id EntityID) bool

	snapshot() (arenaSnapshot, error)
	restore(arenaSnapshot) error
}

var _ abstractArena = &arena[Component]{}

// arena is the columnar storage for one component type: a dense array of values, a
// parallel array of owning entity IDs, and a sparse map from entity index to dense row.
// The dense array stays contiguous; removal compacts it with a swap-remove.
type arena[T Component] struct {
	compName string
	dense    []T
	entities []EntityID // parallel to dense; entities[row] owns dense[row]
	rows     sparseSet
}

func newArena[T Component]() arena[T] {
	var zero T
	const initialCapacity = 16
	return arena[T]{
		compName: zero.Name(),
		dense:    make([]T, 0, initialCapacity),
		entities: make([]EntityID, 0, initialCapacity),
		rows:     newSparseSet(),
	}
}

// newArenaFactory returns a function that constructs a new arena of type T.
func newArenaFactory[T Component]() arenaFactory {
	return func() abstractArena {
		a := newArena[T]()
		return &a
	}
}

func (a *arena[T]) name() string {
	return a.compName
}

func (a *arena[T]) len() int {
	return len(a.dense)
}

// rowOf resolves the dense row for the given id. The sparse set is keyed by slot index
// alone, so the owning entity recorded at that row is compared against the full id to
// reject stale generations.
func (a *arena[T]) rowOf(id EntityID) (int, bool) {
	row, ok := a.rows.get(id.Index())
	if !ok {
		return 0, false
	}
	if a.entities[row] != id {
		return 0, false
	}
	return row, true
}

func (a *arena[T]) has(id EntityID) bool {
	_, ok := a.rowOf(id)
	return ok
}

// insert appends the component value for the given entity.
// Returns ErrDuplicateComponent if the entity already holds one.
func (a *arena[T]) insert(id EntityID, value T) error {
	if a.has(id) {
		return eris.Wrapf(ErrDuplicateComponent, "component %s on entity %s", a.compName, id)
	}

	a.dense = append(a.dense, value)
	a.entities = append(a.entities, id)
	a.rows.set(id.Index(), len(a.dense)-1)
	assert.That(len(a.dense) == len(a.entities), "dense and entity arrays diverged")
	return nil
}

func (a *arena[T]) insertAbstract(id EntityID, value Component) error {
	concrete, ok := value.(T)
	assert.That(ok, "tried to insert the wrong component type into arena %s", a.compName)
	return a.insert(id, concrete)
}

// remove deletes the entity's component and returns its value. The last dense element is
// swapped into the vacated row so the dense array stays contiguous in O(1).
func (a *arena[T]) remove(id EntityID) (T, bool) {
	var zero T
	row, ok := a.rowOf(id)
	if !ok {
		return zero, false
	}

	removed := a.dense[row]
	lastRow := len(a.dense) - 1

	a.dense[row] = a.dense[lastRow]
	a.entities[row] = a.entities[lastRow]
	a.dense = a.dense[:lastRow]
	a.entities = a.entities[:lastRow]

	ok = a.rows.remove(id.Index())
	assert.That(ok, "entity wasn't removed from sparse set")

	// If the removed row wasn't the last one, the displaced entity now lives at row.
	if row != lastRow {
		a.rows.set(a.entities[row].Index(), row)
	}
	return removed, true
}

func (a *arena[T]) dropEntity(id EntityID) bool {
	_, ok := a.remove(id)
	return ok
}

// get returns a pointer to the entity's component data, valid until the next structural
// change to this arena.
func (a *arena[T]) get(id EntityID) (*T, bool) {
	row, ok := a.rowOf(id)
	if !ok {
		return nil, false
	}
	return &a.dense[row], true
}

// each calls fn for every component in dense order. fn receives the owning entity and a
// pointer into the dense array.
func (a *arena[T]) each(fn func(EntityID, *T) bool) {
	for row := range a.dense {
		if !fn(a.entities[row], &a.dense[row]) {
			return
		}
	}
}

// snapshot serializes the arena as an entity-index-ordered list of (EntityID, bytes)
// pairs so snapshots of equal worlds are byte-identical.
func (a *arena[T]) snapshot() (arenaSnapshot, error) {
	entries := make([]componentEntry, 0, len(a.dense))
	for row, id := range a.entities {
		data, err := json.Marshal(a.dense[row])
		if err != nil {
			return arenaSnapshot{}, eris.Wrapf(err, "failed to serialize component %s of entity %s", a.compName, id)
		}
		entries = append(entries, componentEntry{Entity: id, Data: data})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Entity.Index() < entries[j].Entity.Index()
	})

	return arenaSnapshot{Component: a.compName, Entries: entries}, nil
}

// restore replaces the arena contents from a snapshot.
func (a *arena[T]) restore(snap arenaSnapshot) error {
	if snap.Component != a.compName {
		return eris.Errorf("component name mismatch: expected %s, got %s", a.compName, snap.Component)
	}

	a.dense = a.dense[:0]
	a.entities = a.entities[:0]
	a.rows = newSparseSet()

	for _, entry := range snap.Entries {
		var value T
		if err := json.Unmarshal(entry.Data, &value); err != nil {
			return eris.Wrapf(err, "failed to deserialize component %s of entity %s", a.compName, entry.Entity)
		}
		if err := a.insert(entry.Entity, value); err != nil {
			return err
		}
	}
	return nil
}
