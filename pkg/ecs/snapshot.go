package ecs

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// SlotSnapshot is the serialized form of one allocator slot.
type SlotSnapshot struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
	Alive      bool   `json:"alive"`
}

// componentEntry is one (entity, component bytes) pair of an arena snapshot.
type componentEntry struct {
	Entity EntityID        `json:"entity"`
	Data   json.RawMessage `json:"data"`
}

// arenaSnapshot is the serialized form of one arena: the component type name and its
// entries ordered by entity index.
type arenaSnapshot struct {
	Component string           `json:"component"`
	Entries   []componentEntry `json:"entries"`
}

// worldSnapshot is the serialized form of the whole world. Slot and arena ordering is
// fixed, so equal worlds produce byte-identical snapshots.
type worldSnapshot struct {
	Frame     uint64          `json:"frame"`
	Allocator []SlotSnapshot  `json:"allocator"`
	Arenas    []arenaSnapshot `json:"arenas"`
}

// Snapshot serializes the world: for each component type an entity-ordered list of
// (EntityID, component bytes), and for the allocator an index-ordered list of
// (index, generation, alive) triples. The result is sufficient to reconstruct the world
// deterministically with Restore. Must not be called while a frame is in progress.
func (w *World) Snapshot() ([]byte, error) {
	if w.inFrame.Load() {
		return nil, eris.Wrap(ErrFrameInProgress, "cannot snapshot mid-frame")
	}

	snap := worldSnapshot{
		Frame:     w.frame.Load(),
		Allocator: w.allocator.snapshot(),
		Arenas:    make([]arenaSnapshot, len(w.arenas)),
	}

	// Arenas are independent, so serialize them in parallel.
	var g errgroup.Group
	for i, a := range w.arenas {
		g.Go(func() error {
			arenaSnap, err := a.snapshot()
			if err != nil {
				return err
			}
			snap.Arenas[i] = arenaSnap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "failed to snapshot world")
	}

	sort.Slice(snap.Arenas, func(i, j int) bool {
		return snap.Arenas[i].Component < snap.Arenas[j].Component
	})

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal snapshot")
	}
	return data, nil
}

// Restore replaces the world's state from a snapshot. The world must have the same
// component types registered as the world the snapshot was taken from. Systems and
// registrations are not part of a snapshot; they are recreated by the application at
// startup. Init systems will not run again after a restore.
func (w *World) Restore(data []byte) error {
	if w.inFrame.Load() {
		return eris.Wrap(ErrFrameInProgress, "cannot restore mid-frame")
	}

	var snap worldSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return eris.Wrap(err, "failed to unmarshal snapshot")
	}

	for _, arenaSnap := range snap.Arenas {
		if _, err := w.registry.getID(arenaSnap.Component); err != nil {
			return eris.Wrapf(err, "snapshot contains unregistered component %s", arenaSnap.Component)
		}
	}

	if err := w.allocator.restore(snap.Allocator); err != nil {
		return err
	}
	for _, arenaSnap := range snap.Arenas {
		cid, _ := w.registry.getID(arenaSnap.Component)
		if err := w.arenas[cid].restore(arenaSnap); err != nil {
			return err
		}
	}

	w.frame.Store(snap.Frame)
	// A restored world is past its genesis; init systems must not run again.
	w.initDone = true
	return nil
}

// snapshot returns the allocator's slots as an index-ordered list.
func (a *entityAllocator) snapshot() []SlotSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	slots := make([]SlotSnapshot, len(a.slots))
	for i, s := range a.slots {
		slots[i] = SlotSnapshot{
			Index:      uint32(i),
			Generation: s.generation,
			Alive:      s.alive,
		}
	}
	return slots
}

// restore rebuilds the allocator's slot table and free list from a snapshot.
func (a *entityAllocator) restore(slots []SlotSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.slots = make([]slot, len(slots))
	a.free = a.free[:0]
	for _, s := range slots {
		if int(s.Index) >= len(slots) {
			return eris.Errorf("allocator snapshot has out-of-range slot index %d", s.Index)
		}
		a.slots[s.Index] = slot{alive: s.Alive, generation: s.Generation}
	}
	for i, s := range a.slots {
		if !s.alive {
			a.free = append(a.free, uint32(i))
		}
	}
	return nil
}
