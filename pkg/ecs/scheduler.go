package ecs

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// scheduler partitions the registered systems into waves of mutually non-conflicting
// work. Two systems conflict when their access sets overlap on a component type with at
// least one side writing; everything inside a wave is therefore safe to run fully in
// parallel, and wave partitioning is the sole safety mechanism guarding the arenas: no
// per-arena locks are taken while a wave runs.
type scheduler struct {
	systems []systemMetadata
	waves   [][]int // wave -> indices into systems
	dirty   bool    // waves must be rebuilt before the next frame
}

func newScheduler() scheduler {
	return scheduler{
		systems: make([]systemMetadata, 0),
		waves:   make([][]int, 0),
		dirty:   false,
	}
}

// register adds a system and marks the wave layout stale.
// Returns ErrDuplicateSystem when the name is already taken.
func (s *scheduler) register(meta systemMetadata) error {
	for i := range s.systems {
		if s.systems[i].name == meta.name {
			return eris.Wrapf(ErrDuplicateSystem, "system %s", meta.name)
		}
	}
	s.systems = append(s.systems, meta)
	s.dirty = true
	return nil
}

// systemNames returns the registered system names in registration order.
func (s *scheduler) systemNames() []string {
	names := make([]string, len(s.systems))
	for i := range s.systems {
		names[i] = s.systems[i].name
	}
	return names
}

// buildWaves greedily assigns each system, in arrival order, to the earliest wave that
// contains nothing it conflicts with, opening a new wave when none fits. This is graph
// coloring by arrival order: O(n²) in the system count and not chromatic-minimal, which
// is a fine trade for the small n typical here. The resulting layout depends on
// registration order; only the no-conflict invariant is guaranteed, not a specific
// wave assignment.
func (s *scheduler) buildWaves(logger *zerolog.Logger) {
	if !s.dirty {
		return
	}

	s.waves = s.waves[:0]
	for idx := range s.systems {
		placed := false
		for w := range s.waves {
			if !s.conflictsWithWave(s.waves[w], idx) {
				s.waves[w] = append(s.waves[w], idx)
				placed = true
				break
			}
		}
		if !placed {
			s.waves = append(s.waves, []int{idx})
		}
	}
	s.dirty = false

	logWaves(logger, s)
}

// conflictsWithWave reports whether the system at idx conflicts with any member of the
// given wave.
func (s *scheduler) conflictsWithWave(wave []int, idx int) bool {
	for _, member := range wave {
		if s.systems[idx].access.conflictsWith(s.systems[member].access) {
			return true
		}
	}
	return false
}
