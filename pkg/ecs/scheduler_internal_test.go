package ecs

import (
	"testing"

	"github.com/kelindar/bitmap"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charcoal-engine/charcoal/pkg/testutils"
)

func TestScheduler_RejectsDuplicateName(t *testing.T) {
	t.Parallel()
	s := newScheduler()

	require.NoError(t, s.register(systemMetadata{name: "Movement"}))
	err := s.register(systemMetadata{name: "Movement"})
	assert.ErrorIs(t, err, ErrDuplicateSystem)

	assert.Equal(t, []string{"Movement"}, s.systemNames())
}

func TestScheduler_WavePartitioning(t *testing.T) {
	t.Parallel()
	cr := newTestRegistry(t)
	logger := zerolog.Nop()

	compile := func(access Access) accessSet {
		set, err := cr.compileAccess(access)
		require.NoError(t, err)
		return set
	}

	s := newScheduler()
	// Render reads position, Physics writes velocity: disjoint, same wave.
	// Movement writes position: conflicts with Render, pushed to a later wave.
	require.NoError(t, s.register(systemMetadata{
		name:   "Render",
		access: compile(Access{Reads[testutils.Position]()}),
	}))
	require.NoError(t, s.register(systemMetadata{
		name:   "Physics",
		access: compile(Access{Writes[testutils.Velocity]()}),
	}))
	require.NoError(t, s.register(systemMetadata{
		name: "Movement",
		access: compile(Access{
			Writes[testutils.Position](),
			Reads[testutils.Velocity](),
		}),
	}))

	s.buildWaves(&logger)

	waveOf := func(idx int) int {
		for w, wave := range s.waves {
			for _, member := range wave {
				if member == idx {
					return w
				}
			}
		}
		t.Fatalf("system %d not placed in any wave", idx)
		return -1
	}

	assert.Equal(t, waveOf(0), waveOf(1), "Render and Physics don't conflict and should share a wave")
	assert.NotEqual(t, waveOf(0), waveOf(2), "Movement writes what Render reads")
	assert.NotEqual(t, waveOf(1), waveOf(2), "Movement reads what Physics writes")
}

func TestScheduler_ReadersShareOneWave(t *testing.T) {
	t.Parallel()
	cr := newTestRegistry(t)
	logger := zerolog.Nop()

	s := newScheduler()
	for _, name := range []string{"ReaderA", "ReaderB", "ReaderC"} {
		set, err := cr.compileAccess(Access{Reads[testutils.Position]()})
		require.NoError(t, err)
		require.NoError(t, s.register(systemMetadata{name: name, access: set}))
	}

	s.buildWaves(&logger)
	require.Len(t, s.waves, 1)
	assert.Len(t, s.waves[0], 3)
}

func TestScheduler_WritersSerialize(t *testing.T) {
	t.Parallel()
	cr := newTestRegistry(t)
	logger := zerolog.Nop()

	s := newScheduler()
	for _, name := range []string{"WriterA", "WriterB", "WriterC"} {
		set, err := cr.compileAccess(Access{Writes[testutils.Position]()})
		require.NoError(t, err)
		require.NoError(t, s.register(systemMetadata{name: name, access: set}))
	}

	s.buildWaves(&logger)
	require.Len(t, s.waves, 3)
	for _, wave := range s.waves {
		assert.Len(t, wave, 1)
	}
}

func TestScheduler_RebuildOnlyWhenDirty(t *testing.T) {
	t.Parallel()
	logger := zerolog.Nop()

	s := newScheduler()
	require.NoError(t, s.register(systemMetadata{name: "Solo"}))
	s.buildWaves(&logger)
	require.Len(t, s.waves, 1)

	// A clean scheduler keeps its layout.
	s.waves[0] = append(s.waves[0], 99)
	s.buildWaves(&logger)
	assert.Equal(t, []int{0, 99}, s.waves[0])

	// Registering marks it dirty; the next build recomputes from scratch.
	require.NoError(t, s.register(systemMetadata{name: "Pair"}))
	s.buildWaves(&logger)
	assert.Equal(t, [][]int{{0, 1}}, s.waves)
}

// TestScheduler_FuzzWaveSafety builds schedules out of random access sets and checks the
// one invariant the partitioning guarantees: no two systems in the same wave conflict,
// and every system lands in exactly one wave.
func TestScheduler_FuzzWaveSafety(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)
	logger := zerolog.Nop()

	const rounds = 64
	const componentSpace = 8
	for range rounds {
		s := newScheduler()
		systemCount := 1 + prng.IntN(24)
		for range systemCount {
			var set accessSet
			for cid := uint32(0); cid < componentSpace; cid++ {
				switch prng.IntN(4) {
				case 0:
					set.reads.Set(cid)
				case 1:
					set.writes.Set(cid)
				}
			}
			require.NoError(t, s.register(systemMetadata{
				name:   testutils.RandString(prng, 8),
				access: set,
				fn:     func(*Context) error { return nil },
			}))
		}

		s.buildWaves(&logger)

		var placed bitmap.Bitmap
		total := 0
		for _, wave := range s.waves {
			for i := 0; i < len(wave); i++ {
				assert.False(t, placed.Contains(uint32(wave[i])), "system placed twice")
				placed.Set(uint32(wave[i]))
				total++
				for j := i + 1; j < len(wave); j++ {
					a := s.systems[wave[i]].access
					b := s.systems[wave[j]].access
					assert.False(t, a.conflictsWith(b),
						"conflicting systems %q and %q share a wave",
						s.systems[wave[i]].name, s.systems[wave[j]].name)
				}
			}
		}
		assert.Equal(t, systemCount, total)
	}
}
