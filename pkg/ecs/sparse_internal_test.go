package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charcoal-engine/charcoal/pkg/testutils"
)

func TestSparseSet_Basic(t *testing.T) {
	t.Parallel()
	var s sparseSet

	_, ok := s.get(7)
	assert.False(t, ok)

	s.set(7, 0)
	row, ok := s.get(7)
	assert.True(t, ok)
	assert.Equal(t, 0, row)

	// Overwrite keeps a single mapping.
	s.set(7, 3)
	row, ok = s.get(7)
	assert.True(t, ok)
	assert.Equal(t, 3, row)

	assert.True(t, s.remove(7))
	_, ok = s.get(7)
	assert.False(t, ok)

	// Removing twice is a no-op.
	assert.False(t, s.remove(7))
}

func TestSparseSet_GrowsOnDemand(t *testing.T) {
	t.Parallel()
	var s sparseSet

	// Writing far past the initial capacity must extend the backing slice,
	// and the gap in between stays empty.
	s.set(10_000, 42)
	row, ok := s.get(10_000)
	assert.True(t, ok)
	assert.Equal(t, 42, row)

	_, ok = s.get(9_999)
	assert.False(t, ok)
	_, ok = s.get(1 << 30)
	assert.False(t, ok)
}

type sparseOp uint8

const (
	sparseOpSet    sparseOp = 45
	sparseOpRemove sparseOp = 35
	sparseOpGet    sparseOp = 20
)

var sparseOps = []sparseOp{sparseOpSet, sparseOpRemove, sparseOpGet}

func TestSparseSet_ModelBasedFuzz(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)

	var s sparseSet
	model := make(map[uint32]int)

	const keySpace = 512
	const opsMax = 1 << 14
	for range opsMax {
		switch testutils.RandWeightedOp(prng, sparseOps) {
		case sparseOpSet:
			key := prng.Uint32N(keySpace)
			row := int(prng.Int32N(1 << 20))
			s.set(key, row)
			model[key] = row

		case sparseOpRemove:
			var key uint32
			if len(model) > 0 && prng.Float64() < 0.8 {
				key = testutils.RandMapKey(prng, model)
			} else {
				key = prng.Uint32N(keySpace)
			}
			_, inModel := model[key]
			assert.Equal(t, inModel, s.remove(key))
			delete(model, key)

		case sparseOpGet:
			var key uint32
			if len(model) > 0 && prng.Float64() < 0.8 {
				key = testutils.RandMapKey(prng, model)
			} else {
				key = prng.Uint32N(keySpace)
			}
			row, ok := s.get(key)
			wantRow, wantOK := model[key]
			assert.Equal(t, wantOK, ok)
			if wantOK {
				assert.Equal(t, wantRow, row)
			}
		}
	}

	// Final sweep over the whole key space.
	for key := uint32(0); key < keySpace; key++ {
		row, ok := s.get(key)
		wantRow, wantOK := model[key]
		assert.Equal(t, wantOK, ok, "key %d", key)
		if wantOK {
			assert.Equal(t, wantRow, row, "key %d", key)
		}
	}
}
