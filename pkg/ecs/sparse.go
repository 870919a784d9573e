package ecs

// sparseCapacity is the initial number of slots in a sparse set.
const sparseCapacity = 256

// sparseTombstone marks a slot that holds no row.
const sparseTombstone = -1

// sparseSet maps an entity's slot index to its row in an arena's dense array. It is a
// plain slice indexed by entity index; absent entries hold sparseTombstone. Lookups are
// O(1) and the set grows lazily to fit the largest index it has seen.
type sparseSet []int

func newSparseSet() sparseSet {
	s := make(sparseSet, sparseCapacity)
	for i := range s {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the row mapped to the given entity index.
func (s sparseSet) get(index uint32) (int, bool) {
	if int(index) >= len(s) {
		return 0, false
	}
	row := s[index]
	if row == sparseTombstone {
		return 0, false
	}
	return row, true
}

// set maps the given entity index to a row, growing the set if needed.
func (s *sparseSet) set(index uint32, row int) {
	s.extend(int(index) + 1)
	(*s)[index] = row
}

// remove unmaps the given entity index. Returns false if the index wasn't mapped.
func (s sparseSet) remove(index uint32) bool {
	if int(index) >= len(s) {
		return false
	}
	if s[index] == sparseTombstone {
		return false
	}
	s[index] = sparseTombstone
	return true
}

// extend grows the backing slice to at least size, filling new slots with tombstones.
func (s *sparseSet) extend(size int) {
	if size <= len(*s) {
		return
	}
	grown := make(sparseSet, size)
	copy(grown, *s)
	for i := len(*s); i < size; i++ {
		grown[i] = sparseTombstone
	}
	*s = grown
}
