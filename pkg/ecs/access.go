package ecs

import (
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// AccessMode declares how a system touches a component type.
type AccessMode uint8

const (
	// Read declares shared, read-only access to a component type.
	Read AccessMode = iota
	// Write declares exclusive, mutable access to a component type.
	Write
)

// String renders the mode for error messages and logs.
func (m AccessMode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// AccessEntry is one (component type, mode) pair of a system's access declaration.
type AccessEntry struct {
	Component Component
	Mode      AccessMode
}

// Access is a system's declared access set: the ordered set of component types it reads
// and writes. A system must not touch a component type absent from its access set; the
// accessor API rejects undeclared access with ErrAccessViolation at access time.
type Access []AccessEntry

// Reads declares read access to component type T.
func Reads[T Component]() AccessEntry {
	var zero T
	return AccessEntry{Component: zero, Mode: Read}
}

// Writes declares write access to component type T.
func Writes[T Component]() AccessEntry {
	var zero T
	return AccessEntry{Component: zero, Mode: Write}
}

// accessSet is the compiled form of an Access declaration: one bitmap per mode, indexed
// by componentID. Conflict detection between systems is a pair of bitmap intersections.
type accessSet struct {
	reads  bitmap.Bitmap
	writes bitmap.Bitmap
}

// compileAccess validates the declaration and resolves component names to IDs. All listed
// component types must already be registered. Listing a type twice with the same mode is
// tolerated; listing it with conflicting modes fails with ErrInvalidAccessSet.
func (cr *componentRegistry) compileAccess(access Access) (accessSet, error) {
	var set accessSet
	for _, entry := range access {
		cid, err := cr.getID(entry.Component.Name())
		if err != nil {
			return accessSet{}, err
		}

		other := &set.writes
		if entry.Mode == Write {
			other = &set.reads
		}
		if other.Contains(cid) {
			return accessSet{}, eris.Wrapf(ErrInvalidAccessSet,
				"component %s is declared with conflicting modes", entry.Component.Name())
		}

		if entry.Mode == Write {
			set.writes.Set(cid)
		} else {
			set.reads.Set(cid)
		}
	}
	return set, nil
}

// canAccess reports whether the set declares the given component under the given mode.
// Write declarations imply read access to the same type.
func (s accessSet) canAccess(cid componentID, mode AccessMode) bool {
	if mode == Write {
		return s.writes.Contains(cid)
	}
	return s.reads.Contains(cid) || s.writes.Contains(cid)
}

// conflictsWith reports whether two access sets cannot safely run concurrently: they
// overlap on a component type with at least one side writing. Read-read never conflicts.
func (s accessSet) conflictsWith(other accessSet) bool {
	return intersects(s.writes, other.writes) ||
		intersects(s.writes, other.reads) ||
		intersects(s.reads, other.writes)
}

func intersects(a, b bitmap.Bitmap) bool {
	overlap := a.Clone(nil)
	overlap.And(b)
	return overlap.Count() > 0
}
