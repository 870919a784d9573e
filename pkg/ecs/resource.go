package ecs

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ResourceID is a stable, globally-unique identifier naming a persistent resource
// (a mesh, an audio clip) independent of any in-memory entity. It is a distinct type
// from EntityID on purpose: an EntityID names a slot in a live world and dies with it,
// while a ResourceID survives serialization and is shared across processes. The two
// must never be confused, and the type system keeps it that way.
type ResourceID struct {
	uuid.UUID
}

// NewResourceID returns a fresh, random resource identifier.
func NewResourceID() ResourceID {
	return ResourceID{UUID: uuid.New()}
}

// ParseResourceID parses the textual form produced by ResourceID.String.
func ParseResourceID(s string) (ResourceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ResourceID{}, eris.Wrapf(err, "invalid resource id %q", s)
	}
	return ResourceID{UUID: id}, nil
}
