package ecs

import (
	"math"
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/charcoal-engine/charcoal/pkg/assert"
)

// Component is the interface that all components must implement. Components are pure,
// self-contained data containers attached to entities; they must not embed pointers into
// other storage.
type Component interface {
	// Name returns a unique string identifier for the component type.
	// This should be consistent across program executions.
	Name() string
}

// componentID is a unique identifier for a component type. It doubles as the bit position
// of the type in access-set bitmaps and as the index of the type's arena in the world.
type componentID = uint32

// MaxComponentID is the maximum number of component types that can be registered.
const MaxComponentID = math.MaxUint32 - 1

// componentRegistry manages component type registration and lookup.
type componentRegistry struct {
	nextID  componentID
	catalog map[string]componentID // Component name -> component ID
	types   map[string]reflect.Type
}

func newComponentRegistry() componentRegistry {
	return componentRegistry{
		nextID:  0,
		catalog: make(map[string]componentID),
		types:   make(map[string]reflect.Type),
	}
}

// register registers a new component type and returns its ID.
// If the component is already registered, the existing ID is returned.
func (cr *componentRegistry) register(name string, typ reflect.Type) (componentID, bool, error) {
	if name == "" {
		return 0, false, eris.New("component name cannot be empty")
	}

	if cid, exists := cr.catalog[name]; exists {
		return cid, false, nil
	}

	if cr.nextID > MaxComponentID {
		return 0, false, eris.New("max number of components exceeded")
	}

	cid := cr.nextID
	cr.catalog[name] = cid
	cr.types[name] = typ
	cr.nextID++
	assert.That(int(cr.nextID) == len(cr.catalog), "component id doesn't match number of components")

	return cid, true, nil
}

// getID returns a component's ID given a name.
func (cr *componentRegistry) getID(name string) (componentID, error) {
	id, exists := cr.catalog[name]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", name)
	}
	return id, nil
}

// len returns the number of registered component types.
func (cr *componentRegistry) len() int {
	return len(cr.catalog)
}
