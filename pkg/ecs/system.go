package ecs

import (
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// System is a unit of per-frame logic. It runs to completion synchronously within its
// task slot; all component access goes through the Context, which enforces the system's
// declared access set.
type System func(ctx *Context) error

// systemMetadata is the static descriptor of a registered system: its identity, its
// declared access set (raw and compiled), and the function to run.
type systemMetadata struct {
	name     string
	declared Access
	access   accessSet
	fn       System
}

// initSystem represents a system that runs once before the first frame.
type initSystem struct {
	name string
	fn   System
}

// systemName derives a human-readable name from the system function via reflection.
func systemName(fn System) string {
	return filepath.Base(runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name())
}

// systemConfig holds the configurable options for system registration.
type systemConfig struct {
	name string // Overrides the reflected function name when non-empty
}

// SystemOption is a function that configures a system registration.
type SystemOption func(*systemConfig)

// WithSystemName overrides the name derived from the system function. Useful when the
// same function is registered more than once with different access sets.
func WithSystemName(name string) SystemOption {
	return func(cfg *systemConfig) { cfg.name = name }
}

// Context is the per-system view of the world handed to a running system. Component
// access is checked against the system's declared access set; structural mutations are
// forwarded to the world, which defers them to the wave boundary.
type Context struct {
	world  *World
	system *systemMetadata
	logger zerolog.Logger
}

// Logger returns a logger annotated with the running system's name.
func (c *Context) Logger() *zerolog.Logger {
	return &c.logger
}

// World returns the world this system runs in. Structural operations (Spawn, Despawn,
// Attach, Detach) issued through it mid-wave are queued and applied at the wave boundary.
func (c *Context) World() *World {
	return c.world
}

// SystemName returns the name of the running system.
func (c *Context) SystemName() string {
	return c.system.name
}

// Query returns a borrowed view into the arena of component type T, honoring the given
// access mode. Requesting a component or mode outside the system's declared access set
// fails with ErrAccessViolation carrying the system identity, component, and mode.
func Query[T Component](ctx *Context, mode AccessMode) (*View[T], error) {
	var zero T
	a, cid, err := arenaFor[T](ctx.world)
	if err != nil {
		return nil, err
	}

	if !ctx.system.access.canAccess(cid, mode) {
		return nil, eris.Wrapf(ErrAccessViolation,
			"system %s: %s access to component %s is not declared", ctx.system.name, mode, zero.Name())
	}

	return &View[T]{arena: a, writable: mode == Write}, nil
}

// View is a borrowed, mode-checked view into a single arena. A read view hands out
// component values; a write view additionally hands out mutable pointers. Views are only
// valid for the wave they were obtained in.
type View[T Component] struct {
	arena    *arena[T]
	writable bool
}

// Len returns the number of entities holding this component.
func (v *View[T]) Len() int {
	return v.arena.len()
}

// Contains reports whether the entity holds this component.
func (v *View[T]) Contains(id EntityID) bool {
	return v.arena.has(id)
}

// Get returns the component value for the given entity.
func (v *View[T]) Get(id EntityID) (T, error) {
	var zero T
	ptr, ok := v.arena.get(id)
	if !ok {
		return zero, eris.Wrapf(ErrComponentNotFound, "component %s on entity %s", v.arena.compName, id)
	}
	return *ptr, nil
}

// GetMut returns a mutable pointer to the component data for the given entity. Fails
// with ErrAccessViolation on a read-only view.
func (v *View[T]) GetMut(id EntityID) (*T, error) {
	if !v.writable {
		return nil, eris.Wrapf(ErrAccessViolation,
			"mutable access to component %s through a read view", v.arena.compName)
	}
	ptr, ok := v.arena.get(id)
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotFound, "component %s on entity %s", v.arena.compName, id)
	}
	return ptr, nil
}

// Each iterates the dense array in storage order, passing the owning entity and the
// component value. Return false from fn to stop early.
func (v *View[T]) Each(fn func(EntityID, T) bool) {
	v.arena.each(func(id EntityID, ptr *T) bool {
		return fn(id, *ptr)
	})
}

// EachMut iterates like Each but passes mutable pointers into the dense array. Fails
// with ErrAccessViolation on a read-only view.
func (v *View[T]) EachMut(fn func(EntityID, *T) bool) error {
	if !v.writable {
		return eris.Wrapf(ErrAccessViolation,
			"mutable iteration over component %s through a read view", v.arena.compName)
	}
	v.arena.each(fn)
	return nil
}
