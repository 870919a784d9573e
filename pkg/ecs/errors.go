package ecs

import "github.com/rotisserie/eris"

var (
	// ErrInvalidEntity is returned when an operation references an entity ID that is dead,
	// was never allocated, or carries a stale generation.
	ErrInvalidEntity = eris.New("entity id is invalid")

	// ErrDuplicateComponent is returned when attaching a component to an entity that
	// already holds a component of that type.
	ErrDuplicateComponent = eris.New("component already on entity")

	// ErrComponentNotFound is returned when reading or detaching a component that the
	// entity does not hold.
	ErrComponentNotFound = eris.New("component not on entity")

	// ErrComponentNotRegistered is returned when a component type has not been registered
	// with the world.
	ErrComponentNotRegistered = eris.New("component type is not registered")

	// ErrAccessViolation is returned when a system touches a component type or mode that
	// is absent from its declared access set. This is a programming error in the system;
	// it is surfaced through the frame report rather than aborting the process.
	ErrAccessViolation = eris.New("access outside of declared access set")

	// ErrInvalidAccessSet is returned at registration time when an access set lists the
	// same component type with conflicting modes.
	ErrInvalidAccessSet = eris.New("access set is internally inconsistent")

	// ErrDuplicateSystem is returned when registering a system whose name is already taken.
	ErrDuplicateSystem = eris.New("system is already registered")

	// ErrFrameInProgress is returned when Tick is called while a previous call's waves are
	// still executing, or when a registration is attempted mid-frame.
	ErrFrameInProgress = eris.New("frame is already in progress")
)
