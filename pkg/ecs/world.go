package ecs

import (
	"reflect"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/charcoal-engine/charcoal/pkg/assert"
	"github.com/charcoal-engine/charcoal/pkg/statsd"
)

// World aggregates the entity allocator and all component arenas. It is the single point
// of truth for ECS state: entity lifecycle, component attachment, and system registration
// all go through it. A world is process-scoped: created once at startup, closed at
// shutdown, never duplicated.
type World struct {
	cfg    WorldConfig
	logger zerolog.Logger

	// Storage
	allocator entityAllocator
	registry  componentRegistry
	arenas    []abstractArena // indexed by componentID

	// Systems
	scheduler   scheduler
	initSystems []initSystem
	initDone    bool
	pool        *workerPool

	// Deferred structural mutation
	pending commandQueue
	inWave  atomic.Bool // set while a scheduling wave is executing

	// Frame
	inFrame atomic.Bool
	frame   atomic.Uint64
}

// NewWorld creates a new World. Configuration is read from the environment and can be
// overridden with options.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg, err := loadWorldConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config to create world")
	}

	world := &World{
		cfg:    cfg,
		logger: log.Logger,

		allocator: newEntityAllocator(),
		registry:  newComponentRegistry(),
		arenas:    make([]abstractArena, 0),

		scheduler:   newScheduler(),
		initSystems: make([]initSystem, 0),
		initDone:    false,
		pool:        nil, // created below, after options can change the worker count
	}

	for _, opt := range opts {
		opt(world)
	}

	level, err := zerolog.ParseLevel(world.cfg.LogLevel)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level %q", world.cfg.LogLevel)
	}
	world.logger = world.logger.Level(level)

	if world.cfg.StatsdAddress != "" {
		if err := statsd.Init(world.cfg.StatsdAddress, nil); err != nil {
			return nil, eris.Wrap(err, "unable to init statsd")
		}
	} else {
		world.logger.Debug().Msg("statsd is disabled")
	}

	world.pool = newWorkerPool(world.cfg.workerCount())
	world.logger.Info().Int("workers", world.cfg.workerCount()).Msg("world created")

	return world, nil
}

// Close shuts down the world's worker pool. The world must not be ticked afterwards.
func (w *World) Close() {
	w.pool.close()
}

// CurrentFrame returns the number of completed frames.
func (w *World) CurrentFrame() uint64 {
	return w.frame.Load()
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.allocator.count()
}

// SystemNames returns the registered system names in registration order.
func (w *World) SystemNames() []string {
	return w.scheduler.systemNames()
}

// -------------------------------------------------------------------------------------------------
// Registration
// -------------------------------------------------------------------------------------------------

// RegisterComponent registers component type T with the world and creates its arena.
// Registering the same type twice is a no-op. Components cannot be registered while a
// frame is in progress.
func RegisterComponent[T Component](w *World) error {
	if w.inFrame.Load() {
		return eris.Wrap(ErrFrameInProgress, "cannot register components mid-frame")
	}

	var zero T
	cid, created, err := w.registry.register(zero.Name(), reflect.TypeOf(zero))
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	factory := newArenaFactory[T]()
	w.arenas = append(w.arenas, factory())
	assert.That(int(cid) == len(w.arenas)-1, "arena index doesn't match component id")

	w.logger.Debug().Str("component", zero.Name()).Uint32("component_id", cid).Msg("component registered")
	return nil
}

// RegisterSystem registers a per-frame system together with its access declaration.
// Every component type named by the access set must already be registered. The system
// name is derived from the function name unless overridden with WithSystemName.
func (w *World) RegisterSystem(fn System, access Access, opts ...SystemOption) error {
	if w.inFrame.Load() {
		return eris.Wrap(ErrFrameInProgress, "cannot register systems mid-frame")
	}

	cfg := systemConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	name := cfg.name
	if name == "" {
		name = systemName(fn)
	}

	compiled, err := w.registry.compileAccess(access)
	if err != nil {
		return eris.Wrapf(err, "failed to register system %s", name)
	}

	err = w.scheduler.register(systemMetadata{
		name:     name,
		declared: access,
		access:   compiled,
		fn:       fn,
	})
	if err != nil {
		return err
	}

	w.logger.Debug().Str("system", name).Msg("system registered")
	return nil
}

// RegisterInitSystem registers a system that runs exactly once, sequentially, before the
// first frame's waves. Init systems get an unrestricted context: the wave machinery isn't
// running yet, so there is nothing to conflict with.
func (w *World) RegisterInitSystem(fn System, opts ...SystemOption) error {
	if w.inFrame.Load() {
		return eris.Wrap(ErrFrameInProgress, "cannot register systems mid-frame")
	}

	cfg := systemConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	name := cfg.name
	if name == "" {
		name = systemName(fn)
	}

	w.initSystems = append(w.initSystems, initSystem{name: name, fn: fn})
	return nil
}

// -------------------------------------------------------------------------------------------------
// Entity lifecycle
// -------------------------------------------------------------------------------------------------

// Spawn creates a new entity with no components. The entity is immediately visible, even
// when spawned from inside a running system.
func (w *World) Spawn() EntityID {
	return w.allocator.create()
}

// Despawn destroys the entity. While a scheduling wave is in flight the destruction is
// queued and applied at the wave boundary, so no system observes an entity disappearing
// mid-wave; otherwise it is applied immediately. Fails with ErrInvalidEntity when the id
// is stale or dead at issue time.
func (w *World) Despawn(id EntityID) error {
	if !w.allocator.isAlive(id) {
		return eris.Wrapf(ErrInvalidEntity, "despawn %s", id)
	}

	if w.inWave.Load() {
		w.pending.enqueue(structuralCommand{kind: cmdDespawn, entity: id})
		return nil
	}
	return w.applyDespawn(id)
}

// Alive reports whether the id refers to a currently live entity.
func (w *World) Alive(id EntityID) bool {
	return w.allocator.isAlive(id)
}

// applyDespawn destroys the entity now: the allocator slot dies, its generation is
// bumped, and every arena drops its entry.
func (w *World) applyDespawn(id EntityID) error {
	if err := w.allocator.destroy(id); err != nil {
		return err
	}
	for _, a := range w.arenas {
		a.dropEntity(id)
	}
	return nil
}

// -------------------------------------------------------------------------------------------------
// Component access
// -------------------------------------------------------------------------------------------------

// arenaFor resolves the concrete arena for component type T.
func arenaFor[T Component](w *World) (*arena[T], componentID, error) {
	var zero T
	cid, err := w.registry.getID(zero.Name())
	if err != nil {
		return nil, 0, err
	}

	concrete, ok := w.arenas[cid].(*arena[T])
	assert.That(ok, "arena for %s holds the wrong component type", zero.Name())
	return concrete, cid, nil
}

// Attach adds a component to an entity. Mid-wave the attachment is queued and applied at
// the wave boundary; otherwise it is applied immediately, failing with
// ErrDuplicateComponent if the entity already holds a T.
func Attach[T Component](w *World, id EntityID, value T) error {
	a, _, err := arenaFor[T](w)
	if err != nil {
		return err
	}
	if !w.allocator.isAlive(id) {
		return eris.Wrapf(ErrInvalidEntity, "attach %s to %s", a.compName, id)
	}

	if w.inWave.Load() {
		w.pending.enqueue(structuralCommand{kind: cmdAttach, entity: id, arena: a, value: value})
		return nil
	}
	return a.insert(id, value)
}

// Detach removes component T from an entity. Mid-wave the removal is queued; otherwise
// it is applied immediately, failing with ErrComponentNotFound if the entity holds no T.
func Detach[T Component](w *World, id EntityID) error {
	a, _, err := arenaFor[T](w)
	if err != nil {
		return err
	}
	if !w.allocator.isAlive(id) {
		return eris.Wrapf(ErrInvalidEntity, "detach %s from %s", a.compName, id)
	}

	if w.inWave.Load() {
		w.pending.enqueue(structuralCommand{kind: cmdDetach, entity: id, arena: a})
		return nil
	}

	if _, ok := a.remove(id); !ok {
		return eris.Wrapf(ErrComponentNotFound, "detach %s from %s", a.compName, id)
	}
	return nil
}

// Get returns the value of component T on the entity. This is the world-level accessor
// for code running outside the frame; systems should use Query, which enforces their
// declared access set.
func Get[T Component](w *World, id EntityID) (T, error) {
	var zero T
	a, _, err := arenaFor[T](w)
	if err != nil {
		return zero, err
	}
	if !w.allocator.isAlive(id) {
		return zero, eris.Wrapf(ErrInvalidEntity, "get %s of %s", a.compName, id)
	}

	ptr, ok := a.get(id)
	if !ok {
		return zero, eris.Wrapf(ErrComponentNotFound, "component %s on entity %s", a.compName, id)
	}
	return *ptr, nil
}

// GetMut returns a mutable pointer to component T on the entity, valid until the next
// structural change. Like Get, this is for code running outside the frame.
func GetMut[T Component](w *World, id EntityID) (*T, error) {
	a, _, err := arenaFor[T](w)
	if err != nil {
		return nil, err
	}
	if !w.allocator.isAlive(id) {
		return nil, eris.Wrapf(ErrInvalidEntity, "get %s of %s", a.compName, id)
	}

	ptr, ok := a.get(id)
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotFound, "component %s on entity %s", a.compName, id)
	}
	return ptr, nil
}

// Has reports whether the entity currently holds component T. Returns false for
// unregistered types and invalid entities.
func Has[T Component](w *World, id EntityID) bool {
	a, _, err := arenaFor[T](w)
	if err != nil {
		return false
	}
	return a.has(id)
}

// -------------------------------------------------------------------------------------------------
// Structural commit
// -------------------------------------------------------------------------------------------------

// commitPending applies all structural commands queued during the wave that just
// finished, in the order they were issued. Runs single-threaded at the wave boundary.
// Commands invalidated by an earlier command in the same batch (a despawned entity being
// attached to, a double detach) are dropped with a log line rather than failing the
// frame; the issuing system already got its answer when the command was queued.
func (w *World) commitPending() {
	assert.That(!w.inWave.Load(), "structural commit attempted while a wave is in flight")

	for _, cmd := range w.pending.drain() {
		var err error
		switch cmd.kind {
		case cmdDespawn:
			err = w.applyDespawn(cmd.entity)
		case cmdAttach:
			if !w.allocator.isAlive(cmd.entity) {
				err = eris.Wrapf(ErrInvalidEntity, "attach to %s", cmd.entity)
				break
			}
			err = cmd.arena.insertAbstract(cmd.entity, cmd.value)
		case cmdDetach:
			if !cmd.arena.dropEntity(cmd.entity) {
				err = eris.Wrapf(ErrComponentNotFound, "detach %s from %s", cmd.arena.name(), cmd.entity)
			}
		}

		if err != nil {
			w.logger.Warn().
				Str("command", cmd.kind.String()).
				Str("entity", cmd.entity.String()).
				Msgf("dropped structural command: %v", err)
		}
	}
}
