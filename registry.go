package fatpecs

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"fatpecs/storage"
)

// Config holds the in-process knobs spec §6 recognizes: storage policy is
// selected per component type via UseStorage[T], so the only registry-wide
// knob left is the scheduler's default worker count. No file format, CLI
// surface or environment variable loads this struct — it is constructed
// directly by the host application, mirroring the teacher's WorldConfig /
// DefaultWorldConfig() pattern. Nothing in this module reads
// SchedulerWorkers: scheduler.Scheduler.Run starts one goroutine per
// enabled system in a wave, and scheduler.ParallelFor takes its worker
// bound as an argument.
type Config struct {
	SchedulerWorkers int
}

// DefaultConfig returns a Config with SchedulerWorkers set to the host's
// hardware concurrency, matching spec §6's "default = hardware
// concurrency".
func DefaultConfig() Config {
	return Config{SchedulerWorkers: runtime.GOMAXPROCS(0)}
}

type resettable interface {
	reset()
}

// Registry is the façade composing EntityAllocator, StoreRegistry and
// EventBus described in spec §4.5. It exclusively owns every store, the
// allocator, the event bus, and every OwningGroup/NonOwningGroup/Observer
// it creates. Per spec §5, a Registry is not itself thread-safe; parallel
// safety is the Scheduler's responsibility.
type Registry struct {
	logger *zap.Logger
	cfg    Config

	allocator *storage.EntityAllocator
	stores    *storage.StoreRegistry
	bus       *EventBus
	ctx       *contextStore

	resettables []resettable
	ownedTypes  map[storage.TypeID]string // TypeID -> owning group's debug label
}

// New builds an empty Registry. logger may be nil, in which case a no-op
// logger is used (ambient diagnostics become silent, never a crash).
func New(cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:     logger,
		cfg:        cfg,
		allocator:  storage.NewEntityAllocator(),
		stores:     storage.NewStoreRegistry(),
		bus:        NewEventBus(),
		ctx:        newContextStore(),
		ownedTypes: make(map[storage.TypeID]string),
	}
}

// Events returns the registry's EventBus for direct subscription to the
// entity-lifecycle signals.
func (r *Registry) Events() *EventBus { return r.bus }

// StoresOf exposes r's underlying StoreRegistry for packages that need
// typed store access (storage.GetStore[T]) rather than the registry's
// per-entity Get/Has surface — currently only the snapshot package, to
// dump/load a component type's dense array directly.
func StoresOf(r *Registry) *storage.StoreRegistry { return r.stores }

// Config returns the registry's configuration.
func (r *Registry) Config() Config { return r.cfg }

// Create mints a new alive entity and fires onEntityCreated.
func (r *Registry) Create() (storage.Entity, error) {
	e, err := r.allocator.Create()
	if err != nil {
		r.logger.Warn("entity allocator exhausted", zap.Error(err))
		return storage.NullEntity, err
	}
	r.bus.onEntityCreated.Emit(e)
	return e, nil
}

// IsAlive reports whether e refers to a currently-live entity.
func (r *Registry) IsAlive(e storage.Entity) bool {
	return r.allocator.Alive(e)
}

// Destroy removes every component from e (firing onComponentRemoved<T> for
// each, in store-iteration order, before that store's erase) and then the
// entity itself (firing onEntityDestroyed). Per spec §7, destroying an
// already-dead entity is a silent no-op.
//
// The ordering contract in spec §4.5 and §4.7 is load-bearing both ways:
// onComponentRemoved<T> fires while e is still present in every store (so an
// OwningGroup can swap e to its boundary across all owned stores in
// lockstep, before any of them erase it), and at the moment onEntityDestroyed
// fires, has<T>(e) is already false for every T, because every store's
// Remove(e) has by then run.
func (r *Registry) Destroy(e storage.Entity) error {
	if !r.allocator.Alive(e) {
		return nil
	}
	for _, s := range r.stores.All() {
		if s.Has(e) {
			r.bus.emitComponent(kindRemoved, s.TypeID(), e)
			s.Remove(e)
		}
	}
	r.allocator.Destroy(e)
	r.bus.onEntityDestroyed.Emit(e)
	return nil
}

// EntityCount returns the number of currently-live entities.
func (r *Registry) EntityCount() int { return r.allocator.AliveCount() }

// Entities calls fn for every currently-live entity.
func (r *Registry) Entities(fn func(storage.Entity)) { r.allocator.Each(fn) }

func notAlive(e storage.Entity) error {
	return storage.NewEntityError(storage.KindNotAlive, e, "operation requires a live entity")
}

func getOrCreateStore[T any](r *Registry) (*storage.ComponentStore[T], error) {
	return storage.GetOrCreateStore[T](r.stores, nil)
}

// UseStorage selects the StoragePolicy for T. Must be called before any
// store for T exists, or with the same policy type it already has;
// otherwise fails with PolicyMismatch (spec §7).
func UseStorage[T any](r *Registry, policy storage.StoragePolicy[T]) error {
	_, err := storage.GetOrCreateStore[T](r.stores, policy)
	return err
}

// Add attaches v to e. Precondition: alive(e) and !has<T>(e); fails with
// NotAlive or AlreadyPresent respectively.
func Add[T any](r *Registry, e storage.Entity, v T) error {
	if !r.allocator.Alive(e) {
		return notAlive(e)
	}
	cs, err := getOrCreateStore[T](r)
	if err != nil {
		return err
	}
	if err := cs.Add(e, v); err != nil {
		return err
	}
	r.bus.emitComponent(kindAdded, cs.TypeID(), e)
	return nil
}

// EmplaceOrReplace attaches v to e, replacing any existing value of the
// same type. Fires onComponentAdded<T> if T was absent, onComponentUpdated
// if it was present.
func EmplaceOrReplace[T any](r *Registry, e storage.Entity, v T) error {
	if !r.allocator.Alive(e) {
		return notAlive(e)
	}
	cs, err := getOrCreateStore[T](r)
	if err != nil {
		return err
	}
	if ptr, ok := cs.Get(e); ok {
		*ptr = v
		r.bus.emitComponent(kindUpdated, cs.TypeID(), e)
		return nil
	}
	_ = cs.Add(e, v)
	r.bus.emitComponent(kindAdded, cs.TypeID(), e)
	return nil
}

// Replace overwrites e's existing component of type T. Precondition:
// has<T>(e). Fires onComponentUpdated<T>.
func Replace[T any](r *Registry, e storage.Entity, v T) error {
	cs := storage.GetStore[T](r.stores)
	if cs == nil {
		return fmt.Errorf("fatpecs: Replace precondition violated: component type never registered")
	}
	ptr, ok := cs.Get(e)
	if !ok {
		return fmt.Errorf("fatpecs: Replace precondition violated: entity has no component of this type")
	}
	*ptr = v
	r.bus.emitComponent(kindUpdated, cs.TypeID(), e)
	return nil
}

// GetOrEmplace returns e's existing component of type T, or attaches def
// and returns a pointer to it if absent. Fires onComponentAdded<T> only
// when a new component was inserted.
func GetOrEmplace[T any](r *Registry, e storage.Entity, def T) (*T, error) {
	cs, err := getOrCreateStore[T](r)
	if err != nil {
		return nil, err
	}
	if ptr, ok := cs.Get(e); ok {
		return ptr, nil
	}
	if !r.allocator.Alive(e) {
		return nil, notAlive(e)
	}
	_ = cs.Add(e, def)
	r.bus.emitComponent(kindAdded, cs.TypeID(), e)
	ptr, _ := cs.Get(e)
	return ptr, nil
}

// Remove detaches e's component of type T, if present. Returns nil and
// does nothing if T was never registered or e had none (spec §4.5's
// remove<T> has no precondition). Fires onComponentRemoved<T> only if a
// component is actually present, and before the store erases it — per spec
// §4.7, an OwningGroup listening on this signal must still find e present in
// every owned store at the moment it fires.
func Remove[T any](r *Registry, e storage.Entity) error {
	cs := storage.GetStore[T](r.stores)
	if cs == nil {
		return nil
	}
	if cs.Has(e) {
		r.bus.emitComponent(kindRemoved, cs.TypeID(), e)
		cs.Remove(e)
	}
	return nil
}

// Get returns a pointer to e's component of type T and true, or (nil,
// false) if absent or never registered.
func Get[T any](r *Registry, e storage.Entity) (*T, bool) {
	cs := storage.GetStore[T](r.stores)
	if cs == nil {
		return nil, false
	}
	return cs.Get(e)
}

// Has reports whether e currently has a component of type T.
func Has[T any](r *Registry, e storage.Entity) bool {
	cs := storage.GetStore[T](r.stores)
	if cs == nil {
		return false
	}
	return cs.Has(e)
}

// Patch invokes fn on e's component of type T in place, then fires
// onComponentUpdated<T>. Precondition: has<T>(e).
func Patch[T any](r *Registry, e storage.Entity, fn func(*T)) error {
	cs := storage.GetStore[T](r.stores)
	if cs == nil {
		return fmt.Errorf("fatpecs: Patch precondition violated: component type never registered")
	}
	if !cs.Patch(e, fn) {
		return fmt.Errorf("fatpecs: Patch precondition violated: entity has no component of this type")
	}
	r.bus.emitComponent(kindUpdated, cs.TypeID(), e)
	return nil
}

// Copy copies every component src has onto dst, replacing (and firing
// onComponentUpdated<T>) where dst already has that type, adding (and
// firing onComponentAdded<T>) otherwise. Returns the number of component
// types copied. Per spec §7, a dead src or dst yields 0 rather than an
// error, so callers iterating candidate source entities don't need to
// guard every call.
func (r *Registry) Copy(src, dst storage.Entity) int {
	if !r.allocator.Alive(src) || !r.allocator.Alive(dst) {
		return 0
	}
	count := 0
	for _, s := range r.stores.All() {
		added, ok := s.CopyInto(src, dst)
		if !ok {
			continue
		}
		count++
		if added {
			r.bus.emitComponent(kindAdded, s.TypeID(), dst)
		} else {
			r.bus.emitComponent(kindUpdated, s.TypeID(), dst)
		}
	}
	return count
}

// Clear empties the registry: every store, the allocator, and — via each
// resettable's reset() — every OwningGroup, NonOwningGroup and Observer
// created from this registry. No per-entity destroy events are fired
// (spec §4.5); omitting the resettable sweep would leave groups iterating
// past the end of now-empty dense arrays (spec §4.7).
func (r *Registry) Clear() {
	r.stores.Clear()
	r.allocator.Clear()
	r.ctx.clear()
	for _, res := range r.resettables {
		res.reset()
	}
}

func (r *Registry) trackResettable(res resettable) {
	r.resettables = append(r.resettables, res)
}

// claimOwnership records that typeID is now owned by an OwningGroup
// (identified by label, for diagnostics). Returns an error if any group
// already owns it, whatever its label (spec §4.7's exclusivity
// constraint).
func (r *Registry) claimOwnership(typeID storage.TypeID, label string) error {
	if owner, ok := r.ownedTypes[typeID]; ok {
		return storage.NewError(storage.KindOwnershipConflict,
			fmt.Sprintf("component type already owned by group %q", owner))
	}
	r.ownedTypes[typeID] = label
	return nil
}

func (r *Registry) releaseOwnership(typeID storage.TypeID, label string) {
	if owner, ok := r.ownedTypes[typeID]; ok && owner == label {
		delete(r.ownedTypes, typeID)
	}
}

// Handle bundles a Registry pointer and an Entity for convenient chained
// access (spec §4.5: "a cheap value bundling (registry*, entity) with
// convenience methods").
type Handle struct {
	R *Registry
	E storage.Entity
}

// Handle returns a Handle bundling r and e.
func (r *Registry) Handle(e storage.Entity) Handle { return Handle{R: r, E: e} }

// IsAlive reports whether the handle's entity is alive.
func (h Handle) IsAlive() bool { return h.R.IsAlive(h.E) }

// Destroy destroys the handle's entity.
func (h Handle) Destroy() error { return h.R.Destroy(h.E) }

// HandleAdd attaches a component to h's entity (free function: Go methods
// cannot introduce their own type parameters).
func HandleAdd[T any](h Handle, v T) error { return Add[T](h.R, h.E, v) }

// HandleGet returns h's entity's component of type T.
func HandleGet[T any](h Handle) (*T, bool) { return Get[T](h.R, h.E) }

// HandleHas reports whether h's entity has a component of type T.
func HandleHas[T any](h Handle) bool { return Has[T](h.R, h.E) }
