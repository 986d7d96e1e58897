package fatpecs

import (
	"sync"

	"fatpecs/storage"
)

// ScopedConnection disconnects its signal listener exactly once, on the
// first call to Disconnect. Go has no destructors, so unlike the
// fat_p::Signal this adapts (spec §4.4's "RAII ScopedConnection"), callers
// must call Disconnect explicitly; Observer, OwningGroup and
// NonOwningGroup do this from their own Close methods.
type ScopedConnection struct {
	once       sync.Once
	disconnect func()
}

// Disconnect detaches the listener. Safe to call multiple times or on a
// nil receiver.
func (c *ScopedConnection) Disconnect() {
	if c == nil || c.disconnect == nil {
		return
	}
	c.once.Do(c.disconnect)
}

type slot[T any] struct {
	id uint64
	fn func(T)
}

// signal is a minimal observer-pattern primitive: Connect returns a
// ScopedConnection, Emit dispatches to a snapshot of the current listener
// set so connecting/disconnecting during emission is safe (spec §4.4's
// reentrancy-safety requirement).
type signal[T any] struct {
	mu     sync.Mutex
	nextID uint64
	slots  []slot[T]
}

func newSignal[T any]() *signal[T] { return &signal[T]{} }

func (s *signal[T]) Connect(fn func(T)) *ScopedConnection {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.slots = append(s.slots, slot[T]{id: id, fn: fn})
	s.mu.Unlock()
	return &ScopedConnection{disconnect: func() { s.disconnectID(id) }}
}

func (s *signal[T]) disconnectID(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sl := range s.slots {
		if sl.id == id {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return
		}
	}
}

// Emit dispatches v to a snapshot of the listener set taken under lock, so
// the emission loop itself never touches the mutex: reentrant
// connect/disconnect calls from within a listener cannot deadlock.
func (s *signal[T]) Emit(v T) {
	s.mu.Lock()
	if len(s.slots) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := make([]slot[T], len(s.slots))
	copy(snapshot, s.slots)
	s.mu.Unlock()
	for _, sl := range snapshot {
		sl.fn(v)
	}
}

func (s *signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

type eventKind uint8

const (
	kindAdded eventKind = iota
	kindRemoved
	kindUpdated
)

type componentEventKey struct {
	kind   eventKind
	typeID storage.TypeID
}

// EventBus provides the entity/component lifecycle signals described in
// spec §4.4: direct onEntityCreated/onEntityDestroyed members, plus
// per-type onComponentAdded/Removed/Updated signals stored type-erased by
// TypeId and created lazily on first subscription (spec §9's "Signal
// storage keyed by type" design note).
type EventBus struct {
	onEntityCreated   *signal[storage.Entity]
	onEntityDestroyed *signal[storage.Entity]

	mu        sync.Mutex
	component map[componentEventKey]*signal[storage.Entity]
}

// NewEventBus builds an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		onEntityCreated:   newSignal[storage.Entity](),
		onEntityDestroyed: newSignal[storage.Entity](),
		component:         make(map[componentEventKey]*signal[storage.Entity]),
	}
}

// OnEntityCreated connects fn to the entity-created signal.
func (b *EventBus) OnEntityCreated(fn func(storage.Entity)) *ScopedConnection {
	return b.onEntityCreated.Connect(fn)
}

// OnEntityDestroyed connects fn to the entity-destroyed signal.
func (b *EventBus) OnEntityDestroyed(fn func(storage.Entity)) *ScopedConnection {
	return b.onEntityDestroyed.Connect(fn)
}

func (b *EventBus) getOrCreate(kind eventKind, id storage.TypeID) *signal[storage.Entity] {
	key := componentEventKey{kind: kind, typeID: id}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.component[key]
	if !ok {
		s = newSignal[storage.Entity]()
		b.component[key] = s
	}
	return s
}

// lookup returns the signal for (kind, id) without creating one. The
// fast path in emit relies on this returning nil, ok=false when nothing
// has ever subscribed — a single map lookup miss, matching spec §4.4's
// "cached sentinel" short-circuit.
func (b *EventBus) lookup(kind eventKind, id storage.TypeID) (*signal[storage.Entity], bool) {
	key := componentEventKey{kind: kind, typeID: id}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.component[key]
	return s, ok
}

// OnComponentAdded connects fn to onComponentAdded<T>, creating the signal
// on first connect.
func OnComponentAdded[T any](b *EventBus, fn func(storage.Entity)) *ScopedConnection {
	return b.getOrCreate(kindAdded, storage.TypeIDFor[T]()).Connect(fn)
}

// OnComponentRemoved connects fn to onComponentRemoved<T>.
func OnComponentRemoved[T any](b *EventBus, fn func(storage.Entity)) *ScopedConnection {
	return b.getOrCreate(kindRemoved, storage.TypeIDFor[T]()).Connect(fn)
}

// OnComponentUpdated connects fn to onComponentUpdated<T>.
func OnComponentUpdated[T any](b *EventBus, fn func(storage.Entity)) *ScopedConnection {
	return b.getOrCreate(kindUpdated, storage.TypeIDFor[T]()).Connect(fn)
}

func (b *EventBus) emitComponent(kind eventKind, id storage.TypeID, e storage.Entity) {
	if s, ok := b.lookup(kind, id); ok {
		s.Emit(e)
	}
}

// connectComponentAdded/connectComponentRemoved/connectComponentUpdated are
// used internally by groups and observers that only know a TypeID (not a
// static T), e.g. OwningGroup subscribing to every owned type uniformly.
func (b *EventBus) connectComponentAdded(id storage.TypeID, fn func(storage.Entity)) *ScopedConnection {
	return b.getOrCreate(kindAdded, id).Connect(fn)
}
func (b *EventBus) connectComponentRemoved(id storage.TypeID, fn func(storage.Entity)) *ScopedConnection {
	return b.getOrCreate(kindRemoved, id).Connect(fn)
}
func (b *EventBus) connectComponentUpdated(id storage.TypeID, fn func(storage.Entity)) *ScopedConnection {
	return b.getOrCreate(kindUpdated, id).Connect(fn)
}
