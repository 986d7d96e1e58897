package fatpecs

import "fatpecs/storage"

// TriggerKind distinguishes which component signal an Observer trigger
// listens to.
type TriggerKind uint8

const (
	triggerAdded TriggerKind = iota
	triggerRemoved
	triggerUpdated
)

// Trigger names a (kind, TypeID) pair an Observer should accumulate
// matching entities for. Built with OnAdded/OnRemoved/OnUpdated.
type Trigger struct {
	kind   TriggerKind
	typeID storage.TypeID
}

// OnAdded builds a Trigger that fires when a component of type T is added.
func OnAdded[T any]() Trigger { return Trigger{kind: triggerAdded, typeID: storage.TypeIDFor[T]()} }

// OnRemoved builds a Trigger that fires when a component of type T is
// removed.
func OnRemoved[T any]() Trigger {
	return Trigger{kind: triggerRemoved, typeID: storage.TypeIDFor[T]()}
}

// OnUpdated builds a Trigger that fires when a component of type T is
// updated (via Patch, Replace or EmplaceOrReplace's replace path).
func OnUpdated[T any]() Trigger {
	return Trigger{kind: triggerUpdated, typeID: storage.TypeIDFor[T]()}
}

// Observer accumulates a dirty set of entities matching any of its
// triggers since the last Clear, per spec §4.8: "reactive accumulator,
// not a live view — entities stay in the set until the caller drains it,
// even if the triggering condition no longer holds."
type Observer struct {
	r     *Registry
	dirty *storage.EntitySet
	conns []*ScopedConnection
}

// NewObserver builds an Observer watching the given triggers.
func NewObserver(r *Registry, triggers ...Trigger) *Observer {
	o := &Observer{r: r, dirty: storage.NewEntitySet()}
	for _, t := range triggers {
		t := t
		var conn *ScopedConnection
		switch t.kind {
		case triggerAdded:
			conn = r.bus.connectComponentAdded(t.typeID, func(e storage.Entity) { o.dirty.Add(e) })
		case triggerRemoved:
			conn = r.bus.connectComponentRemoved(t.typeID, func(e storage.Entity) { o.dirty.Add(e) })
		case triggerUpdated:
			conn = r.bus.connectComponentUpdated(t.typeID, func(e storage.Entity) { o.dirty.Add(e) })
		}
		o.conns = append(o.conns, conn)
	}
	o.conns = append(o.conns, r.bus.OnEntityDestroyed(func(e storage.Entity) { o.dirty.Remove(e) }))
	r.trackResettable(o)
	return o
}

// Each calls fn for every entity currently in the dirty set, over a
// snapshot taken at call time.
func (o *Observer) Each(fn func(storage.Entity)) {
	for _, e := range o.dirty.ToSlice() {
		fn(e)
	}
}

// Count returns the number of entities currently in the dirty set.
func (o *Observer) Count() int { return o.dirty.Len() }

// Empty reports whether the dirty set has no members.
func (o *Observer) Empty() bool { return o.dirty.Len() == 0 }

// Clear drains the dirty set without invoking fn on its members.
func (o *Observer) Clear() { o.dirty.Clear() }

func (o *Observer) reset() { o.dirty.Clear() }

// Close disconnects the observer's listeners.
func (o *Observer) Close() {
	for _, c := range o.conns {
		c.Disconnect()
	}
}
