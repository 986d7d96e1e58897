package fatpecs

import "fatpecs/storage"

// EntityNames is a bidirectional name<->entity lookup, supplementing the
// registry for tooling and debugging (editors, save-file references,
// scripting bridges) that need to address entities by a stable string
// instead of a raw handle. Not part of Registry itself — a consumer wires
// it up alongside, listening for destruction to keep names from going
// stale.
type EntityNames struct {
	r          *Registry
	byName     map[string]storage.Entity
	byEntity   map[storage.Entity]string
	onDestroy  *ScopedConnection
}

// NewEntityNames builds an empty name table bound to r; destroying an
// entity through r automatically forgets its name.
func NewEntityNames(r *Registry) *EntityNames {
	n := &EntityNames{
		r:        r,
		byName:   make(map[string]storage.Entity),
		byEntity: make(map[storage.Entity]string),
	}
	n.onDestroy = r.bus.OnEntityDestroyed(func(e storage.Entity) { n.forget(e) })
	return n
}

// Set names e, replacing any previous name it had and displacing any
// other entity previously holding name.
func (n *EntityNames) Set(e storage.Entity, name string) {
	if old, ok := n.byEntity[e]; ok {
		delete(n.byName, old)
	}
	if prev, ok := n.byName[name]; ok {
		delete(n.byEntity, prev)
	}
	n.byName[name] = e
	n.byEntity[e] = name
}

// Lookup returns the entity named name, if any.
func (n *EntityNames) Lookup(name string) (storage.Entity, bool) {
	e, ok := n.byName[name]
	return e, ok
}

// NameOf returns e's name, if any.
func (n *EntityNames) NameOf(e storage.Entity) (string, bool) {
	name, ok := n.byEntity[e]
	return name, ok
}

func (n *EntityNames) forget(e storage.Entity) {
	if name, ok := n.byEntity[e]; ok {
		delete(n.byName, name)
		delete(n.byEntity, e)
	}
}

// Forget removes e's name without destroying the entity.
func (n *EntityNames) Forget(e storage.Entity) { n.forget(e) }

// Len returns the number of named entities.
func (n *EntityNames) Len() int { return len(n.byEntity) }

// Close disconnects the destroy listener.
func (n *EntityNames) Close() { n.onDestroy.Disconnect() }
