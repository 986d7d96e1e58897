package fatpecs

import "fatpecs/storage"

// NonOwningGroup2 caches the set of entities holding both A and B without
// reordering either store's dense array, for when the caller can't claim
// exclusive ownership of the component types (spec §4.7's non-owning
// variant: "a private cached entity list, kept in sync incrementally").
type NonOwningGroup2[A, B any] struct {
	r     *Registry
	a     *storage.ComponentStore[A]
	b     *storage.ComponentStore[B]
	set   *storage.EntitySet
	conns []*ScopedConnection
}

// NewNonOwningGroup2 builds the group and populates it from current
// registry contents.
func NewNonOwningGroup2[A, B any](r *Registry) (*NonOwningGroup2[A, B], error) {
	a, err := getOrCreateStore[A](r)
	if err != nil {
		return nil, err
	}
	b, err := getOrCreateStore[B](r)
	if err != nil {
		return nil, err
	}
	g := &NonOwningGroup2[A, B]{r: r, a: a, b: b, set: storage.NewEntitySet()}

	entities := a.DenseEntities()
	snapshot := make([]storage.Entity, len(entities))
	copy(snapshot, entities)
	for _, e := range snapshot {
		if a.Has(e) && b.Has(e) {
			g.set.Add(e)
		}
	}

	g.conns = []*ScopedConnection{
		r.bus.connectComponentAdded(a.TypeID(), func(e storage.Entity) { g.tryAdd(e) }),
		r.bus.connectComponentAdded(b.TypeID(), func(e storage.Entity) { g.tryAdd(e) }),
		r.bus.connectComponentRemoved(a.TypeID(), func(e storage.Entity) { g.set.Remove(e) }),
		r.bus.connectComponentRemoved(b.TypeID(), func(e storage.Entity) { g.set.Remove(e) }),
		r.bus.onEntityDestroyed.Connect(func(e storage.Entity) { g.set.Remove(e) }),
	}
	r.trackResettable(g)
	return g, nil
}

func (g *NonOwningGroup2[A, B]) tryAdd(e storage.Entity) {
	if g.a.Has(e) && g.b.Has(e) {
		g.set.Add(e)
	}
}

// Each calls fn for every entity currently in the group, over a snapshot
// of the cached set so connect/disconnect-style mutation mid-iteration is
// safe.
func (g *NonOwningGroup2[A, B]) Each(fn func(storage.Entity, *A, *B)) {
	for _, e := range g.set.ToSlice() {
		a, ok := g.a.Get(e)
		if !ok {
			continue
		}
		b, ok := g.b.Get(e)
		if !ok {
			continue
		}
		fn(e, a, b)
	}
}

// Size returns the number of entities currently in the group.
func (g *NonOwningGroup2[A, B]) Size() int { return g.set.Len() }

func (g *NonOwningGroup2[A, B]) reset() { g.set.Clear() }

// Close disconnects the group's listeners.
func (g *NonOwningGroup2[A, B]) Close() {
	for _, c := range g.conns {
		c.Disconnect()
	}
}

// NonOwningGroup3 is NonOwningGroup2 extended to a third component type.
type NonOwningGroup3[A, B, C any] struct {
	r     *Registry
	a     *storage.ComponentStore[A]
	b     *storage.ComponentStore[B]
	c     *storage.ComponentStore[C]
	set   *storage.EntitySet
	conns []*ScopedConnection
}

// NewNonOwningGroup3 builds the group and populates it from current
// registry contents.
func NewNonOwningGroup3[A, B, C any](r *Registry) (*NonOwningGroup3[A, B, C], error) {
	a, err := getOrCreateStore[A](r)
	if err != nil {
		return nil, err
	}
	b, err := getOrCreateStore[B](r)
	if err != nil {
		return nil, err
	}
	c, err := getOrCreateStore[C](r)
	if err != nil {
		return nil, err
	}
	g := &NonOwningGroup3[A, B, C]{r: r, a: a, b: b, c: c, set: storage.NewEntitySet()}

	entities := a.DenseEntities()
	snapshot := make([]storage.Entity, len(entities))
	copy(snapshot, entities)
	for _, e := range snapshot {
		if a.Has(e) && b.Has(e) && c.Has(e) {
			g.set.Add(e)
		}
	}

	for _, id := range []storage.TypeID{a.TypeID(), b.TypeID(), c.TypeID()} {
		g.conns = append(g.conns,
			r.bus.connectComponentAdded(id, func(e storage.Entity) { g.tryAdd(e) }),
			r.bus.connectComponentRemoved(id, func(e storage.Entity) { g.set.Remove(e) }),
		)
	}
	g.conns = append(g.conns, r.bus.onEntityDestroyed.Connect(func(e storage.Entity) { g.set.Remove(e) }))
	r.trackResettable(g)
	return g, nil
}

func (g *NonOwningGroup3[A, B, C]) tryAdd(e storage.Entity) {
	if g.a.Has(e) && g.b.Has(e) && g.c.Has(e) {
		g.set.Add(e)
	}
}

// Each calls fn for every entity currently in the group.
func (g *NonOwningGroup3[A, B, C]) Each(fn func(storage.Entity, *A, *B, *C)) {
	for _, e := range g.set.ToSlice() {
		a, ok := g.a.Get(e)
		if !ok {
			continue
		}
		b, ok := g.b.Get(e)
		if !ok {
			continue
		}
		c, ok := g.c.Get(e)
		if !ok {
			continue
		}
		fn(e, a, b, c)
	}
}

// Size returns the number of entities currently in the group.
func (g *NonOwningGroup3[A, B, C]) Size() int { return g.set.Len() }

func (g *NonOwningGroup3[A, B, C]) reset() { g.set.Clear() }

// Close disconnects the group's listeners.
func (g *NonOwningGroup3[A, B, C]) Close() {
	for _, c := range g.conns {
		c.Disconnect()
	}
}
