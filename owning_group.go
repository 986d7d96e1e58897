package fatpecs

import "fatpecs/storage"

// OwningGroup2 maintains a contiguous prefix of the A and B stores'
// shared dense arrays containing exactly the entities that have both
// components, per spec §4.7. Construction claims exclusive ownership of
// both component types; a second OwningGroup claiming either type fails
// with OwnershipConflict.
type OwningGroup2[A, B any] struct {
	r     *Registry
	a     *storage.ComponentStore[A]
	b     *storage.ComponentStore[B]
	size  int
	label string

	connAdd1, connAdd2       *ScopedConnection
	connRemove1, connRemove2 *ScopedConnection
}

// NewOwningGroup2 builds the group, immediately syncing any entities that
// already qualify, and registers listeners so future add/remove operations
// on A or B keep the dense prefix correct incrementally.
func NewOwningGroup2[A, B any](r *Registry, label string) (*OwningGroup2[A, B], error) {
	a, err := getOrCreateStore[A](r)
	if err != nil {
		return nil, err
	}
	b, err := getOrCreateStore[B](r)
	if err != nil {
		return nil, err
	}
	if err := r.claimOwnership(a.TypeID(), label); err != nil {
		return nil, err
	}
	if err := r.claimOwnership(b.TypeID(), label); err != nil {
		r.releaseOwnership(a.TypeID(), label)
		return nil, err
	}

	g := &OwningGroup2[A, B]{r: r, a: a, b: b, label: label}
	g.rebuild()

	g.connAdd1 = r.bus.connectComponentAdded(a.TypeID(), func(e storage.Entity) { g.tryAdd(e) })
	g.connAdd2 = r.bus.connectComponentAdded(b.TypeID(), func(e storage.Entity) { g.tryAdd(e) })
	g.connRemove1 = r.bus.connectComponentRemoved(a.TypeID(), func(e storage.Entity) { g.tryRemove(e) })
	g.connRemove2 = r.bus.connectComponentRemoved(b.TypeID(), func(e storage.Entity) { g.tryRemove(e) })

	r.trackResettable(g)
	return g, nil
}

func (g *OwningGroup2[A, B]) qualifies(e storage.Entity) bool {
	return g.a.Has(e) && g.b.Has(e)
}

func (g *OwningGroup2[A, B]) rebuild() {
	g.size = 0
	entities := g.a.DenseEntities()
	snapshot := make([]storage.Entity, len(entities))
	copy(snapshot, entities)
	for _, e := range snapshot {
		if g.qualifies(e) {
			g.tryAdd(e)
		}
	}
}

// tryAdd moves e into the prefix if it now qualifies and wasn't already
// there, by swapping its position in both stores up to index size.
func (g *OwningGroup2[A, B]) tryAdd(e storage.Entity) {
	if !g.qualifies(e) {
		return
	}
	posA, ok := g.a.GetDenseIndex(e)
	if !ok {
		return
	}
	if posA < g.size {
		return // already in the prefix
	}
	posB, _ := g.b.GetDenseIndex(e)
	g.a.SwapDenseEntries(posA, g.size)
	g.b.SwapDenseEntries(posB, g.size)
	g.size++
}

// tryRemove evicts e from the prefix if it is there, swapping it to the
// boundary and shrinking size. Called on a componentRemoved signal fired
// before the triggering store's erase (spec §4.7), so e is still present in
// every owned store at this point and, by the group invariant, occupies the
// same dense position in all of them — one GetDenseIndex call is enough to
// find it.
func (g *OwningGroup2[A, B]) tryRemove(e storage.Entity) {
	pos, ok := g.a.GetDenseIndex(e)
	if !ok || pos >= g.size {
		return
	}
	g.size--
	g.a.SwapDenseEntries(pos, g.size)
	g.b.SwapDenseEntries(pos, g.size)
}

// Each iterates the owned prefix in dense order, the group's whole point: a
// flat index walk with no sparse probes, reading both stores' data at the
// same position i since the invariant keeps them in lockstep (spec §4.7).
func (g *OwningGroup2[A, B]) Each(fn func(storage.Entity, *A, *B)) {
	entities := g.a.DenseEntities()
	for i := 0; i < g.size; i++ {
		fn(entities[i], g.a.DenseAt(i), g.b.DenseAt(i))
	}
}

// Size returns the number of entities currently in the owned prefix.
func (g *OwningGroup2[A, B]) Size() int { return g.size }

func (g *OwningGroup2[A, B]) reset() { g.size = 0 }

// Close disconnects the group's listeners and releases its component-type
// ownership claims. The Go adaptation of the original's RAII destructor.
func (g *OwningGroup2[A, B]) Close() {
	g.connAdd1.Disconnect()
	g.connAdd2.Disconnect()
	g.connRemove1.Disconnect()
	g.connRemove2.Disconnect()
	g.r.releaseOwnership(g.a.TypeID(), g.label)
	g.r.releaseOwnership(g.b.TypeID(), g.label)
}

// OwningGroup3 is OwningGroup2 extended to a third owned component type.
type OwningGroup3[A, B, C any] struct {
	r     *Registry
	a     *storage.ComponentStore[A]
	b     *storage.ComponentStore[B]
	c     *storage.ComponentStore[C]
	size  int
	label string

	conns []*ScopedConnection
}

// NewOwningGroup3 builds the group, claiming exclusive ownership of A, B
// and C.
func NewOwningGroup3[A, B, C any](r *Registry, label string) (*OwningGroup3[A, B, C], error) {
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
	ids := []storage.TypeID{a.TypeID(), b.TypeID(), c.TypeID()}
	claimed := 0
	for _, id := range ids {
		if err := r.claimOwnership(id, label); err != nil {
			for i := 0; i < claimed; i++ {
				r.releaseOwnership(ids[i], label)
			}
			return nil, err
		}
		claimed++
	}

	g := &OwningGroup3[A, B, C]{r: r, a: a, b: b, c: c, label: label}
	g.rebuild()

	for _, id := range ids {
		id := id
		g.conns = append(g.conns,
			r.bus.connectComponentAdded(id, func(e storage.Entity) { g.tryAdd(e) }),
			r.bus.connectComponentRemoved(id, func(e storage.Entity) { g.tryRemove(e) }),
		)
	}
	r.trackResettable(g)
	return g, nil
}

func (g *OwningGroup3[A, B, C]) qualifies(e storage.Entity) bool {
	return g.a.Has(e) && g.b.Has(e) && g.c.Has(e)
}

func (g *OwningGroup3[A, B, C]) rebuild() {
	g.size = 0
	entities := g.a.DenseEntities()
	snapshot := make([]storage.Entity, len(entities))
	copy(snapshot, entities)
	for _, e := range snapshot {
		if g.qualifies(e) {
			g.tryAdd(e)
		}
	}
}

func (g *OwningGroup3[A, B, C]) tryAdd(e storage.Entity) {
	if !g.qualifies(e) {
		return
	}
	posA, ok := g.a.GetDenseIndex(e)
	if !ok || posA < g.size {
		return
	}
	posB, _ := g.b.GetDenseIndex(e)
	posC, _ := g.c.GetDenseIndex(e)
	g.a.SwapDenseEntries(posA, g.size)
	g.b.SwapDenseEntries(posB, g.size)
	g.c.SwapDenseEntries(posC, g.size)
	g.size++
}

// tryRemove mirrors OwningGroup2.tryRemove across three owned stores: the
// componentRemoved signal fires before that store's erase, so e is still
// present (and at the same dense position) in A, B and C alike.
func (g *OwningGroup3[A, B, C]) tryRemove(e storage.Entity) {
	pos, ok := g.a.GetDenseIndex(e)
	if !ok || pos >= g.size {
		return
	}
	g.size--
	g.a.SwapDenseEntries(pos, g.size)
	g.b.SwapDenseEntries(pos, g.size)
	g.c.SwapDenseEntries(pos, g.size)
}

// Each iterates the owned prefix in dense order: a flat index walk with no
// sparse probes, all three stores in lockstep at position i (spec §4.7).
func (g *OwningGroup3[A, B, C]) Each(fn func(storage.Entity, *A, *B, *C)) {
	entities := g.a.DenseEntities()
	for i := 0; i < g.size; i++ {
		fn(entities[i], g.a.DenseAt(i), g.b.DenseAt(i), g.c.DenseAt(i))
	}
}

// Size returns the number of entities currently in the owned prefix.
func (g *OwningGroup3[A, B, C]) Size() int { return g.size }

func (g *OwningGroup3[A, B, C]) reset() { g.size = 0 }

// Close disconnects the group's listeners and releases its ownership
// claims.
func (g *OwningGroup3[A, B, C]) Close() {
	for _, c := range g.conns {
		c.Disconnect()
	}
	g.r.releaseOwnership(g.a.TypeID(), g.label)
	g.r.releaseOwnership(g.b.TypeID(), g.label)
	g.r.releaseOwnership(g.c.TypeID(), g.label)
}
