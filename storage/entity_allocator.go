package storage

// EntityAllocator mints and recycles Entity handles. It holds a dense
// array of generation counters (one per ever-allocated slot) and a
// free-list of recycled indices (spec §3, §4.1).
type EntityAllocator struct {
	generations []uint32
	alive       []bool
	freeList    []uint32
}

// NewEntityAllocator builds an empty allocator.
func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{}
}

// Create mints a new live Entity: pops a recycled index if the free list
// is non-empty, otherwise grows the generation table by one slot at
// generation 0. Fails with ErrOutOfEntities if the 32-bit index space is
// exhausted.
func (a *EntityAllocator) Create() (Entity, error) {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.alive[idx] = true
		return Traits.Make(idx, a.generations[idx]), nil
	}
	idx := uint32(len(a.generations))
	if idx > MaxIndex {
		return NullEntity, ErrOutOfEntities
	}
	a.generations = append(a.generations, 0)
	a.alive = append(a.alive, true)
	return Traits.Make(idx, 0), nil
}

// Destroy bumps e's slot generation (wraparound permitted) and pushes the
// slot back onto the free list. Precondition: Alive(e); callers must check
// liveness themselves since destroying a dead entity has undefined
// behavior at this layer (the Registry wraps this with the public
// silent-no-op contract from spec §7).
func (a *EntityAllocator) Destroy(e Entity) {
	idx := Traits.Index(e)
	a.generations[idx]++ // wraparound at 2^32-1 -> 0 is permitted by spec §3
	a.alive[idx] = false
	a.freeList = append(a.freeList, idx)
}

// Alive reports whether e refers to a currently-live slot: the index is in
// range and the slot's stored generation matches e's.
func (a *EntityAllocator) Alive(e Entity) bool {
	idx := Traits.Index(e)
	if int(idx) >= len(a.generations) {
		return false
	}
	return a.alive[idx] && a.generations[idx] == Traits.Generation(e)
}

// Len returns the number of ever-allocated slots (including currently
// recycled ones).
func (a *EntityAllocator) Len() int { return len(a.generations) }

// AliveCount returns the number of currently-live entities.
func (a *EntityAllocator) AliveCount() int {
	n := 0
	for _, v := range a.alive {
		if v {
			n++
		}
	}
	return n
}

// Each calls fn for every currently-live entity, in slot order. Iteration
// order of live entities is not guaranteed by spec §4.1 beyond "some
// order"; slot order is the simplest faithful implementation.
func (a *EntityAllocator) Each(fn func(Entity)) {
	for idx, live := range a.alive {
		if live {
			fn(Traits.Make(uint32(idx), a.generations[idx]))
		}
	}
}

// Clear resets the allocator to empty. Existing handles become dead, but
// the generation table itself is discarded rather than bumped-and-kept:
// Registry.Clear() is documented as producing "empty registry" with no
// per-entity destroy events, so there is nothing further to preserve.
func (a *EntityAllocator) Clear() {
	a.generations = a.generations[:0]
	a.alive = a.alive[:0]
	a.freeList = a.freeList[:0]
}
