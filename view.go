package fatpecs

import "fatpecs/storage"

// pivotIndex picks the smallest of the given stores to drive iteration, the
// same heuristic spec §4.6 names for View: "iterate the store with the
// fewest entities, probe the rest."
func pivotIndex(lens ...int) int {
	best := 0
	for i := 1; i < len(lens); i++ {
		if lens[i] < lens[best] {
			best = i
		}
	}
	return best
}

// View1 iterates every entity holding a component of type A. It exists
// mainly so single-component iteration shares the same Each/Len shape
// as View2/View3, and so excludes can be layered on uniformly.
type View1[A any] struct {
	r       *Registry
	a       *storage.ComponentStore[A]
	exclude []storage.TypeID
}

// NewView1 builds a View1 over the current registry contents. Returns a
// view with Len()==0 if the store for A doesn't exist yet.
func NewView1[A any](r *Registry, exclude ...storage.TypeID) *View1[A] {
	return &View1[A]{r: r, a: storage.GetStore[A](r.stores), exclude: exclude}
}

func (v *View1[A]) excluded(e storage.Entity) bool {
	for _, id := range v.exclude {
		if s := v.r.stores.TryGetRaw(id); s != nil && s.Has(e) {
			return true
		}
	}
	return false
}

// Each calls fn(entity, *A) for every matching entity, iterating a
// snapshot of the pivot store's dense array taken at call time (spec
// §4.6: structural changes mid-iteration do not affect the entities
// already captured in that snapshot).
func (v *View1[A]) Each(fn func(storage.Entity, *A)) {
	if v.a == nil {
		return
	}
	entities := v.a.DenseEntities()
	snapshot := make([]storage.Entity, len(entities))
	copy(snapshot, entities)
	for _, e := range snapshot {
		if v.excluded(e) {
			continue
		}
		a, ok := v.a.Get(e)
		if !ok {
			continue
		}
		fn(e, a)
	}
}

// Len returns the number of entities in the pivot store (an upper bound on
// match count when excludes are present).
func (v *View1[A]) Len() int {
	if v.a == nil {
		return 0
	}
	return v.a.Len()
}

// View2 iterates every entity holding components of both A and B, picking
// whichever store is smaller as the iteration pivot and probing the other
// (spec §4.6).
type View2[A, B any] struct {
	r       *Registry
	a       *storage.ComponentStore[A]
	b       *storage.ComponentStore[B]
	exclude []storage.TypeID
}

// NewView2 builds a View2 over the current registry contents.
func NewView2[A, B any](r *Registry, exclude ...storage.TypeID) *View2[A, B] {
	return &View2[A, B]{
		r:       r,
		a:       storage.GetStore[A](r.stores),
		b:       storage.GetStore[B](r.stores),
		exclude: exclude,
	}
}

func (v *View2[A, B]) excluded(e storage.Entity) bool {
	for _, id := range v.exclude {
		if s := v.r.stores.TryGetRaw(id); s != nil && s.Has(e) {
			return true
		}
	}
	return false
}

// Each calls fn(entity, *A, *B) for every matching entity.
func (v *View2[A, B]) Each(fn func(storage.Entity, *A, *B)) {
	if v.a == nil || v.b == nil {
		return
	}
	var pivotEntities []storage.Entity
	if v.a.Len() <= v.b.Len() {
		pivotEntities = v.a.DenseEntities()
	} else {
		pivotEntities = v.b.DenseEntities()
	}
	snapshot := make([]storage.Entity, len(pivotEntities))
	copy(snapshot, pivotEntities)
	for _, e := range snapshot {
		if v.excluded(e) {
			continue
		}
		a, ok := v.a.Get(e)
		if !ok {
			continue
		}
		b, ok := v.b.Get(e)
		if !ok {
			continue
		}
		fn(e, a, b)
	}
}

// Len returns the smaller of the two backing stores' sizes.
func (v *View2[A, B]) Len() int {
	if v.a == nil || v.b == nil {
		return 0
	}
	if v.a.Len() < v.b.Len() {
		return v.a.Len()
	}
	return v.b.Len()
}

// View3 iterates every entity holding components of A, B and C.
type View3[A, B, C any] struct {
	r       *Registry
	a       *storage.ComponentStore[A]
	b       *storage.ComponentStore[B]
	c       *storage.ComponentStore[C]
	exclude []storage.TypeID
}

// NewView3 builds a View3 over the current registry contents.
func NewView3[A, B, C any](r *Registry, exclude ...storage.TypeID) *View3[A, B, C] {
	return &View3[A, B, C]{
		r:       r,
		a:       storage.GetStore[A](r.stores),
		b:       storage.GetStore[B](r.stores),
		c:       storage.GetStore[C](r.stores),
		exclude: exclude,
	}
}

func (v *View3[A, B, C]) excluded(e storage.Entity) bool {
	for _, id := range v.exclude {
		if s := v.r.stores.TryGetRaw(id); s != nil && s.Has(e) {
			return true
		}
	}
	return false
}

// Each calls fn(entity, *A, *B, *C) for every matching entity.
func (v *View3[A, B, C]) Each(fn func(storage.Entity, *A, *B, *C)) {
	if v.a == nil || v.b == nil || v.c == nil {
		return
	}
	lens := []int{v.a.Len(), v.b.Len(), v.c.Len()}
	var pivotEntities []storage.Entity
	switch pivotIndex(lens...) {
	case 0:
		pivotEntities = v.a.DenseEntities()
	case 1:
		pivotEntities = v.b.DenseEntities()
	default:
		pivotEntities = v.c.DenseEntities()
	}
	snapshot := make([]storage.Entity, len(pivotEntities))
	copy(snapshot, pivotEntities)
	for _, e := range snapshot {
		if v.excluded(e) {
			continue
		}
		a, ok := v.a.Get(e)
		if !ok {
			continue
		}
		b, ok := v.b.Get(e)
		if !ok {
			continue
		}
		c, ok := v.c.Get(e)
		if !ok {
			continue
		}
		fn(e, a, b, c)
	}
}

// Len returns the smallest of the three backing stores' sizes.
func (v *View3[A, B, C]) Len() int {
	if v.a == nil || v.b == nil || v.c == nil {
		return 0
	}
	min := v.a.Len()
	if v.b.Len() < min {
		min = v.b.Len()
	}
	if v.c.Len() < min {
		min = v.c.Len()
	}
	return min
}
