package storage

// tombstone marks a sparse-array slot with no corresponding dense position.
const tombstone = ^uint32(0)

// IComponentStore is the narrow, type-erased interface the registry needs
// for operations that don't require knowing T: remove-by-entity, presence
// checks, clearing and size. Concrete ComponentStore[T] implements this
// plus TypedComponentStore below (spec §9's "small trait object").
type IComponentStore interface {
	TypeID() TypeID
	Remove(e Entity) bool
	Has(e Entity) bool
	Clear()
	Len() int
	CopyInto(src, dst Entity) (wasAdded bool, ok bool)
	// DenseEntitiesErased exposes the dense entity array without requiring
	// the caller to know T — used by RuntimeView, which resolves its
	// include/exclude sets from a []TypeID rather than compile-time types.
	DenseEntitiesErased() []Entity
}

// TypedComponentStore narrows an IComponentStore back down to its concrete
// *ComponentStore[T] pointer with a single type assertion — the "one
// virtual call" hot loops pay before caching the concrete pointer (spec §9).
type TypedComponentStore[T any] interface {
	IComponentStore
	Concrete() *ComponentStore[T]
}

// ComponentStore is the per-component-type sparse-set storage described in
// spec §4.2: a sparse array mapping entity index to dense position, a
// parallel dense array of full Entity handles, and a dense array of T
// values held in a container chosen by a StoragePolicy.
type ComponentStore[T any] struct {
	typeID TypeID
	sparse []uint32 // entity index -> dense position, or tombstone
	dense  []Entity // dense position -> entity handle
	data   Container[T]
	policy StoragePolicy[T]
}

// NewComponentStore builds an empty store for T backed by policy.
func NewComponentStore[T any](policy StoragePolicy[T]) *ComponentStore[T] {
	if policy == nil {
		policy = DefaultPolicy[T]{}
	}
	return &ComponentStore[T]{
		typeID: TypeIDFor[T](),
		policy: policy,
		data:   policy.NewContainer(),
	}
}

// TypeID returns the TypeID this store was created for.
func (s *ComponentStore[T]) TypeID() TypeID { return s.typeID }

// Concrete implements TypedComponentStore[T]; returns s unchanged.
func (s *ComponentStore[T]) Concrete() *ComponentStore[T] { return s }

func (s *ComponentStore[T]) growSparse(index uint32) {
	if int(index) < len(s.sparse) {
		return
	}
	old := len(s.sparse)
	newLen := int(index) + 1
	grown := make([]uint32, newLen)
	copy(grown, s.sparse)
	for i := old; i < newLen; i++ {
		grown[i] = tombstone
	}
	s.sparse = grown
}

// Has reports whether e currently has a component in this store, including
// the generation check against the stored dense entity.
func (s *ComponentStore[T]) Has(e Entity) bool {
	idx := Traits.Index(e)
	if int(idx) >= len(s.sparse) {
		return false
	}
	pos := s.sparse[idx]
	return pos != tombstone && s.dense[pos] == e
}

// Add attaches v to e. Precondition !Has(e); returns ErrAlreadyPresent
// otherwise.
func (s *ComponentStore[T]) Add(e Entity, v T) error {
	if s.Has(e) {
		return NewEntityError(KindAlreadyPresent, e, "component already present")
	}
	idx := Traits.Index(e)
	s.growSparse(idx)
	pos := uint32(len(s.dense))
	s.dense = append(s.dense, e)
	s.data.Append(v)
	s.sparse[idx] = pos
	return nil
}

// Emplace is an alias for Add, named to mirror spec §4.2's add/emplace
// distinction (in-place construction); Go passes v by value in both cases.
func (s *ComponentStore[T]) Emplace(e Entity, v T) error { return s.Add(e, v) }

// Remove detaches e's component, swapping the last dense element into the
// freed slot. Returns false if e had no component (silent no-op, matching
// the Registry::remove variant described in spec §4.2).
func (s *ComponentStore[T]) Remove(e Entity) bool {
	if !s.Has(e) {
		return false
	}
	idx := Traits.Index(e)
	pos := s.sparse[idx]
	last := uint32(len(s.dense) - 1)

	if pos != last {
		movedEntity := s.dense[last]
		s.dense[pos] = movedEntity
		s.data.Set(int(pos), s.data.Get(int(last)))
		s.sparse[Traits.Index(movedEntity)] = pos
	}

	s.dense = s.dense[:last]
	s.data.PopBack()
	s.sparse[idx] = tombstone
	return true
}

// Get returns a pointer to e's component and true, or (nil, false) if e has
// none. Never panics.
func (s *ComponentStore[T]) Get(e Entity) (*T, bool) {
	idx := Traits.Index(e)
	if int(idx) >= len(s.sparse) {
		return nil, false
	}
	pos := s.sparse[idx]
	if pos == tombstone || s.dense[pos] != e {
		return nil, false
	}
	return s.data.Ptr(int(pos)), true
}

// MustGet returns a pointer to e's component assuming Has(e); behavior is
// undefined (panics via index-out-of-range) if the precondition is
// violated, matching spec §4.2's get(e) contract.
func (s *ComponentStore[T]) MustGet(e Entity) *T {
	idx := Traits.Index(e)
	pos := s.sparse[idx]
	return s.data.Ptr(int(pos))
}

// Patch invokes fn on e's component in place. Caller (Registry) is
// responsible for firing onComponentUpdated<T> after this returns.
func (s *ComponentStore[T]) Patch(e Entity, fn func(*T)) bool {
	v, ok := s.Get(e)
	if !ok {
		return false
	}
	fn(v)
	return true
}

// GetDenseIndex returns sparse[index(e)] after validating generation, and
// true, or (0, false) if e has no component here (spec §4.2).
func (s *ComponentStore[T]) GetDenseIndex(e Entity) (int, bool) {
	idx := Traits.Index(e)
	if int(idx) >= len(s.sparse) {
		return 0, false
	}
	pos := s.sparse[idx]
	if pos == tombstone || s.dense[pos] != e {
		return 0, false
	}
	return int(pos), true
}

// SwapDenseEntries exchanges the dense-array contents at positions k1 and
// k2, updating both entities' sparse entries. Used by OwningGroup to
// maintain its contiguous prefix.
func (s *ComponentStore[T]) SwapDenseEntries(k1, k2 int) {
	if k1 == k2 {
		return
	}
	e1, e2 := s.dense[k1], s.dense[k2]
	s.dense[k1], s.dense[k2] = e2, e1
	d1, d2 := s.data.Get(k1), s.data.Get(k2)
	s.data.Set(k1, d2)
	s.data.Set(k2, d1)
	s.sparse[Traits.Index(e1)] = uint32(k2)
	s.sparse[Traits.Index(e2)] = uint32(k1)
}

// Len returns the number of components currently stored.
func (s *ComponentStore[T]) Len() int { return len(s.dense) }

// Clear empties the store.
func (s *ComponentStore[T]) Clear() {
	s.sparse = s.sparse[:0]
	s.dense = s.dense[:0]
	s.data.Clear()
}

// CopyInto copies src's component value onto dst within this store: if dst
// already has one it is overwritten (wasAdded=false), otherwise a new
// component is attached (wasAdded=true). Returns ok=false without touching
// dst if src has no component here, so Registry.Copy can skip emitting an
// event for this store. Caller owns firing the appropriate signal.
func (s *ComponentStore[T]) CopyInto(src, dst Entity) (wasAdded bool, ok bool) {
	v, has := s.Get(src)
	if !has {
		return false, false
	}
	if dptr, exists := s.Get(dst); exists {
		*dptr = *v
		return false, true
	}
	_ = s.Add(dst, *v)
	return true, true
}

// DenseEntities returns the dense entity array. The returned slice's
// header is frozen at call time; callers iterating a hot loop should read
// it once before the loop starts (spec §4.2's unaliased-pointer
// requirement), matching the "snapshot of the pivot store's dense array"
// semantics View relies on.
func (s *ComponentStore[T]) DenseEntities() []Entity { return s.dense }

// DenseEntitiesErased implements IComponentStore.DenseEntitiesErased.
func (s *ComponentStore[T]) DenseEntitiesErased() []Entity { return s.dense }

// DenseData returns the dense component-value array.
func (s *ComponentStore[T]) DenseData() []T { return s.data.Data() }

// DenseAt returns a pointer to the component value at dense position i.
// Callers must know i < Len(); used by OwningGroup.Each for the flat index
// walk spec §4.7 promises once entities occupy the same dense position in
// lockstep across every store the group owns.
func (s *ComponentStore[T]) DenseAt(i int) *T { return s.data.Ptr(i) }

// Sort reorders denseData according to less, rebuilding sparse and
// denseEntities in lockstep via a single permutation vector.
func (s *ComponentStore[T]) Sort(less func(a, b *T) bool) {
	n := len(s.dense)
	if n < 2 {
		return
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	data := s.data.Data()
	sortPermutation(perm, func(i, j int) bool { return less(&data[i], &data[j]) })
	s.applyPermutation(perm)
}

// MatchSort permutes this store so its entities appear in the order they
// appear in otherOrder (entities not present in otherOrder stay at the
// tail, preserving their original relative order).
func (s *ComponentStore[T]) MatchSort(otherOrder []Entity) {
	n := len(s.dense)
	if n < 2 {
		return
	}
	rank := make(map[Entity]int, len(otherOrder))
	for i, e := range otherOrder {
		rank[e] = i
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	const notFound = int(^uint(0) >> 1)
	rankOf := func(i int) int {
		if r, ok := rank[s.dense[i]]; ok {
			return r
		}
		return notFound
	}
	sortPermutationStable(perm, func(i, j int) bool { return rankOf(i) < rankOf(j) })
	s.applyPermutation(perm)
}

func (s *ComponentStore[T]) applyPermutation(perm []int) {
	n := len(perm)
	newDense := make([]Entity, n)
	newData := make([]T, n)
	data := s.data.Data()
	for newPos, oldPos := range perm {
		newDense[newPos] = s.dense[oldPos]
		newData[newPos] = data[oldPos]
	}
	copy(s.dense, newDense)
	for i, v := range newData {
		s.data.Set(i, v)
	}
	for pos, e := range s.dense {
		s.sparse[Traits.Index(e)] = uint32(pos)
	}
}
