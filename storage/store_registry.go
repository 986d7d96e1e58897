package storage

// StoreRegistry is the type-erased map from TypeID to an owned component
// store (spec §3's StoreRegistry, §4.3). It is not internally
// synchronized: spec §5 states the registry and its stores are not
// themselves thread-safe, and parallel safety is the Scheduler's
// responsibility.
type StoreRegistry struct {
	stores map[TypeID]IComponentStore
}

// NewStoreRegistry builds an empty registry.
func NewStoreRegistry() *StoreRegistry {
	return &StoreRegistry{stores: make(map[TypeID]IComponentStore)}
}

// TryGetRaw returns the type-erased store for id, or nil if none has been
// created.
func (r *StoreRegistry) TryGetRaw(id TypeID) IComponentStore {
	return r.stores[id]
}

// All returns every registered store, in no particular order. Used by
// Registry.Destroy/Clear to sweep every type.
func (r *StoreRegistry) All() []IComponentStore {
	out := make([]IComponentStore, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	return out
}

// GetStore returns the typed store for T, or nil if T was never
// registered (tryGetStore<T>() in spec §4.3). This is the "one virtual
// call" type assertion hot loops pay once before caching the concrete
// pointer.
func GetStore[T any](r *StoreRegistry) *ComponentStore[T] {
	s, ok := r.stores[TypeIDFor[T]()]
	if !ok {
		return nil
	}
	return s.(*ComponentStore[T]).Concrete()
}

// GetOrCreateStore returns the existing store for T, or lazily creates one
// using policy (or DefaultPolicy[T] if policy is nil). Fails with
// ErrTooManyTypes if T's TypeID would exceed MaxComponentTypes and no
// store yet exists, and with ErrPolicyMismatch if a store already exists
// under a different policy type.
func GetOrCreateStore[T any](r *StoreRegistry, policy StoragePolicy[T]) (*ComponentStore[T], error) {
	id := TypeIDFor[T]()
	if existing, ok := r.stores[id]; ok {
		cs := existing.(*ComponentStore[T]).Concrete()
		if policy != nil && cs.policy != nil {
			if differentPolicyType(cs.policy, policy) {
				return nil, NewError(KindPolicyMismatch, "store already exists under a different storage policy")
			}
		}
		return cs, nil
	}
	if uint32(id) >= MaxComponentTypes {
		return nil, ErrTooManyTypes
	}
	cs := NewComponentStore[T](policy)
	r.stores[id] = cs
	return cs, nil
}

func differentPolicyType[T any](a, b StoragePolicy[T]) bool {
	return typeName(a) != typeName(b)
}

func typeName[T any](p StoragePolicy[T]) string {
	switch p.(type) {
	case DefaultPolicy[T]:
		return "default"
	case AlignedPolicy[T]:
		return "aligned"
	case ConcurrentPolicy[T]:
		return "concurrent"
	default:
		return "custom"
	}
}

// Clear empties every registered store, leaving TypeID assignments intact
// (TypeIDFor is process-wide, not registry-scoped).
func (r *StoreRegistry) Clear() {
	for _, s := range r.stores {
		s.Clear()
	}
}
