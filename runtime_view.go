package fatpecs

import "fatpecs/storage"

// RuntimeView iterates entities matching a set of component types chosen
// at runtime rather than compile time — the include/exclude list form
// spec §4.6 reserves for tooling (editors, scripting bridges, the
// snapshot/group-builder machinery) where the component set isn't known
// until the program is already running. It yields entities only; callers
// fetch component values with the typed Get/Has free functions once they
// know which T to ask for.
type RuntimeView struct {
	r       *Registry
	include []storage.TypeID
	exclude []storage.TypeID
}

// NewRuntimeView builds a view over entities that have every type in
// include and none of the types in exclude.
func NewRuntimeView(r *Registry, include, exclude []storage.TypeID) *RuntimeView {
	return &RuntimeView{r: r, include: include, exclude: exclude}
}

// Each calls fn for every entity satisfying the include/exclude sets,
// iterating a snapshot of the smallest included store's dense array.
func (v *RuntimeView) Each(fn func(storage.Entity)) {
	if len(v.include) == 0 {
		return
	}
	pivot := v.r.stores.TryGetRaw(v.include[0])
	for _, id := range v.include[1:] {
		s := v.r.stores.TryGetRaw(id)
		if s == nil {
			return
		}
		if pivot == nil || s.Len() < pivot.Len() {
			pivot = s
		}
	}
	if pivot == nil {
		return
	}

	entities := pivot.DenseEntitiesErased()
	snapshot := make([]storage.Entity, len(entities))
	copy(snapshot, entities)

	for _, e := range snapshot {
		if !v.matches(e) {
			continue
		}
		fn(e)
	}
}

func (v *RuntimeView) matches(e storage.Entity) bool {
	for _, id := range v.include {
		s := v.r.stores.TryGetRaw(id)
		if s == nil || !s.Has(e) {
			return false
		}
	}
	for _, id := range v.exclude {
		if s := v.r.stores.TryGetRaw(id); s != nil && s.Has(e) {
			return false
		}
	}
	return true
}
