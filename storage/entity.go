// Package storage holds the low-level, type-erasable building blocks of the
// fatpecs runtime: entity handles, the type-id counter, component masks,
// storage policies and the generic per-type sparse-set component store.
package storage

import "math"

// Entity is a 64-bit opaque handle packing a 32-bit slot index (low bits)
// and a 32-bit generation counter (high bits). Handles are plain values;
// copying one never touches allocator state.
type Entity uint64

// NullEntity has every bit set. It never compares equal to a live handle
// because no allocator slot ever reaches generation 0xFFFFFFFF while also
// sitting at index 0xFFFFFFFF (EntityAllocator reserves that index).
const NullEntity Entity = math.MaxUint64

// EntityTraits packs/unpacks the index and generation fields of an Entity.
// All methods are pure functions of their arguments.
type EntityTraits struct{}

// MaxIndex is the largest index EntityAllocator will ever hand out. The top
// value is reserved as a sentinel so OutOfEntities has a clean boundary.
const MaxIndex uint32 = math.MaxUint32 - 1

// Make packs an index and generation into an Entity.
func (EntityTraits) Make(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from an Entity.
func (EntityTraits) Index(e Entity) uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the generation counter from an Entity.
func (EntityTraits) Generation(e Entity) uint32 {
	return uint32(e >> 32)
}

// Traits is the package-level EntityTraits instance; its methods are pure
// and stateless so a shared value is sufficient.
var Traits EntityTraits
