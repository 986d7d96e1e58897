package storage

import (
	"reflect"
	"sync"
)

// MaxComponentTypes bounds the number of distinct component types a single
// process may register (spec §4.3, §6: MAX_COMPONENT_TYPES, default 256).
const MaxComponentTypes = 256

// TypeID is a process-unique small integer assigned to a component type the
// first time TypeIDFor[T] is called for it.
type TypeID uint32

var (
	typeIDMu      sync.Mutex
	typeIDCounter uint32
	typeIDCache   = map[reflect.Type]TypeID{}
)

// TypeIDFor returns the process-wide TypeID for T, assigning one from a
// monotonically increasing counter on first use. The id is stable for the
// lifetime of the process but carries no meaning across processes (see spec
// §4.3 and the "Open Questions" note on per-registry counters).
//
// The check and the increment happen under the same lock, so two goroutines
// racing to assign an id to the same never-seen T can't both consume a
// counter value — a sync.Map-based check-then-LoadOrStore would let the
// loser's already-incremented value go unused, silently shrinking the
// effective MaxComponentTypes budget every time that race is lost.
//
// TypeIDFor never fails; the MaxComponentTypes bound is enforced where a
// store is actually created (GetOrCreateStore), matching "the
// store for T is created lazily on first mutating call".
func TypeIDFor[T any]() TypeID {
	rt := reflect.TypeOf((*T)(nil)).Elem()

	typeIDMu.Lock()
	defer typeIDMu.Unlock()
	if id, ok := typeIDCache[rt]; ok {
		return id
	}
	id := TypeID(typeIDCounter)
	typeIDCounter++
	typeIDCache[rt] = id
	return id
}

// RegisteredTypeCount reports how many distinct component types have been
// assigned a TypeID so far in this process. Exposed for diagnostics and
// tests exercising the TooManyTypes boundary.
func RegisteredTypeCount() int {
	typeIDMu.Lock()
	defer typeIDMu.Unlock()
	return int(typeIDCounter)
}

// setTypeIDCounterForTest forces the next-assigned TypeID, returning a
// closure that restores the previous value. Go's generics make it
// infeasible to instantiate 256 distinct concrete component types at
// compile time just to exercise the MaxComponentTypes boundary, so tests
// reach for this instead of fabricating a fake counter type.
func setTypeIDCounterForTest(n uint32) (restore func()) {
	typeIDMu.Lock()
	prev := typeIDCounter
	typeIDCounter = n
	typeIDMu.Unlock()
	return func() {
		typeIDMu.Lock()
		typeIDCounter = prev
		typeIDMu.Unlock()
	}
}
