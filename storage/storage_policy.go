package storage

import (
	"sync"
	"unsafe"
)

// Container is the capability set a dense-data backing store must provide
// for ComponentStore[T]: indexed access, back-insert/back-remove, a
// contiguous data pointer (via Data), size and iteration (spec §4.2
// StoragePolicy section).
type Container[T any] interface {
	Append(v T)
	Get(i int) T
	Ptr(i int) *T
	Set(i int, v T)
	// Data returns the live backing slice. Callers that need a stable
	// pointer across a hot loop must read Data() once before iterating
	// and must not mutate the container during that loop (spec §4.2's
	// "raw pointers... cached before the loop").
	Data() []T
	Len() int
	PopBack()
	Clear()
	// DataAlignment reports the byte alignment of the backing allocation,
	// or 0 for policies that make no alignment guarantee beyond the
	// platform default.
	DataAlignment() int
}

// StoragePolicy names the dense-data container a ComponentStore[T] should
// use and constructs one. Built-in policies: DefaultPolicy[T] (plain
// slice), AlignedPolicy[T] (N-byte aligned allocation) and
// ConcurrentPolicy[T] (slice guarded by a lock during writes).
type StoragePolicy[T any] interface {
	NewContainer() Container[T]
}

// ---- Default: plain contiguous slice ----

// DefaultPolicy is the zero-overhead storage policy backed by a plain Go
// slice.
type DefaultPolicy[T any] struct{}

func (DefaultPolicy[T]) NewContainer() Container[T] { return &sliceContainer[T]{} }

type sliceContainer[T any] struct {
	data []T
}

func (c *sliceContainer[T]) Append(v T)      { c.data = append(c.data, v) }
func (c *sliceContainer[T]) Get(i int) T     { return c.data[i] }
func (c *sliceContainer[T]) Ptr(i int) *T    { return &c.data[i] }
func (c *sliceContainer[T]) Set(i int, v T)  { c.data[i] = v }
func (c *sliceContainer[T]) Data() []T       { return c.data }
func (c *sliceContainer[T]) Len() int        { return len(c.data) }
func (c *sliceContainer[T]) PopBack()        { c.data = c.data[:len(c.data)-1] }
func (c *sliceContainer[T]) Clear()          { c.data = c.data[:0] }
func (c *sliceContainer[T]) DataAlignment() int { return 0 }

// ---- Aligned<N>: N-byte aligned contiguous allocation ----

// AlignedPolicy backs a ComponentStore[T] with a contiguous allocation
// padded to a caller-chosen byte alignment, for SIMD- or cache-line-
// sensitive component types. Alignment must be a power of two.
type AlignedPolicy[T any] struct {
	Alignment int
}

func (p AlignedPolicy[T]) NewContainer() Container[T] {
	align := p.Alignment
	if align <= 0 {
		align = 64
	}
	return &alignedContainer[T]{alignment: align}
}

// alignedContainer keeps elements in a []T slice allocated from a larger
// []byte arena whose first element address is rounded up to `alignment`.
// Growth reallocates a new arena and copies existing elements, mirroring
// the amortized-doubling behavior expected of a dense-array policy.
type alignedContainer[T any] struct {
	alignment int
	arena     []byte
	view      []T
	length    int
}

func (c *alignedContainer[T]) ensureCapacity(want int) {
	if c.view != nil && want <= cap(c.view) {
		return
	}
	newCap := 8
	for newCap < want {
		newCap *= 2
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	arena := make([]byte, newCap*elemSize+c.alignment)
	addr := uintptr(unsafe.Pointer(&arena[0]))
	offset := (c.alignment - int(addr%uintptr(c.alignment))) % c.alignment
	newView := unsafe.Slice((*T)(unsafe.Pointer(&arena[offset])), newCap)
	copy(newView, c.view[:c.length])
	c.arena = arena
	c.view = newView[:0]
}

func (c *alignedContainer[T]) Append(v T) {
	c.ensureCapacity(c.length + 1)
	c.view = c.view[:c.length+1]
	c.view[c.length] = v
	c.length++
}
func (c *alignedContainer[T]) Get(i int) T    { return c.view[i] }
func (c *alignedContainer[T]) Ptr(i int) *T   { return &c.view[i] }
func (c *alignedContainer[T]) Set(i int, v T) { c.view[i] = v }
func (c *alignedContainer[T]) Data() []T      { return c.view[:c.length] }
func (c *alignedContainer[T]) Len() int       { return c.length }
func (c *alignedContainer[T]) PopBack() {
	c.length--
	c.view = c.view[:c.length]
}
func (c *alignedContainer[T]) Clear() {
	c.length = 0
	if c.view != nil {
		c.view = c.view[:0]
	}
}
func (c *alignedContainer[T]) DataAlignment() int { return c.alignment }

// ---- Concurrent<Lock>: contiguous vector guarded during writes ----

// ConcurrentPolicy backs a ComponentStore[T] with a plain slice whose
// mutating operations (Append/Set/PopBack/Clear) acquire Lock; reads
// (Get/Ptr/Data/Len) are unguarded, matching spec §4.2's "guarded during
// write operations".
type ConcurrentPolicy[T any] struct {
	// Lock is used if non-nil; otherwise a private sync.Mutex is created.
	Lock sync.Locker
}

func (p ConcurrentPolicy[T]) NewContainer() Container[T] {
	lock := p.Lock
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &concurrentContainer[T]{inner: &sliceContainer[T]{}, lock: lock}
}

type concurrentContainer[T any] struct {
	inner *sliceContainer[T]
	lock  sync.Locker
}

func (c *concurrentContainer[T]) Append(v T) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.inner.Append(v)
}
func (c *concurrentContainer[T]) Get(i int) T  { return c.inner.Get(i) }
func (c *concurrentContainer[T]) Ptr(i int) *T { return c.inner.Ptr(i) }
func (c *concurrentContainer[T]) Set(i int, v T) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.inner.Set(i, v)
}
func (c *concurrentContainer[T]) Data() []T { return c.inner.Data() }
func (c *concurrentContainer[T]) Len() int  { return c.inner.Len() }
func (c *concurrentContainer[T]) PopBack() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.inner.PopBack()
}
func (c *concurrentContainer[T]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.inner.Clear()
}
func (c *concurrentContainer[T]) DataAlignment() int { return 0 }
