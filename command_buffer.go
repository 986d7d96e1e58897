package fatpecs

import (
	"sync"

	"fatpecs/storage"
)

// placeholderID identifies an entity not yet created, referenced from
// within the same CommandBuffer batch before it is flushed.
type placeholderID uint32

// EntityRef is either a real, already-allocated Entity or a placeholder
// standing in for one that Flush will create — spec §4.10's "a command
// referencing a not-yet-created entity must resolve correctly once the
// batch is applied."
type EntityRef struct {
	real        storage.Entity
	placeholder placeholderID
	isReal      bool
}

// RealEntity wraps an already-live entity for use in a deferred command.
func RealEntity(e storage.Entity) EntityRef { return EntityRef{real: e, isReal: true} }

type command func(r *Registry, resolved map[placeholderID]storage.Entity)

// CommandBuffer records deferred mutations — spawn, destroy, add, remove,
// arbitrary closures — for single-threaded application after the recording
// phase, per spec §4.10. Not safe for concurrent recording; see
// ParallelCommandBuffer for that.
type CommandBuffer struct {
	commands []command
	nextPH   placeholderID
}

// NewCommandBuffer builds an empty buffer.
func NewCommandBuffer() *CommandBuffer { return &CommandBuffer{} }

// Spawn reserves a placeholder entity reference. The entity is actually
// allocated during Flush; any command in this buffer referencing the
// returned EntityRef sees the real entity once resolved.
func (c *CommandBuffer) Spawn() EntityRef {
	ph := c.nextPH
	c.nextPH++
	c.commands = append(c.commands, func(r *Registry, resolved map[placeholderID]storage.Entity) {
		if _, ok := resolved[ph]; ok {
			return
		}
		e, err := r.Create()
		if err == nil {
			resolved[ph] = e
		}
	})
	return EntityRef{placeholder: ph}
}

func (c *CommandBuffer) resolve(ref EntityRef, resolved map[placeholderID]storage.Entity) (storage.Entity, bool) {
	if ref.isReal {
		return ref.real, true
	}
	e, ok := resolved[ref.placeholder]
	return e, ok
}

// Destroy defers destruction of ref's entity.
func (c *CommandBuffer) Destroy(ref EntityRef) {
	c.commands = append(c.commands, func(r *Registry, resolved map[placeholderID]storage.Entity) {
		if e, ok := c.resolve(ref, resolved); ok {
			_ = r.Destroy(e)
		}
	})
}

// CommandBufferAdd defers Add[T](ref, v). Free function: Go methods can't
// introduce new type parameters.
func CommandBufferAdd[T any](c *CommandBuffer, ref EntityRef, v T) {
	c.commands = append(c.commands, func(r *Registry, resolved map[placeholderID]storage.Entity) {
		if e, ok := c.resolve(ref, resolved); ok {
			_ = Add[T](r, e, v)
		}
	})
}

// CommandBufferEmplaceOrReplace defers EmplaceOrReplace[T](ref, v).
func CommandBufferEmplaceOrReplace[T any](c *CommandBuffer, ref EntityRef, v T) {
	c.commands = append(c.commands, func(r *Registry, resolved map[placeholderID]storage.Entity) {
		if e, ok := c.resolve(ref, resolved); ok {
			_ = EmplaceOrReplace[T](r, e, v)
		}
	})
}

// CommandBufferRemove defers Remove[T](ref).
func CommandBufferRemove[T any](c *CommandBuffer, ref EntityRef) {
	c.commands = append(c.commands, func(r *Registry, resolved map[placeholderID]storage.Entity) {
		if e, ok := c.resolve(ref, resolved); ok {
			_ = Remove[T](r, e)
		}
	})
}

// Defer appends an arbitrary closure to run at Flush time, given ref
// already resolved to a real entity. Used for commands this API doesn't
// name directly (Patch, Copy, context operations).
func (c *CommandBuffer) Defer(ref EntityRef, fn func(r *Registry, e storage.Entity)) {
	c.commands = append(c.commands, func(r *Registry, resolved map[placeholderID]storage.Entity) {
		if e, ok := c.resolve(ref, resolved); ok {
			fn(r, e)
		}
	})
}

// Len returns the number of recorded commands.
func (c *CommandBuffer) Len() int { return len(c.commands) }

// Flush applies every recorded command, in recording order, against r.
// Placeholders created by Spawn resolve to their real entities before any
// command referencing them runs, since Spawn's own command always runs
// first in recording order. Errors returned by the replayed operations are
// discarded; Flush reports nothing. The buffer is emptied afterward so it
// can be reused.
func (c *CommandBuffer) Flush(r *Registry) {
	resolved := make(map[placeholderID]storage.Entity, c.nextPH)
	for _, cmd := range c.commands {
		cmd(r, resolved)
	}
	c.commands = c.commands[:0]
	c.nextPH = 0
}

// ParallelCommandBuffer is a CommandBuffer safe for concurrent recording
// from multiple goroutines (spec §4.10, §9: "systems running in the same
// scheduler wave must be able to record commands without a data race").
// Flush is still single-threaded, applied after every wave completes.
type ParallelCommandBuffer struct {
	mu   sync.Mutex
	inner CommandBuffer
}

// NewParallelCommandBuffer builds an empty buffer.
func NewParallelCommandBuffer() *ParallelCommandBuffer { return &ParallelCommandBuffer{} }

// Spawn reserves a placeholder entity reference, safe to call from any
// goroutine.
func (c *ParallelCommandBuffer) Spawn() EntityRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Spawn()
}

// Destroy defers destruction of ref's entity.
func (c *ParallelCommandBuffer) Destroy(ref EntityRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Destroy(ref)
}

// Defer appends an arbitrary closure to run at Flush time.
func (c *ParallelCommandBuffer) Defer(ref EntityRef, fn func(r *Registry, e storage.Entity)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Defer(ref, fn)
}

// ParallelCommandBufferAdd defers Add[T](ref, v), safe for concurrent use.
func ParallelCommandBufferAdd[T any](c *ParallelCommandBuffer, ref EntityRef, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	CommandBufferAdd[T](&c.inner, ref, v)
}

// ParallelCommandBufferRemove defers Remove[T](ref), safe for concurrent
// use.
func ParallelCommandBufferRemove[T any](c *ParallelCommandBuffer, ref EntityRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	CommandBufferRemove[T](&c.inner, ref)
}

// Len returns the number of recorded commands.
func (c *ParallelCommandBuffer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}

// Flush applies every recorded command against r. Not safe to call
// concurrently with recording; callers apply it after the wave that
// recorded into it has fully joined.
func (c *ParallelCommandBuffer) Flush(r *Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Flush(r)
}
