// Package scheduler computes a wave-parallel execution order over a set
// of registered systems and runs it, using each system's declared
// read/write component masks to keep systems with conflicting access from
// ever running in the same wave.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"fatpecs"
	"fatpecs/storage"
)

var (
	ErrNilSystemFn    = errors.New("scheduler: cannot register a nil system function")
	ErrDuplicateName  = errors.New("scheduler: a system with this name is already registered")
	ErrSystemNotFound = errors.New("scheduler: system not found")
)

// SystemFn is the body of a registered system: it receives the registry
// and the frame's delta time.
type SystemFn func(r *fatpecs.Registry, dt float64) error

// systemEntry is one registered system plus the read/write component
// masks it declared at registration time.
type systemEntry struct {
	name  string
	fn    SystemFn
	read  storage.ComponentMask
	write storage.ComponentMask
}

func (s systemEntry) conflictsWith(o systemEntry) bool {
	if s.write.Intersects(o.read) {
		return true
	}
	if s.write.Intersects(o.write) {
		return true
	}
	if s.read.Intersects(o.write) {
		return true
	}
	return false
}

// Scheduler orders registered systems into waves of mutually
// non-conflicting systems, then runs each wave's systems concurrently
// before moving to the next wave. Two systems conflict when one's write
// set intersects the other's read or write set.
type Scheduler struct {
	mu       sync.Mutex
	toggle   *SystemToggle
	entries  []systemEntry
	index    map[string]int
	waves    [][]int
	waveDone bool
}

// New builds an empty Scheduler backed by a fresh SystemToggle.
func New() *Scheduler {
	return &Scheduler{
		toggle: NewSystemToggle(),
		index:  make(map[string]int),
	}
}

// Toggle returns the scheduler's SystemToggle, letting callers
// enable/disable systems by name between runs.
func (s *Scheduler) Toggle() *SystemToggle { return s.toggle }

// Register adds a system under name with the given read/write masks. The
// system starts enabled. Registering invalidates any previously computed
// wave plan; it is recomputed lazily on the next Run.
func (s *Scheduler) Register(name string, fn SystemFn, read, write storage.ComponentMask) error {
	if fn == nil {
		return ErrNilSystemFn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, systemEntry{name: name, fn: fn, read: read, write: write})
	s.toggle.Enable(name)
	s.waveDone = false
	return nil
}

// Unregister removes a system by name. Invalidates the wave plan.
func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSystemNotFound, name)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, name)
	for n, idx := range s.index {
		if idx > i {
			s.index[n] = idx - 1
		}
	}
	s.waveDone = false
	return nil
}

// computeWaves assigns every entry to the first wave that contains no
// conflicting system, a greedy interval-graph-coloring approach (spec
// §8's "greedy wave scheduler"). Disabled systems at the time of planning
// are still placed — enable/disable state is consulted at Run time so
// planning doesn't need to be redone just because a toggle flipped.
func (s *Scheduler) computeWaves() {
	waves := make([][]int, 0)
	for i, e := range s.entries {
		placed := false
		for w := range waves {
			conflict := false
			for _, j := range waves[w] {
				if e.conflictsWith(s.entries[j]) {
					conflict = true
					break
				}
			}
			if !conflict {
				waves[w] = append(waves[w], i)
				placed = true
				break
			}
		}
		if !placed {
			waves = append(waves, []int{i})
		}
	}
	s.waves = waves
	s.waveDone = true
}

// Waves returns the current wave plan as system names, recomputing it
// first if the registration set has changed since the last call.
func (s *Scheduler) Waves() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.waveDone {
		s.computeWaves()
	}
	out := make([][]string, len(s.waves))
	for i, wave := range s.waves {
		names := make([]string, len(wave))
		for j, idx := range wave {
			names[j] = s.entries[idx].name
		}
		out[i] = names
	}
	return out
}

// Run executes every enabled system once, wave by wave, via an errgroup
// per wave so the systems within a wave run concurrently; waves
// themselves run sequentially, since a later wave's read/write sets may
// have been placed there specifically because they conflict with an
// earlier one. The first error from any system aborts the remaining
// systems in its wave (errgroup semantics) and stops before the next
// wave starts.
func (s *Scheduler) Run(ctx context.Context, r *fatpecs.Registry, dt float64) error {
	s.mu.Lock()
	if !s.waveDone {
		s.computeWaves()
	}
	waves := s.waves
	entries := s.entries
	s.mu.Unlock()

	for _, wave := range waves {
		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range wave {
			e := entries[idx]
			if !s.toggle.Enabled(e.name) {
				continue
			}
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				return e.fn(r, dt)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("scheduler: wave failed: %w", err)
		}
	}
	return nil
}

// ParallelFor runs fn(i) for i in [begin, end), partitioned into chunks of
// at most chunk elements (spec §4.12's "parallel_for(begin, end, chunk,
// fn)" data-level-parallelism primitive, e.g. chunked physics integration
// inside a single system). All but the last chunk are dispatched to at
// most maxWorkers goroutines at once, bounded by a weighted semaphore,
// standing in for the original's fixed-size ThreadPool; the last chunk
// runs on the calling goroutine so it isn't left idle-waiting on the pool.
// Blocks until every chunk completes; no ordering guarantee across chunks.
func ParallelFor(ctx context.Context, begin, end, chunk, maxWorkers int, fn func(i int) error) error {
	if end <= begin {
		return nil
	}
	if chunk < 1 {
		chunk = 1
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	type span struct{ lo, hi int }
	var spans []span
	for lo := begin; lo < end; lo += chunk {
		hi := lo + chunk
		if hi > end {
			hi = end
		}
		spans = append(spans, span{lo, hi})
	}
	last := spans[len(spans)-1]
	spans = spans[:len(spans)-1]

	runSpan := func(sp span) error {
		for i := sp.lo; i < sp.hi; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	sem := semaphore.NewWeighted(int64(maxWorkers))
	g, gctx := errgroup.WithContext(ctx)
	for _, sp := range spans {
		sp := sp
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			return runSpan(sp)
		})
	}

	lastErr := runSpan(last)
	if err := g.Wait(); err != nil {
		return err
	}
	return lastErr
}
