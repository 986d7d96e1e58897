package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatpecs"
	"fatpecs/storage"
)

type position struct{ X float64 }
type velocity struct{ DX float64 }

func maskFor[T any]() storage.ComponentMask {
	var m storage.ComponentMask
	m.Set(storage.TypeIDFor[T]())
	return m
}

func TestSchedulerRunsRegisteredSystem(t *testing.T) {
	r := fatpecs.New(fatpecs.DefaultConfig(), nil)
	e, _ := r.Create()
	require.NoError(t, fatpecs.Add(r, e, position{X: 0}))

	s := New()
	require.NoError(t, s.Register("move", func(reg *fatpecs.Registry, dt float64) error {
		p, _ := fatpecs.Get[position](reg, e)
		p.X += dt
		return nil
	}, storage.ComponentMask{}, maskFor[position]()))

	require.NoError(t, s.Run(context.Background(), r, 1.0))

	p, _ := fatpecs.Get[position](r, e)
	assert.Equal(t, 1.0, p.X)
}

func TestSchedulerConflictingSystemsGoToDifferentWaves(t *testing.T) {
	s := New()
	writePos := maskFor[position]()

	noop := func(*fatpecs.Registry, float64) error { return nil }
	require.NoError(t, s.Register("a", noop, storage.ComponentMask{}, writePos))
	require.NoError(t, s.Register("b", noop, storage.ComponentMask{}, writePos))

	waves := s.Waves()
	require.Len(t, waves, 2, "two systems writing the same component must not share a wave")
}

func TestSchedulerNonConflictingSystemsShareAWave(t *testing.T) {
	s := New()
	noop := func(*fatpecs.Registry, float64) error { return nil }
	require.NoError(t, s.Register("a", noop, storage.ComponentMask{}, maskFor[position]()))
	require.NoError(t, s.Register("b", noop, storage.ComponentMask{}, maskFor[velocity]()))

	waves := s.Waves()
	require.Len(t, waves, 1)
	assert.Len(t, waves[0], 2)
}

func TestSchedulerDisabledSystemSkipped(t *testing.T) {
	r := fatpecs.New(fatpecs.DefaultConfig(), nil)
	s := New()
	var ran bool
	require.NoError(t, s.Register("a", func(*fatpecs.Registry, float64) error {
		ran = true
		return nil
	}, storage.ComponentMask{}, maskFor[position]()))

	s.Toggle().Disable("a")
	require.NoError(t, s.Run(context.Background(), r, 0))
	assert.False(t, ran)
}

func TestSchedulerDuplicateRegisterFails(t *testing.T) {
	s := New()
	noop := func(*fatpecs.Registry, float64) error { return nil }
	require.NoError(t, s.Register("a", noop, storage.ComponentMask{}, storage.ComponentMask{}))
	err := s.Register("a", noop, storage.ComponentMask{}, storage.ComponentMask{})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestParallelForRunsEveryIndex(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}
	err := ParallelFor(context.Background(), 0, 20, 5, 4, func(i int) error {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 20)
}

func TestParallelForUnevenChunksCoverWholeRange(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}
	// 23 elements over chunks of 5 leaves a partial last chunk [20,23).
	err := ParallelFor(context.Background(), 0, 23, 5, 3, func(i int) error {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 23)
}

func TestSystemToggleEnableDisableAndUnknownName(t *testing.T) {
	toggle := NewSystemToggle()
	toggle.Enable("x")
	assert.True(t, toggle.Enabled("x"))
	toggle.Disable("x")
	assert.False(t, toggle.Enabled("x"))
	assert.False(t, toggle.Enabled("never-registered"))
}

func TestProcessSchedulerRemovesFinishedProcesses(t *testing.T) {
	ps := NewProcessScheduler[float64, struct{}]()
	remaining := 2
	ps.Attach(ProcessFunc[float64, struct{}](func(dt float64, _ struct{}) (bool, error) {
		remaining--
		return remaining <= 0, nil
	}))

	require.NoError(t, ps.Tick(1, struct{}{}))
	assert.Equal(t, 1, ps.Count())

	require.NoError(t, ps.Tick(1, struct{}{}))
	assert.Equal(t, 0, ps.Count())
}

func TestProcessSchedulerAttachMidTick(t *testing.T) {
	ps := NewProcessScheduler[float64, struct{}]()
	var secondRan bool
	ps.Attach(ProcessFunc[float64, struct{}](func(dt float64, _ struct{}) (bool, error) {
		ps.Attach(ProcessFunc[float64, struct{}](func(float64, struct{}) (bool, error) {
			secondRan = true
			return true, nil
		}))
		return true, nil
	}))

	require.NoError(t, ps.Tick(1, struct{}{}))
	assert.False(t, secondRan, "a process attached mid-tick must not run until the next Tick")
	assert.Equal(t, 1, ps.Count())

	require.NoError(t, ps.Tick(1, struct{}{}))
	assert.True(t, secondRan)
}
