package fatpecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatpecs/storage"
)

func TestOwningGroup2TracksQualifyingEntities(t *testing.T) {
	r := New(DefaultConfig(), nil)
	both, _ := r.Create()
	onlyPos, _ := r.Create()

	require.NoError(t, Add(r, both, position{X: 1}))
	require.NoError(t, Add(r, both, velocity{DX: 1}))
	require.NoError(t, Add(r, onlyPos, position{X: 2}))

	g, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 1, g.Size())

	var seen []storage.Entity
	g.Each(func(e storage.Entity, p *position, v *velocity) { seen = append(seen, e) })
	assert.Equal(t, []storage.Entity{both}, seen)
}

func TestOwningGroup2IncrementalAddRemove(t *testing.T) {
	r := New(DefaultConfig(), nil)
	g, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	defer g.Close()

	e, _ := r.Create()
	require.NoError(t, Add(r, e, position{}))
	assert.Equal(t, 0, g.Size())

	require.NoError(t, Add(r, e, velocity{}))
	assert.Equal(t, 1, g.Size())

	require.NoError(t, Remove[velocity](r, e))
	assert.Equal(t, 0, g.Size())
}

// Regression: position store holds a tail entity (y) outside the group,
// so removing velocity from a group member (e1) must not let the plain
// swap-with-back in the position store's Remove disturb the group's
// lockstep invariant before the group gets a chance to evict e1.
func TestOwningGroup2RemoveKeepsDenseArraysInLockstepWithTailElements(t *testing.T) {
	r := New(DefaultConfig(), nil)
	e1, _ := r.Create()
	e2, _ := r.Create()
	y, _ := r.Create()

	require.NoError(t, Add(r, e1, position{X: 1}))
	require.NoError(t, Add(r, e1, velocity{DX: 1}))
	require.NoError(t, Add(r, e2, position{X: 2}))
	require.NoError(t, Add(r, e2, velocity{DX: 2}))
	require.NoError(t, Add(r, y, position{X: 3})) // tail: position only, never in the group

	g, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	defer g.Close()
	require.Equal(t, 2, g.Size())

	require.NoError(t, Remove[velocity](r, e1))
	assert.Equal(t, 1, g.Size())

	var seen []storage.Entity
	g.Each(func(e storage.Entity, p *position, v *velocity) { seen = append(seen, e) })
	assert.Equal(t, []storage.Entity{e2}, seen, "y must never be visited: it never had velocity")
}

func TestOwningGroup2DestroyEvicts(t *testing.T) {
	r := New(DefaultConfig(), nil)
	e, _ := r.Create()
	require.NoError(t, Add(r, e, position{}))
	require.NoError(t, Add(r, e, velocity{}))

	g, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, r.Destroy(e))
	assert.Equal(t, 0, g.Size())
}

func TestOwningGroupOwnershipConflict(t *testing.T) {
	r := New(DefaultConfig(), nil)
	g1, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	defer g1.Close()

	_, err = NewOwningGroup2[position, tag](r, "other")
	require.Error(t, err)
	var ferr *storage.Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, storage.KindOwnershipConflict, ferr.Kind)
}

func TestOwningGroupCloseReleasesOwnership(t *testing.T) {
	r := New(DefaultConfig(), nil)
	g1, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	g1.Close()

	g2, err := NewOwningGroup2[position, velocity](r, "movement-again")
	require.NoError(t, err)
	defer g2.Close()
}

func TestOwningGroup3(t *testing.T) {
	r := New(DefaultConfig(), nil)
	type mass struct{ M float64 }

	full, _ := r.Create()
	require.NoError(t, Add(r, full, position{}))
	require.NoError(t, Add(r, full, velocity{}))
	require.NoError(t, Add(r, full, mass{M: 2}))

	partial, _ := r.Create()
	require.NoError(t, Add(r, partial, position{}))
	require.NoError(t, Add(r, partial, velocity{}))

	g, err := NewOwningGroup3[position, velocity, mass](r, "physics")
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 1, g.Size())
}

func TestRegistryClearResetsGroups(t *testing.T) {
	r := New(DefaultConfig(), nil)
	e, _ := r.Create()
	require.NoError(t, Add(r, e, position{}))
	require.NoError(t, Add(r, e, velocity{}))

	g, err := NewOwningGroup2[position, velocity](r, "movement")
	require.NoError(t, err)
	defer g.Close()
	require.Equal(t, 1, g.Size())

	r.Clear()
	assert.Equal(t, 0, g.Size())
}
