package fatpecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityNamesSetLookup(t *testing.T) {
	r := New(DefaultConfig(), nil)
	names := NewEntityNames(r)
	defer names.Close()

	e, _ := r.Create()
	names.Set(e, "player")

	got, ok := names.Lookup("player")
	require.True(t, ok)
	assert.Equal(t, e, got)

	name, ok := names.NameOf(e)
	require.True(t, ok)
	assert.Equal(t, "player", name)
}

func TestEntityNamesRenameDisplaces(t *testing.T) {
	r := New(DefaultConfig(), nil)
	names := NewEntityNames(r)
	defer names.Close()

	e1, _ := r.Create()
	e2, _ := r.Create()
	names.Set(e1, "hero")
	names.Set(e2, "hero")

	got, ok := names.Lookup("hero")
	require.True(t, ok)
	assert.Equal(t, e2, got)
	_, ok = names.NameOf(e1)
	assert.False(t, ok)
}

func TestEntityNamesForgottenOnDestroy(t *testing.T) {
	r := New(DefaultConfig(), nil)
	names := NewEntityNames(r)
	defer names.Close()

	e, _ := r.Create()
	names.Set(e, "npc")
	require.NoError(t, r.Destroy(e))

	_, ok := names.Lookup("npc")
	assert.False(t, ok)
	assert.Equal(t, 0, names.Len())
}
