package fatpecs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fatpecs/storage"
)

func TestEventBusEntitySignals(t *testing.T) {
	b := NewEventBus()
	var createdCount, destroyedCount int
	b.OnEntityCreated(func(storage.Entity) { createdCount++ })
	b.OnEntityDestroyed(func(storage.Entity) { destroyedCount++ })

	b.onEntityCreated.Emit(1)
	b.onEntityDestroyed.Emit(1)

	assert.Equal(t, 1, createdCount)
	assert.Equal(t, 1, destroyedCount)
}

func TestScopedConnectionDisconnect(t *testing.T) {
	b := NewEventBus()
	var count int
	conn := b.OnEntityCreated(func(storage.Entity) { count++ })

	b.onEntityCreated.Emit(1)
	assert.Equal(t, 1, count)

	conn.Disconnect()
	b.onEntityCreated.Emit(1)
	assert.Equal(t, 1, count, "listener must not fire after Disconnect")

	// disconnecting twice, or a nil receiver, must not panic
	conn.Disconnect()
	var nilConn *ScopedConnection
	nilConn.Disconnect()
}

func TestComponentSignalsLazilyCreatedAndTypeScoped(t *testing.T) {
	b := NewEventBus()
	var posAdds, velAdds int
	OnComponentAdded[position](b, func(storage.Entity) { posAdds++ })
	OnComponentAdded[velocity](b, func(storage.Entity) { velAdds++ })

	b.emitComponent(kindAdded, storage.TypeIDFor[position](), 1)
	assert.Equal(t, 1, posAdds)
	assert.Equal(t, 0, velAdds)
}

func TestEmitIsReentrancySafe(t *testing.T) {
	b := NewEventBus()
	var secondFired bool
	var first, second *ScopedConnection
	first = b.OnEntityCreated(func(storage.Entity) {
		// connecting a new listener from within an emission must not
		// affect the snapshot already being dispatched
		second = b.OnEntityCreated(func(storage.Entity) { secondFired = true })
	})
	defer first.Disconnect()

	b.onEntityCreated.Emit(1)
	assert.False(t, secondFired)

	b.onEntityCreated.Emit(1)
	assert.True(t, secondFired)
	second.Disconnect()
}
