package storage

import "testing"

func TestEntityAllocator(t *testing.T) {
	t.Run("TC001: create yields index 0 generation 0", func(t *testing.T) {
		a := NewEntityAllocator()
		e, err := a.Create()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if Traits.Index(e) != 0 || Traits.Generation(e) != 0 {
			t.Fatalf("expected (0,0), got (%d,%d)", Traits.Index(e), Traits.Generation(e))
		}
		if !a.Alive(e) {
			t.Fatal("expected newly created entity to be alive")
		}
	})

	t.Run("TC002: generational safety (spec S1)", func(t *testing.T) {
		a := NewEntityAllocator()
		e1, _ := a.Create()
		a.Destroy(e1)
		e2, _ := a.Create()

		if Traits.Index(e2) != Traits.Index(e1) {
			t.Fatalf("expected recycled index, got %d vs %d", Traits.Index(e2), Traits.Index(e1))
		}
		if Traits.Generation(e2) != Traits.Generation(e1)+1 {
			t.Fatalf("expected generation bump, got %d vs %d", Traits.Generation(e2), Traits.Generation(e1))
		}
		if a.Alive(e1) {
			t.Fatal("e1 should no longer be alive")
		}
		if !a.Alive(e2) {
			t.Fatal("e2 should be alive")
		}
	})

	t.Run("TC003: dead entity index out of range is not alive", func(t *testing.T) {
		a := NewEntityAllocator()
		if a.Alive(Traits.Make(42, 0)) {
			t.Fatal("entity from empty allocator must not be alive")
		}
	})

	t.Run("TC004: free list reused LIFO", func(t *testing.T) {
		a := NewEntityAllocator()
		e1, _ := a.Create()
		e2, _ := a.Create()
		a.Destroy(e1)
		a.Destroy(e2)
		e3, _ := a.Create()
		if Traits.Index(e3) != Traits.Index(e2) {
			t.Fatalf("expected LIFO reuse of most recently freed slot, got index %d", Traits.Index(e3))
		}
	})

	t.Run("TC005: clear empties allocator", func(t *testing.T) {
		a := NewEntityAllocator()
		e, _ := a.Create()
		a.Clear()
		if a.Alive(e) {
			t.Fatal("entity must not be alive after Clear")
		}
		if a.Len() != 0 || a.AliveCount() != 0 {
			t.Fatal("allocator must report empty after Clear")
		}
	})
}
