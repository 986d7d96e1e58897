package storage

import "testing"

type vec2 struct{ X, Y float64 }

func TestComponentStoreBasics(t *testing.T) {
	t.Run("TC001: add then has/get", func(t *testing.T) {
		s := NewComponentStore[vec2](nil)
		a := NewEntityAllocator()
		e, _ := a.Create()

		if err := s.Add(e, vec2{1, 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Has(e) {
			t.Fatal("expected Has(e) true after Add")
		}
		got, ok := s.Get(e)
		if !ok || *got != (vec2{1, 2}) {
			t.Fatalf("unexpected Get result: %+v ok=%v", got, ok)
		}
	})

	t.Run("TC002: add twice fails AlreadyPresent", func(t *testing.T) {
		s := NewComponentStore[vec2](nil)
		a := NewEntityAllocator()
		e, _ := a.Create()
		_ = s.Add(e, vec2{})
		err := s.Add(e, vec2{})
		if err == nil {
			t.Fatal("expected error on duplicate add")
		}
		var ferr *Error
		if !asError(err, &ferr) || ferr.Kind != KindAlreadyPresent {
			t.Fatalf("expected KindAlreadyPresent, got %v", err)
		}
	})

	t.Run("TC003: remove is swap-with-back", func(t *testing.T) {
		s := NewComponentStore[vec2](nil)
		a := NewEntityAllocator()
		e1, _ := a.Create()
		e2, _ := a.Create()
		e3, _ := a.Create()
		_ = s.Add(e1, vec2{1, 0})
		_ = s.Add(e2, vec2{2, 0})
		_ = s.Add(e3, vec2{3, 0})

		if !s.Remove(e1) {
			t.Fatal("expected Remove(e1) to succeed")
		}
		if s.Has(e1) {
			t.Fatal("e1 must be gone")
		}
		if s.Len() != 2 {
			t.Fatalf("expected len 2, got %d", s.Len())
		}
		// e3 (formerly last) should have been swapped into e1's old slot.
		for k, e := range s.DenseEntities() {
			idx, ok := s.GetDenseIndex(e)
			if !ok || idx != k {
				t.Fatalf("sparse-dense consistency violated at %d", k)
			}
		}
	})

	t.Run("TC004: remove absent is silent no-op", func(t *testing.T) {
		s := NewComponentStore[vec2](nil)
		a := NewEntityAllocator()
		e, _ := a.Create()
		if s.Remove(e) {
			t.Fatal("expected Remove on absent component to report false")
		}
	})

	t.Run("TC005: patch mutates in place", func(t *testing.T) {
		s := NewComponentStore[vec2](nil)
		a := NewEntityAllocator()
		e, _ := a.Create()
		_ = s.Add(e, vec2{1, 1})
		ok := s.Patch(e, func(v *vec2) { v.X = 99 })
		if !ok {
			t.Fatal("expected Patch to succeed")
		}
		got, _ := s.Get(e)
		if got.X != 99 {
			t.Fatalf("expected patched value, got %+v", got)
		}
	})

	t.Run("TC006: matchSort follows reference order, absentees trail", func(t *testing.T) {
		s := NewComponentStore[vec2](nil)
		a := NewEntityAllocator()
		e1, _ := a.Create()
		e2, _ := a.Create()
		e3, _ := a.Create()
		_ = s.Add(e1, vec2{1, 0})
		_ = s.Add(e2, vec2{2, 0})
		_ = s.Add(e3, vec2{3, 0})

		s.MatchSort([]Entity{e3, e1})
		dense := s.DenseEntities()
		if dense[0] != e3 || dense[1] != e1 {
			t.Fatalf("expected [e3,e1,e2]-prefix ordering, got %v", dense)
		}
		if dense[2] != e2 {
			t.Fatalf("expected absent entity trailing, got %v", dense)
		}
		for k, e := range dense {
			idx, ok := s.GetDenseIndex(e)
			if !ok || idx != k {
				t.Fatalf("sparse-dense consistency violated after MatchSort at %d", k)
			}
		}
	})
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
