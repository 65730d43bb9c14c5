package jukebox

import "testing"

func TestInMemoryStore_RemoveAt(t *testing.T) {
	s := NewInMemoryStore()
	for i := 0; i < 3; i++ {
		s.Append(ListPending, testEntry(i, rickURL))
	}

	t.Run("middle", func(t *testing.T) {
		e, ok := s.RemoveAt(ListPending, 1)
		if !ok || e.ID != "e1" {
			t.Fatalf("RemoveAt(1): got %v, %v", e.ID, ok)
		}
		got := s.Entries(ListPending)
		if len(got) != 2 || got[0].ID != "e0" || got[1].ID != "e2" {
			t.Errorf("remaining order wrong: %v", got)
		}
	})

	t.Run("out_of_range", func(t *testing.T) {
		if _, ok := s.RemoveAt(ListPending, 2); ok {
			t.Error("expected ok=false")
		}
		if _, ok := s.RemoveAt(ListPlayed, 0); ok {
			t.Error("expected ok=false on empty list")
		}
		if s.Len(ListPending) != 2 {
			t.Errorf("Len: got %d", s.Len(ListPending))
		}
	})
}

func TestInMemoryStore_Current(t *testing.T) {
	s := NewInMemoryStore()
	if s.Current() != "" {
		t.Errorf("expected empty current, got %q", s.Current())
	}
	s.SetCurrent("dQw4w9WgXcQ")
	if s.Current() != "dQw4w9WgXcQ" {
		t.Errorf("Current: got %q", s.Current())
	}
}
