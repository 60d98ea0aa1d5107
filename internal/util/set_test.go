package util

import "testing"

func TestKeySet_AddHasRemove(t *testing.T) {
	s := NewKeySet[int]()
	s.Add(3)
	s.Add(7)
	if !s.Has(3) || !s.Has(7) {
		t.Fatalf("expected 3 and 7 in set, got %v", s.Elements())
	}
	if s.Has(4) {
		t.Fatalf("did not expect 4 in set")
	}
	s.Remove(3)
	if s.Has(3) {
		t.Fatalf("expected 3 to be removed")
	}
	if s.Len() != 1 {
		t.Fatalf("expected len 1, got %d", s.Len())
	}
}

func TestKeySet_UnionIntersectionDifference(t *testing.T) {
	a := NewKeySet[string]()
	a.Add("x")
	a.Add("y")
	b := NewKeySet[string]()
	b.Add("y")
	b.Add("z")

	union := a.Union(b)
	for _, want := range []string{"x", "y", "z"} {
		if !union.Has(want) {
			t.Fatalf("expected union to contain %q", want)
		}
	}

	inter := a.Intersection(b)
	if inter.Len() != 1 || !inter.Has("y") {
		t.Fatalf("expected intersection {y}, got %v", inter.Elements())
	}

	diff := a.Difference(b)
	if diff.Len() != 1 || !diff.Has("x") {
		t.Fatalf("expected difference {x}, got %v", diff.Elements())
	}
}
