package tiff

import "testing"

func TestValueCollectionEmpty(t *testing.T) {
	vc := Empty[uint32]()
	if vc.Count() != 0 {
		t.Fatalf("expected count 0, got %d", vc.Count())
	}
	if got := vc.FirstOrDefault(); got != 0 {
		t.Fatalf("expected zero value, got %v", got)
	}
	if s := vc.AsContiguousSlice(); s != nil {
		t.Fatalf("expected nil slice, got %v", s)
	}
}

func TestValueCollectionSingle(t *testing.T) {
	vc := Single[uint32](42)
	if vc.Count() != 1 {
		t.Fatalf("expected count 1, got %d", vc.Count())
	}
	if got := vc.At(0); got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
	if s := vc.AsContiguousSlice(); len(s) != 1 || s[0] != 42 {
		t.Fatalf("expected [42], got %v", s)
	}
}

func TestManyCollapsesShortSlices(t *testing.T) {
	if vc := Many[uint32](nil); vc.Count() != 0 {
		t.Fatalf("expected empty collection for nil slice, got count %d", vc.Count())
	}
	if vc := Many([]uint32{7}); vc.Count() != 1 || vc.At(0) != 7 {
		t.Fatalf("expected single-element collapse, got count=%d at0=%v", vc.Count(), vc.At(0))
	}
	vc := Many([]uint32{1, 2, 3})
	if vc.Count() != 3 {
		t.Fatalf("expected count 3, got %d", vc.Count())
	}
	for i, want := range []uint32{1, 2, 3} {
		if got := vc.At(i); got != want {
			t.Fatalf("At(%d): expected %d, got %d", i, want, got)
		}
	}
}

func TestValueCollectionAtPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range At")
		}
	}()
	Single[uint32](1).At(1)
}

func TestValueCollectionAll(t *testing.T) {
	vc := Many([]uint32{1, 2, 3})
	var seen []uint32
	vc.All(func(v uint32) bool {
		seen = append(seen, v)
		return true
	})
	if len(seen) != 3 {
		t.Fatalf("expected 3 values visited, got %d", len(seen))
	}

	seen = nil
	vc.All(func(v uint32) bool {
		seen = append(seen, v)
		return v != 2
	})
	if len(seen) != 2 {
		t.Fatalf("expected early stop after 2 values, got %d", len(seen))
	}
}
