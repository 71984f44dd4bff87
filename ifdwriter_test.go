package tiff

import (
	"context"
	"testing"
)

func TestIFDWriterCommitSortsAndLinksChain(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	c := NewCursor(store, Classic, false)

	w1 := NewIFDWriter(c)
	// Add out of tag order; Commit must still emit them ascending.
	if err := w1.AddEntry(Long, 273, []uint32{1}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := w1.AddEntry(Long, 256, []uint32{100}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	ifd1Offset, err := w1.Commit(ctx, 0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	w2 := NewIFDWriter(c)
	if err := w2.AddEntry(Long, 256, []uint32{50}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	ifd2Offset, err := w2.Commit(ctx, ifd1Offset)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	c.SetFirstIFDOffset(ifd1Offset)
	if err := c.FlushHeader(ctx); err != nil {
		t.Fatalf("FlushHeader: %v", err)
	}

	r := NewIFDReader(store, Classic, false)
	ifds, warnings, err := r.EnumerateChain(ctx, ifd1Offset)
	if err != nil {
		t.Fatalf("EnumerateChain: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(ifds) != 2 {
		t.Fatalf("expected 2 IFDs in chain, got %d", len(ifds))
	}
	if ifds[0].Entries[0].Tag != 256 || ifds[0].Entries[1].Tag != 273 {
		t.Fatalf("expected ascending tag order, got %v", ifds[0].Entries)
	}
	if ifds[0].NextOffset != ifd2Offset {
		t.Fatalf("expected chain link to ifd2 at %d, got %d", ifd2Offset, ifds[0].NextOffset)
	}
	if ifds[1].NextOffset != 0 {
		t.Fatalf("expected terminal chain, got next offset %d", ifds[1].NextOffset)
	}
}

func TestIFDWriterAddEntryLastWins(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	w := NewIFDWriter(c)
	if err := w.AddEntry(Long, 256, []uint32{1}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := w.AddEntry(Long, 256, []uint32{2}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	offset, err := w.Commit(context.Background(), 0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r := NewIFDReader(store, Classic, false)
	ifd, _, err := r.Enumerate(context.Background(), offset)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(ifd.Entries) != 1 {
		t.Fatalf("expected last-wins to leave 1 entry, got %d", len(ifd.Entries))
	}
	vc, err := ReadValues[uint32](context.Background(), r, ifd, 256, 0)
	if err != nil || vc.FirstOrDefault() != 2 {
		t.Fatalf("expected value 2 to have replaced 1, got %v, %v", vc.FirstOrDefault(), err)
	}
}

func TestIFDWriterDoubleCommitFails(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	w := NewIFDWriter(c)
	if err := w.AddEntry(Long, 256, []uint32{1}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := w.Commit(context.Background(), 0); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := w.Commit(context.Background(), 0); err == nil {
		t.Fatal("expected Completed error on second Commit")
	} else if kind := err.(*Error).Kind; kind != Completed {
		t.Fatalf("expected Completed, got %v", kind)
	}
}

func TestIFDWriterOutOfLinePayload(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	w := NewIFDWriter(c)
	// 5 LONGs (20 bytes) exceeds Classic's 4-byte inline cap.
	vals := []uint32{1, 2, 3, 4, 5}
	if err := w.AddEntry(Long, 273, vals); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	offset, err := w.Commit(context.Background(), 0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r := NewIFDReader(store, Classic, false)
	ifd, _, err := r.Enumerate(context.Background(), offset)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if ifd.Entries[0].IsInline(Classic) {
		t.Fatal("expected 5 LONGs to be packed out of line")
	}
	vc, err := ReadValues[uint32](context.Background(), r, ifd, 273, 0)
	if err != nil {
		t.Fatalf("ReadValues: %v", err)
	}
	if got := vc.AsContiguousSlice(); len(got) != 5 || got[4] != 5 {
		t.Fatalf("expected %v, got %v", vals, got)
	}
}
