package tiff

import (
	"context"
	"testing"
)

func TestCursorAlignToWord(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	ctx := context.Background()

	if _, err := c.WriteBytes(ctx, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if c.Position()%2 != 1 {
		t.Fatalf("expected odd position after 3-byte write from an 8-byte header, got %d", c.Position())
	}
	pos, err := c.AlignToWord(ctx)
	if err != nil {
		t.Fatalf("AlignToWord: %v", err)
	}
	if pos%2 != 0 {
		t.Fatalf("expected even position after alignment, got %d", pos)
	}
	// Idempotent when already aligned.
	pos2, err := c.AlignToWord(ctx)
	if err != nil || pos2 != pos {
		t.Fatalf("expected AlignToWord to be a no-op when already aligned, got %d, %v", pos2, err)
	}
}

func TestCursorWriteAlignedValues(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	ctx := context.Background()

	if _, err := c.WriteBytes(ctx, []byte{1}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	region, err := c.WriteAlignedValues(ctx, Long, []uint32{1, 2, 3})
	if err != nil {
		t.Fatalf("WriteAlignedValues: %v", err)
	}
	if region.Offset%2 != 0 {
		t.Fatalf("expected aligned region offset, got %d", region.Offset)
	}
	if region.Length != 12 {
		t.Fatalf("expected 12-byte region for 3 LONGs, got %d", region.Length)
	}
}

func TestCursorRequiresBigPromotion(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	if c.RequiresBig() {
		t.Fatal("expected RequiresBig false on a fresh cursor")
	}
	if err := c.Seek(bigTiffOffsetLimit); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := c.WriteBytes(context.Background(), []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if !c.RequiresBig() {
		t.Fatal("expected RequiresBig true after advancing past the 32-bit offset limit")
	}
	if err := c.FlushHeader(context.Background()); err == nil {
		t.Fatal("expected BigTiffRequired error flushing a Classic header past the offset limit")
	} else if kind := err.(*Error).Kind; kind != BigTiffRequired {
		t.Fatalf("expected BigTiffRequired, got %v", kind)
	}
}

func TestCursorFlushHeaderByteOrderAndMagic(t *testing.T) {
	for _, tc := range []struct {
		bigEndian  bool
		mode       Mode
		wantMarker uint16
		wantMagic  uint16
	}{
		{false, Classic, 0x4949, 42},
		{true, Classic, 0x4D4D, 42},
		{false, Big, 0x4949, 43},
		{true, Big, 0x4D4D, 43},
	} {
		store := newMemStore()
		c := NewCursor(store, tc.mode, tc.bigEndian)
		c.SetFirstIFDOffset(uint64(tc.mode.headerSize()))
		if err := c.FlushHeader(context.Background()); err != nil {
			t.Fatalf("mode=%v bigEndian=%v: FlushHeader: %v", tc.mode, tc.bigEndian, err)
		}
		header := store.bytes()
		o := newOrder(tc.bigEndian)
		marker, _ := o.u16(header[0:2])
		magic, _ := o.u16(header[2:4])
		if marker != tc.wantMarker {
			t.Fatalf("mode=%v bigEndian=%v: expected marker %x, got %x", tc.mode, tc.bigEndian, tc.wantMarker, marker)
		}
		if magic != tc.wantMagic {
			t.Fatalf("mode=%v bigEndian=%v: expected magic %d, got %d", tc.mode, tc.bigEndian, tc.wantMagic, magic)
		}
	}
}

func TestCursorDisposeClosesStore(t *testing.T) {
	store := newMemStore()
	c := NewCursor(store, Classic, false)
	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := c.Seek(0); err == nil {
		t.Fatal("expected Disposed error after Dispose")
	}
}
