package tiff

import (
	"context"
	"testing"
)

func buildGeoIFD(t *testing.T) (*IFDReader, *IFD) {
	t.Helper()
	store := newMemStore()
	ctx := context.Background()
	c := NewCursor(store, Classic, false)
	w := NewIFDWriter(c)

	if err := w.AddEntry(Double, TagModelPixelScale, []float64{2.0, 2.0, 0.0}); err != nil {
		t.Fatalf("AddEntry ModelPixelScale: %v", err)
	}
	if err := w.AddEntry(Double, TagModelTiepoint, []float64{0, 0, 0, 100, 200, 0}); err != nil {
		t.Fatalf("AddEntry ModelTiepoint: %v", err)
	}
	// GeoKeyDirectory: header (1,1,0,1 key), then one key record:
	// ProjectedCSTypeGeoKey (3072), location 0, count 1, value 32633.
	if err := w.AddEntry(Short, TagGeoKeyDirectory, []uint16{1, 1, 0, 1, 3072, 0, 1, 32633}); err != nil {
		t.Fatalf("AddEntry GeoKeyDirectory: %v", err)
	}

	offset, err := w.Commit(ctx, 0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	c.SetFirstIFDOffset(offset)
	if err := c.FlushHeader(ctx); err != nil {
		t.Fatalf("FlushHeader: %v", err)
	}

	r := NewIFDReader(store, Classic, false)
	ifd, _, err := r.Enumerate(ctx, offset)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	return r, ifd
}

func TestExtractGeoReference(t *testing.T) {
	r, ifd := buildGeoIFD(t)
	g, err := ExtractGeoReference(context.Background(), r, ifd)
	if err != nil {
		t.Fatalf("ExtractGeoReference: %v", err)
	}
	if g.PixelScale[0] != 2.0 || g.PixelScale[1] != 2.0 {
		t.Fatalf("PixelScale = %v, want [2 2 0]", g.PixelScale)
	}
	if len(g.TiePoints) != 1 {
		t.Fatalf("expected 1 tiepoint, got %d", len(g.TiePoints))
	}
	tp := g.TiePoints[0]
	if tp.GeoX != 100 || tp.GeoY != 200 {
		t.Fatalf("tiepoint geo = (%v, %v), want (100, 200)", tp.GeoX, tp.GeoY)
	}
	if g.CRS != "EPSG:32633" {
		t.Fatalf("CRS = %q, want EPSG:32633", g.CRS)
	}
}

func TestGeoReferencePixelToGeoViaTiepoint(t *testing.T) {
	r, ifd := buildGeoIFD(t)
	g, err := ExtractGeoReference(context.Background(), r, ifd)
	if err != nil {
		t.Fatalf("ExtractGeoReference: %v", err)
	}
	x, y := g.PixelToGeo(10, 10)
	wantX := 100 + 10*2.0
	wantY := 200 - 10*2.0
	if x != wantX || y != wantY {
		t.Fatalf("PixelToGeo(10,10) = (%v, %v), want (%v, %v)", x, y, wantX, wantY)
	}
}

func TestGeoReferenceBoundsCoversCorners(t *testing.T) {
	r, ifd := buildGeoIFD(t)
	g, err := ExtractGeoReference(context.Background(), r, ifd)
	if err != nil {
		t.Fatalf("ExtractGeoReference: %v", err)
	}
	b := g.Bounds(5, 5)
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		t.Fatalf("degenerate bounds: %v", b)
	}
}

func TestExtractGeoReferenceAbsentTagsLeaveZeroValues(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	c := NewCursor(store, Classic, false)
	w := NewIFDWriter(c)
	if err := w.AddEntry(Long, 256, []uint32{10}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	offset, err := w.Commit(ctx, 0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	c.SetFirstIFDOffset(offset)
	if err := c.FlushHeader(ctx); err != nil {
		t.Fatalf("FlushHeader: %v", err)
	}

	r := NewIFDReader(store, Classic, false)
	ifd, _, err := r.Enumerate(ctx, offset)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	g, err := ExtractGeoReference(ctx, r, ifd)
	if err != nil {
		t.Fatalf("ExtractGeoReference: %v", err)
	}
	if g.CRS != "" {
		t.Fatalf("expected empty CRS with no GeoKeyDirectory, got %q", g.CRS)
	}
	if len(g.TiePoints) != 0 {
		t.Fatalf("expected no tiepoints, got %v", g.TiePoints)
	}
}
