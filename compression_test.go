package tiff

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/klauspost/compress/flate"
	"golang.org/x/image/tiff/lzw"
)

func TestNoneDecompressorPassesThrough(t *testing.T) {
	dc := &DecodeContext{Compressed: []byte{1, 2, 3, 4}}
	if err := (NoneDecompressor{}).Invoke(context.Background(), dc, terminal); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !bytes.Equal(dc.Uncompressed, dc.Compressed) {
		t.Fatalf("Uncompressed = %v, want %v", dc.Uncompressed, dc.Compressed)
	}
}

func TestLZWDecompressorRoundTrip(t *testing.T) {
	want := []byte("the quick brown fox jumps over the lazy dog, repeated: the quick brown fox jumps over the lazy dog")

	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	if _, err := w.Write(want); err != nil {
		t.Fatalf("lzw write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("lzw close: %v", err)
	}

	dc := &DecodeContext{Compressed: buf.Bytes()}
	if err := (LZWDecompressor{}).Invoke(context.Background(), dc, terminal); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !bytes.Equal(dc.Uncompressed, want) {
		t.Fatalf("Uncompressed = %q, want %q", dc.Uncompressed, want)
	}
}

func TestLZWDecompressorMalformed(t *testing.T) {
	dc := &DecodeContext{Compressed: []byte{0xFF, 0xFF, 0xFF, 0xFF}}
	err := (LZWDecompressor{}).Invoke(context.Background(), dc, terminal)
	if !isKind(err, Malformed) {
		t.Fatalf("expected Malformed, got %v", err)
	}
}

func TestDeflateDecompressorRoundTrip(t *testing.T) {
	want := []byte("strip payload bytes, compressed with Adobe's Deflate scheme")

	var raw bytes.Buffer
	fw, err := flate.NewWriter(&raw, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := fw.Write(want); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}

	// DeflateDecompressor strips a 2-byte zlib-style prefix before handing
	// off to flate.NewReader, so prepend a placeholder header.
	compressed := append([]byte{0x78, 0x9c}, raw.Bytes()...)

	dc := &DecodeContext{Compressed: compressed}
	if err := (DeflateDecompressor{}).Invoke(context.Background(), dc, terminal); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !bytes.Equal(dc.Uncompressed, want) {
		t.Fatalf("Uncompressed = %q, want %q", dc.Uncompressed, want)
	}
}

func TestJPEGDecompressorProducesExpectedSampleCount(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}

	dc := &DecodeContext{Compressed: buf.Bytes(), SamplesPerPixel: 3}
	if err := (JPEGDecompressor{}).Invoke(context.Background(), dc, terminal); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	want := 4 * 2 * 3
	if len(dc.Uncompressed) != want {
		t.Fatalf("len(Uncompressed) = %d, want %d", len(dc.Uncompressed), want)
	}
}

func TestDecompressorForDispatch(t *testing.T) {
	cases := []struct {
		compression uint16
		wantType    Middleware
	}{
		{CompressionNone, NoneDecompressor{}},
		{CompressionLZW, LZWDecompressor{}},
		{CompressionDeflate, DeflateDecompressor{}},
		{CompressionDeflateX, DeflateDecompressor{}},
		{CompressionJPEGOld, JPEGDecompressor{}},
		{CompressionJPEG, JPEGDecompressor{}},
	}
	for _, c := range cases {
		mw, err := DecompressorFor(c.compression)
		if err != nil {
			t.Fatalf("DecompressorFor(%d): %v", c.compression, err)
		}
		if mw != c.wantType {
			t.Fatalf("DecompressorFor(%d) = %T, want %T", c.compression, mw, c.wantType)
		}
	}
}

func TestDecompressorForUnsupported(t *testing.T) {
	_, err := DecompressorFor(CompressionPackBits)
	if !isKind(err, Unsupported) {
		t.Fatalf("expected Unsupported, got %v", err)
	}
}
