package tiff

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"

	"github.com/klauspost/compress/flate"
	"golang.org/x/image/tiff/lzw"
)

// Compression tag values (TIFF Compression, tag 259).
const (
	CompressionNone     uint16 = 1
	CompressionLZW      uint16 = 5
	CompressionJPEGOld  uint16 = 6
	CompressionJPEG     uint16 = 7
	CompressionDeflate  uint16 = 8
	CompressionPackBits uint16 = 32773
	CompressionDeflateX uint16 = 32946 // Adobe's pre-standard tag value for Deflate
)

// Reference decompression middleware for the baseline Compression schemes,
// so the decode pipeline is usable end-to-end rather than a contract with
// no occupants. Exotic codecs plug in through the same Middleware
// interface.

// NoneDecompressor passes Compressed through to Uncompressed unchanged,
// for Compression == 1.
type NoneDecompressor struct{}

func (NoneDecompressor) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	dc.Uncompressed = dc.Compressed
	return next.Run(ctx, dc)
}

// LZWDecompressor decodes TIFF-variant LZW (Compression == 5) via
// golang.org/x/image/tiff/lzw; TIFF's LZW differs from the GIF flavor in
// its code-width switchover.
type LZWDecompressor struct{}

func (LZWDecompressor) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("lzw.Invoke", Cancelled, err)
	}
	r := lzw.NewReader(bytes.NewReader(dc.Compressed), lzw.MSB, 8)
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return newErr("lzw.Invoke", Malformed, err)
	}
	dc.Uncompressed = out
	return next.Run(ctx, dc)
}

// DeflateDecompressor decodes zlib/Deflate-compressed strips (Compression
// == 8 or Adobe's 32946) using klauspost/compress/flate.
type DeflateDecompressor struct{}

func (DeflateDecompressor) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("deflate.Invoke", Cancelled, err)
	}
	// TIFF Deflate strips carry a zlib header (2-byte prefix, Adler32
	// trailer); flate.NewReader wants the raw stream without it.
	data := dc.Compressed
	if len(data) >= 2 {
		data = data[2:]
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return newErr("deflate.Invoke", Malformed, err)
	}
	dc.Uncompressed = out
	return next.Run(ctx, dc)
}

// JPEGDecompressor decodes a baseline-JPEG-compressed strip/tile
// (Compression == 6 or 7) into raw interleaved samples via the standard
// library's image/jpeg.
type JPEGDecompressor struct{}

func (JPEGDecompressor) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("jpeg.Invoke", Cancelled, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(dc.Compressed))
	if err != nil {
		return newErr("jpeg.Invoke", Malformed, err)
	}

	bounds := img.Bounds()
	samples := dc.SamplesPerPixel
	if samples == 0 {
		samples = 3
	}
	out := make([]byte, bounds.Dx()*bounds.Dy()*samples)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			switch samples {
			case 1:
				out[i] = byte(r >> 8)
				i++
			case 4:
				out[i] = byte(r >> 8)
				out[i+1] = byte(g >> 8)
				out[i+2] = byte(b >> 8)
				out[i+3] = byte(a >> 8)
				i += 4
			default:
				out[i] = byte(r >> 8)
				out[i+1] = byte(g >> 8)
				out[i+2] = byte(b >> 8)
				i += 3
			}
		}
	}
	dc.Uncompressed = out
	return next.Run(ctx, dc)
}

// DecompressorFor returns the reference Middleware for a Compression tag
// value, or Unsupported if none is registered. PackBits (32773) has no
// reference body here; it is trivial enough (byte-oriented RLE) that
// callers needing it supply their own Middleware.
func DecompressorFor(compression uint16) (Middleware, error) {
	switch compression {
	case CompressionNone:
		return NoneDecompressor{}, nil
	case CompressionLZW:
		return LZWDecompressor{}, nil
	case CompressionDeflate, CompressionDeflateX:
		return DeflateDecompressor{}, nil
	case CompressionJPEGOld, CompressionJPEG:
		return JPEGDecompressor{}, nil
	default:
		return nil, newErr("compression.DecompressorFor", Unsupported, fmt.Errorf("compression %d", compression))
	}
}
