package tiff

import (
	"context"
	"math"
)

// Photometric interpretation tag values (TIFF PhotometricInterpretation,
// tag 262).
const (
	PhotometricWhiteIsZero      uint16 = 0
	PhotometricBlackIsZero      uint16 = 1
	PhotometricRGB              uint16 = 2
	PhotometricPaletted         uint16 = 3
	PhotometricTransparencyMask uint16 = 4
	PhotometricCMYK             uint16 = 5
	PhotometricYCbCr            uint16 = 6

	defaultYCbCrSubH = 2
	defaultYCbCrSubV = 2
)

// One Middleware per photometric interpretation, each pulling samples out
// of dc.Uncompressed (already run through a compression Middleware) and
// committing them row by row through GetPixelWriter.

// unpackBits reads count samples of the given bit depth (1, 4 or 8) out of
// a packed, MSB-first byte row, the layout TIFF uses whenever BitsPerSample
// isn't a whole number of bytes.
func unpackBits(data []byte, count, bits int) []uint16 {
	out := make([]uint16, count)
	switch bits {
	case 8:
		for i := 0; i < count; i++ {
			out[i] = uint16(data[i])
		}
	case 4:
		for i := 0; i < count; i++ {
			b := data[i/2]
			if i%2 == 0 {
				out[i] = uint16(b >> 4)
			} else {
				out[i] = uint16(b & 0x0F)
			}
		}
	case 1:
		for i := 0; i < count; i++ {
			b := data[i/8]
			shift := uint(7 - i%8)
			out[i] = uint16((b >> shift) & 1)
		}
	}
	return out
}

// packedRowStride is the byte width of one row of count samples at the
// given bit depth, rounded up to a whole byte per TIFF's row-padding rule.
func packedRowStride(count, bits int) int {
	return (count*bits + 7) / 8
}

// scaleToByte stretches an n-bit sample to the full 0-255 range so 1- and
// 4-bit grayscale reads as black/white and shades rather than near-zero.
func scaleToByte(v uint16, bits int) uint8 {
	if bits >= 8 {
		return uint8(v)
	}
	maxIn := uint16(1<<uint(bits)) - 1
	return uint8((uint32(v) * 255) / uint32(maxIn))
}

// grayscale handles BlackIsZero/WhiteIsZero at 1, 4 or 8 bits per sample
// into an 8-bit pixel buffer.
type grayscale struct {
	bits   int
	invert bool
}

func (g grayscale) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("grayscale.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint8](dc)
	if err != nil {
		return err
	}
	stride := packedRowStride(dc.ReadWidth, g.bits)
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		vals := unpackBits(row, dc.ReadWidth, g.bits)
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		out := handle.Data()
		for x, v := range vals {
			s := scaleToByte(v, g.bits)
			if g.invert {
				s = 0xFF - s
			}
			out[x] = s
		}
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// gray16 handles BlackIsZero16/WhiteIsZero16 into a 16-bit pixel buffer.
type gray16 struct {
	invert bool
}

func (g gray16) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("gray16.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint16](dc)
	if err != nil {
		return err
	}
	o := dc.byteOrder()
	stride := dc.ReadWidth * 2
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		out := handle.Data()
		for x := 0; x < dc.ReadWidth; x++ {
			v, err := o.u16(row[x*2 : x*2+2])
			if err != nil {
				return newErr("gray16.Invoke", Truncated, err)
			}
			if g.invert {
				v = 0xFFFF - v
			}
			out[x] = v
		}
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// BlackIsZero1 interprets 1-bit samples where 0 is black.
type BlackIsZero1 struct{}

func (BlackIsZero1) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return grayscale{bits: 1}.Invoke(ctx, dc, next)
}

// BlackIsZero4 interprets 4-bit samples where 0 is black.
type BlackIsZero4 struct{}

func (BlackIsZero4) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return grayscale{bits: 4}.Invoke(ctx, dc, next)
}

// BlackIsZero8 interprets 8-bit samples where 0 is black.
type BlackIsZero8 struct{}

func (BlackIsZero8) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return grayscale{bits: 8}.Invoke(ctx, dc, next)
}

// BlackIsZero16 interprets 16-bit samples where 0 is black.
type BlackIsZero16 struct{}

func (BlackIsZero16) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return gray16{}.Invoke(ctx, dc, next)
}

// WhiteIsZero1 interprets 1-bit samples where 0 is white.
type WhiteIsZero1 struct{}

func (WhiteIsZero1) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return grayscale{bits: 1, invert: true}.Invoke(ctx, dc, next)
}

// WhiteIsZero4 interprets 4-bit samples where 0 is white.
type WhiteIsZero4 struct{}

func (WhiteIsZero4) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return grayscale{bits: 4, invert: true}.Invoke(ctx, dc, next)
}

// WhiteIsZero8 interprets 8-bit samples where 0 is white.
type WhiteIsZero8 struct{}

func (WhiteIsZero8) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return grayscale{bits: 8, invert: true}.Invoke(ctx, dc, next)
}

// WhiteIsZero16 interprets 16-bit samples where 0 is white.
type WhiteIsZero16 struct{}

func (WhiteIsZero16) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return gray16{invert: true}.Invoke(ctx, dc, next)
}

// RGB8 passes already-interleaved 8-bit RGB(A) samples straight through to
// an 8-bit pixel buffer, channels-wide per dc.SamplesPerPixel (3, or more
// with extra samples such as alpha).
type RGB8 struct{}

func (RGB8) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("rgb8.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint8](dc)
	if err != nil {
		return err
	}
	channels := dc.SamplesPerPixel
	if channels < 3 {
		channels = 3
	}
	stride := dc.ReadWidth * channels
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		copy(handle.Data(), row)
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// RGB16 decodes interleaved 16-bit-per-channel RGB(A) samples into a 16-bit
// pixel buffer, honoring the file's byte order.
type RGB16 struct{}

func (RGB16) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("rgb16.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint16](dc)
	if err != nil {
		return err
	}
	channels := dc.SamplesPerPixel
	if channels < 3 {
		channels = 3
	}
	o := dc.byteOrder()
	stride := dc.ReadWidth * channels * 2
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		out := handle.Data()
		for i := 0; i < dc.ReadWidth*channels; i++ {
			v, err := o.u16(row[i*2 : i*2+2])
			if err != nil {
				return newErr("rgb16.Invoke", Truncated, err)
			}
			out[i] = v
		}
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// expandPaletted decodes bits-wide palette indices into RGB16 triplets via
// dc.ColorMap, which TIFF lays out as three consecutive planes (all red
// values, then all green, then all blue) of 2^bits entries each.
func expandPaletted(ctx context.Context, dc *DecodeContext, bits int, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("paletted.Invoke", Cancelled, err)
	}
	if len(dc.ColorMap) == 0 || len(dc.ColorMap)%3 != 0 {
		return newErr("paletted.Invoke", Malformed, nil)
	}
	planeSize := len(dc.ColorMap) / 3
	w, err := GetPixelWriter[uint16](dc)
	if err != nil {
		return err
	}
	stride := packedRowStride(dc.ReadWidth, bits)
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		indices := unpackBits(row, dc.ReadWidth, bits)
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		out := handle.Data()
		for x, idx := range indices {
			if int(idx) >= planeSize {
				return newErr("paletted.Invoke", OutOfRange, nil)
			}
			out[x*3+0] = dc.ColorMap[idx]
			out[x*3+1] = dc.ColorMap[planeSize+int(idx)]
			out[x*3+2] = dc.ColorMap[2*planeSize+int(idx)]
		}
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// Paletted4 expands 4-bit palette indices through dc.ColorMap.
type Paletted4 struct{}

func (Paletted4) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return expandPaletted(ctx, dc, 4, next)
}

// Paletted8 expands 8-bit palette indices through dc.ColorMap.
type Paletted8 struct{}

func (Paletted8) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	return expandPaletted(ctx, dc, 8, next)
}

// CMYK8 passes interleaved 8-bit CMYK samples straight through to a 4-channel
// pixel buffer.
type CMYK8 struct{}

func (CMYK8) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("cmyk8.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint8](dc)
	if err != nil {
		return err
	}
	stride := dc.ReadWidth * 4
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		copy(handle.Data(), row)
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// TransparencyMask decodes a 1-bit-per-pixel mask (PhotometricInterpretation
// 4) into an
// 8-bit buffer holding the raw 0/1 bit. It is a mask, not a display value,
// so it is never scaled or inverted the way BlackIsZero1/WhiteIsZero1 are.
type TransparencyMask struct{}

func (TransparencyMask) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("transparencymask.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint8](dc)
	if err != nil {
		return err
	}
	stride := packedRowStride(dc.ReadWidth, 1)
	for y := 0; y < dc.ReadHeight; y++ {
		row := dc.Uncompressed[y*stride : (y+1)*stride]
		vals := unpackBits(row, dc.ReadWidth, 1)
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		out := handle.Data()
		for x, v := range vals {
			out[x] = uint8(v)
		}
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// YCbCr8 decodes TIFF's raw packed-block YCbCr subsampling layout
// (Compression == None/unencoded YCbCr, as opposed to JPEG-compressed
// YCbCr, which JPEGDecompressor already converts to RGB before this stage
// would ever run). Each block holds YCbCrSubsampling[0] *
// YCbCrSubsampling[1] luma samples in row-major order followed by one Cb
// and one Cr byte shared by the whole block; blocks tile the image and the
// trailing row/column of blocks, when the image size isn't a multiple of
// the subsampling factor, simply applies its one chroma pair across every
// luma sample in the block, including the off-grid ones past the image
// edge, so edge pixels replicate the last valid chroma sample.
type YCbCr8 struct{}

func (YCbCr8) Invoke(ctx context.Context, dc *DecodeContext, next Next) error {
	if err := ctx.Err(); err != nil {
		return newErr("ycbcr8.Invoke", Cancelled, err)
	}
	w, err := GetPixelWriter[uint8](dc)
	if err != nil {
		return err
	}

	subH, subV := dc.YCbCrSubsampling[0], dc.YCbCrSubsampling[1]
	if subH == 0 {
		subH = defaultYCbCrSubH
	}
	if subV == 0 {
		subV = defaultYCbCrSubV
	}
	lumaR, lumaG, lumaB := dc.YCbCrCoefficients[0], dc.YCbCrCoefficients[1], dc.YCbCrCoefficients[2]
	if lumaR == 0 && lumaG == 0 && lumaB == 0 {
		lumaR, lumaG, lumaB = 0.299, 0.587, 0.114
	}

	width, height := dc.ReadWidth, dc.ReadHeight
	blocksAcross := (width + subH - 1) / subH
	blocksDown := (height + subV - 1) / subV
	blockSamples := subH * subV
	blockSize := blockSamples + 2

	out := make([][]uint8, height)
	for y := range out {
		out[y] = make([]uint8, width*3)
	}

	for by := 0; by < blocksDown; by++ {
		for bx := 0; bx < blocksAcross; bx++ {
			blockIndex := by*blocksAcross + bx
			start := blockIndex * blockSize
			if start+blockSize > len(dc.Uncompressed) {
				return newErr("ycbcr8.Invoke", Truncated, nil)
			}
			block := dc.Uncompressed[start : start+blockSize]
			cb := float64(block[blockSamples]) - 128
			cr := float64(block[blockSamples+1]) - 128

			for dy := 0; dy < subV; dy++ {
				py := by*subV + dy
				if py >= height {
					continue
				}
				for dx := 0; dx < subH; dx++ {
					px := bx*subH + dx
					if px >= width {
						continue
					}
					yv := float64(block[dy*subH+dx])
					r := yv + cr*2*(1-lumaR)
					b := yv + cb*2*(1-lumaB)
					g := (yv - lumaR*r - lumaB*b) / lumaG
					row := out[py]
					row[px*3+0] = clampByte(r)
					row[px*3+1] = clampByte(g)
					row[px*3+2] = clampByte(b)
				}
			}
		}
	}

	for y := 0; y < height; y++ {
		handle, err := w.RowSpan(y)
		if err != nil {
			return err
		}
		copy(handle.Data(), out[y])
		if err := handle.Release(); err != nil {
			return err
		}
	}
	return next.Run(ctx, dc)
}

// PhotometricFor returns the reference Middleware for a
// PhotometricInterpretation tag value and bit depth, or Unsupported for a
// combination with no built-in interpreter (e.g. Paletted at a depth other
// than 4 or 8).
func PhotometricFor(photometric uint16, bitsPerSample int) (Middleware, error) {
	switch photometric {
	case PhotometricBlackIsZero:
		switch bitsPerSample {
		case 1:
			return BlackIsZero1{}, nil
		case 4:
			return BlackIsZero4{}, nil
		case 8:
			return BlackIsZero8{}, nil
		case 16:
			return BlackIsZero16{}, nil
		}
	case PhotometricWhiteIsZero:
		switch bitsPerSample {
		case 1:
			return WhiteIsZero1{}, nil
		case 4:
			return WhiteIsZero4{}, nil
		case 8:
			return WhiteIsZero8{}, nil
		case 16:
			return WhiteIsZero16{}, nil
		}
	case PhotometricRGB:
		switch bitsPerSample {
		case 8:
			return RGB8{}, nil
		case 16:
			return RGB16{}, nil
		}
	case PhotometricPaletted:
		switch bitsPerSample {
		case 4:
			return Paletted4{}, nil
		case 8:
			return Paletted8{}, nil
		}
	case PhotometricCMYK:
		if bitsPerSample == 8 {
			return CMYK8{}, nil
		}
	case PhotometricTransparencyMask:
		if bitsPerSample == 1 {
			return TransparencyMask{}, nil
		}
	case PhotometricYCbCr:
		if bitsPerSample == 8 {
			return YCbCr8{}, nil
		}
	}
	return nil, newErr("photometric.PhotometricFor", Unsupported, nil)
}
