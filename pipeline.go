package tiff

import "context"

// DecodeContext is the mutable, per-image bundle middleware share by
// reference across one pipeline traversal. It must not escape the Run call
// that owns it; callers construct a fresh one per image/tile/strip decode.
type DecodeContext struct {
	// Compressed is the source bytes as read from the strip/tile, before
	// any compression middleware has run.
	Compressed []byte
	// Uncompressed is filled in by a compression middleware before the
	// photometric stage runs.
	Uncompressed []byte

	SourceWidth, SourceHeight int // full image dimensions
	ReadOffsetX, ReadOffsetY  int // top-left of the region this context covers
	ReadWidth, ReadHeight     int // size of that region

	BitsPerSample   int
	SamplesPerPixel int
	Compression     uint16
	Photometric     uint16
	// BigEndian mirrors the owning file's byte order, so photometric
	// middleware can decode multi-byte samples (RGB16, 16-bit gray) straight
	// out of Uncompressed without a second lookup.
	BigEndian bool

	// ColorMap holds the 3*2^BitsPerSample 16-bit palette entries for
	// Paletted photometric interpretation (red plane, then green, then
	// blue), per TIFF's ColorMap tag layout.
	ColorMap []uint16

	// YCbCrSubsampling is the {horizontal, vertical} chroma subsampling
	// factor pair from the YCbCrSubSampling tag (default {2, 2}).
	YCbCrSubsampling [2]int
	// YCbCrCoefficients are the luma weights from the YCbCrCoefficients
	// tag (default ITU-R BT.601: 0.299, 0.587, 0.114).
	YCbCrCoefficients [3]float64

	writer any // *PixelBuffer[T], type-erased; see SetPixelWriter/GetPixelWriter
}

// SetPixelWriter installs w as dc's pixel buffer target.
func SetPixelWriter[T any](dc *DecodeContext, w *PixelBuffer[T]) {
	dc.writer = w
}

// GetPixelWriter retrieves dc's pixel buffer target as a *PixelBuffer[T].
// It fails with TypeMismatch if no writer was set or it was set for a
// different sample type.
func GetPixelWriter[T any](dc *DecodeContext) (*PixelBuffer[T], error) {
	w, ok := dc.writer.(*PixelBuffer[T])
	if !ok {
		return nil, newErr("decodecontext.GetPixelWriter", TypeMismatch, nil)
	}
	return w, nil
}

func (dc *DecodeContext) byteOrder() order { return newOrder(dc.BigEndian) }

// Next is what a Middleware calls to continue the chain. Middleware that
// does not call Run short-circuits the rest of the pipeline.
type Next interface {
	Run(ctx context.Context, dc *DecodeContext) error
}

// Middleware is one interceptor in the decode pipeline.
type Middleware interface {
	Invoke(ctx context.Context, dc *DecodeContext, next Next) error
}

// terminalNode is the no-op sentinel every pipeline ends in.
type terminalNode struct{}

func (terminalNode) Run(context.Context, *DecodeContext) error { return nil }

var terminal Next = terminalNode{}

// node binds one Middleware to the rest of the chain. Pipelines are built
// once as a reified linked list of nodes and traversed many times;
// rebuilding is cheaper than mutating a chain in place.
type node struct {
	mw   Middleware
	next Next
}

func (n *node) Run(ctx context.Context, dc *DecodeContext) error {
	if err := ctx.Err(); err != nil {
		return newErr("pipeline.Run", Cancelled, err)
	}
	return n.mw.Invoke(ctx, dc, n.next)
}

// Pipeline is a fixed, ordered chain of middleware; the order is set at
// construction and never changes. A single Pipeline is safe to Run
// concurrently over distinct DecodeContexts provided every Middleware in
// it is stateless or internally synchronized; the same DecodeContext must
// never be driven by two concurrent Run calls.
type Pipeline struct {
	head Next
}

// NewPipeline builds a pipeline from mws in the given order.
func NewPipeline(mws ...Middleware) *Pipeline {
	var next Next = terminal
	for i := len(mws) - 1; i >= 0; i-- {
		next = &node{mw: mws[i], next: next}
	}
	return &Pipeline{head: next}
}

// Run drives dc through the whole chain.
func (p *Pipeline) Run(ctx context.Context, dc *DecodeContext) error {
	return p.head.Run(ctx, dc)
}
