package tiff

import "context"

// Region names a span of bytes already committed to the stream: an out-of-
// line payload, or an emitted IFD's entry array.
type Region struct {
	Offset int64
	Length int64
}

// Store is the read+write capability a Cursor needs from its backing file:
// it must be able to patch a previously-written next-IFD pointer, which
// means reading back a byte count it already wrote.
type Store interface {
	ContentReader
	ContentWriter
}

const bigTiffOffsetLimit = 1<<32 - 1

// Cursor is the writer's forward-only offset and alignment state machine.
// One Cursor is owned by one file writer; IFDWriter instances borrow it to
// commit their payloads and entry arrays.
type Cursor struct {
	store     Store
	o         order
	mode      Mode
	bigEndian bool

	position       int64
	requiresBig    bool
	firstIFDOffset uint64
	haveFirstIFD   bool
	completed      bool
	disposed       bool
}

// NewCursor creates a Cursor over store. mode is the format the caller
// declared at writer-creation time. It never changes, though a Classic
// choice can prove insufficient retroactively (see RequiresBig). bigEndian
// selects the byte order written into every multi-byte field, including
// the header's own II/MM marker.
func NewCursor(store Store, mode Mode, bigEndian bool) *Cursor {
	return &Cursor{
		store:     store,
		o:         newOrder(bigEndian),
		mode:      mode,
		bigEndian: bigEndian,
		position:  mode.headerSize(),
	}
}

func (c *Cursor) checkAlive(op string) error {
	if c.disposed {
		return newErr(op, Disposed, nil)
	}
	if c.completed {
		return newErr(op, Completed, nil)
	}
	return nil
}

// Position returns the cursor's current write offset.
func (c *Cursor) Position() int64 { return c.position }

// Mode returns the format the cursor was created with. It never changes;
// RequiresBig reports whether that choice has since proven insufficient.
func (c *Cursor) Mode() Mode { return c.mode }

// RequiresBig reports whether any offset advanced past has exceeded the
// 32-bit range, meaning a Classic-mode FlushHeader will fail.
func (c *Cursor) RequiresBig() bool { return c.requiresBig }

// Seek repositions the cursor. Permitted freely; callers that rely on the
// monotonic-between-seeks invariant are responsible for it themselves.
func (c *Cursor) Seek(offset int64) error {
	if err := c.checkAlive("cursor.Seek"); err != nil {
		return err
	}
	c.position = offset
	return nil
}

// advance moves the cursor forward by n bytes and flags BigTIFF promotion
// if the new position has left the 32-bit offset space.
func (c *Cursor) advance(n int64) {
	c.position += n
	if c.position > bigTiffOffsetLimit {
		c.requiresBig = true
	}
}

// AlignToWord pads the stream to an even offset with a single NUL byte if
// needed, and returns the (now even) position. Idempotent when already
// aligned.
func (c *Cursor) AlignToWord(ctx context.Context) (int64, error) {
	if err := c.checkAlive("cursor.AlignToWord"); err != nil {
		return 0, err
	}
	if c.position%2 == 0 {
		return c.position, nil
	}
	if err := c.store.WriteAt(ctx, c.position, []byte{0}); err != nil {
		return 0, newErr("cursor.AlignToWord", IoFailure, err)
	}
	c.advance(1)
	return c.position, nil
}

// WriteBytes writes buf at the current position and advances past it,
// returning the region it occupies.
func (c *Cursor) WriteBytes(ctx context.Context, buf []byte) (Region, error) {
	if err := c.checkAlive("cursor.WriteBytes"); err != nil {
		return Region{}, err
	}
	offset := c.position
	if len(buf) > 0 {
		if err := c.store.WriteAt(ctx, offset, buf); err != nil {
			return Region{}, newErr("cursor.WriteBytes", IoFailure, err)
		}
	}
	c.advance(int64(len(buf)))
	return Region{Offset: offset, Length: int64(len(buf))}, nil
}

// WriteAlignedBytes aligns to a word boundary, then writes buf. Out-of-line
// payloads must start on a 2-byte boundary (inline payloads are
// unconstrained); call sites use this for the former.
func (c *Cursor) WriteAlignedBytes(ctx context.Context, buf []byte) (Region, error) {
	if _, err := c.AlignToWord(ctx); err != nil {
		return Region{}, err
	}
	return c.WriteBytes(ctx, buf)
}

// WriteAlignedValues marshals vs (one of the Go types marshalTypedValues
// accepts for field type ft) to this cursor's byte order and writes the
// result word-aligned.
func (c *Cursor) WriteAlignedValues(ctx context.Context, ft FieldType, vs any) (Region, error) {
	if err := c.checkAlive("cursor.WriteAlignedValues"); err != nil {
		return Region{}, err
	}
	payload, err := marshalTypedValues(c.o, ft, vs)
	if err != nil {
		return Region{}, err
	}
	return c.WriteAlignedBytes(ctx, payload)
}

// SetFirstIFDOffset records where the header should point once flushed.
func (c *Cursor) SetFirstIFDOffset(offset uint64) {
	c.firstIFDOffset = offset
	c.haveFirstIFD = true
}

// FlushHeader writes the file header (magic, byte order, BigTIFF constants
// when applicable, first-IFD offset). It is the one operation that can
// fail with BigTiffRequired: if any committed offset exceeded the 32-bit
// range while the cursor was built in Classic mode, no header is written
// and the writer is left usable only for disposal.
func (c *Cursor) FlushHeader(ctx context.Context) error {
	if err := c.checkAlive("cursor.FlushHeader"); err != nil {
		return err
	}
	if c.requiresBig && c.mode == Classic {
		// Fatal for this writer: every later operation except Dispose
		// fails with Completed.
		c.completed = true
		return newErr("cursor.FlushHeader", BigTiffRequired, nil)
	}

	header := make([]byte, c.mode.headerSize())
	if c.bigEndian {
		c.o.putU16(header[0:2], byteOrderBig)
	} else {
		c.o.putU16(header[0:2], byteOrderLittle)
	}

	if c.mode == Big {
		c.o.putU16(header[2:4], magicBig)
		c.o.putU16(header[4:6], 8) // offset byte size
		c.o.putU16(header[6:8], 0) // reserved
		c.o.putU64(header[8:16], c.firstIFDOffset)
	} else {
		c.o.putU16(header[2:4], magicClassic)
		c.o.putU32(header[4:8], uint32(c.firstIFDOffset))
	}

	if err := c.store.WriteAt(ctx, 0, header); err != nil {
		return newErr("cursor.FlushHeader", IoFailure, err)
	}
	c.completed = true
	return nil
}

// UpdateNextIFDPointer patches the next-IFD field of the IFD located at
// prevOffset to point at newOffset. It reads the IFD's own entry count to
// skip past the entry array.
func (c *Cursor) UpdateNextIFDPointer(ctx context.Context, prevOffset, newOffset uint64) error {
	if err := c.checkAlive("cursor.UpdateNextIFDPointer"); err != nil {
		return err
	}

	countBuf := make([]byte, c.mode.countWidth())
	if err := readFull(ctx, c.store, int64(prevOffset), countBuf, "cursor.UpdateNextIFDPointer"); err != nil {
		return err
	}

	var count uint64
	var err error
	if c.mode == Big {
		count, err = c.o.u64(countBuf)
	} else {
		var c16 uint16
		c16, err = c.o.u16(countBuf)
		count = uint64(c16)
	}
	if err != nil {
		return newErr("cursor.UpdateNextIFDPointer", Malformed, err)
	}

	entriesBytes := count * uint64(c.mode.entryWidth())
	nextFieldOffset := prevOffset + uint64(c.mode.countWidth()) + entriesBytes

	nextBuf := make([]byte, c.mode.nextIFDWidth())
	if c.mode == Big {
		c.o.putU64(nextBuf, newOffset)
	} else {
		c.o.putU32(nextBuf, uint32(newOffset))
	}

	if err := c.store.WriteAt(ctx, int64(nextFieldOffset), nextBuf); err != nil {
		return newErr("cursor.UpdateNextIFDPointer", IoFailure, err)
	}
	return nil
}

// Dispose marks the cursor unusable. Idempotent, safe on every exit path.
func (c *Cursor) Dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	return c.store.Close()
}
