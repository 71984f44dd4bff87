package tiff

import (
	"context"
	"fmt"
)

const (
	byteOrderLittle uint16 = 0x4949 // "II"
	byteOrderBig    uint16 = 0x4D4D // "MM"
	magicClassic    uint16 = 42
	magicBig        uint16 = 43
)

// Header is the parsed file header: byte order, format flavor, and where
// the first IFD lives. Offset 0 is never a valid IFD location, so a zero
// FirstIFDOffset means the file has no directories.
type Header struct {
	Mode           Mode
	BigEndian      bool
	FirstIFDOffset uint64
}

// ReadHeader parses the header at the start of store: the II/MM byte-order
// marker, the 42/43 magic, the BigTIFF offset-size and reserved words when
// magic is 43, and the first-IFD offset. Every subsequent multi-byte read
// of the file must use the byte order recovered here.
func ReadHeader(ctx context.Context, store ContentReader) (Header, error) {
	var h Header

	buf := make([]byte, Big.headerSize())
	n, err := store.ReadAt(ctx, 0, buf)
	if n < int(Classic.headerSize()) {
		if err != nil {
			return h, newErr("header.ReadHeader", Truncated, err)
		}
		return h, newErr("header.ReadHeader", Truncated, nil)
	}

	// The marker reads the same in either byte order, so decode it before
	// an order is chosen.
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		h.BigEndian = false
	case buf[0] == 'M' && buf[1] == 'M':
		h.BigEndian = true
	default:
		return h, newErr("header.ReadHeader", Malformed, fmt.Errorf("bad byte-order marker %#x %#x", buf[0], buf[1]))
	}

	o := newOrder(h.BigEndian)
	magic, err := o.u16(buf[2:4])
	if err != nil {
		return h, newErr("header.ReadHeader", Truncated, err)
	}

	switch magic {
	case magicClassic:
		h.Mode = Classic
		first, err := o.u32(buf[4:8])
		if err != nil {
			return h, newErr("header.ReadHeader", Truncated, err)
		}
		h.FirstIFDOffset = uint64(first)
	case magicBig:
		h.Mode = Big
		if n < int(Big.headerSize()) {
			return h, newErr("header.ReadHeader", Truncated, nil)
		}
		offsetSize, err := o.u16(buf[4:6])
		if err != nil {
			return h, newErr("header.ReadHeader", Truncated, err)
		}
		reserved, err := o.u16(buf[6:8])
		if err != nil {
			return h, newErr("header.ReadHeader", Truncated, err)
		}
		if offsetSize != 8 || reserved != 0 {
			return h, newErr("header.ReadHeader", Malformed, fmt.Errorf("bad BigTIFF constants %d/%d", offsetSize, reserved))
		}
		h.FirstIFDOffset, err = o.u64(buf[8:16])
		if err != nil {
			return h, newErr("header.ReadHeader", Truncated, err)
		}
	default:
		return h, newErr("header.ReadHeader", Malformed, fmt.Errorf("bad magic %d", magic))
	}

	return h, nil
}
