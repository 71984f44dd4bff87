package tiff

// Entry is one on-disk IFD row: a tag id, its field type, an element count,
// and the inline-value-or-offset bytes (4 wide in Classic, 8 wide in Big).
type Entry struct {
	Tag    uint16
	Type   FieldType
	Count  uint64
	Inline []byte // always mode.inlineCap() bytes, left-aligned, zero-padded
}

// PayloadSize is the total byte length of the entry's value, the quantity
// compared against the mode's inline cap to decide inline-vs-offset packing.
func (e Entry) PayloadSize() uint64 {
	return e.Count * uint64(e.Type.Width())
}

// IsInline reports whether the entry's payload fits in its own inline
// bytes for the given mode.
func (e Entry) IsInline(m Mode) bool {
	return e.PayloadSize() <= uint64(m.inlineCap())
}

// OffsetValue interprets Inline as a stream offset (valid only when
// !IsInline(mode)).
func (e Entry) OffsetValue(o order, m Mode) (uint64, error) {
	if m == Big {
		return o.u64(e.Inline)
	}
	v, err := o.u32(e.Inline)
	return uint64(v), err
}

// encodeEntry packs tag/type/count/value into m.entryWidth() on-disk bytes.
// payload is the already-marshaled value byte slice; if it is small enough
// to be inline it is copied (zero-padded) into the value slot, otherwise
// offset must be the already-committed stream position of the payload,
// written by the caller beforehand.
func encodeEntry(o order, m Mode, tag uint16, ft FieldType, count uint64, payload []byte, offset uint64) []byte {
	buf := make([]byte, m.entryWidth())
	o.putU16(buf[0:2], tag)
	o.putU16(buf[2:4], uint16(ft))

	countOff := 4
	var valueOff int
	if m == Big {
		o.putU64(buf[countOff:countOff+8], count)
		valueOff = countOff + 8
	} else {
		o.putU32(buf[countOff:countOff+4], uint32(count))
		valueOff = countOff + 4
	}

	capBytes := m.inlineCap()
	payloadSize := count * uint64(ft.Width())
	if payloadSize <= uint64(capBytes) {
		copy(buf[valueOff:valueOff+capBytes], payload)
	} else if m == Big {
		o.putU64(buf[valueOff:valueOff+8], offset)
	} else {
		o.putU32(buf[valueOff:valueOff+4], uint32(offset))
	}
	return buf
}

// decodeEntry parses one on-disk entry record (exactly m.entryWidth()
// bytes) into an Entry. Unknown field types are not rejected here; they
// surface opaquely, and it is up to the caller whether to act on them.
func decodeEntry(o order, m Mode, raw []byte) (Entry, error) {
	if len(raw) < m.entryWidth() {
		return Entry{}, newErr("entry.decode", Truncated, nil)
	}
	tag, err := o.u16(raw[0:2])
	if err != nil {
		return Entry{}, newErr("entry.decode", Truncated, err)
	}
	typeVal, err := o.u16(raw[2:4])
	if err != nil {
		return Entry{}, newErr("entry.decode", Truncated, err)
	}

	var count uint64
	var valueOff int
	if m == Big {
		count, err = o.u64(raw[4:12])
		valueOff = 12
	} else {
		var c32 uint32
		c32, err = o.u32(raw[4:8])
		count = uint64(c32)
		valueOff = 8
	}
	if err != nil {
		return Entry{}, newErr("entry.decode", Truncated, err)
	}

	capBytes := m.inlineCap()
	inline := append([]byte(nil), raw[valueOff:valueOff+capBytes]...)

	return Entry{Tag: tag, Type: FieldType(typeVal), Count: count, Inline: inline}, nil
}
