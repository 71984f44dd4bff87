package tiff

import "fmt"

// Mode is the on-disk TIFF flavor a writer or entry belongs to.
type Mode int

const (
	// Classic is the original 32-bit TIFF: 16-bit entry counts, 32-bit
	// offsets, 12-byte entries, 8-byte header.
	Classic Mode = iota
	// Big is BigTIFF: 64-bit counts, 64-bit offsets, 20-byte entries,
	// 16-byte header.
	Big
)

// inlineCap is the number of inline value-or-offset bytes an entry carries:
// 4 in Classic, 8 in Big.
func (m Mode) inlineCap() int {
	if m == Big {
		return 8
	}
	return 4
}

// entryWidth is the on-disk size of one IFD entry.
func (m Mode) entryWidth() int {
	if m == Big {
		return 20
	}
	return 12
}

// headerSize is the on-disk size of the file header.
func (m Mode) headerSize() int64 {
	if m == Big {
		return 16
	}
	return 8
}

// countWidth is the byte width of an IFD's leading entry count: 2 in
// Classic, 8 in Big. The trailing next-IFD pointer's width is nextIFDWidth.
func (m Mode) countWidth() int {
	if m == Big {
		return 8
	}
	return 2
}

func (m Mode) nextIFDWidth() int {
	if m == Big {
		return 8
	}
	return 4
}

// marshalTypedValues encodes vs (a Go slice of one of the supported typed
// value kinds) as a field-type-homogeneous byte payload, little- or
// big-endian per o. ASCII is the concatenation of NUL-terminated strings;
// the writer always appends the terminator.
func marshalTypedValues(o order, ft FieldType, vs any) ([]byte, error) {
	w := ft.Width()
	switch val := vs.(type) {
	case []uint8:
		return append([]byte(nil), val...), nil
	case []int8:
		b := make([]byte, len(val))
		for i, x := range val {
			b[i] = byte(x)
		}
		return b, nil
	case []uint16:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putU16(b[i*w:], x)
		}
		return b, nil
	case []int16:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putU16(b[i*w:], uint16(x))
		}
		return b, nil
	case []uint32:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putU32(b[i*w:], x)
		}
		return b, nil
	case []int32:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putU32(b[i*w:], uint32(x))
		}
		return b, nil
	case []uint64:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putU64(b[i*w:], x)
		}
		return b, nil
	case []int64:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putU64(b[i*w:], uint64(x))
		}
		return b, nil
	case []float32:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putF32(b[i*w:], x)
		}
		return b, nil
	case []float64:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putF64(b[i*w:], x)
		}
		return b, nil
	case []Rational:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putRational(b[i*w:], x)
		}
		return b, nil
	case []SRational:
		b := make([]byte, len(val)*w)
		for i, x := range val {
			o.putSRational(b[i*w:], x)
		}
		return b, nil
	case []string:
		var buf []byte
		for _, s := range val {
			buf = append(buf, s...)
			buf = append(buf, 0)
		}
		return buf, nil
	default:
		return nil, newErr("valuecodec.marshal", Unsupported, fmt.Errorf("field type %s: unrepresentable Go value %T", ft, vs))
	}
}

// unmarshalTyped is the inverse of marshalTypedValues: given the raw
// payload bytes, the field type, and a count, it reconstructs a
// ValueCollection of the type T the caller asked for. count is the number
// of elements for every type except ASCII, where it is the total payload
// byte length and the string boundaries are NUL-delimited.
func unmarshalTyped[T any](o order, ft FieldType, count uint64, payload []byte) (ValueCollection[T], error) {
	var zero ValueCollection[T]
	var any0 T
	switch any(any0).(type) {
	case uint8:
		vs, err := decodeUint8(payload, count)
		return castCollection[T](vs, err)
	case int8:
		vs, err := decodeInt8(payload, count)
		return castCollection[T](vs, err)
	case uint16:
		vs, err := decodeUint16(o, payload, count)
		return castCollection[T](vs, err)
	case int16:
		vs, err := decodeInt16(o, payload, count)
		return castCollection[T](vs, err)
	case uint32:
		vs, err := decodeUint32(o, payload, count)
		return castCollection[T](vs, err)
	case int32:
		vs, err := decodeInt32(o, payload, count)
		return castCollection[T](vs, err)
	case uint64:
		vs, err := decodeUint64(o, payload, count)
		return castCollection[T](vs, err)
	case int64:
		vs, err := decodeInt64(o, payload, count)
		return castCollection[T](vs, err)
	case float32:
		vs, err := decodeFloat32(o, payload, count)
		return castCollection[T](vs, err)
	case float64:
		vs, err := decodeFloat64(o, payload, count)
		return castCollection[T](vs, err)
	case Rational:
		vs, err := decodeRational(o, payload, count)
		return castCollection[T](vs, err)
	case SRational:
		vs, err := decodeSRational(o, payload, count)
		return castCollection[T](vs, err)
	case string:
		vs, err := decodeASCII(payload)
		return castCollection[T](vs, err)
	default:
		return zero, newErr("valuecodec.unmarshal", Unsupported, fmt.Errorf("no decoder for Go type %T", any0))
	}
}

// castCollection adapts a concrete []X (X known to be T by the caller's
// type switch) into ValueCollection[T]. The interface{} round trip is the
// price of a single generic entry point over TIFF's dozen field types.
func castCollection[T any](vs any, err error) (ValueCollection[T], error) {
	if err != nil {
		var zero ValueCollection[T]
		return zero, err
	}
	typed := vs.(([]T))
	return Many(typed), nil
}

func decodeUint8(b []byte, n uint64) ([]uint8, error) {
	if uint64(len(b)) < n {
		return nil, newErr("valuecodec.uint8", Truncated, nil)
	}
	out := make([]uint8, n)
	copy(out, b[:n])
	return out, nil
}

func decodeInt8(b []byte, n uint64) ([]int8, error) {
	if uint64(len(b)) < n {
		return nil, newErr("valuecodec.int8", Truncated, nil)
	}
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(b[i])
	}
	return out, nil
}

func decodeUint16(o order, b []byte, n uint64) ([]uint16, error) {
	out := make([]uint16, n)
	for i := range out {
		v, err := o.u16(b[i*2:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeInt16(o order, b []byte, n uint64) ([]int16, error) {
	out := make([]int16, n)
	for i := range out {
		v, err := o.i16(b[i*2:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeUint32(o order, b []byte, n uint64) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := o.u32(b[i*4:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeInt32(o order, b []byte, n uint64) ([]int32, error) {
	out := make([]int32, n)
	for i := range out {
		v, err := o.i32(b[i*4:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeUint64(o order, b []byte, n uint64) ([]uint64, error) {
	out := make([]uint64, n)
	for i := range out {
		v, err := o.u64(b[i*8:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeInt64(o order, b []byte, n uint64) ([]int64, error) {
	out := make([]int64, n)
	for i := range out {
		v, err := o.i64(b[i*8:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeFloat32(o order, b []byte, n uint64) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := o.f32(b[i*4:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeFloat64(o order, b []byte, n uint64) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := o.f64(b[i*8:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeRational(o order, b []byte, n uint64) ([]Rational, error) {
	out := make([]Rational, n)
	for i := range out {
		v, err := o.rational(b[i*8:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeSRational(o order, b []byte, n uint64) ([]SRational, error) {
	out := make([]SRational, n)
	for i := range out {
		v, err := o.srational(b[i*8:])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// decodeASCII splits a NUL-terminated-strings payload into its component
// strings, tolerating a missing final NUL (common in the wild).
func decodeASCII(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out []string
	start := 0
	for i, c := range b {
		if c == 0 {
			out = append(out, string(b[start:i]))
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, string(b[start:]))
	}
	return out, nil
}
