package tiff

import (
	"encoding/binary"
	"math"
)

// Rational is a TIFF RATIONAL/SRATIONAL pair, numerator then denominator,
// stored in that order both in memory and on disk.
type Rational struct {
	Num, Den uint32
}

// SRational is the signed counterpart of Rational.
type SRational struct {
	Num, Den int32
}

// order is the small set of primitive marshal/unmarshal operations the rest
// of the codec needs, parameterized over the file's byte order at runtime
// rather than duplicated per endianness.
type order struct {
	bo binary.ByteOrder
}

func newOrder(bigEndian bool) order {
	if bigEndian {
		return order{bo: binary.BigEndian}
	}
	return order{bo: binary.LittleEndian}
}

func (o order) putU16(b []byte, v uint16) { o.bo.PutUint16(b, v) }
func (o order) putU32(b []byte, v uint32) { o.bo.PutUint32(b, v) }
func (o order) putU64(b []byte, v uint64) { o.bo.PutUint64(b, v) }

func (o order) u16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, newErr("primitive.u16", Truncated, nil)
	}
	return o.bo.Uint16(b), nil
}

func (o order) u32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, newErr("primitive.u32", Truncated, nil)
	}
	return o.bo.Uint32(b), nil
}

func (o order) u64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, newErr("primitive.u64", Truncated, nil)
	}
	return o.bo.Uint64(b), nil
}

func (o order) i16(b []byte) (int16, error) {
	v, err := o.u16(b)
	return int16(v), err
}

func (o order) i32(b []byte) (int32, error) {
	v, err := o.u32(b)
	return int32(v), err
}

func (o order) i64(b []byte) (int64, error) {
	v, err := o.u64(b)
	return int64(v), err
}

func (o order) f32(b []byte) (float32, error) {
	v, err := o.u32(b)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (o order) f64(b []byte) (float64, error) {
	v, err := o.u64(b)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (o order) putF32(b []byte, v float32) { o.putU32(b, math.Float32bits(v)) }
func (o order) putF64(b []byte, v float64) { o.putU64(b, math.Float64bits(v)) }

func (o order) rational(b []byte) (Rational, error) {
	if len(b) < 8 {
		return Rational{}, newErr("primitive.rational", Truncated, nil)
	}
	return Rational{Num: o.bo.Uint32(b[0:4]), Den: o.bo.Uint32(b[4:8])}, nil
}

func (o order) putRational(b []byte, r Rational) {
	o.bo.PutUint32(b[0:4], r.Num)
	o.bo.PutUint32(b[4:8], r.Den)
}

func (o order) srational(b []byte) (SRational, error) {
	if len(b) < 8 {
		return SRational{}, newErr("primitive.srational", Truncated, nil)
	}
	return SRational{Num: int32(o.bo.Uint32(b[0:4])), Den: int32(o.bo.Uint32(b[4:8]))}, nil
}

func (o order) putSRational(b []byte, r SRational) {
	o.bo.PutUint32(b[0:4], uint32(r.Num))
	o.bo.PutUint32(b[4:8], uint32(r.Den))
}
