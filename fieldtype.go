package tiff

// FieldType is the TIFF field-type enumeration. Values match the on-disk
// encoding used by both Classic and BigTIFF.
type FieldType uint16

const (
	Byte       FieldType = 1
	ASCII      FieldType = 2
	Short      FieldType = 3
	Long       FieldType = 4
	Rationals  FieldType = 5 // RATIONAL; named to avoid colliding with the Rational struct
	SByte      FieldType = 6
	Undefined  FieldType = 7
	SShort     FieldType = 8
	SLong      FieldType = 9
	SRationals FieldType = 10 // SRATIONAL
	Float      FieldType = 11
	Double     FieldType = 12
	IFDType    FieldType = 13 // IFD
	Long8      FieldType = 16
	SLong8     FieldType = 17
	IFD8Type   FieldType = 18 // IFD8
)

// Width returns the per-element byte width of t, or 0 if t is an unknown
// field type. Unknown types are surfaced opaquely rather than rejected, so
// one unrecognized entry never fails a whole IFD.
func (t FieldType) Width() int {
	switch t {
	case Byte, ASCII, SByte, Undefined:
		return 1
	case Short, SShort:
		return 2
	case Long, SLong, Float, IFDType:
		return 4
	case Rationals, SRationals, Double, Long8, SLong8, IFD8Type:
		return 8
	default:
		return 0
	}
}

func (t FieldType) known() bool { return t.Width() > 0 }

func (t FieldType) String() string {
	switch t {
	case Byte:
		return "BYTE"
	case ASCII:
		return "ASCII"
	case Short:
		return "SHORT"
	case Long:
		return "LONG"
	case Rationals:
		return "RATIONAL"
	case SByte:
		return "SBYTE"
	case Undefined:
		return "UNDEFINED"
	case SShort:
		return "SSHORT"
	case SLong:
		return "SLONG"
	case SRationals:
		return "SRATIONAL"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case IFDType:
		return "IFD"
	case Long8:
		return "LONG8"
	case SLong8:
		return "SLONG8"
	case IFD8Type:
		return "IFD8"
	default:
		return "UNKNOWN"
	}
}
