package tiff

import (
	"context"
	"fmt"
	"sort"
)

// defaultMaxEntries is the default upper bound on an IFD's entry count,
// past which Enumerate fails with SizeLimitExceeded rather than trusting
// an adversarial or corrupt count field.
const defaultMaxEntries = 65535

// IFD is one parsed Image File Directory: its own offset, its entries
// (always left in ascending-tag order after Enumerate returns, even if the
// bytes on disk were not), and the offset of the next IFD in the chain
// (0 = terminal).
type IFD struct {
	Offset     uint64
	Entries    []Entry
	NextOffset uint64
}

// find returns the index of tag's entry via binary search; Enumerate
// guarantees Entries is tag-sorted by the time find can run.
func (d *IFD) find(tag uint16) (int, bool) {
	i := sort.Search(len(d.Entries), func(i int) bool { return d.Entries[i].Tag >= tag })
	if i < len(d.Entries) && d.Entries[i].Tag == tag {
		return i, true
	}
	return 0, false
}

// Warning is a recoverable condition the reader downgrades rather than
// failing on, currently only non-monotone tag order.
type Warning struct {
	Op  string
	Msg string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Op, w.Msg) }

// IFDReader locates and enumerates IFDs and resolves typed tag values
// against one backing ContentReader. It accepts any valid offset,
// including sub-IFDs linked from IFD/IFD8-typed tags; callers choose
// whether to traverse those further.
type IFDReader struct {
	store      ContentReader
	o          order
	mode       Mode
	maxEntries int
	strict     bool // reject non-monotone order instead of warn+resort
}

// NewIFDReader creates a reader over store using mode/bigEndian to
// interpret offsets and multi-byte fields. The entry-count cap defaults to
// 65535; use WithMaxEntries to change it.
func NewIFDReader(store ContentReader, mode Mode, bigEndian bool) *IFDReader {
	return &IFDReader{
		store:      store,
		o:          newOrder(bigEndian),
		mode:       mode,
		maxEntries: defaultMaxEntries,
	}
}

// WithMaxEntries overrides the entry-count cap.
func (r *IFDReader) WithMaxEntries(n int) *IFDReader {
	r.maxEntries = n
	return r
}

// WithStrictOrder makes Enumerate fail with Malformed on non-monotone tag
// order instead of resorting and emitting a Warning. Files with misordered
// directories are common enough in the wild that lenient is the default.
func (r *IFDReader) WithStrictOrder(strict bool) *IFDReader {
	r.strict = strict
	return r
}

// Enumerate reads the IFD at offset in two positioned reads: first its
// entry count, then all of its entries together with its next-IFD pointer,
// so a remote ContentReader issues two HTTP range requests per IFD rather
// than one per field.
func (r *IFDReader) Enumerate(ctx context.Context, offset uint64) (*IFD, []Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, newErr("ifdreader.Enumerate", Cancelled, err)
	}

	countBuf := make([]byte, r.mode.countWidth())
	if err := readFull(ctx, r.store, int64(offset), countBuf, "ifdreader.Enumerate"); err != nil {
		return nil, nil, err
	}

	var count uint64
	var err error
	if r.mode == Big {
		count, err = r.o.u64(countBuf)
	} else {
		var c16 uint16
		c16, err = r.o.u16(countBuf)
		count = uint64(c16)
	}
	if err != nil {
		return nil, nil, newErr("ifdreader.Enumerate", Malformed, err)
	}
	if count > uint64(r.maxEntries) {
		return nil, nil, newErr("ifdreader.Enumerate", SizeLimitExceeded, fmt.Errorf("%d entries exceeds cap %d", count, r.maxEntries))
	}

	restLen := int(count)*r.mode.entryWidth() + r.mode.nextIFDWidth()
	rest := make([]byte, restLen)
	if restLen > 0 {
		if err := readFull(ctx, r.store, int64(offset)+int64(len(countBuf)), rest, "ifdreader.Enumerate"); err != nil {
			return nil, nil, err
		}
	}

	entries := make([]Entry, count)
	pos := 0
	for i := range entries {
		e, err := decodeEntry(r.o, r.mode, rest[pos:pos+r.mode.entryWidth()])
		if err != nil {
			return nil, nil, newErr("ifdreader.Enumerate", Malformed, err)
		}
		entries[i] = e
		pos += r.mode.entryWidth()
	}

	var warnings []Warning
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag }) {
		if r.strict {
			return nil, nil, newErr("ifdreader.Enumerate", Malformed, fmt.Errorf("entries not in ascending tag order"))
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag })
		warnings = append(warnings, Warning{Op: "ifdreader.Enumerate", Msg: "non-monotone tag order, resorted"})
	}

	nextBuf := rest[pos : pos+r.mode.nextIFDWidth()]
	var next uint64
	if r.mode == Big {
		next, err = r.o.u64(nextBuf)
	} else {
		var n32 uint32
		n32, err = r.o.u32(nextBuf)
		next = uint64(n32)
	}
	if err != nil {
		return nil, nil, newErr("ifdreader.Enumerate", Malformed, err)
	}

	return &IFD{Offset: offset, Entries: entries, NextOffset: next}, warnings, nil
}

// EnumerateChain walks the next-IFD chain starting at firstOffset until it
// reaches the terminal 0, collecting every IFD and warning along the way.
func (r *IFDReader) EnumerateChain(ctx context.Context, firstOffset uint64) ([]*IFD, []Warning, error) {
	var ifds []*IFD
	var warnings []Warning
	offset := firstOffset
	for offset != 0 {
		ifd, ws, err := r.Enumerate(ctx, offset)
		if err != nil {
			return nil, warnings, err
		}
		ifds = append(ifds, ifd)
		warnings = append(warnings, ws...)
		offset = ifd.NextOffset
	}
	return ifds, warnings, nil
}

// acceptableFieldTypes lists which on-disk FieldTypes a caller requesting
// Go type T may read. IFD/IFD8 entries are accepted wherever a plain
// Long/Long8 offset would be: the returned value is the sub-IFD offset,
// and further traversal is the caller's choice.
func acceptableFieldTypes[T any]() []FieldType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return []FieldType{Byte, Undefined}
	case int8:
		return []FieldType{SByte}
	case uint16:
		return []FieldType{Short}
	case int16:
		return []FieldType{SShort}
	case uint32:
		return []FieldType{Long, IFDType}
	case int32:
		return []FieldType{SLong}
	case uint64:
		return []FieldType{Long8, IFD8Type}
	case int64:
		return []FieldType{SLong8}
	case float32:
		return []FieldType{Float}
	case float64:
		return []FieldType{Double}
	case Rational:
		return []FieldType{Rationals}
	case SRational:
		return []FieldType{SRationals}
	case string:
		return []FieldType{ASCII}
	default:
		return nil
	}
}

func acceptsFieldType(accept []FieldType, ft FieldType) bool {
	for _, a := range accept {
		if a == ft {
			return true
		}
	}
	return false
}

// ReadValues resolves tag's value in ifd as a ValueCollection[T]. sizeLimit,
// when positive, bounds the payload byte length a caller will accept
// before issuing the (possibly remote) out-of-line read; 0 means
// unbounded. Per-tag helpers degenerate to calling this and taking the
// first element.
func ReadValues[T any](ctx context.Context, r *IFDReader, ifd *IFD, tag uint16, sizeLimit int) (ValueCollection[T], error) {
	var zero ValueCollection[T]

	if err := ctx.Err(); err != nil {
		return zero, newErr("ifdreader.ReadValues", Cancelled, err)
	}

	idx, ok := ifd.find(tag)
	if !ok {
		return zero, newErr("ifdreader.ReadValues", NotFound, nil)
	}
	entry := ifd.Entries[idx]

	if !entry.Type.known() {
		return zero, newErr("ifdreader.ReadValues", Unsupported, fmt.Errorf("tag %d has unknown field type %d", tag, entry.Type))
	}
	accept := acceptableFieldTypes[T]()
	if !acceptsFieldType(accept, entry.Type) {
		return zero, newErr("ifdreader.ReadValues", TypeMismatch, fmt.Errorf("tag %d is %s", tag, entry.Type))
	}

	payloadSize := entry.PayloadSize()
	if sizeLimit > 0 && payloadSize > uint64(sizeLimit) {
		return zero, newErr("ifdreader.ReadValues", SizeLimitExceeded, fmt.Errorf("tag %d payload %d bytes exceeds limit %d", tag, payloadSize, sizeLimit))
	}

	var payload []byte
	if entry.IsInline(r.mode) {
		payload = entry.Inline[:payloadSize]
	} else {
		offset, err := entry.OffsetValue(r.o, r.mode)
		if err != nil {
			return zero, newErr("ifdreader.ReadValues", Malformed, err)
		}
		scratch := getScratch(int(payloadSize))
		defer putScratch(scratch)
		payload = scratch.B
		if err := readFull(ctx, r.store, int64(offset), payload, "ifdreader.ReadValues"); err != nil {
			return zero, err
		}
	}

	// unmarshalTyped copies into freshly-typed slices, so the pooled
	// payload never escapes this call.
	return unmarshalTyped[T](r.o, entry.Type, entry.Count, payload)
}
