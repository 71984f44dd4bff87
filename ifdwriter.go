package tiff

import (
	"context"
	"sort"
)

// pendingEntry is one tuple queued by AddEntry before Commit resolves it
// to an on-disk Entry.
type pendingEntry struct {
	tag   uint16
	typ   FieldType
	count uint64
	vs    any // the Go slice AddEntry was called with, passed straight to marshalTypedValues
}

// IFDWriter is a scoped builder bound to one Cursor: on completion it
// flushes and relinquishes its hold on the cursor. It buffers entries in a
// per-tag map until Commit; duplicates replace, last wins.
type IFDWriter struct {
	cursor   *Cursor
	pending  map[uint16]pendingEntry
	done     bool
	disposed bool
}

// NewIFDWriter creates a builder over cursor. cursor is not retained beyond
// the IFDWriter's own lifetime in the sense that Commit relinquishes this
// builder's hold on it; the cursor itself lives as long as its owning file
// writer.
func NewIFDWriter(cursor *Cursor) *IFDWriter {
	return &IFDWriter{cursor: cursor, pending: make(map[uint16]pendingEntry)}
}

func (w *IFDWriter) checkAlive(op string) error {
	if w.disposed {
		return newErr(op, Disposed, nil)
	}
	if w.done {
		return newErr(op, Completed, nil)
	}
	return nil
}

// AddEntry queues (tag, type, vs) for the next Commit. vs must be one of
// the Go slice kinds marshalTypedValues understands for ft (e.g. []uint32
// for Long, []string for ASCII). A second AddEntry for the same tag
// replaces the first; last wins.
func (w *IFDWriter) AddEntry(ft FieldType, tag uint16, vs any) error {
	if err := w.checkAlive("ifdwriter.AddEntry"); err != nil {
		return err
	}
	count, err := elementCount(ft, vs)
	if err != nil {
		return err
	}
	w.pending[tag] = pendingEntry{tag: tag, typ: ft, count: count, vs: vs}
	return nil
}

// elementCount returns the TIFF element count for vs, which for every type
// except ASCII is len(vs) and for ASCII is the total encoded byte length
// (each string plus its NUL terminator), since that's what the on-disk
// Count field means for ASCII entries.
func elementCount(ft FieldType, vs any) (uint64, error) {
	if ft == ASCII {
		strs, ok := vs.([]string)
		if !ok {
			return 0, newErr("ifdwriter.AddEntry", Unsupported, nil)
		}
		var n uint64
		for _, s := range strs {
			n += uint64(len(s)) + 1
		}
		return n, nil
	}
	switch v := vs.(type) {
	case []uint8:
		return uint64(len(v)), nil
	case []int8:
		return uint64(len(v)), nil
	case []uint16:
		return uint64(len(v)), nil
	case []int16:
		return uint64(len(v)), nil
	case []uint32:
		return uint64(len(v)), nil
	case []int32:
		return uint64(len(v)), nil
	case []uint64:
		return uint64(len(v)), nil
	case []int64:
		return uint64(len(v)), nil
	case []float32:
		return uint64(len(v)), nil
	case []float64:
		return uint64(len(v)), nil
	case []Rational:
		return uint64(len(v)), nil
	case []SRational:
		return uint64(len(v)), nil
	default:
		return 0, newErr("ifdwriter.AddEntry", Unsupported, nil)
	}
}

// Commit writes every queued entry's out-of-line payload (if any), then
// the sorted entry array, then a zero next-IFD pointer, then links the IFD
// into the chain: patching prevOffset's next-IFD field if prevOffset != 0,
// or recording this IFD as the cursor's first IFD otherwise. It returns
// this IFD's own offset and relinquishes the builder; a second Commit
// call fails with Completed.
func (w *IFDWriter) Commit(ctx context.Context, prevOffset uint64) (uint64, error) {
	if err := w.checkAlive("ifdwriter.Commit"); err != nil {
		return 0, err
	}

	tags := make([]uint16, 0, len(w.pending))
	for t := range w.pending {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	mode := w.cursor.Mode()
	resolved := make([]Entry, len(tags))

	// Pass 1: out-of-line payloads first, so the entry array (pass 2) can
	// reference already-committed offsets and whole IFDs never need
	// buffering in memory.
	for i, tag := range tags {
		pe := w.pending[tag]
		payloadSize := pe.count * uint64(pe.typ.Width())

		if payloadSize <= uint64(mode.inlineCap()) {
			payload, err := marshalTypedValues(w.cursor.o, pe.typ, pe.vs)
			if err != nil {
				return 0, err
			}
			resolved[i] = Entry{Tag: tag, Type: pe.typ, Count: pe.count, Inline: payload}
			continue
		}

		region, err := w.cursor.WriteAlignedValues(ctx, pe.typ, pe.vs)
		if err != nil {
			return 0, err
		}
		resolved[i] = Entry{Tag: tag, Type: pe.typ, Count: pe.count, Inline: encodeOffsetOnly(w.cursor.o, mode, uint64(region.Offset))}
	}

	// Pass 2: align, remember this IFD's own offset, write the directory.
	ifdOffset, err := w.cursor.AlignToWord(ctx)
	if err != nil {
		return 0, err
	}

	scratch := getScratch(0)
	defer putScratch(scratch)
	body := scratch.B[:0]
	countBuf := make([]byte, mode.countWidth())
	if mode == Big {
		w.cursor.o.putU64(countBuf, uint64(len(resolved)))
	} else {
		w.cursor.o.putU16(countBuf, uint16(len(resolved)))
	}
	body = append(body, countBuf...)

	for i, tag := range tags {
		pe := w.pending[tag]
		e := resolved[i]
		payloadSize := pe.count * uint64(pe.typ.Width())
		var offset uint64
		if payloadSize > uint64(mode.inlineCap()) {
			offset, err = e.OffsetValue(w.cursor.o, mode)
			if err != nil {
				return 0, err
			}
			body = append(body, encodeEntry(w.cursor.o, mode, tag, pe.typ, pe.count, nil, offset)...)
		} else {
			body = append(body, encodeEntry(w.cursor.o, mode, tag, pe.typ, pe.count, e.Inline, 0)...)
		}
	}

	nextPointer := make([]byte, mode.nextIFDWidth())
	body = append(body, nextPointer...)
	scratch.B = body

	if _, err := w.cursor.WriteBytes(ctx, body); err != nil {
		return 0, err
	}

	if prevOffset != 0 {
		if err := w.cursor.UpdateNextIFDPointer(ctx, prevOffset, uint64(ifdOffset)); err != nil {
			return 0, err
		}
	} else {
		w.cursor.SetFirstIFDOffset(uint64(ifdOffset))
	}

	w.done = true
	return uint64(ifdOffset), nil
}

// encodeOffsetOnly packs offset into mode.inlineCap() bytes, for building
// a synthetic Entry.Inline when the real payload already lives out of
// line.
func encodeOffsetOnly(o order, m Mode, offset uint64) []byte {
	buf := make([]byte, m.inlineCap())
	if m == Big {
		o.putU64(buf, offset)
	} else {
		o.putU32(buf, uint32(offset))
	}
	return buf
}

// Dispose releases the builder without committing. Safe to call after a
// successful Commit (no-op) or instead of one.
func (w *IFDWriter) Dispose() error {
	w.disposed = true
	return nil
}
