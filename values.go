package tiff

// valueKind discriminates the three storage shapes a ValueCollection can
// take. Kept unexported: callers only ever see the exported accessors.
type valueKind int

const (
	vkEmpty valueKind = iota
	vkSingle
	vkMany
)

// ValueCollection holds zero, one, or many values of one TIFF field type.
// The single-value case, overwhelmingly the common one for tags like
// ImageWidth or PhotometricInterpretation, is stored inline in the struct
// with no backing slice. It is immutable once constructed.
type ValueCollection[T any] struct {
	kind   valueKind
	single T
	many   []T
}

// Empty returns a ValueCollection holding no values.
func Empty[T any]() ValueCollection[T] {
	return ValueCollection[T]{kind: vkEmpty}
}

// Single returns a ValueCollection holding exactly one value, without
// allocating a backing slice.
func Single[T any](v T) ValueCollection[T] {
	return ValueCollection[T]{kind: vkSingle, single: v}
}

// Many returns a ValueCollection holding an ordered sequence of values. The
// slice is not copied; callers must not mutate it afterward.
func Many[T any](vs []T) ValueCollection[T] {
	if len(vs) == 0 {
		return Empty[T]()
	}
	if len(vs) == 1 {
		return Single(vs[0])
	}
	return ValueCollection[T]{kind: vkMany, many: vs}
}

// Count returns the number of values held.
func (v ValueCollection[T]) Count() int {
	switch v.kind {
	case vkSingle:
		return 1
	case vkMany:
		return len(v.many)
	default:
		return 0
	}
}

// FirstOrDefault returns the first value, or the zero value of T if empty.
func (v ValueCollection[T]) FirstOrDefault() T {
	switch v.kind {
	case vkSingle:
		return v.single
	case vkMany:
		if len(v.many) > 0 {
			return v.many[0]
		}
	}
	var zero T
	return zero
}

// At returns the i'th value. It panics on an out-of-range index, matching
// slice semantics; callers that need a non-panicking variant should guard
// with Count first.
func (v ValueCollection[T]) At(i int) T {
	switch v.kind {
	case vkSingle:
		if i != 0 {
			panic("tiff: ValueCollection index out of range")
		}
		return v.single
	case vkMany:
		return v.many[i]
	default:
		panic("tiff: ValueCollection index out of range")
	}
}

// AsContiguousSlice materializes the collection as a []T. For the Single
// case this allocates a one-element slice on demand; for Many it returns
// the backing slice directly (callers must not mutate it).
func (v ValueCollection[T]) AsContiguousSlice() []T {
	switch v.kind {
	case vkEmpty:
		return nil
	case vkSingle:
		return []T{v.single}
	default:
		return v.many
	}
}

// All yields every value in order, for use in a range-over-func loop.
func (v ValueCollection[T]) All(yield func(T) bool) {
	switch v.kind {
	case vkSingle:
		yield(v.single)
	case vkMany:
		for _, x := range v.many {
			if !yield(x) {
				return
			}
		}
	}
}
