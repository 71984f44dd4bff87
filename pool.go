package tiff

import "github.com/valyala/bytebufferpool"

// Buffer reuse for the IFD writer's directory staging and the reader's
// out-of-line payload reads. bytebufferpool sizes its slots by observed
// demand, so a single pool handles both tiny ASCII payloads and
// multi-megabyte strips without bucket tuning.

var scratchPool bytebufferpool.Pool

// getScratch returns a pooled buffer with at least size bytes available,
// already truncated to that length. Call putScratch when done.
func getScratch(size int) *bytebufferpool.ByteBuffer {
	b := scratchPool.Get()
	if cap(b.B) < size {
		b.B = make([]byte, size)
	} else {
		b.B = b.B[:size]
	}
	return b
}

func putScratch(b *bytebufferpool.ByteBuffer) {
	if b == nil {
		return
	}
	scratchPool.Put(b)
}
