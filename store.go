package tiff

import (
	"context"
	"io"
	"os"
	"sync"
)

// ContentReader is the positioned-read capability a file reader or IFD
// reader needs from its backing store. Every call carries its own offset,
// so a ContentReader is inherently re-entrancy-safe across calls that name
// disjoint regions, but a single implementation is free to serialize
// concurrent calls internally (FileStore does, with a mutex).
type ContentReader interface {
	// ReadAt reads len(buf) bytes starting at offset, returning fewer
	// only at EOF. ctx is checked at the call's single suspension point;
	// a done context yields Cancelled before any I/O is attempted.
	ReadAt(ctx context.Context, offset int64, buf []byte) (int, error)
	Close() error
}

// readFull reads exactly len(buf) bytes from store at offset, failing with
// Truncated when the backend comes up short. A ContentReader may report a
// short read at EOF with a nil error, so the returned count must be
// checked, not just the error.
func readFull(ctx context.Context, store ContentReader, offset int64, buf []byte, op string) error {
	n, err := store.ReadAt(ctx, offset, buf)
	if err != nil {
		return newErr(op, Truncated, err)
	}
	if n < len(buf) {
		return newErr(op, Truncated, nil)
	}
	return nil
}

// ContentWriter is the positioned-write counterpart. Write must fully
// write buf, extending the backing store past its current end if needed.
type ContentWriter interface {
	WriteAt(ctx context.Context, offset int64, buf []byte) error
	Flush(ctx context.Context) error
	Close() error
}

// SyncReader is the blocking, context-free flavor of ContentReader that a
// CLI-style caller might want. Not every ContentReader can provide one
// (network-backed stores are async-only), so callers obtain it through
// RequireSync rather than a type assertion on ContentReader itself.
type SyncReader interface {
	ReadAt(offset int64, buf []byte) (int, error)
}

// syncCapable is implemented by ContentReaders that can serve a blocking
// read without ever suspending on network I/O.
type syncCapable interface {
	SyncReadAt(offset int64, buf []byte) (int, error)
}

// RequireSync adapts r to a SyncReader, or fails with Unsupported if r has
// no synchronous code path. Never blocks the calling goroutine waiting on
// an async-only backend.
func RequireSync(r ContentReader) (SyncReader, error) {
	sc, ok := r.(syncCapable)
	if !ok {
		return nil, newErr("store.RequireSync", Unsupported, nil)
	}
	return syncAdapter{sc}, nil
}

type syncAdapter struct{ sc syncCapable }

func (s syncAdapter) ReadAt(offset int64, buf []byte) (int, error) {
	return s.sc.SyncReadAt(offset, buf)
}

// FileStore is a ContentReader/ContentWriter backed by a local, seekable
// *os.File. It is both sync- and async-capable: the "async" entry point
// just checks ctx before issuing the same positioned syscall the sync
// entry point would.
type FileStore struct {
	f         *os.File
	leaveOpen bool
	mu        sync.Mutex
	disposed  bool
}

// NewFileStore wraps f. If leaveOpen is false, Close closes f; otherwise
// Close only releases the FileStore's own bookkeeping and the caller keeps
// ownership of f.
func NewFileStore(f *os.File, leaveOpen bool) *FileStore {
	return &FileStore{f: f, leaveOpen: leaveOpen}
}

// OpenFileStore opens path for reading and writing and wraps it.
func OpenFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, newErr("store.OpenFileStore", IoFailure, err)
	}
	return NewFileStore(f, false), nil
}

func (s *FileStore) ReadAt(ctx context.Context, offset int64, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, newErr("filestore.ReadAt", Cancelled, err)
	}
	return s.SyncReadAt(offset, buf)
}

func (s *FileStore) SyncReadAt(offset int64, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, newErr("filestore.ReadAt", Disposed, nil)
	}
	n, err := s.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, newErr("filestore.ReadAt", IoFailure, err)
	}
	return n, nil
}

func (s *FileStore) WriteAt(ctx context.Context, offset int64, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return newErr("filestore.WriteAt", Cancelled, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return newErr("filestore.WriteAt", Disposed, nil)
	}
	n, err := s.f.WriteAt(buf, offset)
	if err != nil {
		return newErr("filestore.WriteAt", IoFailure, err)
	}
	if n != len(buf) {
		return newErr("filestore.WriteAt", IoFailure, io.ErrShortWrite)
	}
	return nil
}

func (s *FileStore) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newErr("filestore.Flush", Cancelled, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return newErr("filestore.Flush", Disposed, nil)
	}
	if err := s.f.Sync(); err != nil {
		return newErr("filestore.Flush", IoFailure, err)
	}
	return nil
}

// Close is idempotent and safe to call on every exit path.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil
	}
	s.disposed = true
	if s.leaveOpen {
		return nil
	}
	return s.f.Close()
}
