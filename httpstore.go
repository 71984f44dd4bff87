package tiff

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// defaultReadAheadSize is the read-ahead buffer size (64KB) used to turn a
// run of small, nearby IFD/value reads into one HTTP range request.
const defaultReadAheadSize = 64 * 1024

// HTTPStore is a ContentReader backed by HTTP range requests. It never
// blocks synchronously on the network; there is deliberately no
// SyncReadAt method, so RequireSync fails with Unsupported instead of
// stalling the caller on a round trip.
type HTTPStore struct {
	url    string
	client *fasthttp.Client
	size   int64

	mu            sync.Mutex
	buffer        []byte
	bufferStart   int64
	bufferEnd     int64
	readAheadSize int
}

// NewHTTPStore creates a store for url. If client is nil, a client with
// 30s read/write timeouts is created.
func NewHTTPStore(ctx context.Context, url string, client *fasthttp.Client) (*HTTPStore, error) {
	if client == nil {
		client = &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second}
	}
	s := &HTTPStore{
		url:           url,
		client:        client,
		readAheadSize: defaultReadAheadSize,
		bufferStart:   -1,
		bufferEnd:     -1,
	}
	size, err := s.headSize(ctx)
	if err != nil {
		return nil, err
	}
	s.size = size
	return s, nil
}

// SetReadAheadSize changes the read-ahead buffer size. Larger values trade
// memory for fewer round trips on sequential access patterns.
func (s *HTTPStore) SetReadAheadSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.readAheadSize = n
	}
}

// Size returns the remote object's length, or -1 if the server didn't
// report a Content-Length.
func (s *HTTPStore) Size() int64 { return s.size }

func (s *HTTPStore) headSize(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, newErr("httpstore.headSize", Cancelled, err)
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod("HEAD")

	if err := s.client.Do(req, resp); err != nil {
		return -1, nil // size unknown; ReadAt still works, Seek-from-end would not
	}
	if cl := resp.Header.ContentLength(); cl > 0 {
		return int64(cl), nil
	}
	return -1, nil
}

// ReadAt fetches [offset, offset+len(buf)) from the remote object, serving
// it out of the read-ahead buffer when possible.
func (s *HTTPStore) ReadAt(ctx context.Context, offset int64, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, newErr("httpstore.ReadAt", Cancelled, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	toRead := len(buf)
	if s.size > 0 && offset+int64(toRead) > s.size {
		toRead = int(s.size - offset)
	}
	if toRead <= 0 {
		return 0, nil
	}

	if s.buffer != nil && offset >= s.bufferStart && offset < s.bufferEnd {
		bufOff := int(offset - s.bufferStart)
		available := int(s.bufferEnd - offset)
		if available >= toRead {
			return copy(buf[:toRead], s.buffer[bufOff:bufOff+toRead]), nil
		}
		n := copy(buf[:available], s.buffer[bufOff:])
		remaining := toRead - n
		nn, err := s.fetchInto(ctx, offset+int64(n), buf[n:n+remaining])
		return n + nn, err
	}

	return s.readWithReadAhead(ctx, offset, buf, toRead)
}

func (s *HTTPStore) readWithReadAhead(ctx context.Context, offset int64, buf []byte, toRead int) (int, error) {
	readSize := s.readAheadSize
	if readSize < toRead {
		readSize = toRead
	}
	if s.size > 0 && offset+int64(readSize) > s.size {
		readSize = int(s.size - offset)
	}

	data, err := s.fetchRange(ctx, offset, offset+int64(readSize)-1)
	if err != nil {
		return 0, err
	}

	if len(data) > toRead {
		if cap(s.buffer) >= len(data) {
			s.buffer = s.buffer[:len(data)]
		} else {
			s.buffer = make([]byte, len(data))
		}
		copy(s.buffer, data)
		s.bufferStart = offset
		s.bufferEnd = offset + int64(len(data))
	}

	if len(data) < toRead {
		toRead = len(data)
	}
	return copy(buf[:toRead], data[:toRead]), nil
}

func (s *HTTPStore) fetchInto(ctx context.Context, offset int64, buf []byte) (int, error) {
	data, err := s.fetchRange(ctx, offset, offset+int64(len(buf))-1)
	if err != nil {
		return 0, err
	}
	n := len(buf)
	if len(data) < n {
		n = len(data)
	}
	return copy(buf[:n], data[:n]), nil
}

func (s *HTTPStore) fetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, newErr("httpstore.fetchRange", Cancelled, err)
	}
	if s.size > 0 && end >= s.size {
		end = s.size - 1
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod("GET")
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	if err := s.client.Do(req, resp); err != nil {
		return nil, newErr("httpstore.fetchRange", IoFailure, err)
	}

	code := resp.StatusCode()
	if code != fasthttp.StatusPartialContent && code != fasthttp.StatusOK {
		return nil, newErr("httpstore.fetchRange", IoFailure, fmt.Errorf("unexpected status %d", code))
	}

	body := resp.Body()
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

// ClearBuffer releases the read-ahead buffer, e.g. before a long pause
// between IFD traversals of the same remote file.
func (s *HTTPStore) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = nil
	s.bufferStart, s.bufferEnd = -1, -1
}

// Close releases the store. fasthttp.Client has no per-store handle to
// release, so this only clears the local buffer.
func (s *HTTPStore) Close() error {
	s.ClearBuffer()
	return nil
}
