// File: internal/ringbuf/ringbuf.go
// Package ringbuf implements a fixed-capacity circular byte buffer for
// buffering transport reads across multiple deliveries.
// Author: ulala-x
// License: Apache-2.0
//
// RingBuffer is single-producer/single-consumer: the transport's receive
// path is the sole writer and the session's frame parser — running on that
// same path — is the sole reader. Both run on the one I/O goroutine, so no
// internal locking is needed; callers that violate this (writing and
// reading from different goroutines concurrently) must add their own
// synchronization.

package ringbuf

import "fmt"

// ErrOverflow is returned by Write when size exceeds the buffer's free
// space.
var ErrOverflow = fmt.Errorf("ringbuf: write overflow")

// ErrUnderflow is returned by Read, Peek, and Consume when size (plus, for
// Peek, offset) exceeds the available data.
var ErrUnderflow = fmt.Errorf("ringbuf: insufficient data")

// RingBuffer is a fixed-capacity circular byte buffer with count <=
// capacity, indices head (next write position) and tail (next read
// position), both modulo capacity.
type RingBuffer struct {
	buf  []byte
	head int
	tail int
	cnt  int
}

// New allocates a ring buffer of the given capacity.
func New(capacity int) *RingBuffer {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &RingBuffer{buf: make([]byte, capacity)}
}

// Capacity returns the buffer's fixed capacity.
func (r *RingBuffer) Capacity() int { return len(r.buf) }

// Count returns the number of bytes currently buffered.
func (r *RingBuffer) Count() int { return r.cnt }

// FreeSpace returns the number of bytes that can still be written.
func (r *RingBuffer) FreeSpace() int { return len(r.buf) - r.cnt }

// Write appends data to the buffer, wrapping at most once across the
// capacity boundary. Fails with ErrOverflow, making no change, if
// len(data) exceeds FreeSpace — there are no partial writes.
func (r *RingBuffer) Write(data []byte) error {
	if len(data) > r.FreeSpace() {
		return ErrOverflow
	}
	if len(data) == 0 {
		return nil
	}

	contiguous := len(r.buf) - r.head
	first := len(data)
	if first > contiguous {
		first = contiguous
	}
	copy(r.buf[r.head:], data[:first])
	r.head = (r.head + first) % len(r.buf)
	r.cnt += first

	if first < len(data) {
		second := data[first:]
		copy(r.buf[r.head:], second)
		r.head = (r.head + len(second)) % len(r.buf)
		r.cnt += len(second)
	}
	return nil
}

// Read copies exactly len(dest) bytes out of the buffer and advances tail,
// consuming them. Fails with ErrUnderflow if len(dest) exceeds Count.
func (r *RingBuffer) Read(dest []byte) error {
	if err := r.Peek(dest, 0); err != nil {
		return err
	}
	return r.Consume(len(dest))
}

// Peek copies len(dest) bytes starting at tail+offset without consuming
// them. Fails with ErrUnderflow if offset+len(dest) exceeds Count.
func (r *RingBuffer) Peek(dest []byte, offset int) error {
	size := len(dest)
	if offset+size > r.cnt {
		return ErrUnderflow
	}
	if size == 0 {
		return nil
	}

	readPos := (r.tail + offset) % len(r.buf)
	contiguous := len(r.buf) - readPos
	first := size
	if first > contiguous {
		first = contiguous
	}
	copy(dest, r.buf[readPos:readPos+first])
	if first < size {
		copy(dest[first:], r.buf[:size-first])
	}
	return nil
}

// Consume advances tail by size without copying any data out. Fails with
// ErrUnderflow if size exceeds Count.
func (r *RingBuffer) Consume(size int) error {
	if size > r.cnt {
		return ErrUnderflow
	}
	r.tail = (r.tail + size) % len(r.buf)
	r.cnt -= size
	return nil
}

// Clear resets the buffer to empty, discarding all buffered bytes.
func (r *RingBuffer) Clear() {
	r.head = 0
	r.tail = 0
	r.cnt = 0
}
