// Package pool provides reusable copy buffers to reduce allocations.
// Sync passes over large trees perform one buffered copy per file; pooling
// the buffers keeps the hot path allocation-free.
package pool

import (
	"sync"
)

const (
	// SmallBufferSize defines the size for small buffers (4KB)
	SmallBufferSize = 4 * 1024
	// MediumBufferSize defines the size for medium buffers (64KB)
	MediumBufferSize = 64 * 1024
	// LargeBufferSize defines the size for large buffers (1MB)
	LargeBufferSize = 1024 * 1024
)

// BufferPool manages reusable buffers of different sizes.
// Buffers are returned at full length, sized for io.CopyBuffer.
type BufferPool struct {
	small  *sync.Pool
	medium *sync.Pool
	large  *sync.Pool
}

// NewBufferPool creates a new buffer pool with default size classes.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, SmallBufferSize)
				return &buf
			},
		},
		medium: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, MediumBufferSize)
				return &buf
			},
		},
		large: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, LargeBufferSize)
				return &buf
			},
		},
	}
}

// Get returns a full-length buffer whose capacity is at least size.
// Requests larger than LargeBufferSize get a fresh unpooled allocation.
// The caller is responsible for calling Put to return the buffer.
func (bp *BufferPool) Get(size int) []byte {
	switch {
	case size <= SmallBufferSize:
		buf := bp.small.Get().(*[]byte)
		return (*buf)[:SmallBufferSize]
	case size <= MediumBufferSize:
		buf := bp.medium.Get().(*[]byte)
		return (*buf)[:MediumBufferSize]
	case size <= LargeBufferSize:
		buf := bp.large.Get().(*[]byte)
		return (*buf)[:LargeBufferSize]
	default:
		return make([]byte, size)
	}
}

// Put returns a buffer to the matching pool based on its capacity.
// Oversized buffers are dropped to avoid memory bloat.
func (bp *BufferPool) Put(buf []byte) {
	switch cap(buf) {
	case SmallBufferSize:
		buf = buf[:0]
		bp.small.Put(&buf)
	case MediumBufferSize:
		buf = buf[:0]
		bp.medium.Put(&buf)
	case LargeBufferSize:
		buf = buf[:0]
		bp.large.Put(&buf)
	}
}

// Global buffer pool instance shared by copy workers.
var globalBufferPool = NewBufferPool()

// Get returns a buffer from the global pool for the specified size.
func Get(size int) []byte {
	return globalBufferPool.Get(size)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalBufferPool.Put(buf)
}
