package pool

import (
	"sync"
)

// BufferPool implements a pool of byte slices for efficient memory reuse
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with buffers of the specified size
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, 0, size)
				return &buffer
			},
		},
		size: size,
	}
}

// Get retrieves a buffer from the pool or creates a new one if none are available
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool for reuse
func (bp *BufferPool) Put(buffer *[]byte) {
	// Reset buffer length but keep capacity
	*buffer = (*buffer)[:0]
	bp.pool.Put(buffer)
}

// RuneBufferPool implements a pool of rune slices
type RuneBufferPool struct {
	pool sync.Pool
	size int
}

// NewRuneBufferPool creates a new pool of rune slices with the specified size
func NewRuneBufferPool(size int) *RuneBufferPool {
	return &RuneBufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]rune, 0, size)
				return &buffer
			},
		},
		size: size,
	}
}

// Get retrieves a rune buffer from the pool
func (rbp *RuneBufferPool) Get() *[]rune {
	return rbp.pool.Get().(*[]rune)
}

// Put returns a rune buffer to the pool
func (rbp *RuneBufferPool) Put(buffer *[]rune) {
	*buffer = (*buffer)[:0]
	rbp.pool.Put(buffer)
}

// AppendRunes decodes s into the pooled buffer and returns it.
func AppendRunes(buffer *[]rune, s string) []rune {
	for _, r := range s {
		*buffer = append(*buffer, r)
	}
	return *buffer
}

// IntRowPool implements a pool of int slices used as dynamic-programming rows
type IntRowPool struct {
	pool sync.Pool
}

// NewIntRowPool creates a new pool of int rows with the specified initial capacity
func NewIntRowPool(size int) *IntRowPool {
	return &IntRowPool{
		pool: sync.Pool{
			New: func() interface{} {
				row := make([]int, 0, size)
				return &row
			},
		},
	}
}

// Get retrieves a row of exactly n elements. Contents are unspecified.
func (p *IntRowPool) Get(n int) *[]int {
	row := p.pool.Get().(*[]int)
	if cap(*row) < n {
		*row = make([]int, n)
	}
	*row = (*row)[:n]
	return row
}

// Put returns a row to the pool
func (p *IntRowPool) Put(row *[]int) {
	*row = (*row)[:0]
	p.pool.Put(row)
}
