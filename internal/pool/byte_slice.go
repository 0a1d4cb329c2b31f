// Package pool provides sync.Pool-backed byte-slice recycling for the
// scratch buffers the normalizer and text assembler churn through while
// building a document.
package pool

import "sync"

const defaultCapacity = 64

// ByteSlicePool hands out zero-length byte slices with at least a minimum
// capacity, and resets them to zero length on return.
type ByteSlicePool struct {
	pool sync.Pool
}

var shared = &ByteSlicePool{
	pool: sync.Pool{
		New: func() any {
			b := make([]byte, 0, defaultCapacity)
			return &b
		},
	},
}

// ByteSlice returns the package-wide byte-slice pool.
func ByteSlice() *ByteSlicePool { return shared }

// Get returns a slice with length 0 and capacity at least defaultCapacity.
func (p *ByteSlicePool) Get() []byte {
	return p.GetCapacity(defaultCapacity)
}

// GetCapacity returns a slice with length 0 and capacity at least n.
func (p *ByteSlicePool) GetCapacity(n int) []byte {
	bp := p.pool.Get().(*[]byte)
	b := *bp
	if cap(b) < n {
		b = make([]byte, 0, n)
	}
	return b[:0]
}

// Put resets b to zero length and returns it to the pool.
func (p *ByteSlicePool) Put(b []byte) {
	b = b[:0]
	p.pool.Put(&b)
}
