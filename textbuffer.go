package xtree

import "github.com/xtree-go/xtree/internal/pool"

// textBuffer accumulates the owned bytes produced while normalizing
// attribute values or coalescing text content that required entity
// expansion or end-of-line translation. Byte-slice storage is recycled
// through internal/pool between uses.
type textBuffer struct {
	buf []byte
}

func newTextBuffer() *textBuffer {
	return &textBuffer{buf: pool.ByteSlice().Get()}
}

// pushRaw appends c unchanged.
func (b *textBuffer) pushRaw(c byte) { b.buf = append(b.buf, c) }

// pushFromAttr appends c using attribute-value whitespace normalization:
// the \r of \r\n is dropped, and \n, a lone \r, and \t become a space.
func (b *textBuffer) pushFromAttr(c byte, next byte, hasNext bool) {
	if c == '\r' && hasNext && next == '\n' {
		return
	}
	switch c {
	case '\n', '\r', '\t':
		c = ' '
	}
	b.buf = append(b.buf, c)
}

// pushFromText appends c using XML 1.0 end-of-line translation: \r\n and a
// lone \r become \n. atEnd signals c is the buffer's own most-recently-seen
// input byte at end of stream, letting a trailing lone \r still translate.
func (b *textBuffer) pushFromText(c byte, atEnd bool) {
	if n := len(b.buf); n > 0 && b.buf[n-1] == '\r' {
		b.buf[n-1] = '\n'
		if atEnd && c == '\r' {
			b.buf = append(b.buf, '\n')
		} else if c != '\n' {
			b.buf = append(b.buf, c)
		}
		return
	}
	if atEnd && c == '\r' {
		b.buf = append(b.buf, '\n')
		return
	}
	b.buf = append(b.buf, c)
}

func (b *textBuffer) clear() { b.buf = b.buf[:0] }

func (b *textBuffer) isEmpty() bool { return len(b.buf) == 0 }

func (b *textBuffer) String() string { return string(b.buf) }

func (b *textBuffer) release() { pool.ByteSlice().Put(b.buf) }
