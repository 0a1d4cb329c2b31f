package xtree

// stringValue is the borrow-or-own value every string-producing step in the
// builder decides exactly once. A borrowed value is an offset+length slice
// into the Document's input buffer; an owned value holds its own bytes,
// produced by normalization or entity expansion.
type stringValue struct {
	owned    string
	off, len uint32
	isOwned  bool
}

func borrowedValue(off, length int) stringValue {
	return stringValue{off: uint32(off), len: uint32(length)}
}

func ownedValue(s string) stringValue {
	return stringValue{owned: s, isOwned: true}
}

// get resolves the value against the original input buffer.
func (v stringValue) get(input string) string {
	if v.isOwned {
		return v.owned
	}
	return input[v.off : v.off+v.len]
}

func (v stringValue) isEmpty() bool {
	if v.isOwned {
		return v.owned == ""
	}
	return v.len == 0
}

// offset returns the value's byte position in the input, or -1 for an
// owned value that borrows nothing.
func (v stringValue) offset() int {
	if v.isOwned {
		return -1
	}
	return int(v.off)
}
