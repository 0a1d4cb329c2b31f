package xtree

// rawAttribute is the packed arena representation of one attribute.
// Attributes belonging to one element occupy a contiguous range of the
// arena in source order.
type rawAttribute struct {
	hasURI   bool
	uriID    uint32
	local    stringValue
	prefix   stringValue
	value    stringValue
	pos      uint32
	valuePos uint32
}

// Attribute is a lightweight handle into a Document's attribute arena.
type Attribute struct {
	doc *Document
	id  AttributeID
}

func (a Attribute) raw() *rawAttribute { return &a.doc.attrs[a.id] }

// Namespace returns the attribute's resolved namespace URI, or "" if the
// attribute is unprefixed (unprefixed attributes never inherit the default
// namespace, per the XML Namespaces recommendation).
func (a Attribute) Namespace() string {
	r := a.raw()
	if !r.hasURI {
		return ""
	}
	return a.doc.uriPool.get(r.uriID)
}

// LocalName returns the attribute's local name.
func (a Attribute) LocalName() string { return a.raw().local.get(a.doc.input) }

// Prefix returns the attribute's original source prefix, or "" if none.
func (a Attribute) Prefix() string { return a.raw().prefix.get(a.doc.input) }

// Value returns the attribute's normalized value.
func (a Attribute) Value() string { return a.raw().value.get(a.doc.input) }

// Pos returns the byte offset of the attribute name, or -1 if positions
// were not recorded.
func (a Attribute) Pos() int {
	if !a.doc.positions {
		return -1
	}
	return int(a.raw().pos)
}

// ValuePos returns the byte offset of the attribute's value, excluding the
// surrounding quotes, or -1 if positions were not recorded.
func (a Attribute) ValuePos() int {
	if !a.doc.positions {
		return -1
	}
	return int(a.raw().valuePos)
}
