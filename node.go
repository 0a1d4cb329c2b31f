package xtree

// node is the packed arena slot for one tree node. It is a tagged sum: kind
// discriminates which payload fields are meaningful, matching every other
// node regardless of kind in size and layout instead of using an interface.
type node struct {
	kind NodeKind

	parent, firstChild, lastChild, prevSibling, nextSibling NodeID

	pos uint32 // byte offset of the node's opening construct; 0 if positions disabled

	// Element payload.
	elemHasURI bool
	elemURI    uint32
	elemLocal  stringValue
	elemPrefix stringValue
	attrStart  uint32
	attrEnd    uint32
	nsStart    uint32
	nsEnd      uint32

	// Text / Comment payload (shared: both are just borrowed-or-owned content).
	text stringValue

	// ProcessingInstruction payload.
	piTarget  stringValue
	piData    stringValue
	piHasData bool
}

// ExpandedName is the (namespace-URI, local-name) pair used for element and
// attribute name equality.
type ExpandedName struct {
	URI   string
	Local string
}

// HasNamespace reports whether the expanded name carries a namespace URI.
func (e ExpandedName) HasNamespace() bool { return e.URI != "" }

// Node is a lightweight handle into a Document's node arena. Two Node
// values are interchangeable if they carry the same Document and NodeID.
type Node struct {
	doc *Document
	id  NodeID
}

func (n Node) raw() *node { return &n.doc.nodes[n.id] }

// ID returns the node's stable arena index.
func (n Node) ID() NodeID { return n.id }

// Document returns the Document that owns this node.
func (n Node) Document() *Document { return n.doc }

// Kind reports the node's tagged-sum discriminant.
func (n Node) Kind() NodeKind { return n.raw().kind }

func (n Node) IsRoot() bool    { return n.raw().kind == KindRoot }
func (n Node) IsElement() bool { return n.raw().kind == KindElement }
func (n Node) IsText() bool    { return n.raw().kind == KindText }
func (n Node) IsComment() bool { return n.raw().kind == KindComment }
func (n Node) IsPI() bool      { return n.raw().kind == KindPI }

func (n Node) wrap(id NodeID) (Node, bool) {
	if !id.IsValid() {
		return Node{}, false
	}
	return Node{doc: n.doc, id: id}, true
}

// Parent returns the node's parent, or ok=false for the root node.
func (n Node) Parent() (Node, bool) { return n.wrap(n.raw().parent) }

// FirstChild returns the first child, or ok=false if childless.
func (n Node) FirstChild() (Node, bool) { return n.wrap(n.raw().firstChild) }

// LastChild returns the last child, or ok=false if childless.
func (n Node) LastChild() (Node, bool) { return n.wrap(n.raw().lastChild) }

// PrevSibling returns the previous sibling, or ok=false if none.
func (n Node) PrevSibling() (Node, bool) { return n.wrap(n.raw().prevSibling) }

// NextSibling returns the next sibling, or ok=false if none.
func (n Node) NextSibling() (Node, bool) { return n.wrap(n.raw().nextSibling) }

// HasChildren reports whether the node has at least one child.
func (n Node) HasChildren() bool { return n.raw().firstChild.IsValid() }

// Pos returns the byte offset of the node's source position, or -1 when
// positions were not recorded.
func (n Node) Pos() int {
	if !n.doc.positions {
		return -1
	}
	return int(n.raw().pos)
}

// TextPos resolves Pos into a line/column pair. Returns the zero Position
// when positions were not recorded.
func (n Node) TextPos() Position {
	p := n.Pos()
	if p < 0 {
		return Position{}
	}
	return n.doc.TextPosAt(p)
}

// TagName returns the element's expanded name. Zero value for non-elements.
func (n Node) TagName() ExpandedName {
	r := n.raw()
	if r.kind != KindElement {
		return ExpandedName{}
	}
	name := ExpandedName{Local: r.elemLocal.get(n.doc.input)}
	if r.elemHasURI {
		name.URI = n.doc.uriPool.get(r.elemURI)
	}
	return name
}

// Prefix returns the element's original source prefix, or "" if none or
// not an element.
func (n Node) Prefix() string {
	r := n.raw()
	if r.kind != KindElement {
		return ""
	}
	return r.elemPrefix.get(n.doc.input)
}

// HasTagName reports whether the node is an element with the given
// expanded name. If uri is "", comparison is by local name alone,
// matching the original crate's overloaded has_tag_name.
func (n Node) HasTagName(uri, local string) bool {
	r := n.raw()
	if r.kind != KindElement {
		return false
	}
	if r.elemLocal.get(n.doc.input) != local {
		return false
	}
	if uri == "" {
		return true
	}
	return r.elemHasURI && n.doc.uriPool.get(r.elemURI) == uri
}

// HasLocalName reports whether the node is an element with the given local
// name, ignoring namespace.
func (n Node) HasLocalName(local string) bool { return n.HasTagName("", local) }

// Attributes returns the element's attributes in source order. Empty for
// non-elements.
func (n Node) Attributes() []Attribute {
	r := n.raw()
	if r.kind != KindElement || r.attrEnd == r.attrStart {
		return nil
	}
	out := make([]Attribute, 0, r.attrEnd-r.attrStart)
	for i := r.attrStart; i < r.attrEnd; i++ {
		out = append(out, Attribute{doc: n.doc, id: AttributeID(i)})
	}
	return out
}

// Attribute looks up an attribute by expanded name. uri == "" matches an
// unprefixed attribute.
func (n Node) Attribute(uri, local string) (Attribute, bool) {
	r := n.raw()
	if r.kind != KindElement {
		return Attribute{}, false
	}
	for i := r.attrStart; i < r.attrEnd; i++ {
		a := n.doc.attrs[i]
		if a.local.get(n.doc.input) != local {
			continue
		}
		if uri == "" {
			if !a.hasURI {
				return Attribute{doc: n.doc, id: AttributeID(i)}, true
			}
			continue
		}
		if a.hasURI && n.doc.uriPool.get(a.uriID) == uri {
			return Attribute{doc: n.doc, id: AttributeID(i)}, true
		}
	}
	return Attribute{}, false
}

// Namespaces returns the element's full in-scope namespace set.
func (n Node) Namespaces() []Namespace {
	r := n.raw()
	if r.kind != KindElement || r.nsEnd == r.nsStart {
		return nil
	}
	out := make([]Namespace, 0, r.nsEnd-r.nsStart)
	for i := r.nsStart; i < r.nsEnd; i++ {
		out = append(out, Namespace{doc: n.doc, id: namespaceID(i)})
	}
	return out
}

// LookupNamespaceURI resolves prefix against the element's in-scope
// bindings. Pass "" to resolve the default namespace.
func (n Node) LookupNamespaceURI(prefix string) (string, bool) {
	r := n.raw()
	if r.kind != KindElement {
		return "", false
	}
	for i := int(r.nsEnd) - 1; i >= int(r.nsStart); i-- {
		b := n.doc.nsBindings[i]
		if b.prefix.get(n.doc.input) == prefix {
			return n.doc.uriPool.get(b.uriID), true
		}
	}
	return "", false
}

// LookupPrefix resolves uri to the prefix it is bound to in scope, if any.
func (n Node) LookupPrefix(uri string) (string, bool) {
	r := n.raw()
	if r.kind != KindElement {
		return "", false
	}
	for i := int(r.nsEnd) - 1; i >= int(r.nsStart); i-- {
		b := n.doc.nsBindings[i]
		if n.doc.uriPool.get(b.uriID) == uri {
			return b.prefix.get(n.doc.input), true
		}
	}
	return "", false
}

// DefaultNamespace returns the in-scope default namespace URI, if bound.
func (n Node) DefaultNamespace() (string, bool) { return n.LookupNamespaceURI("") }

// Text returns the borrowed-or-owned content of a Text or Comment node, or
// a PI's data segment. ok is false for any other kind.
func (n Node) Text() (string, bool) {
	r := n.raw()
	switch r.kind {
	case KindText, KindComment:
		return r.text.get(n.doc.input), true
	case KindPI:
		if !r.piHasData {
			return "", false
		}
		return r.piData.get(n.doc.input), true
	default:
		return "", false
	}
}

// PITarget returns a processing instruction's target. ok is false for any
// other kind.
func (n Node) PITarget() (string, bool) {
	r := n.raw()
	if r.kind != KindPI {
		return "", false
	}
	return r.piTarget.get(n.doc.input), true
}

// ConcatenatedText concatenates the text content of every descendant Text
// node, in document order. Non-elements return "".
func (n Node) ConcatenatedText() string {
	if n.raw().kind != KindElement {
		return ""
	}
	var buf []byte
	n.walkDescendantText(&buf)
	return string(buf)
}

func (n Node) walkDescendantText(buf *[]byte) {
	child, ok := n.FirstChild()
	for ok {
		switch child.Kind() {
		case KindText:
			*buf = append(*buf, child.raw().text.get(n.doc.input)...)
		case KindElement:
			child.walkDescendantText(buf)
		}
		child, ok = child.NextSibling()
	}
}
