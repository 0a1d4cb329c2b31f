package xtree

// ReservedXMLNamespaceURI and ReservedXmlnsNamespaceURI are the two
// predefined namespace URIs the XML Namespaces recommendation reserves for
// the "xml" and "xmlns" prefixes. Neither may be rebound to a different URI.
const (
	ReservedXMLNamespaceURI    = "http://www.w3.org/XML/1998/namespace"
	ReservedXmlnsNamespaceURI  = "http://www.w3.org/2000/xmlns/"
	reservedXMLPrefix          = "xml"
	reservedXmlnsPrefix        = "xmlns"
)

// uriPool interns namespace URI strings so identical URIs across a
// namespace-heavy document share one allocation.
type uriPool struct {
	index map[string]uint32
	uris  []string
}

func newURIPool() *uriPool {
	return &uriPool{index: make(map[string]uint32)}
}

func (p *uriPool) intern(uri string) uint32 {
	if id, ok := p.index[uri]; ok {
		return id
	}
	id := uint32(len(p.uris))
	p.uris = append(p.uris, uri)
	p.index[uri] = id
	return id
}

func (p *uriPool) get(id uint32) string { return p.uris[id] }

// nsBinding is one entry of the document's flat, append-only namespace
// binding vector. prefix.isEmpty() means the default namespace.
type nsBinding struct {
	prefix stringValue
	uriID  uint32
}

// Namespace is a (prefix-or-default, URI) pair visible at some element.
type Namespace struct {
	doc *Document
	id  namespaceID
}

// Prefix returns the bound prefix, or "" for the default namespace.
func (n Namespace) Prefix() string {
	return n.doc.nsBindings[n.id].prefix.get(n.doc.input)
}

// URI returns the namespace's interned URI string.
func (n Namespace) URI() string {
	return n.doc.uriPool.get(n.doc.nsBindings[n.id].uriID)
}

// nsScope is a contiguous in-scope binding range [start, end) of the
// bindings vector. The builder does not use this type: each open-element
// stack entry carries its own range (openElement.nsStart/nsEnd).
type nsScope struct {
	start, end uint32
}
