package xtree

import (
	"strings"

	"github.com/xtree-go/xtree/internal/lexer"
)

// nsDecl is one xmlns / xmlns:prefix declaration collected from an
// element's raw attribute list, in source order.
type nsDecl struct {
	prefix string
	value  string
	pos    int
}

// openElement resolves namespaces, builds the in-scope binding range,
// resolves the element's own and its attributes' qualified names, and
// appends the new Element node as a child of parentID. It does not touch
// the open-element stack; callers push/pop that themselves.
func (b *builder) openElement(parentID NodeID, tok lexer.Token) (NodeID, *Error) {
	parentNSStart, parentNSEnd := b.currentNSRange()

	decls, plain, derr := splitAttrs(tok.Attrs)
	if derr != nil {
		return noNode, wrapError(KindMalformedEntityReference, b.posAt(derr.pos), derr, "malformed attribute")
	}

	nsStart, nsEnd, err := b.buildNamespaceScope(parentNSStart, parentNSEnd, decls)
	if err != nil {
		return noNode, err
	}

	elemPrefix, elemLocal := splitQName(tok.Name)
	elemURI, hasURI, err := b.resolveElementName(elemPrefix, nsStart, nsEnd, tok.Pos)
	if err != nil {
		return noNode, err
	}

	attrStart := uint32(len(b.attrs))
	if err := b.appendAttributes(plain, nsStart, nsEnd); err != nil {
		return noNode, err
	}
	attrEnd := uint32(len(b.attrs))

	n := node{
		kind:       KindElement,
		firstChild: noNode,
		lastChild:  noNode,
		prevSibling: noNode,
		nextSibling: noNode,
		elemHasURI: hasURI,
		elemLocal:  borrowedValue(elemLocalOffset(tok), len(elemLocal)),
		elemPrefix: borrowedValue(tok.Pos+1, len(elemPrefix)),
		attrStart:  attrStart,
		attrEnd:    attrEnd,
		nsStart:    nsStart,
		nsEnd:      nsEnd,
	}
	if hasURI {
		n.elemURI = elemURI
	}
	if b.cfg.positions {
		n.pos = uint32(tok.Pos)
	}

	id, aerr := b.alloc(n)
	if aerr != nil {
		return noNode, aerr
	}
	b.appendChild(parentID, id)
	b.afterText = false
	return id, nil
}

// elemLocalOffset computes the byte offset of the local-name part of a
// start-tag token's name, given the '<' is at tok.Pos.
func elemLocalOffset(tok lexer.Token) int {
	if i := strings.IndexByte(tok.Name, ':'); i >= 0 {
		return tok.Pos + 1 + i + 1
	}
	return tok.Pos + 1
}

func (b *builder) currentNSRange() (uint32, uint32) {
	if top, ok := b.open.Top(); ok {
		return top.nsStart, top.nsEnd
	}
	// No open element: the implicit "xml" binding seeded at builder
	// construction is the only thing in scope.
	return 0, 1
}

type attrError struct {
	pos int
	msg string
}

func (e *attrError) Error() string { return e.msg }

// splitAttrs separates xmlns declarations from ordinary attributes,
// preserving source order within each group.
func splitAttrs(attrs []lexer.Attr) (decls []nsDecl, plain []lexer.Attr, err *attrError) {
	for _, a := range attrs {
		switch {
		case a.Name == "xmlns":
			decls = append(decls, nsDecl{prefix: "", value: a.Value, pos: a.NamePos})
		case strings.HasPrefix(a.Name, "xmlns:"):
			decls = append(decls, nsDecl{prefix: a.Name[len("xmlns:"):], value: a.Value, pos: a.NamePos})
		default:
			plain = append(plain, a)
		}
	}
	return decls, plain, nil
}

// buildNamespaceScope implements the copy-and-shadow algorithm: the new
// element's in-scope range is a fresh, contiguous copy of its parent's
// bindings with any redeclared prefixes replaced by the new ones.
func (b *builder) buildNamespaceScope(parentStart, parentEnd uint32, decls []nsDecl) (uint32, uint32, *Error) {
	type resolved struct {
		prefix string
		uriID  uint32
	}
	newBindings := make([]resolved, 0, len(decls))
	seen := make(map[string]bool, len(decls))

	for _, d := range decls {
		if seen[d.prefix] {
			return 0, 0, newErrorf(KindDuplicatedNamespace, b.posAt(d.pos), "namespace prefix %q declared twice", d.prefix)
		}
		seen[d.prefix] = true

		value, verr := b.normalizeAttributeValue(d.value, d.pos)
		if verr != nil {
			return 0, 0, verr
		}

		switch d.prefix {
		case reservedXmlnsPrefix:
			return 0, 0, newErrorf(KindInvalidElementNamePrefix, b.posAt(d.pos), "the %q prefix is reserved and cannot be redeclared", reservedXmlnsPrefix)
		case reservedXMLPrefix:
			if value != ReservedXMLNamespaceURI {
				return 0, 0, newErrorf(KindInvalidXMLPrefixURI, b.posAt(d.pos), "the %q prefix must be bound to %q", reservedXMLPrefix, ReservedXMLNamespaceURI)
			}
		default:
			if value == ReservedXmlnsNamespaceURI {
				return 0, 0, newErrorf(KindUnexpectedXmlnsURI, b.posAt(d.pos), "the reserved xmlns URI cannot be bound to a prefix")
			}
			if d.prefix != "" && value == "" {
				return 0, 0, newErrorf(KindUnknownNamespace, b.posAt(d.pos), "cannot bind non-default prefix %q to an empty URI", d.prefix)
			}
		}

		newBindings = append(newBindings, resolved{prefix: d.prefix, uriID: b.uriPool.intern(value)})
	}

	nsStart := uint32(len(b.nsBindings))
	for i := parentStart; i < parentEnd; i++ {
		prefixStr := b.nsBindings[i].prefix.get(b.input)
		if seen[prefixStr] {
			continue
		}
		b.nsBindings = append(b.nsBindings, b.nsBindings[i])
	}
	for _, nb := range newBindings {
		b.nsBindings = append(b.nsBindings, nsBinding{prefix: ownedValue(nb.prefix), uriID: nb.uriID})
	}
	nsEnd := uint32(len(b.nsBindings))
	return nsStart, nsEnd, nil
}

func (b *builder) lookupNS(nsStart, nsEnd uint32, prefix string) (uint32, bool) {
	for i := int(nsEnd) - 1; i >= int(nsStart); i-- {
		if b.nsBindings[i].prefix.get(b.input) == prefix {
			return b.nsBindings[i].uriID, true
		}
	}
	return 0, false
}

func (b *builder) resolveElementName(prefix string, nsStart, nsEnd uint32, pos int) (uint32, bool, *Error) {
	if prefix == "" {
		if uriID, ok := b.lookupNS(nsStart, nsEnd, ""); ok {
			return uriID, true, nil
		}
		return 0, false, nil
	}
	uriID, ok := b.lookupNS(nsStart, nsEnd, prefix)
	if !ok {
		return 0, false, newErrorf(KindUnknownNamespace, b.posAt(pos), "unknown namespace prefix %q", prefix)
	}
	return uriID, true, nil
}

func (b *builder) appendAttributes(attrs []lexer.Attr, nsStart, nsEnd uint32) *Error {
	type key struct {
		hasURI bool
		uriID  uint32
		local  string
	}
	seen := make(map[key]bool, len(attrs))

	for _, a := range attrs {
		value, verr := b.normalizeAttributeValue(a.Value, a.ValuePos)
		if verr != nil {
			return verr
		}

		prefix, local := splitQName(a.Name)
		var hasURI bool
		var uriID uint32
		if prefix != "" {
			id, ok := b.lookupNS(nsStart, nsEnd, prefix)
			if !ok {
				return newErrorf(KindUnknownNamespace, b.posAt(a.NamePos), "unknown namespace prefix %q", prefix)
			}
			hasURI, uriID = true, id
		}

		k := key{hasURI: hasURI, uriID: uriID, local: local}
		if seen[k] {
			return newErrorf(KindDuplicatedAttribute, b.posAt(a.NamePos), "duplicate attribute %q", qname(prefix, local))
		}
		seen[k] = true

		ra := rawAttribute{
			hasURI: hasURI,
			uriID:  uriID,
			local:  borrowedValue(attrLocalOffset(a, prefix), len(local)),
			prefix: borrowedValue(a.NamePos, len(prefix)),
			value:  toStringValue(value, a.Value, a.ValuePos),
		}
		if b.cfg.positions {
			ra.pos = uint32(a.NamePos)
			ra.valuePos = uint32(a.ValuePos)
		}
		b.attrs = append(b.attrs, ra)
	}
	return nil
}

func attrLocalOffset(a lexer.Attr, prefix string) int {
	if prefix == "" {
		return a.NamePos
	}
	return a.NamePos + len(prefix) + 1
}

// toStringValue decides borrow-vs-own for a normalized value: if it is
// byte-identical to the raw source it borrows that slice, otherwise it
// owns the freshly built string.
func toStringValue(normalized, raw string, rawPos int) stringValue {
	if normalized == raw {
		return borrowedValue(rawPos, len(raw))
	}
	return ownedValue(normalized)
}
