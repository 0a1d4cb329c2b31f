package xtree

import (
	"context"
	"strings"

	"github.com/lestrrat-go/pdebug/v3"
	"github.com/xtree-go/xtree/internal/debug"
	"github.com/xtree-go/xtree/internal/lexer"
	"github.com/xtree-go/xtree/internal/stack"
)

// openElement is one entry of the builder's open-element stack: the
// element being built, its in-scope namespace range, and enough of its
// qualified name to verify a matching close tag.
type openElement struct {
	id             NodeID
	nsStart, nsEnd uint32
	prefix, local  string
}

// builder drives the seven-stage pipeline (lexer adapter, entity table,
// attribute normalizer, text assembler, namespace resolver, tree arena)
// through the top-level state machine described by the data model: Prolog
// -> DTD -> Prolog2 -> InRoot -> Epilog -> Done.
type builder struct {
	input    string
	cfg      *config
	entities *entityTable
	uriPool  *uriPool

	nodes      []node
	attrs      []rawAttribute
	nsBindings []nsBinding

	open      stack.Stack[openElement]
	afterText bool
	rootSeen  bool
}

func newBuilder(input string, cfg *config) *builder {
	b := &builder{
		input:    input,
		cfg:      cfg,
		entities: newEntityTable(),
		uriPool:  newURIPool(),
	}
	xmlURI := b.uriPool.intern(ReservedXMLNamespaceURI)
	b.nsBindings = append(b.nsBindings, nsBinding{prefix: ownedValue(reservedXMLPrefix), uriID: xmlURI})
	b.nodes = append(b.nodes, node{parent: noNode, firstChild: noNode, lastChild: noNode, prevSibling: noNode, nextSibling: noNode})
	return b
}

func (b *builder) posAt(offset int) Position {
	if offset < 0 {
		return Position{}
	}
	return positionAt(b.input, offset)
}

func (b *builder) wrapLexErr(err error) *Error {
	if le, ok := err.(*lexer.Error); ok {
		return wrapError(KindParserError, b.posAt(le.Pos), le, "lexical error")
	}
	return wrapError(KindParserError, Position{}, err, "lexical error")
}

func ctxErr(ctx context.Context) *Error {
	select {
	case <-ctx.Done():
		return wrapError(KindParserError, Position{}, ctx.Err(), "parse canceled")
	default:
		return nil
	}
}

// run drives the whole pipeline to completion and returns the finished
// Document, or the first fatal error encountered.
func (b *builder) run(ctx context.Context) (*Document, error) {
	lx := newTokenSource(b, b.input)

	rootID, perr := b.runProlog(ctx, lx)
	if perr != nil {
		return nil, perr
	}

	if perr := b.runContent(ctx, lx, 0); perr != nil {
		return nil, perr
	}

	if perr := b.runEpilog(ctx, lx); perr != nil {
		return nil, perr
	}

	if debug.Enabled {
		debug.Printf("parse finished: %d nodes, %d attrs, %d ns bindings", len(b.nodes), len(b.attrs), len(b.nsBindings))
		debug.Dump(b.nodes)
	}

	_ = rootID
	return &Document{
		input:      b.input,
		nodes:      b.nodes,
		attrs:      b.attrs,
		nsBindings: b.nsBindings,
		uriPool:    b.uriPool,
		entities:   b.entities,
		positions:  b.cfg.positions,
	}, nil
}

// runProlog consumes comments, PIs, an optional XML declaration and an
// optional DOCTYPE, then opens the root element and returns its id.
func (b *builder) runProlog(ctx context.Context, lx *tokenSource) (NodeID, *Error) {
	first := true
	doctypeAllowed := true
	for {
		if err := ctxErr(ctx); err != nil {
			return noNode, err
		}
		tok, lerr := lx.next()
		if lerr != nil {
			return noNode, lerr
		}

		switch tok.Kind {
		case lexer.EOF:
			return noNode, newError(KindNoRootNode, b.posAt(tok.Pos), "input contained no element")
		case lexer.PI:
			if first && tok.Name == "xml" {
				if err := b.checkXMLDeclVersion(tok.PIData, tok.PIDataPos); err != nil {
					return noNode, err
				}
			} else if err := b.appendPI(0, tok); err != nil {
				return noNode, err
			}
		case lexer.Comment:
			if _, err := b.appendBorrowedLeaf(KindComment, 0, tok.TextPos, len(tok.Text)); err != nil {
				return noNode, err
			}
		case lexer.DoctypeOpen:
			if !doctypeAllowed {
				return noNode, newError(KindDtdDetected, b.posAt(tok.Pos), "multiple DOCTYPE declarations")
			}
			if !b.cfg.allowDTD {
				return noNode, newError(KindDtdDetected, b.posAt(tok.Pos), "DOCTYPE present but DTDs are disabled")
			}
			if tok.HasSubset {
				if err := b.runDTD(lx); err != nil {
					return noNode, err
				}
			}
			doctypeAllowed = false
		case lexer.StartTag, lexer.EmptyTag:
			id, err := b.openElement(0, tok)
			if err != nil {
				return noNode, err
			}
			if tok.Kind == lexer.EmptyTag {
				return id, nil
			}
			b.pushOpen(id, tok)
			return id, nil
		default:
			return noNode, newErrorf(KindParserError, b.posAt(tok.Pos), "unexpected token in prolog")
		}
		first = false
	}
}

// checkXMLDeclVersion enforces that a version pseudo-attribute, if present,
// begins with "1.". Anything else about the XML declaration is ignored:
// declared encodings other than UTF-8 are out of scope.
func (b *builder) checkXMLDeclVersion(decl string, pos int) *Error {
	idx := strings.Index(decl, "version")
	if idx < 0 {
		return nil
	}
	rest := decl[idx+len("version"):]
	rest = strings.TrimLeft(rest, " \t\r\n=")
	if len(rest) == 0 || (rest[0] != '\'' && rest[0] != '"') {
		return nil
	}
	quote := rest[0]
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return nil
	}
	version := rest[1 : 1+end]
	if !strings.HasPrefix(version, "1.") {
		return newErrorf(KindParserError, b.posAt(pos), "unsupported XML version %q", version)
	}
	return nil
}

// runDTD consumes ENTITY declarations (and skips everything else) until
// the internal subset closes with "]>".
func (b *builder) runDTD(lx *tokenSource) *Error {
	lx.enterDTD()
	defer lx.leaveDTD()

	for {
		tok, lerr := lx.next()
		if lerr != nil {
			return lerr
		}
		switch tok.Kind {
		case lexer.EntityDecl:
			b.entities.insert(tok.Name, tok.Text, tok.TextPos)
		case lexer.PI:
			// processing instructions inside the internal subset are legal
			// but carry no meaning for this module; ignored.
		case lexer.DoctypeClose:
			return nil
		default:
			return newErrorf(KindParserError, b.posAt(tok.Pos), "unexpected token in DTD internal subset")
		}
	}
}

// runContent drives the InRoot state: it pulls tokens from lx and builds
// children until the open-element stack returns to baseDepth. General
// entity references found in text content are expanded by a separate,
// nested token loop over the entity's own raw value (see
// expandEntityContent in textassembler.go); that loop shares this same
// open-element stack rather than being a recursive call into runContent.
func (b *builder) runContent(ctx context.Context, lx *tokenSource, baseDepth int) *Error {
	for {
		if b.open.Len() == baseDepth {
			return nil
		}
		if err := ctxErr(ctx); err != nil {
			return err
		}
		tok, lerr := lx.next()
		if lerr != nil {
			return lerr
		}
		if tok.Kind == lexer.EOF {
			top, _ := b.open.Top()
			return newErrorf(KindUnclosedRootNode, b.posAt(tok.Pos), "unexpected end of input, element %q still open", top.local)
		}
		if err := b.dispatchContentToken(ctx, tok, false, &loopDetector{}); err != nil {
			return err
		}
	}
}

// dispatchContentToken applies one already-fetched content token to
// whatever element is currently open. inEntity marks tokens coming from
// the nested loop over a general entity's raw value: an end tag that finds
// nothing left to close is then reported as an entity-boundary violation
// rather than an ordinary mismatched close tag, matching the shared,
// unscoped notion of "current parent" a recursive entity expansion has in
// the reference implementation.
func (b *builder) dispatchContentToken(ctx context.Context, tok lexer.Token, inEntity bool, ld *loopDetector) *Error {
	parentID := b.currentParent()
	switch tok.Kind {
	case lexer.Text:
		return b.processText(ctx, tok.Text, tok.Pos, ld)
	case lexer.CData:
		return b.appendCData(tok)
	case lexer.Comment:
		if _, err := b.appendBorrowedLeaf(KindComment, parentID, tok.TextPos, len(tok.Text)); err != nil {
			return err
		}
		b.afterText = false
	case lexer.PI:
		if err := b.appendPI(parentID, tok); err != nil {
			return err
		}
		b.afterText = false
	case lexer.StartTag:
		id, err := b.openElement(parentID, tok)
		if err != nil {
			return err
		}
		b.pushOpen(id, tok)
		b.afterText = false
	case lexer.EmptyTag:
		if _, err := b.openElement(parentID, tok); err != nil {
			return err
		}
		b.afterText = false
	case lexer.EndTag:
		if err := b.closeElement(tok, inEntity); err != nil {
			return err
		}
		b.afterText = false
	default:
		return newErrorf(KindParserError, b.posAt(tok.Pos), "unexpected token in element content")
	}
	return nil
}

// runEpilog allows only comments and processing instructions until EOF.
func (b *builder) runEpilog(ctx context.Context, lx *tokenSource) *Error {
	for {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		tok, lerr := lx.next()
		if lerr != nil {
			return lerr
		}
		switch tok.Kind {
		case lexer.EOF:
			return nil
		case lexer.Comment:
			if _, err := b.appendBorrowedLeaf(KindComment, 0, tok.TextPos, len(tok.Text)); err != nil {
				return err
			}
		case lexer.PI:
			if err := b.appendPI(0, tok); err != nil {
				return err
			}
		default:
			return newErrorf(KindParserError, b.posAt(tok.Pos), "unexpected token after the document element")
		}
	}
}

func (b *builder) pushOpen(id NodeID, tok lexer.Token) {
	n := &b.nodes[id]
	prefix, local := splitQName(tok.Name)
	b.open.Push(openElement{id: id, nsStart: n.nsStart, nsEnd: n.nsEnd, prefix: prefix, local: local})
}

func (b *builder) closeElement(tok lexer.Token, inEntity bool) *Error {
	top, ok := b.open.Pop()
	if !ok {
		if inEntity {
			return newErrorf(KindUnexpectedEntityCloseTag, b.posAt(tok.Pos), "entity expansion closed an element it did not open")
		}
		return newErrorf(KindUnexpectedCloseTag, b.posAt(tok.Pos), "close tag %q without a matching open tag", tok.Name)
	}
	prefix, local := splitQName(tok.Name)
	if prefix != top.prefix || local != top.local {
		return newErrorf(KindUnexpectedCloseTag, b.posAt(tok.Pos), "expected close tag for %q, found %q", qname(top.prefix, top.local), tok.Name)
	}
	return nil
}

func splitQName(qn string) (prefix, local string) {
	if i := strings.IndexByte(qn, ':'); i >= 0 {
		return qn[:i], qn[i+1:]
	}
	return "", qn
}

func qname(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func (b *builder) alloc(n node) (NodeID, *Error) {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	if b.cfg.nodeLimitReached(len(b.nodes)) {
		return id, newError(KindNodesLimitReached, Position{}, "node limit exceeded")
	}
	return id, nil
}

func (b *builder) appendChild(parentID, childID NodeID) {
	p := &b.nodes[parentID]
	c := &b.nodes[childID]
	c.parent = parentID
	if !p.firstChild.IsValid() {
		p.firstChild = childID
	} else {
		last := &b.nodes[p.lastChild]
		last.nextSibling = childID
		c.prevSibling = p.lastChild
	}
	p.lastChild = childID
}

func (b *builder) appendBorrowedLeaf(kind NodeKind, parentID NodeID, off, length int) (NodeID, *Error) {
	n := node{kind: kind, firstChild: noNode, lastChild: noNode, prevSibling: noNode, nextSibling: noNode, text: borrowedValue(off, length)}
	if b.cfg.positions {
		pos := off
		if kind == KindComment {
			// off is where the comment's content starts; the node's
			// position is its opening "<!--".
			pos -= len("<!--")
		}
		n.pos = uint32(pos)
	}
	id, err := b.alloc(n)
	if err != nil {
		return id, err
	}
	b.appendChild(parentID, id)
	return id, nil
}

// appendCData feeds a CDATA section's literal text through the same
// text-assembler coalescing rules as ordinary character data, so that
// "a<![CDATA[b]]>c" and "abc" produce the same single Text node.
func (b *builder) appendCData(tok lexer.Token) *Error {
	return b.appendRawText(tok.Text, tok.TextPos)
}

func (b *builder) appendPI(parentID NodeID, tok lexer.Token) *Error {
	n := node{kind: KindPI, firstChild: noNode, lastChild: noNode, prevSibling: noNode, nextSibling: noNode}
	n.piTarget = borrowedValue(tok.Pos+2, len(tok.Name))
	if tok.HasPIData {
		n.piData = borrowedValue(tok.PIDataPos, len(tok.PIData))
		n.piHasData = true
	}
	if b.cfg.positions {
		n.pos = uint32(tok.Pos)
	}
	id, err := b.alloc(n)
	if err != nil {
		return err
	}
	b.appendChild(parentID, id)
	return nil
}

// pdebugMarker wraps the recursive entity-expansion entry point with
// function-entry/exit tracing when compiled against a pdebug-enabled
// build; it is always safe to call, becoming a cheap no-op otherwise.
func pdebugMarker(name string) func() {
	if !pdebug.Enabled {
		return func() {}
	}
	m := pdebug.FuncMarker(name)
	return func() { m.End() }
}
