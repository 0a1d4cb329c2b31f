package xtree

import (
	"context"

	"github.com/xtree-go/xtree/internal/lexer"
)

// currentParent returns the element currently on top of the open-element
// stack. Only meaningful while processing element content; the stack is
// never empty there because the root element itself is always open.
func (b *builder) currentParent() NodeID {
	top, _ := b.open.Top()
	return top.id
}

func needsTextProcessing(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '&' || s[i] == '\r' {
			return true
		}
	}
	return false
}

// processText implements the text assembler: it expands character and
// entity references (recursively re-scanning a general entity's raw value
// as XML content, which may itself introduce element/comment/PI children),
// translates end-of-line sequences, and coalesces the result with an
// immediately preceding text-node sibling.
//
// Grounded on the reference implementation's process_text/parse_next_chunk:
// a literal byte immediately following a top-level (depth-zero) character
// reference is appended as-is rather than through end-of-line translation.
func (b *builder) processText(ctx context.Context, raw string, basePos int, ld *loopDetector) *Error {
	if !needsTextProcessing(raw) {
		return b.appendRawText(raw, basePos)
	}

	buf := newTextBuffer()
	defer buf.release()

	isAsIs := false
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c != '&' {
			i++
			atEnd := i == len(raw)
			if isAsIs {
				buf.pushRaw(c)
				isAsIs = false
			} else {
				buf.pushFromText(c, atEnd)
			}
			continue
		}

		refPos := basePos + i
		ref, ok := scanReference(raw, i)
		if !ok {
			return newError(KindMalformedEntityReference, b.posAt(refPos), "malformed character or entity reference")
		}

		switch ref.kind {
		case refChar:
			i = ref.end
			atEnd := i == len(raw)
			var tmp [4]byte
			n := encodeRune(tmp[:], ref.ch)
			for k, rb := range tmp[:n] {
				b.pushEntityByte(buf, rb, atEnd && k == n-1, ld, &isAsIs)
			}
		case refEntity:
			isAsIs = false
			if !buf.isEmpty() {
				if err := b.appendTextValue(ownedValue(buf.String()), basePos); err != nil {
					return err
				}
				buf.clear()
			}

			value, valuePos, found := b.entities.lookup(ref.name)
			if !found {
				return newError(KindUnknownEntityReference, b.posAt(refPos), "unknown entity reference &"+ref.name+";")
			}
			if err := ld.enterReference(b.posAt(refPos)); err != nil {
				return err
			}
			if valuePos < 0 {
				// A predefined entity's replacement text is a fixed
				// constant, not a slice of the document's input, so it is
				// pushed directly rather than re-tokenized as content: it
				// can never contain markup.
				for k := 0; k < len(value); k++ {
					b.pushEntityByte(buf, value[k], k == len(value)-1, ld, &isAsIs)
				}
			} else {
				end := pdebugMarker("expandEntityContent")
				err := b.expandEntityContent(ctx, value, valuePos, ld)
				end()
				if err != nil {
					ld.leaveReference()
					return err
				}
			}
			ld.leaveReference()
			i = ref.end
		}
	}

	if !buf.isEmpty() {
		return b.appendTextValue(ownedValue(buf.String()), basePos)
	}
	return nil
}

// pushEntityByte applies a single expanded byte (from a character reference
// or a predefined entity's fixed replacement text) using the same
// depth-dependent handling in both cases: at depth 0 it is pushed raw and
// marks the immediately following literal byte to also bypass end-of-line
// translation (the isAsIs quirk); at any nested depth it goes through the
// ordinary text end-of-line translation.
func (b *builder) pushEntityByte(buf *textBuffer, c byte, atEnd bool, ld *loopDetector, isAsIs *bool) {
	if ld.depth > 0 {
		buf.pushFromText(c, atEnd)
		return
	}
	buf.pushRaw(c)
	*isAsIs = true
}

// expandEntityContent re-tokenizes a general entity's raw declared value as
// XML content, appending whatever it contains (text, elements, comments,
// PIs) to whatever element is currently open. It shares the builder's
// live open-element stack with the surrounding document, exactly as the
// reference implementation shares a single mutable "current parent" across
// an entity's expansion: an unbalanced start-tag inside an entity value
// stays open past the reference, and a close-tag with nothing left on the
// stack to match is reported as an entity-boundary violation rather than
// an ordinary mismatched close tag.
//
// baseOffset is the entity's declared value's own byte offset within the
// document's input buffer. The value is a literal quoted string inside the
// internal subset, so it is always a genuine substring of the input; every
// position the nested lexer reports is relative to that substring and must
// be shifted by baseOffset before it means anything in the document's own
// coordinate space.
func (b *builder) expandEntityContent(ctx context.Context, raw string, baseOffset int, ld *loopDetector) *Error {
	lx := newTokenSource(b, raw)
	for {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		tok, lerr := lx.next()
		if lerr != nil {
			return lerr
		}
		if tok.Kind == lexer.EOF {
			return nil
		}
		if err := b.dispatchContentToken(ctx, shiftToken(tok, baseOffset), true, ld); err != nil {
			return err
		}
	}
}

// shiftToken rebases every position a content token carries by base, so a
// token produced by re-lexing a substring of the input reports positions
// valid in the whole document again.
func shiftToken(tok lexer.Token, base int) lexer.Token {
	tok.Pos += base
	tok.TextPos += base
	tok.PIDataPos += base
	if len(tok.Attrs) > 0 {
		shifted := make([]lexer.Attr, len(tok.Attrs))
		for i, a := range tok.Attrs {
			a.NamePos += base
			a.ValuePos += base
			shifted[i] = a
		}
		tok.Attrs = shifted
	}
	return tok
}

// appendRawText appends a borrowed slice of the input directly, merging
// into a preceding text-node sibling if one is open.
func (b *builder) appendRawText(raw string, pos int) *Error {
	if raw == "" {
		return nil
	}
	return b.appendTextValue(borrowedValue(pos, len(raw)), pos)
}

func (b *builder) appendTextValue(value stringValue, pos int) *Error {
	if value.isEmpty() {
		return nil
	}
	parentID := b.currentParent()
	if b.afterText {
		if id := b.nodes[parentID].lastChild; id.IsValid() && b.nodes[id].kind == KindText {
			merged := b.nodes[id].text.get(b.input) + value.get(b.input)
			b.nodes[id].text = ownedValue(merged)
			return nil
		}
	}
	n := node{kind: KindText, firstChild: noNode, lastChild: noNode, prevSibling: noNode, nextSibling: noNode, text: value}
	if b.cfg.positions {
		n.pos = uint32(pos)
	}
	id, err := b.alloc(n)
	if err != nil {
		return err
	}
	b.appendChild(parentID, id)
	b.afterText = true
	return nil
}
