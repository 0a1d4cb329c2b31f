package xtree

// normalizeAttributeValue implements XML 1.0's attribute-value
// normalization: reference expansion (recursive for general entities) plus
// end-of-line/whitespace collapsing of the *source* bytes. If the result
// is byte-identical to the source, the caller should keep the borrowed
// slice instead of paying for an allocation; isNormalizationRequired lets
// callers skip the whole procedure on the common case.
func (b *builder) normalizeAttributeValue(raw string, rawPos int) (string, *Error) {
	if !isNormalizationRequired(raw) {
		return raw, nil
	}
	buf := newTextBuffer()
	defer buf.release()
	ld := &loopDetector{}
	if err := b.normalizeAttributeInto(buf, raw, rawPos, ld); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isNormalizationRequired(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&', '\t', '\n', '\r':
			return true
		}
	}
	return false
}

func (b *builder) normalizeAttributeInto(buf *textBuffer, s string, basePos int, ld *loopDetector) *Error {
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '&' {
			var next byte
			hasNext := i+1 < len(s)
			if hasNext {
				next = s[i+1]
			}
			buf.pushFromAttr(c, next, hasNext)
			i++
			continue
		}

		refPos := basePos + i
		ref, ok := scanReference(s, i)
		if !ok {
			return newError(KindMalformedEntityReference, b.posAt(refPos), "malformed character or entity reference")
		}
		switch ref.kind {
		case refChar:
			var tmp [4]byte
			n := encodeRune(tmp[:], ref.ch)
			for _, rb := range tmp[:n] {
				if err := b.pushAttrEntityByte(buf, rb, ld, refPos); err != nil {
					return err
				}
			}
		case refEntity:
			raw, valuePos, found := b.entities.lookup(ref.name)
			if !found {
				return newError(KindUnknownEntityReference, b.posAt(refPos), "unknown entity reference &"+ref.name+";")
			}
			if valuePos < 0 {
				// A predefined entity's replacement text is a fixed
				// constant, not markup to be re-scanned for further
				// references, so it goes through the same depth-checked
				// byte path as a character reference instead of
				// recursing into normalizeAttributeInto.
				for k := 0; k < len(raw); k++ {
					if err := b.pushAttrEntityByte(buf, raw[k], ld, refPos); err != nil {
						return err
					}
				}
			} else {
				if err := ld.enterReference(b.posAt(refPos)); err != nil {
					return err
				}
				if err := b.normalizeAttributeInto(buf, raw, refPos, ld); err != nil {
					return err
				}
				ld.leaveReference()
			}
		}
		i = ref.end
	}
	return nil
}

// pushAttrEntityByte applies a single byte produced by a character
// reference or a predefined entity's fixed replacement text while
// normalizing an attribute value. At depth 0 it is pushed raw; at any
// nested depth a literal '<' is fatal and anything else goes through
// ordinary attribute end-of-line translation.
func (b *builder) pushAttrEntityByte(buf *textBuffer, rb byte, ld *loopDetector, refPos int) *Error {
	if ld.depth > 0 {
		if rb == '<' {
			return newError(KindInvalidAttributeValue, b.posAt(refPos), "literal '<' produced by character reference in attribute value")
		}
		buf.pushFromAttr(rb, 0, false)
		return nil
	}
	buf.pushRaw(rb)
	return nil
}
