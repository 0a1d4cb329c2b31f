package xtree

import (
	"context"
	"log/slog"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Document is the immutable, arena-based result of Parse. Every field is
// read-only once Parse returns, so a *Document is safe to share and read
// from multiple goroutines without locking.
type Document struct {
	input string

	nodes      []node
	attrs      []rawAttribute
	nsBindings []nsBinding
	uriPool    *uriPool
	entities   *entityTable

	positions bool
}

// InputText returns the original input buffer (post BOM-stripping) the
// document was built from.
func (d *Document) InputText() string { return d.input }

// Root returns the synthetic root node, whose children are the document
// element plus any prolog/epilog comments and processing instructions.
func (d *Document) Root() Node { return Node{doc: d, id: 0} }

// RootElement returns the single document element, if the document was
// built successfully this is always present.
func (d *Document) RootElement() (Node, bool) {
	child, ok := d.Root().FirstChild()
	for ok {
		if child.IsElement() {
			return child, true
		}
		child, ok = child.NextSibling()
	}
	return Node{}, false
}

// GetNode resolves a NodeID back into a Node handle in O(1).
func (d *Document) GetNode(id NodeID) (Node, bool) {
	if !id.IsValid() || int(id) >= len(d.nodes) {
		return Node{}, false
	}
	return Node{doc: d, id: id}, true
}

// TextPosAt maps a byte offset into the input buffer to a 1-based
// line/column position, counting bytes since the last newline with tabs
// counted as a single column.
func (d *Document) TextPosAt(offset int) Position {
	return positionAt(d.input, offset)
}

// positionAt maps a byte offset into input to a 1-based line/column pair,
// counting bytes since the last newline with tabs counted as one column.
func positionAt(input string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(input) {
		offset = len(input)
	}
	line := 1
	col := 1
	for i := 0; i < offset; i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

// stripBOM removes a leading UTF-8 byte-order mark, if present, using the
// same BOM-detection policy golang.org/x/text/encoding/unicode ships for
// streaming decoders. A document without a BOM passes through unchanged.
func stripBOM(input string) (string, error) {
	if len(input) < 3 || input[0] != 0xEF || input[1] != 0xBB || input[2] != 0xBF {
		return input, nil
	}
	out, _, err := transform.String(unicode.BOMOverride(unicode.UTF8.NewDecoder()), input)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Parse builds a Document from a complete UTF-8 XML 1.0 input buffer.
func Parse(ctx context.Context, input string, opts ...ParseOption) (*Document, error) {
	ctx, span := StartSpan(ctx, "xtree.Parse")
	defer span.End()

	cfg := newConfig(opts...)

	cleaned, err := stripBOM(input)
	if err != nil {
		TraceError(ctx, err, "strip byte-order mark failed")
		return nil, wrapError(KindParserError, Position{}, err, "strip byte-order mark")
	}
	TraceEvent(ctx, "input ready", slog.Int("bytes", len(cleaned)))

	b := newBuilder(cleaned, cfg)
	doc, perr := b.run(ctx)
	if perr != nil {
		TraceError(ctx, perr, "parse failed")
		return nil, perr
	}
	TraceEvent(ctx, "parse complete", slog.Int("nodes", len(doc.nodes)))
	return doc, nil
}
