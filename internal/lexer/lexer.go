// Package lexer is the external token-stream collaborator the builder
// consumes: it turns a raw byte buffer into a stream of lexical XML events
// (character data, tag open/close, attribute key/value, comment,
// processing instruction, CDATA section, DTD declarations) tagged with
// their source byte offsets. It knows nothing about namespaces, entity
// expansion, or tree structure — that is the builder's job.
package lexer

import (
	"fmt"

	"github.com/lestrrat-go/strcursor"
)

// Kind discriminates the lexical events Next can produce.
type Kind uint8

const (
	DoctypeOpen Kind = iota
	DoctypeClose
	EntityDecl
	StartTag
	EmptyTag
	EndTag
	Text
	CData
	Comment
	PI
	EOF
)

// Attr is one raw, unnormalized attribute as it appeared in the source.
type Attr struct {
	Name     string
	Value    string
	NamePos  int
	ValuePos int
}

// Token is one lexical event plus its source byte offset.
type Token struct {
	Kind       Kind
	Pos        int
	Name       string // element name, PI target, entity name, doctype root name
	Attrs      []Attr
	Text       string // text/CDATA/comment content, entity's raw declared value
	TextPos    int    // offset where Text begins in the source
	PIData     string
	PIDataPos  int
	HasPIData  bool
	HasSubset  bool // DoctypeOpen only: an internal subset '[' follows
}

// Error is a lexical error tagged with the byte offset it occurred at.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s (offset %d)", e.Msg, e.Pos) }

// Lexer scans a complete input buffer into a stream of Tokens. It carries
// one piece of mode state, InDTD, which the builder toggles when it enters
// and leaves the internal DTD subset.
type Lexer struct {
	cur   *strcursor.Cursor
	InDTD bool
}

// New wraps input for scanning.
func New(input string) *Lexer {
	return &Lexer{cur: strcursor.New([]byte(input))}
}

func (l *Lexer) pos() int    { return l.cur.OffsetBytes() }
func (l *Lexer) rest() []byte { return l.cur.Bytes() }
func (l *Lexer) done() bool  { return l.cur.Done() }

func (l *Lexer) errf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

func isNameStart(b byte) bool {
	return b == ':' || b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b >= 0x80
}

func isNameChar(b byte) bool {
	return isNameStart(b) || b == '-' || b == '.' || (b >= '0' && b <= '9')
}

func (l *Lexer) skipSpace() {
	for !l.done() && isSpace(l.rest()[0]) {
		l.cur.Advance(1)
	}
}

func (l *Lexer) scanName() string {
	rest := l.rest()
	i := 0
	for i < len(rest) && isNameChar(rest[i]) {
		i++
	}
	l.cur.Advance(i)
	return string(rest[:i])
}

func (l *Lexer) hasPrefix(s string) bool { return l.cur.HasPrefix(s) }

// scanUntil advances past and returns everything up to (not including) the
// literal marker, failing if EOF is reached first.
func (l *Lexer) scanUntil(marker string) (string, bool) {
	rest := l.rest()
	idx := indexOf(rest, marker)
	if idx < 0 {
		return "", false
	}
	text := string(rest[:idx])
	l.cur.Advance(idx + len(marker))
	return text, true
}

func indexOf(haystack []byte, needle string) int {
	n := len(needle)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == needle {
			return i
		}
	}
	return -1
}

// Next returns the next lexical token. Callers must set l.InDTD to true
// while inside a <!DOCTYPE ... [ ... ]> internal subset.
func (l *Lexer) Next() (Token, error) {
	if l.InDTD {
		return l.nextDTDToken()
	}
	return l.nextContentToken()
}

func (l *Lexer) nextDTDToken() (Token, error) {
	l.skipSpace()
	start := l.pos()
	if l.done() {
		return Token{}, l.errf(start, "unexpected end of input inside DTD internal subset")
	}
	if l.hasPrefix("]>") {
		l.cur.Advance(2)
		return Token{Kind: DoctypeClose, Pos: start}, nil
	}
	if l.hasPrefix("<!ENTITY") {
		return l.scanEntityDecl(start)
	}
	if l.hasPrefix("<!") {
		// ATTLIST / ELEMENT / NOTATION / comment: skip the whole declaration,
		// tracking quotes so a literal '>' inside a value doesn't end it early.
		if err := l.skipDeclaration(); err != nil {
			return Token{}, err
		}
		return l.nextDTDToken()
	}
	if l.hasPrefix("<?") {
		return l.scanPI(start)
	}
	return Token{}, l.errf(start, "unexpected content inside DTD internal subset")
}

func (l *Lexer) skipDeclaration() error {
	start := l.pos()
	var quote byte
	rest := l.rest()
	for i, b := range rest {
		if quote != 0 {
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '>':
			l.cur.Advance(i + 1)
			return nil
		}
	}
	return l.errf(start, "unterminated DTD declaration")
}

func (l *Lexer) scanEntityDecl(start int) (Token, error) {
	l.cur.Advance(len("<!ENTITY"))
	l.skipSpace()
	if !l.done() && l.rest()[0] == '%' {
		// Parameter entities are outside this module's scope; skip the decl.
		if err := l.skipDeclaration(); err != nil {
			return Token{}, err
		}
		return l.nextDTDToken()
	}
	name := l.scanName()
	if name == "" {
		return Token{}, l.errf(start, "malformed entity declaration: missing name")
	}
	l.skipSpace()
	if l.done() || (l.rest()[0] != '\'' && l.rest()[0] != '"') {
		// External/unparsed entity (SYSTEM/PUBLIC): not honored, skip it.
		if err := l.skipDeclaration(); err != nil {
			return Token{}, err
		}
		return l.nextDTDToken()
	}
	value, valuePos, err := l.scanQuotedWithPos()
	if err != nil {
		return Token{}, err
	}
	l.skipSpace()
	if !l.done() && l.rest()[0] == '>' {
		l.cur.Advance(1)
	}
	return Token{Kind: EntityDecl, Pos: start, Name: name, Text: value, TextPos: valuePos}, nil
}

func (l *Lexer) scanQuoted() (string, error) {
	s, _, err := l.scanQuotedWithPos()
	return s, err
}

// scanQuotedWithPos is scanQuoted plus the byte offset of the first
// character inside the quotes, needed to record where a declared entity
// value's text actually lives in the source.
func (l *Lexer) scanQuotedWithPos() (string, int, error) {
	start := l.pos()
	if l.done() {
		return "", 0, l.errf(start, "expected quoted value")
	}
	quote := l.rest()[0]
	if quote != '\'' && quote != '"' {
		return "", 0, l.errf(start, "expected quoted value")
	}
	l.cur.Advance(1)
	valuePos := l.pos()
	s, ok := l.scanUntil(string(quote))
	if !ok {
		return "", 0, l.errf(start, "unterminated quoted value")
	}
	return s, valuePos, nil
}

func (l *Lexer) nextContentToken() (Token, error) {
	start := l.pos()
	if l.done() {
		return Token{Kind: EOF, Pos: start}, nil
	}

	switch {
	case l.hasPrefix("<!--"):
		return l.scanComment(start)
	case l.hasPrefix("<![CDATA["):
		return l.scanCData(start)
	case l.hasPrefix("<!DOCTYPE"):
		return l.scanDoctypeOpen(start)
	case l.hasPrefix("<?"):
		return l.scanPI(start)
	case l.hasPrefix("</"):
		return l.scanEndTag(start)
	case l.rest()[0] == '<':
		return l.scanStartTag(start)
	default:
		return l.scanText(start)
	}
}

func (l *Lexer) scanComment(start int) (Token, error) {
	l.cur.Advance(len("<!--"))
	contentPos := l.pos()
	body, ok := l.scanUntil("-->")
	if !ok {
		return Token{}, l.errf(start, "unterminated comment")
	}
	return Token{Kind: Comment, Pos: start, Text: body, TextPos: contentPos}, nil
}

func (l *Lexer) scanCData(start int) (Token, error) {
	l.cur.Advance(len("<![CDATA["))
	contentPos := l.pos()
	body, ok := l.scanUntil("]]>")
	if !ok {
		return Token{}, l.errf(start, "unterminated CDATA section")
	}
	return Token{Kind: CData, Pos: start, Text: body, TextPos: contentPos}, nil
}

func (l *Lexer) scanPI(start int) (Token, error) {
	l.cur.Advance(len("<?"))
	target := l.scanName()
	if target == "" {
		return Token{}, l.errf(start, "malformed processing instruction: missing target")
	}
	l.skipSpace()
	dataPos := l.pos()
	body, ok := l.scanUntil("?>")
	if !ok {
		return Token{}, l.errf(start, "unterminated processing instruction")
	}
	tok := Token{Kind: PI, Pos: start, Name: target}
	if body != "" {
		tok.PIData = body
		tok.PIDataPos = dataPos
		tok.HasPIData = true
	}
	return tok, nil
}

func (l *Lexer) scanDoctypeOpen(start int) (Token, error) {
	l.cur.Advance(len("<!DOCTYPE"))
	l.skipSpace()
	name := l.scanName()
	tok := Token{Kind: DoctypeOpen, Pos: start, Name: name}
	// Skip past any external ID up to the internal subset '[' or the closing '>'.
	for {
		l.skipSpace()
		if l.done() {
			return Token{}, l.errf(start, "unterminated DOCTYPE declaration")
		}
		switch l.rest()[0] {
		case '[':
			l.cur.Advance(1)
			tok.HasSubset = true
			return tok, nil
		case '>':
			l.cur.Advance(1)
			return tok, nil
		case '\'', '"':
			if _, err := l.scanQuoted(); err != nil {
				return Token{}, err
			}
		default:
			l.scanName()
			if len(l.rest()) > 0 && !isSpace(l.rest()[0]) && l.rest()[0] != '\'' && l.rest()[0] != '"' && l.rest()[0] != '[' && l.rest()[0] != '>' {
				l.cur.Advance(1)
			}
		}
	}
}

func (l *Lexer) scanEndTag(start int) (Token, error) {
	l.cur.Advance(2)
	name := l.scanName()
	if name == "" {
		return Token{}, l.errf(start, "malformed end tag: missing name")
	}
	l.skipSpace()
	if l.done() || l.rest()[0] != '>' {
		return Token{}, l.errf(start, "malformed end tag: expected '>'")
	}
	l.cur.Advance(1)
	return Token{Kind: EndTag, Pos: start, Name: name}, nil
}

func (l *Lexer) scanStartTag(start int) (Token, error) {
	l.cur.Advance(1)
	name := l.scanName()
	if name == "" {
		return Token{}, l.errf(start, "malformed start tag: missing name")
	}
	tok := Token{Kind: StartTag, Pos: start, Name: name}
	for {
		l.skipSpace()
		if l.done() {
			return Token{}, l.errf(start, "unterminated start tag")
		}
		switch {
		case l.rest()[0] == '>':
			l.cur.Advance(1)
			return tok, nil
		case l.hasPrefix("/>"):
			l.cur.Advance(2)
			tok.Kind = EmptyTag
			return tok, nil
		default:
			attr, err := l.scanAttr()
			if err != nil {
				return Token{}, err
			}
			tok.Attrs = append(tok.Attrs, attr)
		}
	}
}

func (l *Lexer) scanAttr() (Attr, error) {
	namePos := l.pos()
	name := l.scanName()
	if name == "" {
		return Attr{}, l.errf(namePos, "malformed attribute: missing name")
	}
	l.skipSpace()
	if l.done() || l.rest()[0] != '=' {
		return Attr{}, l.errf(l.pos(), "malformed attribute %q: expected '='", name)
	}
	l.cur.Advance(1)
	l.skipSpace()
	valuePos := l.pos() + 1 // past the opening quote
	value, err := l.scanQuoted()
	if err != nil {
		return Attr{}, err
	}
	return Attr{Name: name, Value: value, NamePos: namePos, ValuePos: valuePos}, nil
}

func (l *Lexer) scanText(start int) (Token, error) {
	rest := l.rest()
	i := 0
	for i < len(rest) && rest[i] != '<' {
		i++
	}
	l.cur.Advance(i)
	return Token{Kind: Text, Pos: start, Text: string(rest[:i])}, nil
}
