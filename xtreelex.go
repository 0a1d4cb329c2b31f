package xtree

import "github.com/xtree-go/xtree/internal/lexer"

// tokenSource adapts internal/lexer's raw token iterator to the builder's
// needs: byte offsets are already attached by the lexer itself, so this
// adapter's only job is translating a lexical failure into the same
// *Error type every other stage of the pipeline reports.
type tokenSource struct {
	lx  *lexer.Lexer
	doc *builder
}

func newTokenSource(b *builder, input string) *tokenSource {
	return &tokenSource{lx: lexer.New(input), doc: b}
}

func (s *tokenSource) next() (lexer.Token, *Error) {
	tok, err := s.lx.Next()
	if err != nil {
		return lexer.Token{}, s.doc.wrapLexErr(err)
	}
	return tok, nil
}

func (s *tokenSource) enterDTD() { s.lx.InDTD = true }
func (s *tokenSource) leaveDTD() { s.lx.InDTD = false }
