package lexer_test

import (
	"testing"

	"github.com/xtree-go/xtree/internal/lexer"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []lexer.Token {
	t.Helper()
	lx := lexer.New(input)
	var toks []lexer.Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == lexer.EOF {
			return toks
		}
	}
}

func TestLexerStartEndTagsAndText(t *testing.T) {
	toks := collect(t, `<a>hi</a>`)
	require.Len(t, toks, 4)
	require.Equal(t, lexer.StartTag, toks[0].Kind)
	require.Equal(t, "a", toks[0].Name)
	require.Equal(t, lexer.Text, toks[1].Kind)
	require.Equal(t, "hi", toks[1].Text)
	require.Equal(t, lexer.EndTag, toks[2].Kind)
	require.Equal(t, "a", toks[2].Name)
	require.Equal(t, lexer.EOF, toks[3].Kind)
}

func TestLexerEmptyTagWithAttributes(t *testing.T) {
	toks := collect(t, `<e a='1' b="2"/>`)
	require.Len(t, toks, 2)
	tok := toks[0]
	require.Equal(t, lexer.EmptyTag, tok.Kind)
	require.Equal(t, "e", tok.Name)
	require.Len(t, tok.Attrs, 2)
	require.Equal(t, "a", tok.Attrs[0].Name)
	require.Equal(t, "1", tok.Attrs[0].Value)
	require.Equal(t, "b", tok.Attrs[1].Name)
	require.Equal(t, "2", tok.Attrs[1].Value)
}

func TestLexerAttributeValuePositionExcludesQuote(t *testing.T) {
	input := `<e a='xyz'/>`
	toks := collect(t, input)
	attr := toks[0].Attrs[0]
	require.Equal(t, "xyz", attr.Value)
	require.Equal(t, "xyz", input[attr.ValuePos:attr.ValuePos+len(attr.Value)])
}

func TestLexerCommentAndPI(t *testing.T) {
	toks := collect(t, `<!--hi--><?target data?><r/>`)
	require.Equal(t, lexer.Comment, toks[0].Kind)
	require.Equal(t, "hi", toks[0].Text)
	require.Equal(t, lexer.PI, toks[1].Kind)
	require.Equal(t, "target", toks[1].Name)
	require.True(t, toks[1].HasPIData)
	require.Equal(t, "data", toks[1].PIData)
}

func TestLexerCData(t *testing.T) {
	toks := collect(t, `<r><![CDATA[<not a tag>]]></r>`)
	require.Equal(t, lexer.CData, toks[1].Kind)
	require.Equal(t, "<not a tag>", toks[1].Text)
}

func TestLexerEntityDeclRecordsValuePosition(t *testing.T) {
	input := `<!DOCTYPE t [<!ENTITY a 'hello'>]><r/>`
	lx := lexer.New(input)
	lx.InDTD = false

	tok, err := lx.Next()
	require.NoError(t, err)
	require.Equal(t, lexer.DoctypeOpen, tok.Kind)
	require.True(t, tok.HasSubset)

	lx.InDTD = true
	tok, err = lx.Next()
	require.NoError(t, err)
	require.Equal(t, lexer.EntityDecl, tok.Kind)
	require.Equal(t, "a", tok.Name)
	require.Equal(t, "hello", tok.Text)
	require.Equal(t, "hello", input[tok.TextPos:tok.TextPos+len(tok.Text)])

	tok, err = lx.Next()
	require.NoError(t, err)
	require.Equal(t, lexer.DoctypeClose, tok.Kind)
	lx.InDTD = false

	tok, err = lx.Next()
	require.NoError(t, err)
	require.Equal(t, lexer.EmptyTag, tok.Kind)
	require.Equal(t, "r", tok.Name)
}

func TestLexerUnterminatedTagIsError(t *testing.T) {
	lx := lexer.New(`<a`)
	_, err := lx.Next()
	require.Error(t, err)
	var lerr *lexer.Error
	require.ErrorAs(t, err, &lerr)
}

func TestLexerEmptyInputYieldsEOF(t *testing.T) {
	toks := collect(t, ``)
	require.Len(t, toks, 1)
	require.Equal(t, lexer.EOF, toks[0].Kind)
}
