package xtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextBufferPushFromAttrCollapsesWhitespace(t *testing.T) {
	buf := newTextBuffer()
	defer buf.release()

	for i := 0; i < len("a\tb\nc\rd"); i++ {
		c := "a\tb\nc\rd"[i]
		var next byte
		hasNext := i+1 < len("a\tb\nc\rd")
		if hasNext {
			next = "a\tb\nc\rd"[i+1]
		}
		buf.pushFromAttr(c, next, hasNext)
	}
	require.Equal(t, "a b c d", buf.String())
}

func TestTextBufferPushFromAttrCollapsesCRLFToSingleSpace(t *testing.T) {
	buf := newTextBuffer()
	defer buf.release()

	s := "a\r\nb"
	for i := 0; i < len(s); i++ {
		var next byte
		hasNext := i+1 < len(s)
		if hasNext {
			next = s[i+1]
		}
		buf.pushFromAttr(s[i], next, hasNext)
	}
	require.Equal(t, "a b", buf.String())
}

func TestTextBufferPushFromTextTranslatesEndOfLine(t *testing.T) {
	buf := newTextBuffer()
	defer buf.release()

	s := "a\r\nb\rc\n"
	for i := 0; i < len(s); i++ {
		buf.pushFromText(s[i], i == len(s)-1)
	}
	require.Equal(t, "a\nb\nc\n", buf.String())
}

func TestTextBufferPushFromTextTrailingLoneCR(t *testing.T) {
	buf := newTextBuffer()
	defer buf.release()

	buf.pushFromText('a', false)
	buf.pushFromText('\r', true)
	require.Equal(t, "a\n", buf.String())
}

func TestTextBufferClearAndEmpty(t *testing.T) {
	buf := newTextBuffer()
	defer buf.release()

	require.True(t, buf.isEmpty())
	buf.pushRaw('x')
	require.False(t, buf.isEmpty())
	buf.clear()
	require.True(t, buf.isEmpty())
}
