package xtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanReferenceDecimalCharRef(t *testing.T) {
	ref, ok := scanReference("&#65;rest", 0)
	require.True(t, ok)
	require.Equal(t, refChar, ref.kind)
	require.Equal(t, rune('A'), ref.ch)
	require.Equal(t, 5, ref.end)
}

func TestScanReferenceHexCharRef(t *testing.T) {
	ref, ok := scanReference("&#x41;rest", 0)
	require.True(t, ok)
	require.Equal(t, refChar, ref.kind)
	require.Equal(t, rune('A'), ref.ch)
}

func TestScanReferenceRejectsSurrogateCodepoint(t *testing.T) {
	_, ok := scanReference("&#xD800;", 0)
	require.False(t, ok)
}

func TestScanReferenceRejectsOutOfRangeCodepoint(t *testing.T) {
	_, ok := scanReference("&#x110000;", 0)
	require.False(t, ok)
}

func TestScanReferenceEntityName(t *testing.T) {
	ref, ok := scanReference("&amp;rest", 0)
	require.True(t, ok)
	require.Equal(t, refEntity, ref.kind)
	require.Equal(t, "amp", ref.name)
	require.Equal(t, 5, ref.end)
}

func TestScanReferenceRejectsUnterminated(t *testing.T) {
	_, ok := scanReference("&amp rest", 0)
	require.False(t, ok)
}

func TestScanReferenceRejectsEmptyName(t *testing.T) {
	_, ok := scanReference("&;", 0)
	require.False(t, ok)
}

func TestLoopDetectorResetsReferencesAtZeroDepth(t *testing.T) {
	ld := &loopDetector{}
	require.Nil(t, ld.enterReference(Position{}))
	require.Equal(t, 1, ld.depth)
	ld.leaveReference()
	require.Equal(t, 0, ld.depth)
	require.Equal(t, 0, ld.references)
}

func TestLoopDetectorCapsDepth(t *testing.T) {
	ld := &loopDetector{}
	for i := 0; i < maxEntityDepth; i++ {
		require.Nil(t, ld.enterReference(Position{}), "entry %d should succeed", i)
	}
	err := ld.enterReference(Position{})
	require.NotNil(t, err)
	require.Equal(t, KindEntityReferenceLoop, err.Kind)
}

func TestLoopDetectorCapsReferencesOnlyWhileNested(t *testing.T) {
	ld := &loopDetector{depth: 1, references: maxEntityReferences}
	err := ld.enterReference(Position{})
	require.NotNil(t, err)
	require.Equal(t, KindEntityReferenceLoop, err.Kind)
}

func TestEncodeRuneUTF8Widths(t *testing.T) {
	cases := []struct {
		r    rune
		want string
	}{
		{'A', "A"},
		{'é', "é"},
		{'中', "中"},
		{'\U0001F600', "\U0001F600"},
	}
	for _, c := range cases {
		var buf [4]byte
		n := encodeRune(buf[:], c.r)
		require.Equal(t, c.want, string(buf[:n]))
	}
}
