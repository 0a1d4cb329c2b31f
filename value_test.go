package xtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringValueBorrowed(t *testing.T) {
	input := "hello world"
	v := borrowedValue(6, 5)
	require.Equal(t, "world", v.get(input))
	require.False(t, v.isEmpty())
	require.Equal(t, 6, v.offset())
}

func TestStringValueOwned(t *testing.T) {
	v := ownedValue("standalone")
	require.Equal(t, "standalone", v.get("irrelevant input"))
	require.Equal(t, -1, v.offset())
}

func TestStringValueEmpty(t *testing.T) {
	require.True(t, borrowedValue(0, 0).isEmpty())
	require.True(t, ownedValue("").isEmpty())
	require.False(t, ownedValue("x").isEmpty())
}
