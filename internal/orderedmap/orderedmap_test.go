package orderedmap_test

import (
	"testing"

	"github.com/xtree-go/xtree/internal/orderedmap"

	"github.com/stretchr/testify/require"
)

func TestMapSetGetPreservesInsertionOrder(t *testing.T) {
	m := orderedmap.New[string, int]()

	require.NoError(t, m.Set("b", 2))
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("c", 3))
	require.Equal(t, 3, m.Len())

	var order []string
	for k := range m.Range() {
		order = append(order, k)
	}
	require.Equal(t, []string{"b", "a", "c"}, order)

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = m.Get("nope")
	require.False(t, ok)
}

func TestMapSetRejectsDuplicateKeys(t *testing.T) {
	m := orderedmap.New[string, int]()
	require.NoError(t, m.Set("a", 1))
	err := m.Set("a", 2)
	require.ErrorIs(t, err, orderedmap.ErrDuplicateEntry)

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v, "first-wins: later Set must not overwrite")
}
