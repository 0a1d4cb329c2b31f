package stack_test

import (
	"testing"

	"github.com/xtree-go/xtree/internal/stack"

	"github.com/stretchr/testify/require"
)

func TestStackPushPopOrder(t *testing.T) {
	var s stack.Stack[int]

	_, ok := s.Pop()
	require.False(t, ok, "pop on empty stack should fail")

	s.Push(1)
	s.Push(2)
	s.Push(3)
	require.Equal(t, 3, s.Len())

	top, ok := s.Top()
	require.True(t, ok)
	require.Equal(t, 3, top)
	require.Equal(t, 3, s.Len(), "Top must not remove the item")

	v, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.Equal(t, 0, s.Len())
	_, ok = s.Pop()
	require.False(t, ok)
}

func TestStackShrinksAfterDeepThenShallow(t *testing.T) {
	var s stack.Stack[int]
	for i := 0; i < 100; i++ {
		s.Push(i)
	}
	for i := 0; i < 95; i++ {
		_, ok := s.Pop()
		require.True(t, ok)
	}
	require.Equal(t, 5, s.Len())
	top, ok := s.Top()
	require.True(t, ok)
	require.Equal(t, 4, top)
}
