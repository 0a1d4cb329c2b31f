package pool_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/xtree-go/xtree/internal/pool"

	"github.com/stretchr/testify/require"
)

func TestByteSlicePoolSequential(t *testing.T) {
	bs := pool.ByteSlice()
	b := bs.Get()
	require.Equal(t, 0, len(b), "initial slice should have length 0")
	require.GreaterOrEqual(t, cap(b), 64, "initial capacity should be at least 64")

	b = append(b, 1, 2, 3)
	require.Equal(t, 3, len(b), "slice length after append should reflect appended items")

	bs.Put(b)

	b2 := bs.Get()
	require.Equal(t, 0, len(b2), "slice length after Put should be reset to 0")
	require.GreaterOrEqual(t, cap(b2), 64, "capacity should remain at least 64 after reset")
}

func TestByteSlicePoolConcurrent(t *testing.T) {
	const n = 30
	const capacity = 128
	bs := pool.ByteSlice()
	var wg sync.WaitGroup
	contents := make([]string, n)

	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()

			b := bs.GetCapacity(capacity)
			defer bs.Put(b)
			require.GreaterOrEqual(t, cap(b), capacity, "capacity should be at least the requested capacity for goroutine %d", i)
			require.Len(t, b, 0, "slice should be empty at start for goroutine %d", i)

			for range capacity {
				b = append(b, byte(i+0x21))
			}

			contents[i] = string(b)
		}()
	}
	wg.Wait()

	require.Len(t, contents, n, "should have collected results from all goroutines")
	for i, s := range contents {
		expected := bytes.Repeat([]byte{byte(i + 0x21)}, capacity)
		require.Equal(t, string(expected), s, "content should match for goroutine %d", i)
	}
}
