package topk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapBasic(t *testing.T) {
	h := New(3)
	require.True(t, math.IsInf(h.MinKey(), -1))

	h.Insert(1, 0)
	h.Insert(5, 1)
	h.Insert(3, 2)
	require.Equal(t, 3, h.Len())
	require.Equal(t, 5.0, h.IthKey(0))
	require.Equal(t, 3.0, h.IthKey(1))
	require.Equal(t, 1.0, h.IthKey(2))
	require.Equal(t, 1.0, h.MinKey())

	// Now full: smaller key rejected.
	min := h.Insert(0.5, 3)
	require.Equal(t, 1.0, min)
	require.Equal(t, 3, h.Len())

	// Tie with MinKey rejected.
	min = h.Insert(1.0, 4)
	require.Equal(t, 1.0, min)
	require.Equal(t, int32(0), h.Entries()[2].ID)

	// Larger key evicts the minimum.
	h.Insert(10, 5)
	require.Equal(t, 10.0, h.IthKey(0))
	require.Equal(t, 5.0, h.IthKey(1))
	require.Equal(t, 3.0, h.IthKey(2))
}

func TestHeapMonotoneAfterInserts(t *testing.T) {
	h := New(5)
	vals := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	for i, v := range vals {
		h.Insert(v, int32(i))
	}
	prev := math.Inf(1)
	for i := 0; i < h.Len(); i++ {
		require.LessOrEqual(t, h.IthKey(i), prev)
		prev = h.IthKey(i)
	}
}

func TestHeapReset(t *testing.T) {
	h := New(2)
	h.Insert(1, 0)
	h.Insert(2, 1)
	h.Reset()
	require.Equal(t, 0, h.Len())
	require.True(t, math.IsInf(h.MinKey(), -1))
}

func TestHeapUnderfullIthKey(t *testing.T) {
	h := New(4)
	h.Insert(1, 0)
	require.True(t, math.IsInf(h.IthKey(1), -1))
	require.True(t, math.IsInf(h.MinKey(), -1))
}
