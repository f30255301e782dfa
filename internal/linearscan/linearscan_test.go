package linearscan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/queryctx"
)

func fixtureDataset() *dataset.Memory {
	rows := [][]float32{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
		{1, 1, 1, 1},
		{2, 2, 2, 2},
		{3, 3, 3, 3},
	}
	return dataset.NewMemory(rows, 4)
}

func TestKFNFindsExactFurthestNeighbor(t *testing.T) {
	src := fixtureDataset()
	idx := Build()

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(1)
	require.NoError(t, idx.KFN(ctx, src, q, 1))
	require.Equal(t, 1, ctx.Heap.Len())
	require.Equal(t, int32(7), ctx.Heap.Entries()[0].ID)
	require.Equal(t, src.N(), ctx.DistCount)
}

func TestKFNTopKOrdersByDistanceDescending(t *testing.T) {
	src := fixtureDataset()
	idx := Build()

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(3)
	require.NoError(t, idx.KFN(ctx, src, q, 3))
	require.Equal(t, 3, ctx.Heap.Len())
	entries := ctx.Heap.Entries()
	for i := 1; i < len(entries); i++ {
		require.LessOrEqual(t, entries[i].Key, entries[i-1].Key)
	}
	require.Equal(t, int32(7), entries[0].ID)
}
