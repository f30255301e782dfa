package mlrqalsh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
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

func TestBuildBlockRadiiNonIncreasing(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := Build(rng, 2.0, src)
	require.NoError(t, err)
	require.NotEmpty(t, idx.blocks)

	prev := idx.blocks[0].radius
	total := 0
	for _, b := range idx.blocks {
		require.LessOrEqual(t, b.radius, prev)
		prev = b.radius
		total += len(b.ids)
	}
	require.Equal(t, src.N(), total)
}

func TestBuildEveryIDAssignedExactlyOnce(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := Build(rng, 2.0, src)
	require.NoError(t, err)

	seen := make(map[int32]bool)
	for _, b := range idx.blocks {
		for _, id := range b.ids {
			require.False(t, seen[id], "id %d assigned to more than one block", id)
			seen[id] = true
		}
	}
	require.Len(t, seen, src.N())
}

func TestKFNFindsFurthestNeighbor(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := Build(rng, 2.0, src)
	require.NoError(t, err)

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(1)
	require.NoError(t, idx.KFN(ctx, src, q, 1))
	require.Equal(t, 1, ctx.Heap.Len())
	require.Equal(t, int32(7), ctx.Heap.Entries()[0].ID)
}
