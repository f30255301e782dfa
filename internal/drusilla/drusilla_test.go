package drusilla

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

func TestSelectReturnsLTimesMIDs(t *testing.T) {
	src := fixtureDataset()
	out := Select(src, 2, 2)
	require.Len(t, out, 4)
}

func TestSelectFirstRoundIncludesFurthestFromCentroid(t *testing.T) {
	src := fixtureDataset()
	out := Select(src, 1, 4)
	require.Len(t, out, 4)
	// id 7 (3,3,3,3) is furthest from the centroid and must be the seed
	// direction of round 0, hence included.
	found := false
	for _, id := range out {
		if id == 7 {
			found = true
		}
	}
	require.True(t, found)
}

func TestSelectOutputIDsAreValid(t *testing.T) {
	src := fixtureDataset()
	out := Select(src, 3, 3)
	require.Len(t, out, 9)
	for _, id := range out {
		require.GreaterOrEqual(t, id, int32(0))
		require.Less(t, id, int32(src.N()))
	}
}

func TestIndexKFNOnlyReturnsCandidateIDs(t *testing.T) {
	src := fixtureDataset()
	idx := Build(src, 2, 2)

	candSet := make(map[int32]bool)
	for _, id := range idx.Candidates() {
		candSet[id] = true
	}

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(1)
	require.NoError(t, idx.KFN(ctx, src, q, 1))
	require.Equal(t, 1, ctx.Heap.Len())
	require.True(t, candSet[ctx.Heap.Entries()[0].ID])
}
