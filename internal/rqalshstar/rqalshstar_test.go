package rqalshstar

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

func TestBuildSmallPoolFallsBackToLinearScan(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := Build(rng, 2.0, 2, 2, src)
	require.NoError(t, err)
	require.Nil(t, idx.sub)
	require.Len(t, idx.Candidates(), 4)
}

func TestKFNReturnsOnlyCandidateIDs(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := Build(rng, 2.0, 2, 2, src)
	require.NoError(t, err)

	candSet := make(map[int32]bool)
	for _, c := range idx.Candidates() {
		candSet[c] = true
	}

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(1)
	require.NoError(t, idx.KFN(ctx, src, q, 1))
	require.Equal(t, 1, ctx.Heap.Len())
	require.True(t, candSet[ctx.Heap.Entries()[0].ID])
}
