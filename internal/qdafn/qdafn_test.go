package qdafn

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

func TestDefaultsArePositive(t *testing.T) {
	l := DefaultL(1000, 2.0)
	require.Greater(t, l, 0)
	m := DefaultM(1000, l, 2.0)
	require.Greater(t, m, 0)
}

func TestBuildInternalCapsTableSize(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := BuildInternal(rng, 2.0, 4, 3, src)
	require.NoError(t, err)
	require.Equal(t, 4, idx.l)
	for _, tbl := range idx.tbls {
		require.LessOrEqual(t, len(tbl.rows), 3)
	}
}

func TestKFNInternalFindsFurthestNeighborWithHighProbability(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := BuildInternal(rng, 2.0, 4, 3, src)
	require.NoError(t, err)

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(1)
	require.NoError(t, idx.KFN(ctx, src, q, 1))
	require.Equal(t, 1, ctx.Heap.Len())
	require.Equal(t, int32(7), ctx.Heap.Entries()[0].ID)
}

func TestKFNExternalMatchesInternal(t *testing.T) {
	src := fixtureDataset()
	dir := t.TempDir()

	rngInt := mathx.NewRNG(mathx.DefaultSeed)
	internalIdx, err := BuildInternal(rngInt, 2.0, 4, 3, src)
	require.NoError(t, err)

	rngExt := mathx.NewRNG(mathx.DefaultSeed)
	extIdx, err := BuildExternal(dir, 4096, rngExt, 2.0, 4, 3, src)
	require.NoError(t, err)
	defer extIdx.Close()

	q := []float32{0, 0, 0, 0}

	ctx1 := queryctx.New(1)
	require.NoError(t, internalIdx.KFN(ctx1, src, q, 1))

	ctx2 := queryctx.New(1)
	require.NoError(t, extIdx.KFN(ctx2, src, q, 1))

	require.Equal(t, ctx1.Heap.Entries()[0].ID, ctx2.Heap.Entries()[0].ID)
	require.Greater(t, ctx2.IOReads, 0)
}
