package rqalsh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/queryctx"
)

// spec §8 end-to-end fixture.
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

func TestDeriveParamsInvariants(t *testing.T) {
	params, err := DeriveParams(2.0, 1000, 0.1, 0.49)
	require.NoError(t, err)
	require.Greater(t, params.P1, params.P2)
	require.Greater(t, params.M, 0)
	require.Greater(t, params.L, 0)
	require.LessOrEqual(t, params.L, params.M)
}

func TestDeriveParamsRejectsBadRatio(t *testing.T) {
	_, err := DeriveParams(0.5, 1000, 0.1, 0.49)
	require.Error(t, err)
}

func TestBuildInternalTablesSortedAndCompleteIDSet(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := BuildInternal(rng, 2.0, 0.1, 0.49, src)
	require.NoError(t, err)

	for _, tbl := range idx.tables {
		require.Len(t, tbl.rows, src.N())
		seen := make(map[int32]bool)
		for i, r := range tbl.rows {
			if i > 0 {
				require.LessOrEqual(t, tbl.rows[i-1].Key, r.Key)
			}
			seen[r.ID] = true
		}
		require.Len(t, seen, src.N())
	}
}

func TestKFNInternalEndToEnd(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	beta := 0.2 // CANDIDATES/n would exceed 1 for n=8, so pass an explicit small fraction
	idx, err := BuildInternal(rng, 2.0, beta, 0.49, src)
	require.NoError(t, err)

	q := []float32{0, 0, 0, 0}
	ctx := queryctx.New(1)
	require.NoError(t, idx.KFN(ctx, src, q, 1))
	require.Equal(t, 1, ctx.Heap.Len())
	require.Equal(t, int32(7), ctx.Heap.Entries()[0].ID)
}

func TestKFNExternalMatchesInternalOnFurthestNeighbor(t *testing.T) {
	src := fixtureDataset()
	dir := t.TempDir()

	rngInt := mathx.NewRNG(mathx.DefaultSeed)
	internalIdx, err := BuildInternal(rngInt, 2.0, 0.2, 0.49, src)
	require.NoError(t, err)

	rngExt := mathx.NewRNG(mathx.DefaultSeed)
	extIdx, err := BuildExternal(dir, 4096, rngExt, 2.0, 0.2, 0.49, src)
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

func TestRangedQueryReturnsCollisionCertificates(t *testing.T) {
	src := fixtureDataset()
	rng := mathx.NewRNG(mathx.DefaultSeed)
	idx, err := BuildInternal(rng, 2.0, 0.2, 0.49, src)
	require.NoError(t, err)

	q := []float32{0, 0, 0, 0}
	cands := idx.RangedQuery(q, 0)
	require.NotEmpty(t, cands)
	for _, c := range cands {
		require.GreaterOrEqual(t, c.Freq, idx.params.L)
	}
}
