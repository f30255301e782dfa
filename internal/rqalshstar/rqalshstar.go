// Package rqalshstar implements RQALSH* (C8): Drusilla-Select narrows the
// dataset down to a candidate pool, then either a sub-RQALSH is built
// over that pool (when it's large enough to be worth indexing) or it is
// linearly scanned at query time.
package rqalshstar

import (
	"github.com/rpcpool/afn-search/internal/afnconst"
	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/drusilla"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/queryctx"
	"github.com/rpcpool/afn-search/internal/rqalsh"
)

// candidateSource adapts a subset of a dataset.Source (addressed by
// global id through a remapping array) to look like a standalone
// dataset.Source of size N, so the sub-RQALSH build code doesn't need to
// know it's operating over a candidate pool.
type candidateSource struct {
	base    dataset.Source
	globals []int32
}

func (c *candidateSource) Dim() int { return c.base.Dim() }
func (c *candidateSource) N() int   { return len(c.globals) }
func (c *candidateSource) Vector(localID int32) []float32 {
	return c.base.Vector(c.globals[localID])
}

// Index is a built RQALSH*.
type Index struct {
	candidates []int32 // C: local id -> global id
	sub        *rqalsh.Index
	candSrc    *candidateSource
}

// Build runs Drusilla-Select(l, m) over src to obtain the candidate array
// C, then either builds a sub-RQALSH over C (if |C| > N_THRESHOLD) or
// keeps C for linear scan at query time.
func Build(rng *mathx.RNG, c float64, l, m int, src dataset.Source) (*Index, error) {
	candidates := drusilla.Select(src, l, m)
	candSrc := &candidateSource{base: src, globals: candidates}

	idx := &Index{candidates: candidates, candSrc: candSrc}
	if len(candidates) > afnconst.NThreshold {
		sub, err := rqalsh.BuildInternal(rng, c, afnconst.Candidates/float64(len(candidates)), 0.49, candSrc)
		if err != nil {
			return nil, err
		}
		idx.sub = sub
	}
	return idx, nil
}

// Candidates returns the global ids Drusilla-Select chose.
func (idx *Index) Candidates() []int32 { return idx.candidates }

// KFN answers a c-k-AFN query either by delegating to the sub-RQALSH
// (remapping local ids back to global ids) or by linearly scanning the
// candidate array.
func (idx *Index) KFN(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	if idx.sub != nil {
		localCtx := queryctx.New(topK)
		if err := idx.sub.KFN(localCtx, idx.candSrc, q, topK); err != nil {
			return err
		}
		for _, r := range localCtx.Heap.Entries() {
			ctx.Heap.Insert(r.Key, idx.candidates[r.ID])
		}
		ctx.DistCount += localCtx.DistCount
		ctx.IOReads += localCtx.IOReads
		return nil
	}

	for _, gid := range idx.candidates {
		dist := mathx.L2(src.Vector(gid), q, src.Dim())
		ctx.Heap.Insert(dist, gid)
		ctx.DistCount++
	}
	return nil
}
