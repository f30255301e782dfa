// Package mlrqalsh implements ML-RQALSH (C9): ids are partitioned into
// radius-stratified blocks by distance from the dataset centroid, each
// large block gets its own sub-RQALSH, and queries prune whole blocks
// whose maximum possible distance can't beat the current top-k floor.
package mlrqalsh

import (
	"math"
	"sort"

	"github.com/rpcpool/afn-search/internal/afnconst"
	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/queryctx"
	"github.com/rpcpool/afn-search/internal/rqalsh"
)

// block is one radius-stratified partition: ids whose centroid distance
// falls in (lambda*r0, r0], r0 being the block's own maximum distance.
type block struct {
	ids    []int32
	radius float64 // r_b: the block's own maximum centroid distance
	sub    *rqalsh.Index
	// blockSrc presents this block's ids as a standalone dataset.Source
	// for the sub-RQALSH build, the same local/global remapping idiom
	// rqalshstar uses.
	blockSrc *blockSource
}

type blockSource struct {
	base    dataset.Source
	globals []int32
}

func (b *blockSource) Dim() int               { return b.base.Dim() }
func (b *blockSource) N() int                 { return len(b.globals) }
func (b *blockSource) Vector(local int32) []float32 { return b.base.Vector(b.globals[local]) }

// Index is a built ML-RQALSH.
type Index struct {
	centroid []float64
	blocks   []block // ordered largest-radius first
	c        float64
}

// Build computes the centroid, sorts ids by centroid distance descending,
// and partitions them into blocks per §4.9: each block starts with the
// first unassigned id's distance as r0, extends while the next id's
// distance exceeds lambda*r0, capped at MAX_BLOCK_NUM entries. Blocks
// larger than N_THRESHOLD get a sub-RQALSH; smaller blocks are linearly
// scanned at query time.
func Build(rng *mathx.RNG, c float64, src dataset.Source) (*Index, error) {
	n, d := src.N(), src.Dim()

	centroid := make([]float64, d)
	for i := 0; i < n; i++ {
		v := src.Vector(int32(i))
		for j := 0; j < d; j++ {
			centroid[j] += float64(v[j])
		}
	}
	for j := range centroid {
		centroid[j] /= float64(n)
	}

	type distID struct {
		dist float64
		id   int32
	}
	sorted := make([]distID, n)
	for i := 0; i < n; i++ {
		v := src.Vector(int32(i))
		var sq float64
		for j := 0; j < d; j++ {
			diff := float64(v[j]) - centroid[j]
			sq += diff * diff
		}
		sorted[i] = distID{dist: math.Sqrt(sq), id: int32(i)}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].dist > sorted[b].dist })

	var blocks []block
	start := 0
	for start < n {
		r0 := sorted[start].dist
		end := start + 1
		for end < n && end-start < afnconst.MaxBlockNum && sorted[end].dist > afnconst.Lambda*r0 {
			end++
		}
		ids := make([]int32, end-start)
		for i := start; i < end; i++ {
			ids[i-start] = sorted[i].id
		}
		blocks = append(blocks, block{ids: ids, radius: r0})
		start = end
	}

	idx := &Index{centroid: centroid, blocks: blocks, c: c}
	for bi := range idx.blocks {
		b := &idx.blocks[bi]
		if len(b.ids) <= afnconst.NThreshold {
			continue
		}
		b.blockSrc = &blockSource{base: src, globals: b.ids}
		sub, err := rqalsh.BuildInternal(rng, c, afnconst.Candidates/float64(len(b.ids)), afnconst.DeltaDefault, b.blockSrc)
		if err != nil {
			return nil, err
		}
		b.sub = sub
	}

	return idx, nil
}

// KFN answers a c-k-AFN query by walking blocks largest-radius first,
// pruning once the current top-k floor exceeds (r_b+D)/c, and otherwise
// either invoking the block's sub-RQALSH ranged query or linearly
// scanning it.
func (idx *Index) KFN(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	var distSq float64
	for j, qv := range q {
		diff := float64(qv) - idx.centroid[j]
		distSq += diff * diff
	}
	d := math.Sqrt(distSq)

	r := math.Inf(-1)
	c := idx.c

	for _, b := range idx.blocks {
		if r > (b.radius+d)/c {
			break
		}

		if b.sub != nil {
			certs := b.sub.RangedQuery(q, r)
			for _, cert := range certs {
				gid := b.blockSrc.globals[cert.ID]
				dist := mathx.L2(src.Vector(gid), q, src.Dim())
				ctx.Heap.Insert(dist, gid)
				ctx.DistCount++
			}
		} else {
			for _, gid := range b.ids {
				dist := mathx.L2(src.Vector(gid), q, src.Dim())
				ctx.Heap.Insert(dist, gid)
				ctx.DistCount++
			}
		}
		r = ctx.Heap.MinKey()
	}
	return nil
}
