package rqalsh

import (
	"math"
	"sort"

	"github.com/rpcpool/afn-search/internal/afnconst"
	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/queryctx"
)

// KFN answers a c-k-AFN query, dispatching to the internal or external
// scan depending on how the index was built.
func (idx *Index) KFN(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	if idx.External() {
		return idx.kfnExternal(ctx, src, q, topK)
	}
	return idx.kfnInternal(ctx, src, q, topK)
}

// initialRadius computes R0 = c^kappa, kappa = ceil(log_c(2*median/w)),
// where median is the median of the two-sided projected distances across
// every table whose cursors haven't already crossed.
func initialRadius(params Params, ldist, rdist []float64) float64 {
	var samples []float64
	for j := range ldist {
		if !math.IsInf(ldist[j], 1) {
			samples = append(samples, ldist[j])
		}
		if !math.IsInf(rdist[j], 1) {
			samples = append(samples, rdist[j])
		}
	}
	if len(samples) == 0 {
		return params.C
	}
	sort.Float64s(samples)
	median := samples[len(samples)/2]
	if median <= 0 {
		median = params.W / 2
	}
	kappa := math.Ceil(math.Log(2*median/params.W) / math.Log(params.C))
	if kappa < 0 {
		kappa = 0
	}
	return math.Pow(params.C, kappa)
}

func (idx *Index) kfnInternal(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	params := idx.params
	m := params.M
	n := len(idx.tables[0].rows)

	qproj := make([]float64, m)
	for j := 0; j < m; j++ {
		qproj[j] = project(idx.proj[j], q)
	}

	lpos := make([]int, m)
	rpos := make([]int, m)
	for j := 0; j < m; j++ {
		rpos[j] = n - 1
	}
	freq := make([]int, n)
	checked := make([]bool, n)

	ld0 := make([]float64, m)
	rd0 := make([]float64, m)
	for j := 0; j < m; j++ {
		if lpos[j] < rpos[j] {
			ld0[j] = math.Abs(idx.tables[j].rows[lpos[j]].Key - qproj[j])
			rd0[j] = math.Abs(idx.tables[j].rows[rpos[j]].Key - qproj[j])
		} else {
			ld0[j] = math.Inf(1)
			rd0[j] = math.Inf(1)
		}
	}
	R := initialRadius(params, ld0, rd0)

	quota := afnconst.Candidates + topK - 1
	exhausted := make([]bool, m)

	for {
		width := R * params.W / 2
		bucketActive := make([]bool, m)
		for j := range bucketActive {
			bucketActive[j] = !exhausted[j]
		}
		numDone := 0
		for j := 0; j < m; j++ {
			if exhausted[j] {
				numDone++
			}
		}

		for numDone < m && ctx.DistCount < quota {
			progressed := false
			for j := 0; j < m; j++ {
				if !bucketActive[j] {
					continue
				}
				progressed = true
				rows := idx.tables[j].rows

				steps := 0
				for steps < afnconst.ScanSize && lpos[j] <= rpos[j] && math.Abs(rows[lpos[j]].Key-qproj[j]) >= width {
					id := rows[lpos[j]].ID
					idx.admit(ctx, src, q, freq, checked, id, params.L)
					lpos[j]++
					steps++
				}
				steps = 0
				for steps < afnconst.ScanSize && rpos[j] >= lpos[j] && math.Abs(rows[rpos[j]].Key-qproj[j]) >= width {
					id := rows[rpos[j]].ID
					idx.admit(ctx, src, q, freq, checked, id, params.L)
					rpos[j]--
					steps++
				}

				if lpos[j] > rpos[j] {
					exhausted[j] = true
					bucketActive[j] = false
					numDone++
					continue
				}
				ldist := math.Abs(rows[lpos[j]].Key - qproj[j])
				rdist := math.Abs(rows[rpos[j]].Key - qproj[j])
				if math.Max(ldist, rdist) < width {
					bucketActive[j] = false
					numDone++
				}
			}
			if !progressed {
				break
			}
		}

		allExhausted := true
		for j := 0; j < m; j++ {
			if !exhausted[j] {
				allExhausted = false
				break
			}
		}

		success := ctx.Heap.MinKey() > R/params.C && ctx.DistCount >= topK
		if success || ctx.DistCount >= quota || allExhausted {
			break
		}
		R /= params.C
	}

	return nil
}

// admit increments the collision count for id and, on first reaching the
// collision threshold l, computes its true distance and offers it to the
// top-k heap.
func (idx *Index) admit(ctx *queryctx.Context, src dataset.Source, q []float32, freq []int, checked []bool, id int32, l int) {
	freq[id]++
	if freq[id] >= l && !checked[id] {
		dist := mathx.L2(src.Vector(id), q, src.Dim())
		ctx.Heap.Insert(dist, id)
		checked[id] = true
		ctx.DistCount++
	}
}
