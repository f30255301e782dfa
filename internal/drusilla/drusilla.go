// Package drusilla implements Drusilla-Select (C7): a greedy,
// data-dependent procedure that picks l*m "extreme" ids covering diverse
// outward directions from the dataset centroid, for use as RQALSH*'s
// (C8) candidate pool.
package drusilla

import (
	"math"
	"sort"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/queryctx"
)

// minReal is the score sentinel for already-picked ids (§4.7: negative-
// norm ids receive MINREAL, exhausted-norm ids receive MINREAL+1).
const minReal = -math.MaxFloat64

// Select returns l*m ids chosen by the greedy angular-suppression
// procedure of §4.7.
func Select(src dataset.Source, l, m int) []int32 {
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

	y := make([][]float64, n)
	norm := make([]float64, n)
	for i := 0; i < n; i++ {
		v := src.Vector(int32(i))
		row := make([]float64, d)
		var sq float64
		for j := 0; j < d; j++ {
			row[j] = float64(v[j]) - centroid[j]
			sq += row[j] * row[j]
		}
		y[i] = row
		norm[i] = math.Sqrt(sq)
	}

	seed := argmax(norm)

	out := make([]int32, 0, l*m)
	for r := 0; r < l; r++ {
		if seed < 0 {
			// No positive-norm id remains (pathological, e.g. every
			// vector coincides with the centroid); pad with the last
			// selected id so every remaining round still contributes m
			// entries. If nothing was selected yet, the output stays empty.
			if len(out) == 0 {
				break
			}
			last := out[len(out)-1]
			for k := 0; k < m; k++ {
				out = append(out, last)
			}
			continue
		}

		p := make([]float64, d)
		sn := norm[seed]
		for j := 0; j < d; j++ {
			p[j] = y[seed][j] / sn
		}

		score := make([]float64, n)
		closeAngle := make([]bool, n)
		for i := 0; i < n; i++ {
			switch {
			case norm[i] < 0:
				score[i] = minReal
			case norm[i] == 0:
				score[i] = minReal + 1
			default:
				offset := dot(y[i], p, d)
				var distSq float64
				for j := 0; j < d; j++ {
					diff := y[i][j] - offset*p[j]
					distSq += diff * diff
				}
				distortion := math.Sqrt(distSq)
				score[i] = math.Abs(offset) - distortion
				if offset != 0 {
					closeAngle[i] = math.Atan(distortion/math.Abs(offset)) < math.Pi/8
				} else {
					closeAngle[i] = distortion == 0
				}
			}
		}

		order := argsortDescending(score)
		take := m
		if take > len(order) {
			take = len(order)
		}
		for _, i := range order[:take] {
			out = append(out, int32(i))
			norm[i] = -1
		}
		for i := 0; i < n; i++ {
			if closeAngle[i] && norm[i] > 0 {
				norm[i] = 0
			}
		}

		seed = argmax(norm)
	}

	return out
}

// Index is Drusilla-Select as a standalone, queryable algorithm: it
// keeps the l*m candidate ids chosen by Select and answers KFN by
// linearly scanning just that pool. RQALSH* (C8) builds on top of this
// same candidate pool but additionally indexes it with a sub-RQALSH once
// it's large enough; Drusilla-Select alone never does, since §4.7
// defines only the selection procedure, not an accelerated search over
// its output.
type Index struct {
	candidates []int32
}

// Build runs Select and wraps the result as a queryable Index.
func Build(src dataset.Source, l, m int) *Index {
	return &Index{candidates: Select(src, l, m)}
}

// Candidates returns the l*m selected ids.
func (idx *Index) Candidates() []int32 { return idx.candidates }

// KFN linearly scans the candidate pool, inserting each candidate's true
// distance to q into ctx.Heap.
func (idx *Index) KFN(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	d := src.Dim()
	for _, id := range idx.candidates {
		dist := mathx.L2(src.Vector(id), q, d)
		ctx.Heap.Insert(dist, id)
		ctx.DistCount++
	}
	return nil
}

func dot(a, b []float64, d int) float64 {
	var sum float64
	for i := 0; i < d; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// argmax returns the index of the largest strictly-positive value in xs,
// or -1 if none is positive.
func argmax(xs []float64) int {
	best := -1
	var bestVal float64
	for i, v := range xs {
		if v > 0 && (best < 0 || v > bestVal) {
			best, bestVal = i, v
		}
	}
	return best
}

// argsortDescending returns the permutation of [0,len(xs)) that sorts xs
// descending.
func argsortDescending(xs []float64) []int {
	idxs := make([]int, len(xs))
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool { return xs[idxs[a]] > xs[idxs[b]] })
	return idxs
}
