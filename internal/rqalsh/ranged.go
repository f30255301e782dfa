package rqalsh

import (
	"math"

	"github.com/rpcpool/afn-search/internal/afnconst"
)

// CollisionCandidate is a collision certificate produced by the ranged
// variant (§4.5.4): id reached the collision threshold l without the
// caller having computed its true distance yet.
type CollisionCandidate struct {
	ID   int32
	Freq int
}

// RangedQuery implements the ranged variant used by ML-RQALSH (§4.9):
// given a minimum radius already established by the caller's top-k heap,
// it runs collision counting at the single fixed bucket width
// R_min*w/2 until every table's two-sided scan has closed, and returns
// the ids that crossed the collision threshold l. It never computes a
// Euclidean distance; the caller (ML-RQALSH) does that only for the
// returned candidates. Internal-mode only: it panics when called on an
// externally built index (ML-RQALSH builds its sub-indexes in memory).
func (idx *Index) RangedQuery(q []float32, rMin float64) []CollisionCandidate {
	if idx.External() {
		panic("rqalsh: RangedQuery is internal-mode only")
	}
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

	rangeWidth := rMin * params.W / 2
	rangeFlag := make([]bool, m) // true == closed
	numOpen := m

	var out []CollisionCandidate

	for numOpen > 0 {
		progressed := false
		for j := 0; j < m; j++ {
			if rangeFlag[j] {
				continue
			}
			progressed = true
			rows := idx.tables[j].rows

			steps := 0
			for steps < afnconst.ScanSize && lpos[j] <= rpos[j] && math.Abs(rows[lpos[j]].Key-qproj[j]) >= rangeWidth {
				id := rows[lpos[j]].ID
				freq[id]++
				if freq[id] >= params.L && !checked[id] {
					checked[id] = true
					out = append(out, CollisionCandidate{ID: id, Freq: freq[id]})
				}
				lpos[j]++
				steps++
			}
			steps = 0
			for steps < afnconst.ScanSize && rpos[j] >= lpos[j] && math.Abs(rows[rpos[j]].Key-qproj[j]) >= rangeWidth {
				id := rows[rpos[j]].ID
				freq[id]++
				if freq[id] >= params.L && !checked[id] {
					checked[id] = true
					out = append(out, CollisionCandidate{ID: id, Freq: freq[id]})
				}
				rpos[j]--
				steps++
			}

			if lpos[j] > rpos[j] {
				rangeFlag[j] = true
				numOpen--
				continue
			}
			ldist := math.Abs(rows[lpos[j]].Key - qproj[j])
			rdist := math.Abs(rows[rpos[j]].Key - qproj[j])
			if ldist < rangeWidth && rdist < rangeWidth {
				rangeFlag[j] = true
				numOpen--
			}
		}
		if !progressed {
			break
		}
	}

	return out
}
