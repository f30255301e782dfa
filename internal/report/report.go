// Package report implements §4.11's observable reporting: for each
// (algorithm, k) pair, mean ratio, mean recall, mean wall-clock time,
// and either the fraction of candidates examined (internal mode) or the
// page-I/O count (external mode), aggregated from bench.Outcome rows
// against the groundtruth.Result oracle.
package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/rpcpool/afn-search/internal/bench"
	"github.com/rpcpool/afn-search/internal/groundtruth"
)

// Row is one (algorithm, k) pair's aggregated report.
type Row struct {
	Algorithm string
	K         int
	N         int
	External  bool

	MeanRatio              float64
	MeanRecall             float64 // percent, 0-100
	MeanElapsed            time.Duration
	MeanCandidateFraction  float64 // internal mode: distCount/N, averaged
	MeanIOReads            float64 // external mode: ioReads, averaged
}

// Compute aggregates outcomes against groundTruth for one algorithm at
// one k. Both slices must be in the same query order and the same
// length; groundTruth entries must each have at least k entries.
func Compute(algorithm string, k, n int, external bool, groundTruth []groundtruth.Result, outcomes []bench.Outcome) (Row, error) {
	if len(groundTruth) != len(outcomes) {
		return Row{}, fmt.Errorf("report: %d ground-truth rows but %d outcomes", len(groundTruth), len(outcomes))
	}
	qn := len(outcomes)
	if qn == 0 {
		return Row{}, fmt.Errorf("report: no queries to report on")
	}

	row := Row{Algorithm: algorithm, K: k, N: n, External: external}

	var ratioSum, recallSum, candFracSum, ioSum float64
	var elapsedSum time.Duration

	for i, oc := range outcomes {
		gt := groundTruth[i].Entries
		if len(gt) < k {
			return Row{}, fmt.Errorf("report: ground-truth row %d has only %d entries, need %d", i, len(gt), k)
		}

		if oc.Heap.Len() < k {
			klog.Warningf("report: algorithm %s query %d returned only %d/%d results, reporting ratio 0", algorithm, i, oc.Heap.Len(), k)
			// Open Question 1: underfull heap contributes ratio 0, not
			// an error or an omitted row.
		} else {
			for j := 0; j < k; j++ {
				ratioSum += gt[j].Key / oc.Heap.IthKey(j)
			}
		}

		threshold := gt[k-1].Key
		hits := 0
		for j := 0; j < oc.Heap.Len() && j < k; j++ {
			if oc.Heap.IthKey(j) >= threshold {
				hits++
			}
		}
		recallSum += 100 * float64(hits) / float64(k)

		elapsedSum += oc.Elapsed
		if external {
			ioSum += float64(oc.IOReads)
		} else {
			candFracSum += float64(oc.DistCount) / float64(n)
		}
	}

	row.MeanRatio = ratioSum / (float64(k) * float64(qn))
	row.MeanRecall = recallSum / float64(qn)
	row.MeanElapsed = elapsedSum / time.Duration(qn)
	if external {
		row.MeanIOReads = ioSum / float64(qn)
	} else {
		row.MeanCandidateFraction = candFracSum / float64(qn)
	}
	return row, nil
}

// String renders one human-readable summary line, using go-humanize for
// the I/O volume figure exactly as the teacher formats CAR/index sizes.
func (r Row) String() string {
	if r.External {
		return fmt.Sprintf("%-16s k=%-3d ratio=%.4f recall=%.2f%% time=%s io=%s/query",
			r.Algorithm, r.K, r.MeanRatio, r.MeanRecall, r.MeanElapsed, humanize.Comma(int64(r.MeanIOReads)))
	}
	return fmt.Sprintf("%-16s k=%-3d ratio=%.4f recall=%.2f%% time=%s candidates=%.4f%%",
		r.Algorithm, r.K, r.MeanRatio, r.MeanRecall, r.MeanElapsed, 100*r.MeanCandidateFraction)
}
