package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/rpcpool/afn-search/internal/afnconst"
	"github.com/rpcpool/afn-search/internal/bench"
	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/groundtruth"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/pageio"
	"github.com/rpcpool/afn-search/internal/report"
	"github.com/rpcpool/afn-search/metrics"
)

// buildFunc constructs an index.Index over src.
type buildFunc func(src dataset.Source) (index.Index, error)

// runAlgorithm loads the dataset, queries, and (if -ts is absent)
// computes ground truth, builds idx via build, runs the query harness,
// and prints/writes the §4.11 report for k = 1..MAXK. external is true
// when the report should charge page I/O rather than a candidate
// fraction.
func runAlgorithm(cctx *cli.Context, algorithm string, external bool, build buildFunc) error {
	n := cctx.Int("n")
	qn := cctx.Int("qn")
	d := cctx.Int("d")

	var src dataset.Source
	if df := cctx.String("df"); df != "" {
		// Paged dataset: a read-through cache in front of the page store
		// (internal/pageio, C10) absorbs repeat page accesses across the
		// query batch; each query's own I/O cost is still dominated by
		// the B+-tree cursor reads the algorithm itself counts into
		// ctx.IOReads, so the cache's own miss counter is not threaded
		// into the per-query report here.
		paged, err := dataset.OpenPagedCached(df, pageio.DefaultTTL, pageio.DefaultCapacity, nil)
		if err != nil {
			return fmt.Errorf("could not open paged dataset: %w", err)
		}
		defer paged.Close()
		src = paged
	} else {
		mem, err := dataset.ReadBinary(cctx.String("ds"), n, d)
		if err != nil {
			return fmt.Errorf("could not read dataset: %w", err)
		}
		src = mem
	}

	queries, err := dataset.ReadBinary(cctx.String("qs"), qn, d)
	if err != nil {
		return fmt.Errorf("could not read queries: %w", err)
	}
	queryRows := queries.Rows()

	var gt []groundtruth.Result
	if ts := cctx.String("ts"); ts != "" {
		gt, err = groundtruth.ReadFile(ts)
		if err != nil {
			return fmt.Errorf("could not read ground truth: %w", err)
		}
	} else {
		klog.Infof("no -ts given, computing ground truth for %d queries over %d objects", qn, n)
		gt = groundtruth.Compute(src, queryRows)
	}

	variant := index.Internal.String()
	if external {
		variant = index.External.String()
	}

	buildStart := time.Now()
	idx, err := build(src)
	if err != nil {
		return fmt.Errorf("could not build %s index: %w", algorithm, err)
	}
	metrics.IndexBuildDuration.WithLabelValues(algorithm, variant).Observe(time.Since(buildStart).Seconds())

	h := bench.New(0)
	outcomes, err := h.Run(idx, src, queryRows, afnconst.MaxK)
	if err != nil {
		return fmt.Errorf("query batch failed: %w", err)
	}
	for _, o := range outcomes {
		metrics.QueryLatencyHistogram.WithLabelValues(algorithm, variant).Observe(o.Elapsed.Seconds())
		metrics.DistanceEvaluations.WithLabelValues(algorithm).Add(float64(o.DistCount))
		metrics.PageReads.WithLabelValues(algorithm).Add(float64(o.IOReads))
		metrics.QueriesServed.WithLabelValues(algorithm, variant).Inc()
	}

	var rows []report.Row
	for k := 1; k <= afnconst.MaxK; k++ {
		row, err := report.Compute(algorithm, k, n, external, gt, outcomes)
		if err != nil {
			return fmt.Errorf("could not compute report at k=%d: %w", k, err)
		}
		rows = append(rows, row)
		fmt.Println(row.String())
	}

	if of := cctx.String("of"); of != "" {
		if err := ensureDir(of); err != nil {
			return err
		}
	}
	if op := cctx.String("op"); op != "" {
		dir := filepath.Dir(op)
		if dir != "." && dir != "" {
			if err := ensureDir(dir); err != nil {
				return err
			}
		}
		if err := report.WriteCSV(op, rows); err != nil {
			return fmt.Errorf("could not write report CSV: %w", err)
		}
		klog.Infof("wrote report to %s", op)
	}

	return nil
}
