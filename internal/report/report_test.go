package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/bench"
	"github.com/rpcpool/afn-search/internal/groundtruth"
	"github.com/rpcpool/afn-search/internal/topk"
)

func TestComputeExactMatchGivesRatioOneRecallHundred(t *testing.T) {
	gt := []groundtruth.Result{
		{Entries: []topk.Result{{ID: 7, Key: 6.0}, {ID: 6, Key: 4.0}}},
	}
	heap := topk.New(2)
	heap.Insert(6.0, 7)
	heap.Insert(4.0, 6)
	outcomes := []bench.Outcome{
		{Heap: heap, DistCount: 8, IOReads: 0, Elapsed: 10 * time.Millisecond},
	}

	row, err := Compute("linear-scan", 2, 8, false, gt, outcomes)
	require.NoError(t, err)
	require.InDelta(t, 1.0, row.MeanRatio, 1e-9)
	require.InDelta(t, 100.0, row.MeanRecall, 1e-9)
	require.InDelta(t, 1.0, row.MeanCandidateFraction, 1e-9)
}

func TestComputeUnderfullHeapReportsRatioZero(t *testing.T) {
	gt := []groundtruth.Result{
		{Entries: []topk.Result{{ID: 7, Key: 6.0}, {ID: 6, Key: 4.0}}},
	}
	heap := topk.New(2)
	heap.Insert(6.0, 7) // only 1 of 2 requested
	outcomes := []bench.Outcome{
		{Heap: heap, DistCount: 4, IOReads: 0, Elapsed: time.Millisecond},
	}

	row, err := Compute("qdafn", 2, 8, false, gt, outcomes)
	require.NoError(t, err)
	require.Equal(t, 0.0, row.MeanRatio)
}

func TestComputeExternalModeReportsIOReads(t *testing.T) {
	gt := []groundtruth.Result{
		{Entries: []topk.Result{{ID: 7, Key: 6.0}}},
	}
	heap := topk.New(1)
	heap.Insert(6.0, 7)
	outcomes := []bench.Outcome{
		{Heap: heap, DistCount: 0, IOReads: 12, Elapsed: time.Millisecond},
	}

	row, err := Compute("rqalsh", 1, 8, true, gt, outcomes)
	require.NoError(t, err)
	require.InDelta(t, 12.0, row.MeanIOReads, 1e-9)
	require.Equal(t, 0.0, row.MeanCandidateFraction)
}

func TestWriteCSVProducesParsableFile(t *testing.T) {
	rows := []Row{
		{Algorithm: "rqalsh", K: 5, N: 1000, External: true, MeanRatio: 1.2, MeanRecall: 80, MeanElapsed: 5 * time.Millisecond, MeanIOReads: 42},
	}
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteCSV(path, rows))
}
