// Package bench implements the query harness: given a built index and a
// batch of queries, it runs KFN for each, timing it with an injectable
// clock (so tests get deterministic durations) and collecting the
// per-query scratch (§4.11's per-algorithm reporting loop consumes
// these outcomes via internal/report). §5 explicitly permits concurrent
// queries against one built index as long as each owns independent
// scratch, which queryctx.Context already guarantees, so queries run
// under a bounded errgroup rather than one at a time.
package bench

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/queryctx"
	"github.com/rpcpool/afn-search/internal/topk"
)

// Outcome is one query's result plus the scratch the report stage needs:
// the final heap, distance-evaluation count (internal mode's "fraction
// of candidates examined"), I/O read count (external mode), and the
// wall-clock duration of the KFN call.
type Outcome struct {
	Heap      *topk.Heap
	DistCount int
	IOReads   int
	Elapsed   time.Duration
}

// Harness runs a batch of queries against one built index.
type Harness struct {
	clock       clock.Clock
	concurrency int

	// RunID is a fresh uuid identifying this harness run, mirroring the
	// teacher's use of uuid to tag a fetch/version run.
	RunID string
}

// New returns a harness using the real wall clock and concurrency
// goroutines in flight at once. concurrency <= 0 means unbounded.
func New(concurrency int) *Harness {
	return &Harness{clock: clock.New(), concurrency: concurrency, RunID: uuid.NewString()}
}

// NewWithClock is New but with an injectable clock, for tests that need
// deterministic elapsed times (§4.11's mean wall-clock time is otherwise
// untestable without a real clock's jitter).
func NewWithClock(c clock.Clock, concurrency int) *Harness {
	return &Harness{clock: c, concurrency: concurrency, RunID: uuid.NewString()}
}

// Run executes idx.KFN once per row of queries, returning one Outcome
// per query in query order. A query's own KFN error aborts the whole
// batch: per §5, a fatal error during any one query aborts the process
// with a reported error, not a partial/best-effort result set.
func (h *Harness) Run(idx index.Index, src dataset.Source, queries [][]float32, k int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(queries))

	g := new(errgroup.Group)
	if h.concurrency > 0 {
		g.SetLimit(h.concurrency)
	}

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			ctx := queryctx.New(k)
			start := h.clock.Now()
			if err := idx.KFN(ctx, src, q, k); err != nil {
				return fmt.Errorf("bench: query %d failed: %w", i, err)
			}
			outcomes[i] = Outcome{
				Heap:      ctx.Heap,
				DistCount: ctx.DistCount,
				IOReads:   ctx.IOReads,
				Elapsed:   h.clock.Now().Sub(start),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
