// Package queryctx implements the per-query scratch state described in
// spec §9 ("Global mutable state"): the reference implementation kept
// counters and a result heap as process globals, which this toolkit
// replaces with a QueryContext explicitly passed to every algorithm's kfn
// call. The benchmark harness (internal/bench) owns one per query and
// aggregates its counters afterwards.
package queryctx

import "github.com/rpcpool/afn-search/internal/topk"

// Context carries everything one call to an algorithm's KFN needs that
// must not be shared across concurrent queries: the answer heap, a
// distance-evaluation counter (used for internal-mode "fraction of
// candidates examined" reporting), and a page-I/O counter (used for
// external-mode reporting).
type Context struct {
	Heap      *topk.Heap
	DistCount int
	IOReads   int
}

// New allocates a context with a fresh top-k heap of capacity k.
func New(k int) *Context {
	return &Context{Heap: topk.New(k)}
}

// Reset restores the context to the empty state, reusing the heap's
// backing array, so the same Context can be used across many queries
// without reallocating.
func (c *Context) Reset() {
	c.Heap.Reset()
	c.DistCount = 0
	c.IOReads = 0
}
