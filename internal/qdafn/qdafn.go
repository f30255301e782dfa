// Package qdafn implements QDAFN (C6): a projection-based index that, for
// each of l random unit projections, retains only the m objects with the
// most extreme projected values, then answers queries by popping
// candidates off a priority queue ordered by projected offset from the
// query.
package qdafn

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/pagestore"
	"github.com/rpcpool/afn-search/internal/qabtree"
	"github.com/rpcpool/afn-search/internal/queryctx"
	"github.com/rpcpool/afn-search/internal/topk"
)

// DefaultL returns the recommended l = 2*ceil(n^(1/c^2)) when the caller
// passes l=0.
func DefaultL(n int, c float64) int {
	l := 2 * int(math.Ceil(math.Pow(float64(n), 1/(c*c))))
	if l < 1 {
		l = 1
	}
	return l
}

// DefaultM returns the recommended m = 1 + ceil(e^2 * l * (ln n)^(c^2/2 -
// 1/3)) when the caller passes m=0.
func DefaultM(n, l int, c float64) int {
	if n <= 1 {
		return 1
	}
	exp := c*c/2 - 1.0/3.0
	m := 1 + int(math.Ceil(math.E*math.E*float64(l)*math.Pow(math.Log(float64(n)), exp)))
	if m < 1 {
		m = 1
	}
	if m > n {
		m = n
	}
	return m
}

type table struct {
	rows []tableRow // length m, sorted descending by |proj value|, i.e. most extreme first
}

type tableRow struct {
	key float64 // h_j(x)
	id  int32
}

// Index is a built QDAFN.
type Index struct {
	l, m int
	dim  int
	proj [][]float64
	tbls []table

	extTrees  []*qabtree.Tree
	extStores []*pagestore.Store
}

func newProjections(rng *mathx.RNG, l, d int) [][]float64 {
	proj := make([][]float64, l)
	for j := 0; j < l; j++ {
		row := make([]float64, d)
		var norm float64
		for i := 0; i < d; i++ {
			row[i] = rng.Gaussian(0, 1)
			norm += row[i] * row[i]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		for i := range row {
			row[i] /= norm
		}
		proj[j] = row
	}
	return proj
}

func project(proj []float64, x []float32) float64 {
	var sum float64
	for i, a := range proj {
		sum += a * float64(x[i])
	}
	return sum
}

// BuildInternal builds QDAFN over src in memory. l/m of 0 select the
// recommended defaults.
func BuildInternal(rng *mathx.RNG, c float64, l, m int, src dataset.Source) (*Index, error) {
	n, d := src.N(), src.Dim()
	if l <= 0 {
		l = DefaultL(n, c)
	}
	if m <= 0 {
		m = DefaultM(n, l, c)
	}
	if m > n {
		m = n
	}
	proj := newProjections(rng, l, d)

	tbls := make([]table, l)
	for j := 0; j < l; j++ {
		rows := make([]tableRow, n)
		for i := 0; i < n; i++ {
			rows[i] = tableRow{key: project(proj[j], src.Vector(int32(i))), id: int32(i)}
		}
		sort.Slice(rows, func(a, b int) bool { return math.Abs(rows[a].key) > math.Abs(rows[b].key) })
		if len(rows) > m {
			rows = rows[:m]
		}
		tbls[j] = table{rows: rows}
	}

	return &Index{l: l, m: m, dim: d, proj: proj, tbls: tbls}, nil
}

// head is one priority-queue entry: the current candidate at table j's
// cursor position.
type head struct {
	j       int
	pos     int
	keyDiff float64
}

type headQueue []head

func (q headQueue) Len() int { return len(q) }
func (q headQueue) Less(a, b int) bool {
	if q[a].keyDiff != q[b].keyDiff {
		return q[a].keyDiff > q[b].keyDiff // max-heap on keyDiff
	}
	return q[a].j < q[b].j // ties broken by smaller j
}
func (q headQueue) Swap(a, b int)      { q[a], q[b] = q[b], q[a] }
func (q *headQueue) Push(x interface{}) { *q = append(*q, x.(head)) }
func (q *headQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// KFN answers a c-k-AFN query by popping up to m+topK (clamped to n)
// priority-queue heads.
func (idx *Index) KFN(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	if idx.External() {
		return idx.kfnExternal(ctx, src, q, topK)
	}

	qproj := make([]float64, idx.l)
	for j := 0; j < idx.l; j++ {
		qproj[j] = project(idx.proj[j], q)
	}

	pq := &headQueue{}
	heap.Init(pq)
	for j := 0; j < idx.l; j++ {
		if len(idx.tbls[j].rows) == 0 {
			continue
		}
		heap.Push(pq, head{j: j, pos: 0, keyDiff: math.Abs(idx.tbls[j].rows[0].key - qproj[j])})
	}

	budget := idx.m + topK
	if budget > src.N() {
		budget = src.N()
	}

	seen := make(map[int32]bool)
	popped := 0
	for pq.Len() > 0 && popped < budget {
		h := heap.Pop(pq).(head)
		popped++
		row := idx.tbls[h.j].rows[h.pos]

		if h.pos+1 < len(idx.tbls[h.j].rows) {
			next := idx.tbls[h.j].rows[h.pos+1]
			heap.Push(pq, head{j: h.j, pos: h.pos + 1, keyDiff: math.Abs(next.key - qproj[h.j])})
		}

		if seen[row.id] {
			continue
		}
		seen[row.id] = true
		dist := mathx.L2(src.Vector(row.id), q, src.Dim())
		ctx.Heap.Insert(dist, row.id)
		ctx.DistCount++
	}
	return nil
}

// External reports whether this index was built in external mode.
func (idx *Index) External() bool { return idx.extTrees != nil }

// Close releases external-mode backing stores. A no-op in internal mode.
func (idx *Index) Close() error {
	var firstErr error
	for _, s := range idx.extStores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildExternal builds QDAFN over src, bulk-loading each of the l tables
// into its own B+-tree file under dir. Each table is keyed by the
// negated absolute projected value so that qabtree's ascending bulk-load
// order (which it requires) becomes descending-by-extremity order —
// exactly the order the query-time priority queue expects to pop from.
func BuildExternal(dir string, pageSize uint32, rng *mathx.RNG, c float64, l, m int, src dataset.Source) (*Index, error) {
	n, d := src.N(), src.Dim()
	if l <= 0 {
		l = DefaultL(n, c)
	}
	if m <= 0 {
		m = DefaultM(n, l, c)
	}
	if m > n {
		m = n
	}
	if qabtree.MaxLeafEntries(pageSize) < 50 {
		return nil, fmt.Errorf("qdafn: page size %d yields fewer than 50 leaf entries per B+-tree page", pageSize)
	}
	proj := newProjections(rng, l, d)

	trees := make([]*qabtree.Tree, l)
	stores := make([]*pagestore.Store, l)
	for j := 0; j < l; j++ {
		rows := make([]tableRow, n)
		for i := 0; i < n; i++ {
			rows[i] = tableRow{key: project(proj[j], src.Vector(int32(i))), id: int32(i)}
		}
		sort.Slice(rows, func(a, b int) bool { return math.Abs(rows[a].key) > math.Abs(rows[b].key) })
		if len(rows) > m {
			rows = rows[:m]
		}

		blrows := make([]topk.Result, len(rows))
		for i, r := range rows {
			blrows[i] = topk.Result{Key: -math.Abs(r.key), ID: r.id}
		}

		path := fmt.Sprintf("%s/qdafn-table-%d.page", dir, j)
		store, err := pagestore.Create(path, pageSize, make([]byte, 17))
		if err != nil {
			return nil, fmt.Errorf("qdafn: could not create table %d: %w", j, err)
		}
		if err := qabtree.Build(store, blrows); err != nil {
			store.Close()
			return nil, fmt.Errorf("qdafn: could not build table %d: %w", j, err)
		}
		tree, err := qabtree.Open(store)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("qdafn: could not reopen table %d: %w", j, err)
		}
		stores[j] = store
		trees[j] = tree
	}

	return &Index{l: l, m: m, dim: d, proj: proj, extTrees: trees, extStores: stores}, nil
}

// extHead is one priority-queue entry for the external query: the next
// unconsumed id from table j's block buffer, plus enough of that block
// left to keep draining before the cursor needs another page read.
type extHead struct {
	j       int
	id      int32
	keyDiff float64
}

type extHeadQueue []extHead

func (q extHeadQueue) Len() int { return len(q) }
func (q extHeadQueue) Less(a, b int) bool {
	if q[a].keyDiff != q[b].keyDiff {
		return q[a].keyDiff > q[b].keyDiff
	}
	return q[a].j < q[b].j
}
func (q extHeadQueue) Swap(a, b int)       { q[a], q[b] = q[b], q[a] }
func (q *extHeadQueue) Push(x interface{}) { *q = append(*q, x.(extHead)) }
func (q *extHeadQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// tableCursor drains one table's qabtree left cursor one sub-leaf block
// at a time, handing out individual ids while tracking the block's
// sampled key (the offset every id in the block is charged, since a
// finer-grained key isn't resident without another page read).
type tableCursor struct {
	cursor  *qabtree.Cursor
	pending []int32
	key     float64
	done    bool
}

func newTableCursor(tree *qabtree.Tree) (*tableCursor, error) {
	c, err := tree.LeftCursor()
	if err != nil {
		return nil, err
	}
	tc := &tableCursor{cursor: c}
	if err := tc.fill(); err != nil {
		return nil, err
	}
	return tc, nil
}

func (tc *tableCursor) fill() error {
	for len(tc.pending) == 0 && !tc.done {
		blk, ok, err := tc.cursor.AdvanceLeft()
		if err != nil {
			return err
		}
		if !ok {
			tc.done = true
			return nil
		}
		tc.pending = blk.IDs
		tc.key = -blk.Key // undo the build-time negation: back to |proj value|
	}
	return nil
}

func (tc *tableCursor) next() (int32, float64, bool, error) {
	if len(tc.pending) == 0 {
		return 0, 0, false, nil
	}
	id := tc.pending[0]
	key := tc.key
	tc.pending = tc.pending[1:]
	if len(tc.pending) == 0 {
		if err := tc.fill(); err != nil {
			return 0, 0, false, err
		}
	}
	return id, key, true, nil
}

func (idx *Index) kfnExternal(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	qproj := make([]float64, idx.l)
	for j := 0; j < idx.l; j++ {
		qproj[j] = project(idx.proj[j], q)
	}

	cursors := make([]*tableCursor, idx.l)
	for j := 0; j < idx.l; j++ {
		tc, err := newTableCursor(idx.extTrees[j])
		if err != nil {
			return err
		}
		cursors[j] = tc
	}

	pq := &extHeadQueue{}
	heap.Init(pq)
	for j := 0; j < idx.l; j++ {
		if len(cursors[j].pending) == 0 {
			continue
		}
		id := cursors[j].pending[0]
		heap.Push(pq, extHead{j: j, id: id, keyDiff: math.Abs(cursors[j].key - qproj[j])})
	}

	budget := idx.m + topK
	if budget > src.N() {
		budget = src.N()
	}

	seen := make(map[int32]bool)
	popped := 0
	for pq.Len() > 0 && popped < budget {
		h := heap.Pop(pq).(extHead)
		popped++

		id, _, ok, err := cursors[h.j].next()
		if err != nil {
			return err
		}
		if ok && len(cursors[h.j].pending) > 0 {
			nextID := cursors[h.j].pending[0]
			heap.Push(pq, extHead{j: h.j, id: nextID, keyDiff: math.Abs(cursors[h.j].key - qproj[h.j])})
		}
		_ = id

		if seen[h.id] {
			continue
		}
		seen[h.id] = true
		dist := mathx.L2(src.Vector(h.id), q, src.Dim())
		ctx.Heap.Insert(dist, h.id)
		ctx.DistCount++
	}

	for _, tc := range cursors {
		ctx.IOReads += tc.cursor.IOReads()
	}
	return nil
}
