package rqalsh

import (
	"fmt"
	"sort"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/pagestore"
	"github.com/rpcpool/afn-search/internal/qabtree"
	"github.com/rpcpool/afn-search/internal/topk"
)

// project returns h_j(x) = sum_i proj[i] * x[i].
func project(proj []float64, x []float32) float64 {
	var sum float64
	for i, a := range proj {
		sum += a * float64(x[i])
	}
	return sum
}

func newProjections(rng *mathx.RNG, m, d int) [][]float64 {
	proj := make([][]float64, m)
	for j := 0; j < m; j++ {
		row := make([]float64, d)
		for i := 0; i < d; i++ {
			row[i] = rng.Gaussian(0, 1)
		}
		proj[j] = row
	}
	return proj
}

// Index is a built RQALSH: m hash tables, each a sorted sequence of
// (projected value, id). It holds no per-query state; every kfn call
// gets its own scratch via QueryContext, per §5.
type Index struct {
	params Params
	dim    int
	proj   [][]float64

	// Internal-mode storage: one sorted slice per table.
	tables []internalTable

	// External-mode storage: one B+-tree (and backing store) per table.
	extTrees  []*qabtree.Tree
	extStores []*pagestore.Store
}

type internalTable struct {
	rows []topk.Result // sorted ascending by Key
}

// Params returns the derived hash parameters.
func (idx *Index) Params() Params { return idx.params }

// External reports whether this index was built in external (paged)
// mode.
func (idx *Index) External() bool { return idx.extTrees != nil }

// BuildInternal builds an RQALSH over src entirely in memory.
func BuildInternal(rng *mathx.RNG, c float64, beta, delta float64, src dataset.Source) (*Index, error) {
	n, d := src.N(), src.Dim()
	params, err := DeriveParams(c, n, beta, delta)
	if err != nil {
		return nil, err
	}
	proj := newProjections(rng, params.M, d)

	tables := make([]internalTable, params.M)
	for j := 0; j < params.M; j++ {
		rows := make([]topk.Result, n)
		for i := 0; i < n; i++ {
			rows[i] = topk.Result{Key: project(proj[j], src.Vector(int32(i))), ID: int32(i)}
		}
		sort.Slice(rows, func(a, b int) bool { return rows[a].Key < rows[b].Key })
		tables[j] = internalTable{rows: rows}
	}

	return &Index{params: params, dim: d, proj: proj, tables: tables}, nil
}

// BuildExternal builds an RQALSH over src, bulk-loading each of the m
// hash tables into its own B+-tree file under dir (named table-0.page,
// table-1.page, ...).
func BuildExternal(dir string, pageSize uint32, rng *mathx.RNG, c float64, beta, delta float64, src dataset.Source) (*Index, error) {
	n, d := src.N(), src.Dim()
	params, err := DeriveParams(c, n, beta, delta)
	if err != nil {
		return nil, err
	}
	if qabtree.MaxLeafEntries(pageSize) < 50 {
		return nil, fmt.Errorf("rqalsh: page size %d yields fewer than 50 leaf entries per B+-tree page", pageSize)
	}
	proj := newProjections(rng, params.M, d)

	trees := make([]*qabtree.Tree, params.M)
	stores := make([]*pagestore.Store, params.M)
	for j := 0; j < params.M; j++ {
		rows := make([]topk.Result, n)
		for i := 0; i < n; i++ {
			rows[i] = topk.Result{Key: project(proj[j], src.Vector(int32(i))), ID: int32(i)}
		}
		sort.Slice(rows, func(a, b int) bool { return rows[a].Key < rows[b].Key })

		path := fmt.Sprintf("%s/table-%d.page", dir, j)
		store, err := pagestore.Create(path, pageSize, make([]byte, 17))
		if err != nil {
			return nil, fmt.Errorf("rqalsh: could not create table %d: %w", j, err)
		}
		if err := qabtree.Build(store, rows); err != nil {
			store.Close()
			return nil, fmt.Errorf("rqalsh: could not build table %d: %w", j, err)
		}
		tree, err := qabtree.Open(store)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("rqalsh: could not reopen table %d: %w", j, err)
		}
		stores[j] = store
		trees[j] = tree
	}

	return &Index{params: params, dim: d, proj: proj, extTrees: trees, extStores: stores}, nil
}

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
