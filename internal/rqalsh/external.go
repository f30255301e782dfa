package rqalsh

import (
	"math"

	"github.com/rpcpool/afn-search/internal/afnconst"
	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/qabtree"
	"github.com/rpcpool/afn-search/internal/queryctx"
)

// extCursorState is one table's pair of page cursors plus the coarser,
// block-granularity equivalent of lpos/rpos: since a B+-tree leaf only
// samples one key per qabtree.Increment-sized sub-leaf block (§4.10),
// external mode admits or rejects a whole block per step rather than one
// entry at a time.
type extCursorState struct {
	left, right   *qabtree.Cursor
	leftDone      bool
	rightDone     bool
	pendingLeft   qabtree.Block
	havePending   bool
	pendingRight  qabtree.Block
	haveRPending  bool
}

func newExtCursorState(tree *qabtree.Tree) (*extCursorState, error) {
	left, err := tree.LeftCursor()
	if err != nil {
		return nil, err
	}
	right, err := tree.RightCursor()
	if err != nil {
		return nil, err
	}
	return &extCursorState{left: left, right: right}, nil
}

func (s *extCursorState) peekLeft() (qabtree.Block, bool, error) {
	if s.havePending {
		return s.pendingLeft, true, nil
	}
	if s.leftDone {
		return qabtree.Block{}, false, nil
	}
	blk, ok, err := s.left.AdvanceLeft()
	if err != nil {
		return qabtree.Block{}, false, err
	}
	if !ok {
		s.leftDone = true
		return qabtree.Block{}, false, nil
	}
	s.pendingLeft, s.havePending = blk, true
	return blk, true, nil
}

func (s *extCursorState) consumeLeft() { s.havePending = false }

func (s *extCursorState) peekRight() (qabtree.Block, bool, error) {
	if s.haveRPending {
		return s.pendingRight, true, nil
	}
	if s.rightDone {
		return qabtree.Block{}, false, nil
	}
	blk, ok, err := s.right.AdvanceRight()
	if err != nil {
		return qabtree.Block{}, false, err
	}
	if !ok {
		s.rightDone = true
		return qabtree.Block{}, false, nil
	}
	s.pendingRight, s.haveRPending = blk, true
	return blk, true, nil
}

func (s *extCursorState) consumeRight() { s.haveRPending = false }

func (s *extCursorState) ioReads() int { return s.left.IOReads() + s.right.IOReads() }

func (idx *Index) kfnExternal(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error {
	params := idx.params
	m := params.M

	qproj := make([]float64, m)
	for j := 0; j < m; j++ {
		qproj[j] = project(idx.proj[j], q)
	}

	states := make([]*extCursorState, m)
	for j := 0; j < m; j++ {
		st, err := newExtCursorState(idx.extTrees[j])
		if err != nil {
			return err
		}
		states[j] = st
	}

	freq := make(map[int32]int)
	checked := make(map[int32]bool)

	ld0 := make([]float64, m)
	rd0 := make([]float64, m)
	for j := 0; j < m; j++ {
		lb, lok, err := states[j].peekLeft()
		if err != nil {
			return err
		}
		rb, rok, err := states[j].peekRight()
		if err != nil {
			return err
		}
		if lok && rok {
			ld0[j] = math.Abs(lb.Key - qproj[j])
			rd0[j] = math.Abs(rb.Key - qproj[j])
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
		numDone := 0
		for j := 0; j < m; j++ {
			bucketActive[j] = !exhausted[j]
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

				steps := 0
				for steps < afnconst.ScanSize {
					blk, ok, err := states[j].peekLeft()
					if err != nil {
						return err
					}
					if !ok || math.Abs(blk.Key-qproj[j]) < width {
						break
					}
					for _, id := range blk.IDs {
						idx.admitMap(ctx, src, q, freq, checked, id, params.L)
					}
					states[j].consumeLeft()
					steps++
				}
				steps = 0
				for steps < afnconst.ScanSize {
					blk, ok, err := states[j].peekRight()
					if err != nil {
						return err
					}
					if !ok || math.Abs(blk.Key-qproj[j]) < width {
						break
					}
					for _, id := range blk.IDs {
						idx.admitMap(ctx, src, q, freq, checked, id, params.L)
					}
					states[j].consumeRight()
					steps++
				}

				lb, lok, err := states[j].peekLeft()
				if err != nil {
					return err
				}
				rb, rok, err := states[j].peekRight()
				if err != nil {
					return err
				}
				if !lok || !rok {
					exhausted[j] = true
					bucketActive[j] = false
					numDone++
					continue
				}
				ldist := math.Abs(lb.Key - qproj[j])
				rdist := math.Abs(rb.Key - qproj[j])
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

	for _, st := range states {
		ctx.IOReads += st.ioReads()
	}
	return nil
}

func (idx *Index) admitMap(ctx *queryctx.Context, src dataset.Source, q []float32, freq map[int32]int, checked map[int32]bool, id int32, l int) {
	freq[id]++
	if freq[id] >= l && !checked[id] {
		dist := mathx.L2(src.Vector(id), q, src.Dim())
		ctx.Heap.Insert(dist, id)
		checked[id] = true
		ctx.DistCount++
	}
}
