package qabtree

import (
	"fmt"

	"github.com/rpcpool/afn-search/internal/pagestore"
	"github.com/rpcpool/afn-search/internal/topk"
)

// Build bulk-loads a query-aware B+-tree over rows, which must already be
// sorted ascending by Key (the caller, typically an RQALSH hash table
// build, owns the sort). It writes leaves first, links them via sibling
// pointers, then builds index levels bottom-up until a single root
// remains, and finally patches the store's user header with the root
// block and level so Open can find it again.
func Build(store *pagestore.Store, rows []topk.Result) error {
	for i := 1; i < len(rows); i++ {
		if rows[i].Key < rows[i-1].Key {
			return fmt.Errorf("qabtree: Build requires rows sorted ascending by key")
		}
	}

	pageSize := store.PageSize()
	maxLeaf := MaxLeafEntries(pageSize)
	if maxLeaf < Increment {
		return fmt.Errorf("qabtree: page size %d too small to hold one sub-leaf block", pageSize)
	}

	leafBlocks, leafFirstKeys, err := buildLeaves(store, rows, maxLeaf)
	if err != nil {
		return err
	}
	if len(leafBlocks) == 0 {
		return fmt.Errorf("qabtree: cannot build an empty tree")
	}

	rootBlock := leafBlocks[0]
	rootLevel := uint8(0)
	childBlocks := leafBlocks
	childKeys := leafFirstKeys
	maxIndex := MaxIndexEntries(pageSize)

	for len(childBlocks) > 1 {
		rootLevel++
		nextBlocks, nextKeys, err := buildIndexLevel(store, rootLevel, childBlocks, childKeys, maxIndex)
		if err != nil {
			return err
		}
		childBlocks, childKeys = nextBlocks, nextKeys
		rootBlock = childBlocks[0]
	}

	h := treeHeader{RootBlock: rootBlock, RootLevel: rootLevel, NumItems: int64(len(rows))}
	if err := store.SetUserHeader(h.bytes()); err != nil {
		return fmt.Errorf("qabtree: could not record root: %w", err)
	}
	return nil
}

// buildLeaves packs rows into leaf pages of at most maxLeaf entries each,
// each holding one sampled key per Increment-sized sub-leaf block, then
// stitches sibling pointers in a second pass (block indices of later
// leaves aren't known until they're all appended).
func buildLeaves(store *pagestore.Store, rows []topk.Result, maxLeaf int) ([]int64, []float64, error) {
	var blocks []int64
	var firstKeys []float64

	for start := 0; start < len(rows); start += maxLeaf {
		end := start + maxLeaf
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		numSub := numSubBlocks(len(chunk))
		keys := make([]float64, numSub)
		ids := make([]int32, len(chunk))
		for i, r := range chunk {
			ids[i] = r.ID
		}
		for b := 0; b < numSub; b++ {
			keys[b] = chunk[b*Increment].Key
		}

		buf := encodeLeaf(store.PageSize(), keys, ids, noSibling, noSibling)
		blk, err := store.AppendBlock(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("qabtree: append leaf: %w", err)
		}
		blocks = append(blocks, blk)
		firstKeys = append(firstKeys, keys[0])
	}

	for i, blk := range blocks {
		left, right := noSibling, noSibling
		if i > 0 {
			left = blocks[i-1]
		}
		if i < len(blocks)-1 {
			right = blocks[i+1]
		}
		buf := make([]byte, store.PageSize())
		if err := store.ReadBlock(blk, buf); err != nil {
			return nil, nil, err
		}
		n := decodeLeaf(buf)
		n.leftSib, n.rightSib = left, right
		out := encodeLeaf(store.PageSize(), n.keys, n.ids, left, right)
		if err := store.WriteBlock(blk, out); err != nil {
			return nil, nil, fmt.Errorf("qabtree: stitch leaf siblings: %w", err)
		}
	}

	return blocks, firstKeys, nil
}

// buildIndexLevel packs (key,child) pairs referencing the previous level
// into index pages of at most maxIndex entries, stitching sibling
// pointers the same way as buildLeaves.
func buildIndexLevel(store *pagestore.Store, level uint8, childBlocks []int64, childKeys []float64, maxIndex int) ([]int64, []float64, error) {
	var blocks []int64
	var firstKeys []float64

	for start := 0; start < len(childBlocks); start += maxIndex {
		end := start + maxIndex
		if end > len(childBlocks) {
			end = len(childBlocks)
		}
		keys := append([]float64(nil), childKeys[start:end]...)
		children := append([]int64(nil), childBlocks[start:end]...)

		buf := encodeIndex(store.PageSize(), level, keys, children, noSibling, noSibling)
		blk, err := store.AppendBlock(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("qabtree: append index node: %w", err)
		}
		blocks = append(blocks, blk)
		firstKeys = append(firstKeys, keys[0])
	}

	for i, blk := range blocks {
		left, right := noSibling, noSibling
		if i > 0 {
			left = blocks[i-1]
		}
		if i < len(blocks)-1 {
			right = blocks[i+1]
		}
		buf := make([]byte, store.PageSize())
		if err := store.ReadBlock(blk, buf); err != nil {
			return nil, nil, err
		}
		n := decodeIndex(buf)
		out := encodeIndex(store.PageSize(), level, n.keys, n.children, left, right)
		if err := store.WriteBlock(blk, out); err != nil {
			return nil, nil, fmt.Errorf("qabtree: stitch index siblings: %w", err)
		}
	}

	return blocks, firstKeys, nil
}
