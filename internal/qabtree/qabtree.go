// Package qabtree implements the query-aware B+-tree (C4): a bulk-loaded,
// leaf-linked tree over (key float64, id int32) rows, built once from a
// monotone-ascending sequence and never mutated afterwards. It does not
// support point lookup by key. Instead it hands the caller two independent
// "page cursors" — one descended to the left-most leaf, one to the
// right-most leaf — that the RQALSH two-sided search (C5) drives directly,
// advancing one sub-leaf block at a time via AdvanceLeft/AdvanceRight.
package qabtree

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rpcpool/afn-search/internal/pagestore"
	"github.com/rpcpool/afn-search/internal/topk"
)

const (
	entryKeyBytes = 8 // float64
	entryIDBytes  = 4 // int32
	entrySize     = entryKeyBytes + entryIDBytes

	// leafNodeSize is the sub-leaf granularity referenced by spec §4.4 and
	// §4.10: Increment = leafNodeSize/entrySize entries share one sampled
	// key, and one sub-leaf block of that many ids is what a single
	// AdvanceLeft/AdvanceRight call returns.
	leafNodeSize = 1024

	leafHeaderLen  = 1 + 4 + 4 + 8 + 8  // level, numEntries, numKeys, leftSib, rightSib
	indexEntrySize = entryKeyBytes + 8  // key + child block (int64)
	indexHeaderLen = 1 + 4 + 8 + 8      // level, numEntries, leftSib, rightSib
	noSibling      = int64(-1)
)

// Increment is the number of ids per sub-leaf block.
const Increment = leafNodeSize / entrySize

// treeHeader is persisted as the page store's opaque user header.
type treeHeader struct {
	RootBlock int64
	RootLevel uint8
	NumItems  int64
}

const treeHeaderLen = 8 + 1 + 8

func (h treeHeader) bytes() []byte {
	buf := make([]byte, treeHeaderLen)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(h.RootBlock))
	buf[8] = h.RootLevel
	binary.LittleEndian.PutUint64(buf[9:17], uint64(h.NumItems))
	return buf
}

func parseTreeHeader(buf []byte) treeHeader {
	return treeHeader{
		RootBlock: int64(binary.LittleEndian.Uint64(buf[0:8])),
		RootLevel: buf[8],
		NumItems:  int64(binary.LittleEndian.Uint64(buf[9:17])),
	}
}

// Tree is a read-only handle onto a built B+-tree backed by a page store.
type Tree struct {
	store  *pagestore.Store
	header treeHeader
}

// MaxLeafEntries returns how many (key,id) rows a single leaf page holds,
// derived from the underlying store's page size, or 0 when the page cannot
// hold even one full sub-leaf block.
func MaxLeafEntries(pageSize uint32) int {
	payload := int(pageSize) - leafHeaderLen
	blocks := payload / (Increment*entryIDBytes + entryKeyBytes)
	if blocks < 1 {
		return 0
	}
	return blocks * Increment
}

// MaxIndexEntries returns how many (key,child) entries a single index
// page holds.
func MaxIndexEntries(pageSize uint32) int {
	payload := int(pageSize) - indexHeaderLen
	n := payload / indexEntrySize
	if n < 2 {
		n = 2
	}
	return n
}

// Open loads a previously built tree from its backing page store.
func Open(store *pagestore.Store) (*Tree, error) {
	uh := store.UserHeader()
	if len(uh) < treeHeaderLen {
		return nil, fmt.Errorf("qabtree: user header too short (%d bytes)", len(uh))
	}
	return &Tree{store: store, header: parseTreeHeader(uh)}, nil
}

// NumItems returns the number of (key,id) rows indexed.
func (t *Tree) NumItems() int64 { return t.header.NumItems }

// leafNode is the decoded form of a leaf page.
type leafNode struct {
	numEntries int
	numKeys    int
	leftSib    int64
	rightSib   int64
	keys       []float64 // one per sub-leaf block, length numKeys
	ids        []int32   // length numEntries
}

func decodeLeaf(buf []byte) leafNode {
	var n leafNode
	n.numEntries = int(binary.LittleEndian.Uint32(buf[1:5]))
	n.numKeys = int(binary.LittleEndian.Uint32(buf[5:9]))
	n.leftSib = int64(binary.LittleEndian.Uint64(buf[9:17]))
	n.rightSib = int64(binary.LittleEndian.Uint64(buf[17:25]))
	off := leafHeaderLen
	n.keys = make([]float64, n.numKeys)
	for i := 0; i < n.numKeys; i++ {
		n.keys[i] = decodeFloat64(buf[off : off+8])
		off += 8
	}
	n.ids = make([]int32, n.numEntries)
	for i := 0; i < n.numEntries; i++ {
		n.ids[i] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	return n
}

func encodeLeaf(pageSize uint32, keys []float64, ids []int32, leftSib, rightSib int64) []byte {
	buf := make([]byte, pageSize)
	buf[0] = 0 // level
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(ids)))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(keys)))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(leftSib))
	binary.LittleEndian.PutUint64(buf[17:25], uint64(rightSib))
	off := leafHeaderLen
	for _, k := range keys {
		encodeFloat64(buf[off:off+8], k)
		off += 8
	}
	for _, id := range ids {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(id))
		off += 4
	}
	return buf
}

// indexNode is the decoded form of an index (non-leaf) page.
type indexNode struct {
	level      uint8
	numEntries int
	leftSib    int64
	rightSib   int64
	keys       []float64
	children   []int64
}

func decodeIndex(buf []byte) indexNode {
	var n indexNode
	n.level = buf[0]
	n.numEntries = int(binary.LittleEndian.Uint32(buf[1:5]))
	n.leftSib = int64(binary.LittleEndian.Uint64(buf[5:13]))
	n.rightSib = int64(binary.LittleEndian.Uint64(buf[13:21]))
	off := indexHeaderLen
	n.keys = make([]float64, n.numEntries)
	n.children = make([]int64, n.numEntries)
	for i := 0; i < n.numEntries; i++ {
		n.keys[i] = decodeFloat64(buf[off : off+8])
		n.children[i] = int64(binary.LittleEndian.Uint64(buf[off+8 : off+16]))
		off += indexEntrySize
	}
	return n
}

func encodeIndex(pageSize uint32, level uint8, keys []float64, children []int64, leftSib, rightSib int64) []byte {
	buf := make([]byte, pageSize)
	buf[0] = level
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(keys)))
	binary.LittleEndian.PutUint64(buf[5:13], uint64(leftSib))
	binary.LittleEndian.PutUint64(buf[13:21], uint64(rightSib))
	off := indexHeaderLen
	for i := range keys {
		encodeFloat64(buf[off:off+8], keys[i])
		binary.LittleEndian.PutUint64(buf[off+8:off+16], uint64(children[i]))
		off += indexEntrySize
	}
	return buf
}

func decodeFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func encodeFloat64(b []byte, f float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(f))
}

// Cursor walks one direction (left-to-right or right-to-left) over the
// leaf chain, one sub-leaf block at a time. It is single-use scratch state
// owned by exactly one in-flight query (spec §5: no per-query state lives
// in the tree itself).
type Cursor struct {
	tree     *Tree
	block    int64    // current leaf's block index, or -1 if exhausted
	leaf     leafNode // decoded current leaf
	blockPos int      // which sub-leaf block within the leaf we're at
	reverse  bool     // true for the right cursor, which walks blocks backwards

	// ioReads counts page reads performed through this cursor, for the
	// caller's external-mode I/O accounting.
	ioReads int
}

// result of one Advance call: the key sample for the sub-leaf block and
// the ids in it, in ascending (for the left cursor) or descending (for
// the right cursor) position order.
type Block struct {
	Key float64
	IDs []int32
}

// LeftCursor returns a cursor descended to the left-most leaf, positioned
// before its first sub-leaf block.
func (t *Tree) LeftCursor() (*Cursor, error) {
	var block int64
	var err error
	if t.header.RootLevel == 0 {
		block = t.header.RootBlock
	} else {
		block, err = t.descendLevels(true)
		if err != nil {
			return nil, err
		}
	}
	c := &Cursor{tree: t, block: block, blockPos: -1}
	if err := c.loadLeaf(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RightCursor returns a cursor descended to the right-most leaf,
// positioned after its last sub-leaf block.
func (t *Tree) RightCursor() (*Cursor, error) {
	var block int64
	var err error
	if t.header.RootLevel == 0 {
		block = t.header.RootBlock
	} else {
		block, err = t.descendLevels(false)
		if err != nil {
			return nil, err
		}
	}
	c := &Cursor{tree: t, block: block, reverse: true}
	if err := c.loadLeaf(c); err != nil {
		return nil, err
	}
	c.blockPos = numSubBlocks(c.leaf.numEntries)
	return c, nil
}

func (t *Tree) descendLevels(leftmost bool) (int64, error) {
	block := t.header.RootBlock
	level := t.header.RootLevel
	buf := make([]byte, t.store.PageSize())
	for level > 0 {
		if err := t.store.ReadBlock(block, buf); err != nil {
			return 0, err
		}
		node := decodeIndex(buf)
		if leftmost {
			block = node.children[0]
		} else {
			block = node.children[node.numEntries-1]
		}
		level = node.level - 1
	}
	return block, nil
}

func (c *Cursor) loadLeaf(dst *Cursor) error {
	buf := make([]byte, c.tree.store.PageSize())
	if err := c.tree.store.ReadBlock(c.block, buf); err != nil {
		return err
	}
	dst.leaf = decodeLeaf(buf)
	dst.ioReads++
	return nil
}

func numSubBlocks(numEntries int) int {
	n := numEntries / Increment
	if numEntries%Increment != 0 {
		n++
	}
	return n
}

// Done reports whether the cursor has exhausted its leaf chain.
func (c *Cursor) Done() bool { return c.block == noSibling }

// IOReads returns the number of page reads this cursor has performed.
func (c *Cursor) IOReads() int { return c.ioReads }

// AdvanceLeft returns the next sub-leaf block moving left-to-right and
// advances the cursor past it, crossing to the right sibling leaf when the
// current leaf is exhausted.
func (c *Cursor) AdvanceLeft() (Block, bool, error) {
	if c.Done() {
		return Block{}, false, nil
	}
	c.blockPos++
	nb := numSubBlocks(c.leaf.numEntries)
	for c.blockPos >= nb {
		next := c.leaf.rightSib
		if next == noSibling {
			c.block = noSibling
			return Block{}, false, nil
		}
		c.block = next
		if err := c.loadLeaf(c); err != nil {
			return Block{}, false, err
		}
		c.blockPos = 0
		nb = numSubBlocks(c.leaf.numEntries)
	}
	return c.subBlockAt(c.blockPos), true, nil
}

// AdvanceRight returns the next sub-leaf block moving right-to-left and
// advances the cursor past it, crossing to the left sibling leaf when the
// current leaf is exhausted.
func (c *Cursor) AdvanceRight() (Block, bool, error) {
	if c.Done() {
		return Block{}, false, nil
	}
	c.blockPos--
	for c.blockPos < 0 {
		prev := c.leaf.leftSib
		if prev == noSibling {
			c.block = noSibling
			return Block{}, false, nil
		}
		c.block = prev
		if err := c.loadLeaf(c); err != nil {
			return Block{}, false, err
		}
		c.blockPos = numSubBlocks(c.leaf.numEntries) - 1
	}
	return c.subBlockAt(c.blockPos), true, nil
}

func (c *Cursor) subBlockAt(pos int) Block {
	start := pos * Increment
	end := start + Increment
	if end > c.leaf.numEntries {
		end = c.leaf.numEntries
	}
	ids := append([]int32(nil), c.leaf.ids[start:end]...)
	if c.reverse {
		for a, b := 0, len(ids)-1; a < b; a, b = a+1, b-1 {
			ids[a], ids[b] = ids[b], ids[a]
		}
	}
	return Block{Key: c.leaf.keys[pos], IDs: ids}
}

// Rows returns every id in the tree in ascending key order, for
// debugging/tests and small internal-mode fallbacks; it is O(n) and reads
// every leaf. Only ID is set in each returned row: leaves store one sampled
// key per sub-leaf block rather than one per row, so Key is left zero.
func (t *Tree) Rows() ([]topk.Result, error) {
	c, err := t.LeftCursor()
	if err != nil {
		return nil, err
	}
	out := make([]topk.Result, 0, t.header.NumItems)
	for {
		blk, ok, err := c.AdvanceLeft()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, id := range blk.IDs {
			out = append(out, topk.Result{ID: id})
		}
	}
	return out, nil
}
