// Package topk implements the bounded top-k max-heap (C2): the structure
// every index inserts furthest-neighbor candidates into. Since k is always
// small (k <= MaxK = 10 in this toolkit), it is kept as a flat
// sorted-descending slice rather than a binary heap; O(k) insert is cheap
// at this scale and the sorted-descending layout makes IthKey trivial.
package topk

import "math"

// Result is a single (key, id) entry: a projected hash value and object id
// when used as a hash-table row, or a distance and object id when used as
// a heap entry.
type Result struct {
	Key float64
	ID  int32
}

// Heap holds at most K entries, sorted descending by Key.
type Heap struct {
	k       int
	entries []Result
}

// New allocates a heap with capacity k.
func New(k int) *Heap {
	h := &Heap{k: k, entries: make([]Result, 0, k)}
	return h
}

// Reset restores the heap to the empty state in O(k) (the backing array is
// reused, only its length is truncated).
func (h *Heap) Reset() {
	h.entries = h.entries[:0]
}

// K returns the heap's capacity.
func (h *Heap) K() int { return h.k }

// Len returns the number of entries currently stored.
func (h *Heap) Len() int { return len(h.entries) }

// MinKey returns the smallest currently-stored key, or -Inf if the heap
// has fewer than k entries (i.e. it is not yet "full" and so has no
// effective floor).
func (h *Heap) MinKey() float64 {
	if len(h.entries) < h.k {
		return math.Inf(-1)
	}
	return h.entries[len(h.entries)-1].Key
}

// IthKey returns the 0-based i-th largest key. Callers must only ask for
// i < Len(); out-of-range reads return -Inf, matching the "empty slot"
// sentinel of §3.
func (h *Heap) IthKey(i int) float64 {
	if i < 0 || i >= len(h.entries) {
		return math.Inf(-1)
	}
	return h.entries[i].Key
}

// Insert admits (key, id) if key > MinKey() or the heap is not yet full.
// Ties (key == MinKey() while full) are rejected. Returns the new
// MinKey(), i.e. the current k-th largest key after the insert (or the
// pre-insert MinKey() if the candidate was rejected).
func (h *Heap) Insert(key float64, id int32) float64 {
	if len(h.entries) < h.k {
		h.insertSorted(Result{Key: key, ID: id})
		return h.MinKey()
	}
	if key <= h.MinKey() {
		return h.MinKey()
	}
	// Evict the current minimum and insert the new entry in its place.
	h.entries = h.entries[:len(h.entries)-1]
	h.insertSorted(Result{Key: key, ID: id})
	return h.MinKey()
}

// insertSorted inserts r into entries, keeping the slice sorted descending
// by Key. Ties are broken by insertion order (the new entry is placed
// after existing equal-key entries), which is deterministic given a fixed
// call sequence.
func (h *Heap) insertSorted(r Result) {
	i := len(h.entries)
	h.entries = append(h.entries, r)
	for i > 0 && h.entries[i-1].Key < r.Key {
		h.entries[i] = h.entries[i-1]
		i--
	}
	h.entries[i] = r
}

// Entries returns the heap's contents in descending-key order. The
// returned slice is owned by the heap and is only valid until the next
// Insert/Reset.
func (h *Heap) Entries() []Result {
	return h.entries
}
