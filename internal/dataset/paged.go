package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/rpcpool/afn-search/internal/pageio"
	"github.com/rpcpool/afn-search/internal/pagestore"
)

// pagedHeaderLen is the Paged source's user-header layout: n, d (both
// uint32) packed ahead of numPerPage, which is derived rather than stored.
const pagedHeaderLen = 4 + 4

// pageBlockReader is the subset of pagestore.Store's surface Paged needs,
// satisfied by either the raw store or a pageio.CachedStore sitting in
// front of it.
type pageBlockReader interface {
	PageSize() uint32
	ReadBlock(idx int64, buf []byte) error
	Close() error
}

// Paged is the external-mode vector source of C10: vectors packed
// num_per_page = floor(B / (d*4)) per page, object id's page is
// id/num_per_page and in-page slot is id%num_per_page. Every read_object
// goes through the page store and increments its caller-visible I/O
// counter, except reads served by the cache of OpenPagedCached.
type Paged struct {
	store      pageBlockReader
	n, d       int
	numPerPage int
	ioReads    *int
}

// BuildPaged writes rows (n vectors of dimension d) into a fresh page
// store at path with the given page size, packing numPerPage = B/(d*4)
// vectors per page, zero-padding the final page.
func BuildPaged(path string, pageSize uint32, rows [][]float32, d int) error {
	numPerPage := int(pageSize) / (d * 4)
	if numPerPage < 1 {
		return fmt.Errorf("dataset: page size %d too small for one vector of dimension %d", pageSize, d)
	}
	hdr := make([]byte, pagedHeaderLen)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(rows)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(d))

	store, err := pagestore.Create(path, pageSize, hdr)
	if err != nil {
		return err
	}
	defer store.Close()

	buf := make([]byte, pageSize)
	for start := 0; start < len(rows); start += numPerPage {
		for i := range buf {
			buf[i] = 0
		}
		end := start + numPerPage
		if end > len(rows) {
			end = len(rows)
		}
		off := 0
		for i := start; i < end; i++ {
			for j := 0; j < d; j++ {
				binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(rows[i][j]))
				off += 4
			}
		}
		if _, err := store.AppendBlock(buf); err != nil {
			return fmt.Errorf("dataset: could not append page: %w", err)
		}
	}
	return nil
}

// OpenPaged opens a paged dataset previously written by BuildPaged.
// ioReads, if non-nil, is incremented on every page read so a caller (the
// benchmark harness's QueryContext) can attribute I/O cost per query.
func OpenPaged(path string, ioReads *int) (*Paged, error) {
	store, err := pagestore.Open(path)
	if err != nil {
		return nil, err
	}
	uh := store.UserHeader()
	if len(uh) < pagedHeaderLen {
		return nil, fmt.Errorf("dataset: paged store header too short")
	}
	n := int(binary.LittleEndian.Uint32(uh[0:4]))
	d := int(binary.LittleEndian.Uint32(uh[4:8]))
	numPerPage := int(store.PageSize()) / (d * 4)
	if numPerPage < 1 {
		store.Close()
		return nil, fmt.Errorf("dataset: page size %d too small for dimension %d", store.PageSize(), d)
	}
	return &Paged{store: store, n: n, d: d, numPerPage: numPerPage, ioReads: ioReads}, nil
}

// OpenPagedCached is OpenPaged with a pageio read-through cache in front of
// the page store, so repeated accesses to the same page within a benchmark
// run (or across queries sharing one Paged) don't re-pay the disk read.
// ioReads is still incremented only on actual cache misses.
func OpenPagedCached(path string, ttl time.Duration, capacity int, ioReads *int) (*Paged, error) {
	store, err := pagestore.Open(path)
	if err != nil {
		return nil, err
	}
	uh := store.UserHeader()
	if len(uh) < pagedHeaderLen {
		store.Close()
		return nil, fmt.Errorf("dataset: paged store header too short")
	}
	n := int(binary.LittleEndian.Uint32(uh[0:4]))
	d := int(binary.LittleEndian.Uint32(uh[4:8]))
	numPerPage := int(store.PageSize()) / (d * 4)
	if numPerPage < 1 {
		store.Close()
		return nil, fmt.Errorf("dataset: page size %d too small for dimension %d", store.PageSize(), d)
	}
	cached := pageio.NewCachedStore(store, ttl, capacity)
	return &Paged{store: cached, n: n, d: d, numPerPage: numPerPage, ioReads: ioReads}, nil
}

func (p *Paged) Dim() int { return p.d }
func (p *Paged) N() int   { return p.n }

// Close releases the underlying page store.
func (p *Paged) Close() error { return p.store.Close() }

// Vector reads object id's page (if not already cached by the caller) and
// returns its d-float32 slice.
func (p *Paged) Vector(id int32) []float32 {
	pageIdx := int64(int(id) / p.numPerPage)
	slot := int(id) % p.numPerPage

	cached, isCached := p.store.(*pageio.CachedStore)
	missesBefore := 0
	if isCached {
		missesBefore = cached.IOReads()
	}

	buf := make([]byte, p.store.PageSize())
	if err := p.store.ReadBlock(pageIdx, buf); err != nil {
		// Paged is called from hot query paths that cannot return an
		// error without threading one through every caller; a short
		// read here means the store is corrupt, which is a fatal
		// invariant violation per §7.4, not a recoverable condition.
		panic(fmt.Errorf("dataset: could not read page for object %d: %w", id, err))
	}
	if p.ioReads != nil && (!isCached || cached.IOReads() > missesBefore) {
		*p.ioReads++
	}

	row := make([]float32, p.d)
	off := slot * p.d * 4
	for j := 0; j < p.d; j++ {
		row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off+j*4 : off+j*4+4]))
	}
	return row
}
