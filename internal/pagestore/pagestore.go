// Package pagestore implements the fixed-size page file (C3): the one
// component that accounts I/O cost for every external-mode index. A page
// store is a flat file of B-byte pages; page 0 is reserved for the file
// header (page size, page count, an opaque user header), and pages
// 1..N are addressed by a 0-based "block index" relative to that
// reservation.
package pagestore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rpcpool/afn-search/internal/ioutil"
)

var magic = [8]byte{'A', 'F', 'N', 'P', 'A', 'G', 'E', '1'}

const headerFixedLen = 8 + 4 + 8 + 4 // magic + pageSize + numBlocks + userHeaderLen

// Store is a fixed-page-size file: header + N appended blocks.
type Store struct {
	file       *os.File
	pageSize   uint32
	userHeader []byte

	mu        sync.Mutex
	numBlocks uint64
}

// Create creates a new page store at path with the given page size and an
// opaque user header (algorithm-specific parameters, written once at
// build time and never mutated). pageSize must be large enough to hold
// the fixed header fields plus userHeader.
func Create(path string, pageSize uint32, userHeader []byte) (*Store, error) {
	if pageSize == 0 {
		return nil, fmt.Errorf("pagestore: page size must be > 0")
	}
	if uint32(headerFixedLen+len(userHeader)) > pageSize {
		return nil, fmt.Errorf("pagestore: page size %d too small for header of %d bytes", pageSize, headerFixedLen+len(userHeader))
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagestore: could not create %s: %w", path, err)
	}
	s := &Store{file: f, pageSize: pageSize, userHeader: userHeader}
	if err := ioutil.NewSteps().
		Then("write header", s.writeHeader).
		Then("sync", f.Sync).
		Err(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Open opens an existing page store and validates its header.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagestore: could not open %s: %w", path, err)
	}
	s := &Store{file: f}
	if err := s.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("pagestore: could not read header of %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) writeHeader() error {
	buf := make([]byte, s.pageSize)
	copy(buf[0:8], magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], s.pageSize)
	binary.LittleEndian.PutUint64(buf[12:20], s.numBlocks)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(len(s.userHeader)))
	copy(buf[24:], s.userHeader)
	_, err := s.file.WriteAt(buf, 0)
	return err
}

func (s *Store) readHeader() error {
	// First read a conservative minimal prefix to learn the true page size.
	probe := make([]byte, headerFixedLen)
	if _, err := io.ReadFull(io.NewSectionReader(s.file, 0, headerFixedLen), probe); err != nil {
		return fmt.Errorf("short read of header: %w", err)
	}
	if *(*[8]byte)(probe[0:8]) != magic {
		return fmt.Errorf("not an afn page store (bad magic)")
	}
	s.pageSize = binary.LittleEndian.Uint32(probe[8:12])
	s.numBlocks = binary.LittleEndian.Uint64(probe[12:20])
	userLen := binary.LittleEndian.Uint32(probe[20:24])
	full := make([]byte, s.pageSize)
	if _, err := s.file.ReadAt(full, 0); err != nil {
		return fmt.Errorf("short read of page 0: %w", err)
	}
	s.userHeader = append([]byte(nil), full[24:24+userLen]...)
	return nil
}

// PageSize returns the fixed page size in bytes.
func (s *Store) PageSize() uint32 { return s.pageSize }

// UserHeader returns the opaque header blob recorded at Create time.
func (s *Store) UserHeader() []byte { return s.userHeader }

// SetUserHeader overwrites the opaque user header in place. It exists for
// builders (e.g. the B+-tree) whose header includes a field — the root
// block index — that is only known once the rest of the file has been
// written; len(data) must not exceed the capacity reserved at Create.
func (s *Store) SetUserHeader(data []byte) error {
	if uint32(headerFixedLen+len(data)) > s.pageSize {
		return fmt.Errorf("pagestore: user header of %d bytes exceeds page size %d", len(data), s.pageSize)
	}
	s.userHeader = append([]byte(nil), data...)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := s.file.WriteAt(lenBuf[:], 20); err != nil {
		return err
	}
	_, err := s.file.WriteAt(data, 24)
	return err
}

// NumBlocks returns the number of data blocks appended so far.
func (s *Store) NumBlocks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.numBlocks)
}

func (s *Store) blockOffset(idx int64) int64 {
	// Block 0 is the header page; data block i lives at page i+1.
	return (idx + 1) * int64(s.pageSize)
}

// AppendBlock writes buf (zero-padded to PageSize) as a new block and
// returns its index. A buf longer than PageSize is rejected; a short write
// fails with a wrapped I/O error.
func (s *Store) AppendBlock(buf []byte) (int64, error) {
	if len(buf) > int(s.pageSize) {
		return 0, fmt.Errorf("pagestore: block of %d bytes exceeds page size %d", len(buf), s.pageSize)
	}
	s.mu.Lock()
	idx := int64(s.numBlocks)
	s.mu.Unlock()

	if err := s.WriteBlock(idx, buf); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.numBlocks++
	n := s.numBlocks
	s.mu.Unlock()
	if err := s.persistBlockCount(n); err != nil {
		return 0, fmt.Errorf("pagestore: could not persist block count: %w", err)
	}
	return idx, nil
}

func (s *Store) persistBlockCount(n uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	_, err := s.file.WriteAt(buf[:], 12)
	return err
}

// ReadBlock reads block idx into buf, which must be at least PageSize
// bytes. Returns an IOError-wrapped error on a short read.
func (s *Store) ReadBlock(idx int64, buf []byte) error {
	if int64(len(buf)) < int64(s.pageSize) {
		return fmt.Errorf("pagestore: read buffer of %d bytes smaller than page size %d", len(buf), s.pageSize)
	}
	n, err := s.file.ReadAt(buf[:s.pageSize], s.blockOffset(idx))
	if err != nil && err != io.EOF {
		return fmt.Errorf("pagestore: could not read block %d: %w", idx, err)
	}
	if n != int(s.pageSize) {
		return fmt.Errorf("pagestore: short read of block %d: got %d of %d bytes", idx, n, s.pageSize)
	}
	return nil
}

// WriteBlock overwrites block idx with buf (padded with zeros to
// PageSize if shorter). idx may address a not-yet-appended block only via
// AppendBlock; WriteBlock is for in-place updates of existing blocks
// (e.g. a B+-tree node that needs a sibling pointer patched after the
// fact).
func (s *Store) WriteBlock(idx int64, buf []byte) error {
	if len(buf) > int(s.pageSize) {
		return fmt.Errorf("pagestore: block of %d bytes exceeds page size %d", len(buf), s.pageSize)
	}
	page := buf
	if len(buf) < int(s.pageSize) {
		page = make([]byte, s.pageSize)
		copy(page, buf)
	}
	n, err := s.file.WriteAt(page, s.blockOffset(idx))
	if err != nil {
		return fmt.Errorf("pagestore: could not write block %d: %w", idx, err)
	}
	if n != int(s.pageSize) {
		return fmt.Errorf("pagestore: short write of block %d: wrote %d of %d bytes", idx, n, s.pageSize)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (s *Store) Sync() error { return s.file.Sync() }

// Close flushes and closes the underlying file.
func (s *Store) Close() error { return s.file.Close() }
