// Package dataset provides the vector-source abstractions every index
// builds and queries against: an in-memory slice for internal mode, and a
// paged on-disk layout (C10's dataset half) for external mode. It also
// reads the binary and text vector file formats from §6.
package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Source is the vector accessor every index is built and queried against.
// Internal-mode indexes hold one in memory; external-mode indexes hold a
// Paged one backed by a page store.
type Source interface {
	Dim() int
	N() int
	Vector(id int32) []float32
}

// Memory is an in-memory, row-major vector source. It owns its backing
// array; index builders borrow slices from it for their lifetime, per
// §5's ownership rule.
type Memory struct {
	d    int
	rows [][]float32
}

// NewMemory wraps rows (each of length d) as a Source.
func NewMemory(rows [][]float32, d int) *Memory {
	return &Memory{d: d, rows: rows}
}

func (m *Memory) Dim() int            { return m.d }
func (m *Memory) N() int              { return len(m.rows) }
func (m *Memory) Vector(id int32) []float32 { return m.rows[id] }

// Rows returns the backing row slice directly, for callers (the query
// loader) that need a plain [][]float32 rather than a Source.
func (m *Memory) Rows() [][]float32 { return m.rows }

// ReadBinary reads a raw little-endian float32 stream of n*d values with no
// header (§6 "Binary vector file").
func ReadBinary(path string, n, d int) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<20)
	rows := make([][]float32, n)
	buf := make([]byte, d*4)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("could not read %s: short read at row %d: %w", path, i, err)
		}
		row := make([]float32, d)
		for j := 0; j < d; j++ {
			bits := binary.LittleEndian.Uint32(buf[j*4 : j*4+4])
			row[j] = math.Float32frombits(bits)
		}
		rows[i] = row
	}
	return NewMemory(rows, d), nil
}

// ReadText reads the legacy "id f1 f2 ... fd\n" format (1-indexed ids,
// used only for legacy input per §6). Rows are returned in id order
// regardless of file order.
func ReadText(path string, n, d int) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	rows := make([][]float32, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		var id int
		fields := splitFields(sc.Text())
		if len(fields) < d+1 {
			return nil, fmt.Errorf("could not read %s: line %d has %d fields, want %d", path, lineNo, len(fields), d+1)
		}
		if _, err := fmt.Sscan(fields[0], &id); err != nil {
			return nil, fmt.Errorf("could not read %s: line %d bad id: %w", path, lineNo, err)
		}
		row := make([]float32, d)
		for j := 0; j < d; j++ {
			var v float64
			if _, err := fmt.Sscan(fields[j+1], &v); err != nil {
				return nil, fmt.Errorf("could not read %s: line %d bad value %d: %w", path, lineNo, j, err)
			}
			row[j] = float32(v)
		}
		idx := id - 1 // 1-indexed on disk
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("could not read %s: line %d id %d out of range [1,%d]", path, lineNo, id, n)
		}
		rows[idx] = row
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return NewMemory(rows, d), nil
}

func splitFields(line string) []string {
	var fields []string
	start := -1
	for i, r := range line {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, line[start:])
	}
	return fields
}
