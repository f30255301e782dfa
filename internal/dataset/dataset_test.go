package dataset

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecs.bin")

	rows := [][]float32{{1, 2, 3}, {4, 5, 6}}
	buf := make([]byte, 0, len(rows)*3*4)
	for _, r := range rows {
		for _, v := range r {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
			buf = append(buf, b[:]...)
		}
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	m, err := ReadBinary(path, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 2, m.N())
	require.Equal(t, 3, m.Dim())
	require.Equal(t, []float32{1, 2, 3}, m.Vector(0))
	require.Equal(t, []float32{4, 5, 6}, m.Vector(1))
}

func TestReadTextLegacyFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecs.txt")
	require.NoError(t, os.WriteFile(path, []byte("2 4 5 6\n1 1 2 3\n"), 0o644))

	m, err := ReadText(path, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, m.Vector(0))
	require.Equal(t, []float32{4, 5, 6}, m.Vector(1))
}

func TestPagedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paged.store")

	rows := make([][]float32, 10)
	for i := range rows {
		rows[i] = []float32{float32(i), float32(i) + 0.5}
	}
	require.NoError(t, BuildPaged(path, 64, rows, 2))

	var ioReads int
	p, err := OpenPaged(path, &ioReads)
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, 10, p.N())
	require.Equal(t, 2, p.Dim())
	for i, want := range rows {
		got := p.Vector(int32(i))
		require.Equal(t, want, got)
	}
	require.Greater(t, ioReads, 0)
}
