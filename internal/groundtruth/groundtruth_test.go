package groundtruth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/dataset"
)

func fixtureDataset() *dataset.Memory {
	rows := [][]float32{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
		{1, 1, 1, 1},
		{2, 2, 2, 2},
		{3, 3, 3, 3},
	}
	return dataset.NewMemory(rows, 4)
}

func TestComputeFindsTrueFurthestNeighbor(t *testing.T) {
	src := fixtureDataset()
	queries := [][]float32{{0, 0, 0, 0}}

	results := Compute(src, queries)
	require.Len(t, results, 1)
	require.Equal(t, src.N(), len(results[0].Entries))
	require.Equal(t, int32(7), results[0].Entries[0].ID)

	for i := 1; i < len(results[0].Entries); i++ {
		require.LessOrEqual(t, results[0].Entries[i].Key, results[0].Entries[i-1].Key)
	}
}

func TestWriteThenReadFileRoundTrip(t *testing.T) {
	src := fixtureDataset()
	queries := [][]float32{{0, 0, 0, 0}, {3, 3, 3, 3}}
	results := Compute(src, queries)

	path := filepath.Join(t.TempDir(), "gt.txt")
	require.NoError(t, WriteFile(path, results))

	read, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, read, 2)
	for qi := range results {
		require.Equal(t, len(results[qi].Entries), len(read[qi].Entries))
		for i := range results[qi].Entries {
			require.Equal(t, results[qi].Entries[i].ID, read[qi].Entries[i].ID)
			require.InDelta(t, results[qi].Entries[i].Key, read[qi].Entries[i].Key, 1e-6)
		}
	}
}

func TestReadFileRejectsTruncatedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	content := "1 10\n0 1.0 1 2.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadFile(path)
	require.Error(t, err)
}
