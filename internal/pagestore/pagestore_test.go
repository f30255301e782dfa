package pagestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.page")

	s, err := Create(path, 256, []byte("hello"))
	require.NoError(t, err)

	idx, err := s.AppendBlock([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, int64(0), idx)

	buf := make([]byte, s.PageSize())
	require.NoError(t, s.ReadBlock(idx, buf))
	require.Equal(t, []byte("abc"), buf[:3])
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	require.Equal(t, uint32(256), s2.PageSize())
	require.Equal(t, []byte("hello"), s2.UserHeader())
	require.Equal(t, int64(1), s2.NumBlocks())

	buf2 := make([]byte, s2.PageSize())
	require.NoError(t, s2.ReadBlock(0, buf2))
	require.Equal(t, []byte("abc"), buf2[:3])
}

func TestAppendThenReadSequence(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(filepath.Join(dir, "seq.page"), 64, nil)
	require.NoError(t, err)
	defer s.Close()

	var idxs []int64
	for i := 0; i < 10; i++ {
		idx, err := s.AppendBlock([]byte{byte(i)})
		require.NoError(t, err)
		idxs = append(idxs, idx)
	}
	for i, idx := range idxs {
		require.Equal(t, int64(i), idx)
		buf := make([]byte, s.PageSize())
		require.NoError(t, s.ReadBlock(idx, buf))
		require.Equal(t, byte(i), buf[0])
	}
}

func TestWriteBlockOverwrite(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(filepath.Join(dir, "w.page"), 32, nil)
	require.NoError(t, err)
	defer s.Close()

	idx, err := s.AppendBlock([]byte("first"))
	require.NoError(t, err)
	require.NoError(t, s.WriteBlock(idx, []byte("second")))

	buf := make([]byte, s.PageSize())
	require.NoError(t, s.ReadBlock(idx, buf))
	require.Equal(t, []byte("second"), buf[:6])
}

func TestPageSizeTooSmallForHeader(t *testing.T) {
	dir := t.TempDir()
	_, err := Create(filepath.Join(dir, "tiny.page"), 4, []byte("this header is too long"))
	require.Error(t, err)
}
