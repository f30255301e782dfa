package pageio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/pagestore"
)

func TestReadBlockCachesAndCountsMissesOnly(t *testing.T) {
	dir := t.TempDir()
	store, err := pagestore.Create(filepath.Join(dir, "cache.page"), 64, nil)
	require.NoError(t, err)

	idx, err := store.AppendBlock([]byte("hello"))
	require.NoError(t, err)

	c := NewCachedStore(store, time.Minute, 16)
	defer c.Close()

	buf := make([]byte, store.PageSize())
	require.NoError(t, c.ReadBlock(idx, buf))
	require.Equal(t, []byte("hello"), buf[:5])
	require.Equal(t, 1, c.IOReads())

	// Second read of the same block is served from cache: no extra I/O.
	buf2 := make([]byte, store.PageSize())
	require.NoError(t, c.ReadBlock(idx, buf2))
	require.Equal(t, []byte("hello"), buf2[:5])
	require.Equal(t, 1, c.IOReads())
}

func TestWriteBlockInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	store, err := pagestore.Create(filepath.Join(dir, "cache.page"), 64, nil)
	require.NoError(t, err)

	idx, err := store.AppendBlock([]byte("first"))
	require.NoError(t, err)

	c := NewCachedStore(store, time.Minute, 16)
	defer c.Close()

	buf := make([]byte, store.PageSize())
	require.NoError(t, c.ReadBlock(idx, buf))
	require.Equal(t, 1, c.IOReads())

	updated := make([]byte, store.PageSize())
	copy(updated, []byte("second"))
	require.NoError(t, c.WriteBlock(idx, updated))

	buf2 := make([]byte, store.PageSize())
	require.NoError(t, c.ReadBlock(idx, buf2))
	require.Equal(t, []byte("second"), buf2[:6])
	require.Equal(t, 2, c.IOReads())
}

func TestResetIOReads(t *testing.T) {
	dir := t.TempDir()
	store, err := pagestore.Create(filepath.Join(dir, "cache.page"), 64, nil)
	require.NoError(t, err)
	idx, err := store.AppendBlock([]byte("x"))
	require.NoError(t, err)

	c := NewCachedStore(store, time.Minute, 16)
	defer c.Close()

	buf := make([]byte, store.PageSize())
	require.NoError(t, c.ReadBlock(idx, buf))
	require.Equal(t, 1, c.IOReads())

	c.ResetIOReads()
	require.Equal(t, 0, c.IOReads())
}
