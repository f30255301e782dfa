package qabtree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/pagestore"
	"github.com/rpcpool/afn-search/internal/topk"
)

func buildTestTree(t *testing.T, n int, pageSize uint32) (*pagestore.Store, *Tree) {
	t.Helper()
	dir := t.TempDir()
	store, err := pagestore.Create(filepath.Join(dir, "tree.page"), pageSize, make([]byte, treeHeaderLen))
	require.NoError(t, err)

	rows := make([]topk.Result, n)
	for i := 0; i < n; i++ {
		rows[i] = topk.Result{Key: float64(i), ID: int32(i)}
	}
	require.NoError(t, Build(store, rows))

	tree, err := Open(store)
	require.NoError(t, err)
	return store, tree
}

func TestBuildSingleLeaf(t *testing.T) {
	store, tree := buildTestTree(t, 10, 512)
	defer store.Close()

	require.Equal(t, int64(10), tree.NumItems())
	require.EqualValues(t, 0, tree.header.RootLevel)

	rows, err := tree.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 10)
	for i, r := range rows {
		require.Equal(t, int32(i), r.ID)
	}
}

func TestBuildMultiLeafWithIndexLevel(t *testing.T) {
	// Small page size forces many leaves and at least one index level.
	store, tree := buildTestTree(t, 5000, 512)
	defer store.Close()

	require.Equal(t, int64(5000), tree.NumItems())
	require.Greater(t, int(tree.header.RootLevel), 0)

	rows, err := tree.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 5000)
	for i, r := range rows {
		require.Equal(t, int32(i), r.ID)
	}
}

func TestLeftAndRightCursorsWalkWholeChainInOppositeOrders(t *testing.T) {
	store, tree := buildTestTree(t, 5000, 512)
	defer store.Close()

	left, err := tree.LeftCursor()
	require.NoError(t, err)
	right, err := tree.RightCursor()
	require.NoError(t, err)

	var fromLeft, fromRight []int32
	for {
		blk, ok, err := left.AdvanceLeft()
		require.NoError(t, err)
		if !ok {
			break
		}
		fromLeft = append(fromLeft, blk.IDs...)
	}
	for {
		blk, ok, err := right.AdvanceRight()
		require.NoError(t, err)
		if !ok {
			break
		}
		fromRight = append(fromRight, blk.IDs...)
	}

	require.Len(t, fromLeft, 5000)
	require.Len(t, fromRight, 5000)
	require.Equal(t, int32(0), fromLeft[0])
	require.Equal(t, int32(4999), fromLeft[len(fromLeft)-1])
	require.Equal(t, int32(4999), fromRight[0])
	require.Equal(t, int32(0), fromRight[len(fromRight)-1])
}

func TestCursorIOReadsCounted(t *testing.T) {
	store, tree := buildTestTree(t, 5000, 512)
	defer store.Close()

	c, err := tree.LeftCursor()
	require.NoError(t, err)
	require.GreaterOrEqual(t, c.IOReads(), 1)
	for i := 0; i < 20; i++ {
		_, ok, err := c.AdvanceLeft()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	require.Greater(t, c.IOReads(), 1)
}

func TestOpenRejectsTooShortHeader(t *testing.T) {
	dir := t.TempDir()
	store, err := pagestore.Create(filepath.Join(dir, "short.page"), 128, []byte("x"))
	require.NoError(t, err)
	defer store.Close()

	_, err = Open(store)
	require.Error(t, err)
}
