package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/drusilla"
	"github.com/rpcpool/afn-search/internal/linearscan"
	"github.com/rpcpool/afn-search/internal/mlrqalsh"
	"github.com/rpcpool/afn-search/internal/qdafn"
	"github.com/rpcpool/afn-search/internal/rqalsh"
	"github.com/rpcpool/afn-search/internal/rqalshstar"
)

func TestParseAlgorithmNumericAndName(t *testing.T) {
	a, err := ParseAlgorithm("0")
	require.NoError(t, err)
	require.Equal(t, LinearScan, a)

	a, err = ParseAlgorithm("ml-rqalsh")
	require.NoError(t, err)
	require.Equal(t, MLRQALSH, a)

	a, err = ParseAlgorithm("RQALSH-STAR")
	require.NoError(t, err)
	require.Equal(t, RQALSHStar, a)
}

func TestParseAlgorithmRejectsUnknown(t *testing.T) {
	_, err := ParseAlgorithm("not-an-alg")
	require.Error(t, err)

	_, err = ParseAlgorithm("99")
	require.Error(t, err)
}

// Compile-time + runtime check that every algorithm's Index type
// satisfies the common interface this package defines.
func TestBuiltIndexesSatisfyInterface(t *testing.T) {
	var _ Index = (*linearscan.Index)(nil)
	var _ Index = (*drusilla.Index)(nil)
	var _ Index = (*qdafn.Index)(nil)
	var _ Index = (*rqalsh.Index)(nil)
	var _ Index = (*rqalshstar.Index)(nil)
	var _ Index = (*mlrqalsh.Index)(nil)

	rows := [][]float32{{0, 0}, {1, 1}, {2, 2}}
	src := dataset.NewMemory(rows, 2)
	var _ dataset.Source = src
}
