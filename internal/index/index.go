// Package index defines the common vocabulary the six queryable -alg selectors
// of §6 share: the Index interface every built algorithm answers
// queries through, and the Algorithm enum the CLI parses -alg against.
// Each algorithm's own package (internal/rqalsh, internal/qdafn, ...)
// owns its Build* constructors, since their parameters differ too much
// (l/m vs beta/delta vs none) for a single dynamic-dispatch factory to
// be worth the indirection; cmd/afn wires the right constructor per
// subcommand directly, the same way the teacher has one newCmd_X() per
// CLI verb rather than a generic command factory.
package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/queryctx"
)

// Index is satisfied by every built, queryable algorithm: Linear-Scan,
// QDAFN, Drusilla-Select, RQALSH, RQALSH*, ML-RQALSH (internal and
// external variants alike). Ground-Truth is deliberately excluded: it is
// a batch oracle (internal/groundtruth.Compute) that produces the
// reference file these algorithms are scored against, not a queryable
// algorithm in its own right (§4.13).
type Index interface {
	KFN(ctx *queryctx.Context, src dataset.Source, q []float32, topK int) error
}

// Algorithm is the §6 -alg selector's value space.
type Algorithm int

const (
	LinearScan Algorithm = iota
	QDAFN
	DrusillaSelect
	RQALSH
	RQALSHStar
	MLRQALSH
)

func (a Algorithm) String() string {
	switch a {
	case LinearScan:
		return "linear-scan"
	case QDAFN:
		return "qdafn"
	case DrusillaSelect:
		return "drusilla-select"
	case RQALSH:
		return "rqalsh"
	case RQALSHStar:
		return "rqalsh-star"
	case MLRQALSH:
		return "ml-rqalsh"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm accepts either the -alg numeric selector or its name
// (case-insensitive), matching the §6 CLI surface which types -alg as
// int but is friendlier to humans as a name in practice.
func ParseAlgorithm(s string) (Algorithm, error) {
	if n, err := strconv.Atoi(s); err == nil {
		a := Algorithm(n)
		if a < LinearScan || a > MLRQALSH {
			return 0, fmt.Errorf("index: -alg %d out of range", n)
		}
		return a, nil
	}
	switch strings.ToLower(s) {
	case "linear-scan", "linearscan":
		return LinearScan, nil
	case "qdafn":
		return QDAFN, nil
	case "drusilla-select", "drusilla":
		return DrusillaSelect, nil
	case "rqalsh":
		return RQALSH, nil
	case "rqalsh-star", "rqalsh*", "rqalshstar":
		return RQALSHStar, nil
	case "ml-rqalsh", "mlrqalsh":
		return MLRQALSH, nil
	default:
		return 0, fmt.Errorf("index: unknown -alg %q", s)
	}
}

// Variant distinguishes internal (in-memory) from external (paged, C10)
// builds; most algorithms accept both.
type Variant int

const (
	Internal Variant = iota
	External
)

func (v Variant) String() string {
	if v == External {
		return "external"
	}
	return "internal"
}
