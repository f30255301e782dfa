// Package afnconst holds the handful of numeric constants shared across
// every index in the toolkit, pinned by the c-k-AFN benchmark's reference
// behavior rather than derived from any single algorithm.
package afnconst

const (
	// Candidates is the false-positive budget used to size RQALSH's beta
	// (beta = Candidates/n) and, with k, RQALSH's per-query quota of
	// distance evaluations (Candidates + k - 1).
	Candidates = 100

	// MaxK is the largest top-k this toolkit ever reports, and the width
	// of a ground-truth file's per-query row.
	MaxK = 10

	// ScanSize bounds how many entries an RQALSH round scans per active
	// table before re-checking termination conditions.
	ScanSize = 64

	// NThreshold is RQALSH*'s cutover: candidate pools at or below this
	// size are linearly scanned instead of indexed.
	NThreshold = 2 * (Candidates + MaxK)

	// MaxBlockNum caps how many entries a single ML-RQALSH block may span.
	MaxBlockNum = 10000

	// Lambda is ML-RQALSH's radius-stratification ratio.
	Lambda = 0.9

	// DeltaDefault is RQALSH's default error probability.
	DeltaDefault = 0.49
)
