// Package groundtruth implements the Ground-Truth generator (§4.13): a
// brute-force oracle that scans the full dataset for every query and
// retains the true MAXK furthest neighbors, plus the §6 text file format
// those results are persisted in.
package groundtruth

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/rpcpool/afn-search/internal/afnconst"
	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/topk"
)

// Result holds one query's MAXK true-furthest-neighbor entries, sorted
// descending by distance.
type Result struct {
	Entries []topk.Result
}

// Compute brute-force scans src against every row of queries, inserting
// each object's true Euclidean distance into a bounded top-MAXK heap, and
// returns one Result per query in query order. This is the zero-
// approximation reference every other algorithm's ratio/recall is
// measured against (§4.11).
func Compute(src dataset.Source, queries [][]float32) []Result {
	d := src.Dim()
	n := src.N()

	bar := progressbar.Default(int64(len(queries))*int64(n), "ground-truth scan")
	defer bar.Close()

	results := make([]Result, len(queries))
	for qi, q := range queries {
		heap := topk.New(afnconst.MaxK)
		for id := 0; id < n; id++ {
			dist := mathx.L2(src.Vector(int32(id)), q, d)
			heap.Insert(dist, int32(id))
			bar.Add(1)
		}
		results[qi] = Result{Entries: append([]topk.Result(nil), heap.Entries()...)}
	}
	return results
}

// WriteFile serializes results in the §6 ground-truth text format: header
// "<qn> <K>\n", then one line per query, "id0 key0 id1 key1 ...". K is the
// number of entries per row: MAXK, or the dataset size when Compute ran
// over fewer than MAXK objects.
func WriteFile(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("groundtruth: could not create %s: %w", path, err)
	}
	defer f.Close()

	width := afnconst.MaxK
	if len(results) > 0 {
		width = len(results[0].Entries)
	}

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "%d %d\n", len(results), width); err != nil {
		return fmt.Errorf("groundtruth: could not write header: %w", err)
	}
	for _, r := range results {
		var sb strings.Builder
		for i, e := range r.Entries {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d %g", e.ID, e.Key)
		}
		sb.WriteByte('\n')
		if _, err := w.WriteString(sb.String()); err != nil {
			return fmt.Errorf("groundtruth: could not write row: %w", err)
		}
	}
	return w.Flush()
}

// ReadFile parses a ground-truth file previously written by WriteFile (or
// produced by the original C++ reference tool, which shares the format).
func ReadFile(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("groundtruth: could not open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !scanner.Scan() {
		return nil, fmt.Errorf("groundtruth: %s is empty", path)
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return nil, fmt.Errorf("groundtruth: malformed header in %s", path)
	}
	qn, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("groundtruth: bad qn in header: %w", err)
	}
	maxK, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("groundtruth: bad MAXK in header: %w", err)
	}

	results := make([]Result, 0, qn)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2*maxK {
			return nil, fmt.Errorf("groundtruth: expected %d fields, got %d", 2*maxK, len(fields))
		}
		entries := make([]topk.Result, maxK)
		for i := 0; i < maxK; i++ {
			id, err := strconv.Atoi(fields[2*i])
			if err != nil {
				return nil, fmt.Errorf("groundtruth: bad id field: %w", err)
			}
			key, err := strconv.ParseFloat(fields[2*i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("groundtruth: bad key field: %w", err)
			}
			entries[i] = topk.Result{ID: int32(id), Key: key}
		}
		results = append(results, Result{Entries: entries})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("groundtruth: error reading %s: %w", path, err)
	}
	if len(results) != qn {
		return nil, fmt.Errorf("groundtruth: header promised %d queries, found %d", qn, len(results))
	}
	return results, nil
}
