package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteCSV writes rows to path as one line per (algorithm, k) pair,
// for the -op output-path flag (§6): algorithm, k, n, external, ratio,
// recall, elapsed_ms, candidate_fraction, io_reads.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: could not create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"algorithm", "k", "n", "external", "ratio", "recall_pct", "elapsed_ms", "candidate_fraction", "io_reads"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("report: could not write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Algorithm,
			strconv.Itoa(r.K),
			strconv.Itoa(r.N),
			strconv.FormatBool(r.External),
			strconv.FormatFloat(r.MeanRatio, 'f', 6, 64),
			strconv.FormatFloat(r.MeanRecall, 'f', 4, 64),
			strconv.FormatFloat(float64(r.MeanElapsed.Microseconds())/1000.0, 'f', 4, 64),
			strconv.FormatFloat(r.MeanCandidateFraction, 'f', 6, 64),
			strconv.FormatFloat(r.MeanIOReads, 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("report: could not write row: %w", err)
		}
	}
	return nil
}
