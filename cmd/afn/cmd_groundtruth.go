package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/groundtruth"
)

func newCmd_GroundTruth() *cli.Command {
	return &cli.Command{
		Name:  "ground-truth",
		Usage: "brute-force c-k-AFN oracle (§4.13); writes a -ts file for reuse by other algorithms",
		Flags: []cli.Flag{flagN, flagQN, flagD, flagDS, flagQS, flagTS},
		Action: func(cctx *cli.Context) error {
			n := cctx.Int("n")
			d := cctx.Int("d")
			qn := cctx.Int("qn")
			ts := cctx.String("ts")
			if ts == "" {
				return fmt.Errorf("ground-truth: -ts output path is required")
			}

			mem, err := dataset.ReadBinary(cctx.String("ds"), n, d)
			if err != nil {
				return fmt.Errorf("could not read dataset: %w", err)
			}
			queries, err := dataset.ReadBinary(cctx.String("qs"), qn, d)
			if err != nil {
				return fmt.Errorf("could not read queries: %w", err)
			}

			results := groundtruth.Compute(mem, queries.Rows())
			if err := groundtruth.WriteFile(ts, results); err != nil {
				return fmt.Errorf("could not write ground truth: %w", err)
			}
			klog.Infof("wrote ground truth for %d queries over %d objects to %s", qn, n, ts)
			return nil
		},
	}
}
