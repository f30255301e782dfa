package main

import (
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/linearscan"
)

func newCmd_LinearScan() *cli.Command {
	return &cli.Command{
		Name:  "linear-scan",
		Usage: "baseline: scan every object, report against ground truth",
		Flags: commonFlags(),
		Action: func(cctx *cli.Context) error {
			external := cctx.String("df") != ""
			return runAlgorithm(cctx, index.LinearScan.String(), external, func(src dataset.Source) (index.Index, error) {
				return linearscan.Build(), nil
			})
		},
	}
}
