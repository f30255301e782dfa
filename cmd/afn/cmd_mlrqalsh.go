package main

import (
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/mlrqalsh"
)

func newCmd_MLRQALSH() *cli.Command {
	return &cli.Command{
		Name:  "ml-rqalsh",
		Usage: "ML-RQALSH: RQALSH over radius-stratified blocks",
		Flags: commonFlags(),
		Action: func(cctx *cli.Context) error {
			c := cctx.Float64("c")
			return runAlgorithm(cctx, index.MLRQALSH.String(), false, func(src dataset.Source) (index.Index, error) {
				rng := mathx.NewRNG(mathx.DefaultSeed)
				return mlrqalsh.Build(rng, c, src)
			})
		},
	}
}
