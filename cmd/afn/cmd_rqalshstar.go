package main

import (
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/rqalshstar"
)

func newCmd_RQALSHStar() *cli.Command {
	return &cli.Command{
		Name:  "rqalsh-star",
		Usage: "RQALSH*: RQALSH layered over a Drusilla-Select candidate pool",
		Flags: append(commonFlags(), flagL, flagM),
		Action: func(cctx *cli.Context) error {
			c := cctx.Float64("c")
			l := cctx.Int("L")
			if l == 0 {
				l = 8
			}
			m := cctx.Int("M")
			if m == 0 {
				m = 16
			}
			return runAlgorithm(cctx, index.RQALSHStar.String(), false, func(src dataset.Source) (index.Index, error) {
				rng := mathx.NewRNG(mathx.DefaultSeed)
				return rqalshstar.Build(rng, c, l, m, src)
			})
		},
	}
}
