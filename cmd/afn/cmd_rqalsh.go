package main

import (
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/rqalsh"
)

// defaultBeta and defaultDelta match the values exercised in the
// package's own parameter tests when the caller doesn't override them.
const (
	defaultBeta  = 0.1
	defaultDelta = 0.49
)

func newCmd_RQALSH() *cli.Command {
	return &cli.Command{
		Name:  "rqalsh",
		Usage: "RQALSH: reverse query-aware LSH via dynamic collision counting",
		Flags: append(commonFlags(), flagBeta, flagDelta, flagB),
		Action: func(cctx *cli.Context) error {
			c := cctx.Float64("c")
			beta := cctx.Float64("beta")
			if beta == 0 {
				beta = defaultBeta
			}
			delta := cctx.Float64("delta")
			if delta == 0 {
				delta = defaultDelta
			}
			external := cctx.String("df") != ""

			return runAlgorithm(cctx, index.RQALSH.String(), external, func(src dataset.Source) (index.Index, error) {
				rng := mathx.NewRNG(mathx.DefaultSeed)
				if external {
					dir := cctx.String("of")
					if dir == "" {
						dir = "."
					}
					return rqalsh.BuildExternal(dir, uint32(cctx.Int("B")), rng, c, beta, delta, src)
				}
				return rqalsh.BuildInternal(rng, c, beta, delta, src)
			})
		},
	}
}
