package main

import (
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/index"
	"github.com/rpcpool/afn-search/internal/mathx"
	"github.com/rpcpool/afn-search/internal/qdafn"
)

func newCmd_QDAFN() *cli.Command {
	return &cli.Command{
		Name:  "qdafn",
		Usage: "QDAFN: l random projections, m extremes kept per projection",
		Flags: append(commonFlags(), flagL, flagM, flagB),
		Action: func(cctx *cli.Context) error {
			c := cctx.Float64("c")
			n := cctx.Int("n")
			l := cctx.Int("L")
			external := cctx.String("df") != ""

			return runAlgorithm(cctx, index.QDAFN.String(), external, func(src dataset.Source) (index.Index, error) {
				rng := mathx.NewRNG(mathx.DefaultSeed)
				if l == 0 {
					l = qdafn.DefaultL(n, c)
				}
				m := cctx.Int("M")
				if m == 0 {
					m = qdafn.DefaultM(n, l, c)
				}
				if external {
					dir := filepath.Join(cctx.String("of"), "qdafn-tables")
					if err := ensureDir(dir); err != nil {
						return nil, err
					}
					return qdafn.BuildExternal(dir, uint32(cctx.Int("B")), rng, c, l, m, src)
				}
				return qdafn.BuildInternal(rng, c, l, m, src)
			})
		},
	}
}
