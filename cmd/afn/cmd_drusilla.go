package main

import (
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
	"github.com/rpcpool/afn-search/internal/drusilla"
	"github.com/rpcpool/afn-search/internal/index"
)

func newCmd_DrusillaSelect() *cli.Command {
	return &cli.Command{
		Name:  "drusilla-select",
		Usage: "Drusilla-Select: l rounds seeded by the max-norm point, m extremes kept per round",
		Flags: append(commonFlags(), flagL, flagM),
		Action: func(cctx *cli.Context) error {
			l := cctx.Int("L")
			if l == 0 {
				l = 8
			}
			m := cctx.Int("M")
			if m == 0 {
				m = 16
			}
			return runAlgorithm(cctx, index.DrusillaSelect.String(), false, func(src dataset.Source) (index.Index, error) {
				return drusilla.Build(src, l, m), nil
			})
		},
	}
}
