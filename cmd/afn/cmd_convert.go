package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/rpcpool/afn-search/internal/dataset"
)

func newCmd_Convert() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "convert a binary vector file into the paged layout used by -df external mode",
		Flags: []cli.Flag{flagN, flagD, flagDS, flagDF, flagB},
		Action: func(cctx *cli.Context) error {
			n := cctx.Int("n")
			d := cctx.Int("d")
			df := cctx.String("df")
			if df == "" {
				return fmt.Errorf("convert: -df output path is required")
			}

			mem, err := dataset.ReadBinary(cctx.String("ds"), n, d)
			if err != nil {
				return fmt.Errorf("could not read dataset: %w", err)
			}
			pageSize := uint32(cctx.Int("B"))
			if err := dataset.BuildPaged(df, pageSize, mem.Rows(), d); err != nil {
				return fmt.Errorf("could not build paged dataset: %w", err)
			}
			klog.Infof("wrote paged dataset for %d objects (dim %d, page size %d) to %s", n, d, pageSize, df)
			return nil
		},
	}
}
