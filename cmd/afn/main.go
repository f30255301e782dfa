package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "afn CLI",
		Version:     gitCommitSHA,
		Description: "toolkit for c-k-approximate-furthest-neighbor search: RQALSH, QDAFN, Drusilla-Select, RQALSH*, ML-RQALSH, and a linear-scan baseline.",
		Flags:       append([]cli.Flag{FlagVerbose, FlagVeryVerbose}, NewKlogFlagSet()...),
		Commands: []*cli.Command{
			newCmd_LinearScan(),
			newCmd_QDAFN(),
			newCmd_DrusillaSelect(),
			newCmd_RQALSH(),
			newCmd_RQALSHStar(),
			newCmd_MLRQALSH(),
			newCmd_GroundTruth(),
			newCmd_Convert(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}
