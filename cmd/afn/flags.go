package main

import "github.com/urfave/cli/v2"

// FlagVerbose and FlagVeryVerbose mirror the teacher's top-level
// verbosity switches, layered on top of the full klog flag set in
// klog.go.
var FlagVerbose = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "enable verbose logging",
}

var FlagVeryVerbose = &cli.BoolFlag{
	Name:  "very-verbose",
	Usage: "enable very verbose logging",
}

// Dataset / query shape, shared by every algorithm subcommand.
var (
	flagN = &cli.IntFlag{
		Name:     "n",
		Usage:    "dataset size (number of objects)",
		Required: true,
	}
	flagQN = &cli.IntFlag{
		Name:     "qn",
		Usage:    "number of queries",
		Required: true,
	}
	flagD = &cli.IntFlag{
		Name:     "d",
		Usage:    "dimensionality",
		Required: true,
	}
	flagDS = &cli.StringFlag{
		Name:     "ds",
		Usage:    "data file (binary vector stream)",
		Required: true,
	}
	flagQS = &cli.StringFlag{
		Name:     "qs",
		Usage:    "query file (binary vector stream)",
		Required: true,
	}
	flagTS = &cli.StringFlag{
		Name:  "ts",
		Usage: "ground-truth file (computed in memory if absent)",
	}
	flagDF = &cli.StringFlag{
		Name:  "df",
		Usage: "paged data folder for external mode (implies external variant)",
	}
	flagOF = &cli.StringFlag{
		Name:  "of",
		Usage: "output folder (created if absent)",
	}
	flagOP = &cli.StringFlag{
		Name:  "op",
		Usage: "output path for the CSV report (created if absent)",
	}
	flagC = &cli.Float64Flag{
		Name:  "c",
		Usage: "approximation ratio c > 1",
		Value: 2.0,
	}
	flagB = &cli.IntFlag{
		Name:  "B",
		Usage: "page size in bytes (external mode only; must fit >= 50 entries per B+-leaf)",
		Value: 1024 * 16,
	}
	flagL = &cli.IntFlag{
		Name:  "L",
		Usage: "Drusilla-Select / QDAFN parameter l (number of projections)",
	}
	flagM = &cli.IntFlag{
		Name:  "M",
		Usage: "Drusilla-Select / QDAFN parameter m (kept extremes per projection)",
	}
	flagBeta = &cli.Float64Flag{
		Name:  "beta",
		Usage: "explicit beta override for RQALSH (candidate budget as a fraction of n)",
	}
	flagDelta = &cli.Float64Flag{
		Name:  "delta",
		Usage: "explicit delta override for RQALSH (false-negative probability bound)",
	}
)

func commonFlags() []cli.Flag {
	return []cli.Flag{flagN, flagQN, flagD, flagDS, flagQS, flagTS, flagDF, flagOF, flagOP, flagC}
}
