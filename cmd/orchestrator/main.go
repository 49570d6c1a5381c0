/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/orchestrator"
	"github.com/golang/glog"
	"github.com/urfave/cli"
)

// main wires spec §6's CLI surface: config.json, fov_dir, log_dir,
// cache_size, and an optional neighbor_map.json, all positional.
func main() {
	app := cli.NewApp()
	app.Name = "orchestrator"
	app.Usage = "drive a satellite constellation cache emulation"
	app.ArgsUsage = "CONFIG.JSON FOV_DIR LOG_DIR CACHE_SIZE_BYTES [NEIGHBOR_MAP.JSON]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "satellite-bin", Usage: "path to the satellite binary", Value: "satellite"},
		cli.StringFlag{Name: "policy", Usage: "request-handling policy", Value: cmn.PolicyLocalOnly},
		cli.IntFlag{Name: "pool-size", Usage: "epoch worker pool size", Value: cmn.DefaultPoolSize},
		cli.Int64Flag{Name: "prefetch-budget", Usage: "per-epoch ground-station prefetch byte budget (0 disables)", Value: 0},
		cli.BoolFlag{Name: "allow-uplink", Usage: "allow the prefetch budget loop to fall back to uplink"},
		cli.StringFlag{Name: "prefetch-strategy", Usage: "ground-station recommendation strategy", Value: cmn.StrategyMostAccessed},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		glog.Errorf("orchestrator: %v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 4 {
		return cli.NewExitError("usage: orchestrator CONFIG.JSON FOV_DIR LOG_DIR CACHE_SIZE_BYTES [NEIGHBOR_MAP.JSON]", 1)
	}

	cacheSize, err := parseCacheSize(c.Args().Get(3))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	opts := orchestrator.Options{
		ConfigPath:       c.Args().Get(0),
		FovDir:           c.Args().Get(1),
		LogDir:           c.Args().Get(2),
		CacheCapBytes:    cacheSize,
		SatelliteBin:     c.String("satellite-bin"),
		Policy:           c.String("policy"),
		PoolSize:         c.Int("pool-size"),
		PrefetchBudget:   c.Int64("prefetch-budget"),
		AllowUplink:      c.Bool("allow-uplink"),
		PrefetchStrategy: c.String("prefetch-strategy"),
	}
	if c.NArg() > 4 {
		opts.NeighborMapPath = c.Args().Get(4)
	}

	o := orchestrator.New(opts)
	ctx := context.Background()

	if err := o.Boot(ctx); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer o.KillAll()

	if err := o.RunEpochs(ctx); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	glog.Info("orchestrator: emulation complete")
	return nil
}

func parseCacheSize(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
