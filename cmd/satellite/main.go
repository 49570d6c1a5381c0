/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/satellite"
	"github.com/golang/glog"
)

// main is the per-satellite process entrypoint the orchestrator spawns
// (spec §4.7 step 1). It opens a listening socket, sends REGR, then serves
// the wire protocol until KILL.
func main() {
	id := flag.Int("id", -1, "satellite id")
	orchestratorAddr := flag.String("orchestrator-addr", "", "orchestrator REGR address")
	logDir := flag.String("log-dir", "", "per-satellite log directory")
	timeOffsetSec := flag.Int64("time-offset", 0, "trace-to-emulation time offset, seconds")
	flag.Parse()

	if *id < 0 || *orchestratorAddr == "" {
		glog.Fatalf("satellite: -id and -orchestrator-addr are required")
	}

	node := satellite.NewNode(*id)
	server := satellite.NewServer(node, *logDir, time.Duration(*timeOffsetSec)*time.Second)

	addr, err := server.Listen()
	if err != nil {
		glog.Fatalf("satellite %d: listen failed: %v", *id, err)
	}
	if err := server.Register(*orchestratorAddr, *id, addr); err != nil {
		glog.Fatalf("satellite %d: REGR failed: %v", *id, err)
	}

	glog.Infof("satellite %d: listening on %s, registered with orchestrator at %s", *id, addr, *orchestratorAddr)
	server.Serve()
}
