// Package orchestrator boots the satellite constellation, exchanges the
// topology, and drives the global epoch clock through a bounded worker pool
// (spec §4.7). It is the only component with a process-level view of the
// whole run.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package orchestrator

import (
	"os"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
)

// ModelConfig is one "models" entry of a node record (spec §6) — only the
// ModelCDNProvider neighbor list is consumed by the core.
type ModelConfig struct {
	IName     string `json:"iname"`
	Neighbors [4]int `json:"neighbors"`
}

// NodeConfig is one satellite entry in the emulation config (spec §6).
type NodeConfig struct {
	Type   string        `json:"type"`
	NodeID int           `json:"nodeid"`
	Trace  string        `json:"trace"`
	Models []ModelConfig `json:"models"`

	// Lat/Lon are the node's static position (SPEC_FULL.md §4.5 supplement:
	// no orbit propagation, so the closest-ground-station distance uses a
	// fixed position supplied here rather than computed).
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GroundStationConfig is one ground station entry in the emulation config
// (SPEC_FULL.md §4.5 supplement).
type GroundStationConfig struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type topologyBlock struct {
	Nodes []NodeConfig `json:"nodes"`
}

// SimTime is the emulation config's "simtime" block (spec §6).
type SimTime struct {
	StartTime string `json:"starttime"`
	EndTime   string `json:"endtime"`
	Delta     int    `json:"delta"`
}

type simLogSetup struct {
	LogFolder string `json:"logfolder"`
}

// EmulationConfig is the top-level emulation config JSON (spec §6).
type EmulationConfig struct {
	Topologies     []topologyBlock       `json:"topologies"`
	SimTime        SimTime               `json:"simtime"`
	SimLogSetup    simLogSetup           `json:"simlogsetup"`
	GroundStations []GroundStationConfig `json:"groundstations"`
}

// LoadEmulationConfig reads and validates the emulation config (spec §7
// ConfigInvalid: "missing required field; reject at startup with a specific
// message").
func LoadEmulationConfig(path string) (*EmulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cmn.ConfigInvalidf("read emulation config %s: %v", path, err)
	}
	var cfg EmulationConfig
	if err := cmn.JSON.Unmarshal(data, &cfg); err != nil {
		return nil, cmn.ConfigInvalidf("parse emulation config %s: %v", path, err)
	}
	if len(cfg.Topologies) == 0 || len(cfg.Topologies[0].Nodes) == 0 {
		return nil, cmn.ConfigInvalidf("emulation config %s: no satellite nodes", path)
	}
	if cfg.SimTime.StartTime == "" || cfg.SimTime.Delta == 0 {
		return nil, cmn.ConfigInvalidf("emulation config %s: missing simtime fields", path)
	}
	return &cfg, nil
}

// Nodes returns the flattened satellite node list across all topology
// blocks (the emulation config nests nodes one level deeper than the core
// needs).
func (c *EmulationConfig) Nodes() []NodeConfig {
	var out []NodeConfig
	for _, tb := range c.Topologies {
		out = append(out, tb.Nodes...)
	}
	return out
}

// neighborsOf returns a node's neighbor list, preferring its first
// ModelCDNProvider entry (spec §6).
func (n NodeConfig) neighborsOf() [4]int {
	for _, m := range n.Models {
		if m.IName == "ModelCDNProvider" {
			return m.Neighbors
		}
	}
	return [4]int{cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor}
}

// NeighborMap is the logical-neighbor override file (spec §6): maps each
// node id, as a string, to a 4-element neighbor array that overrides what
// is in the node record.
type NeighborMap map[string][4]int

func LoadNeighborMap(path string) (NeighborMap, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cmn.ConfigInvalidf("read neighbor map %s: %v", path, err)
	}
	var m NeighborMap
	if err := cmn.JSON.Unmarshal(data, &m); err != nil {
		return nil, cmn.ConfigInvalidf("parse neighbor map %s: %v", path, err)
	}
	return m, nil
}

// ParseStartTime parses the simtime.starttime field.
func (c *EmulationConfig) ParseStartTime() (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", c.SimTime.StartTime)
}

// ParseEndTime parses the simtime.endtime field.
func (c *EmulationConfig) ParseEndTime() (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", c.SimTime.EndTime)
}
