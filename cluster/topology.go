// Package cluster holds the run's topology: the fixed neighbor graph over
// satellites and the ground stations they pull prefetch recommendations
// from. It is the generalization of the teacher's Smap/Snode pair to a
// single node type (no separate proxy/target split is needed here).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cluster

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// Neighbor slot indices, matching cmn.Slot{North,South,East,West}.
const NumSlots = 4

// NoNeighbor marks an empty neighbor slot.
const NoNeighbor = -1

type (
	// GroundStation is a fixed lat/lon location offering a prefetch feed.
	GroundStation struct {
		ID  string  `json:"id"`
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}

	// Satellite is one node in the constellation: its id, its ordered
	// [N,S,E,W] neighbor list (spec §3), its trace path, its listening
	// address once registered, and its instantaneous position (used only
	// for closest-ground-station distance; no orbit propagation lives
	// here — positions are supplied, not computed, per spec §1 Non-goals).
	Satellite struct {
		ID        int     `json:"nodeid"`
		Neighbors [4]int  `json:"neighbors"`
		Trace     string  `json:"trace"`
		Addr      string  `json:"addr"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`

		digest uint64
	}

	// Topology is the fixed, run-start neighbor graph plus ground station
	// set, versioned the way cluster.Smap is in the teacher (a UUID
	// stamped once and shared byte-for-byte with every satellite at CONF).
	Topology struct {
		UUID           string                    `json:"uuid"`
		Satellites     map[int]*Satellite        `json:"satellites"`
		GroundStations map[string]*GroundStation `json:"ground_stations"`
	}
)

// Digest returns a stable hash of the satellite's identity, used by the
// hash_check policy's color-bucket-to-owner lookup (spec §4.6) and for log
// correlation, grounded directly on cluster.Snode.Digest() in the teacher.
func (s *Satellite) Digest() uint64 {
	if s.digest == 0 {
		s.digest = xxhash.ChecksumString64(fmt.Sprintf("sat-%d", s.ID))
	}
	return s.digest
}

// Neighbor returns the neighbor id in the given slot, and whether that slot
// is populated (slot value != NoNeighbor). The neighbor list is NOT
// required to be symmetric (spec §3) — callers must not assume it.
func (s *Satellite) Neighbor(slot int) (id int, ok bool) {
	if slot < 0 || slot >= NumSlots {
		return NoNeighbor, false
	}
	id = s.Neighbors[slot]
	return id, id != NoNeighbor
}

func NewTopology(uuid string) *Topology {
	return &Topology{
		UUID:           uuid,
		Satellites:     make(map[int]*Satellite),
		GroundStations: make(map[string]*GroundStation),
	}
}

func (t *Topology) Add(s *Satellite) { t.Satellites[s.ID] = s }

func (t *Topology) Get(id int) *Satellite { return t.Satellites[id] }

// NeighborIDs returns the populated neighbor ids of id, in [N,S,E,W] slot
// order, skipping empty slots.
func (t *Topology) NeighborIDs(id int) []int {
	s := t.Get(id)
	if s == nil {
		return nil
	}
	out := make([]int, 0, NumSlots)
	for slot := 0; slot < NumSlots; slot++ {
		if nid, ok := s.Neighbor(slot); ok {
			out = append(out, nid)
		}
	}
	return out
}
