/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import (
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/golang/glog"
)

func init() {
	Register(cmn.PolicyOneHop, func() Policy { return oneHopPolicy{} })
	Register(cmn.PolicyOneHopNoBloom, func() Policy { return oneHopNoBloomPolicy{} })
}

// probeOrder is the fixed neighbor search order from spec §4.6: slot
// 3,2,1,0 i.e. West, East, South, North.
var probeOrder = [cluster.NumSlots]int{cmn.SlotWest, cmn.SlotEast, cmn.SlotSouth, cmn.SlotNorth}

// probeNeighbors checks each populated neighbor slot in probeOrder and
// returns the first one that has objectID, or (-1, false) if none do. A
// PeerUnreachable error on one neighbor is logged and treated as "that
// neighbor doesn't have it" (spec §7) — it does not abort the remaining
// probes.
func probeNeighbors(ctx *Context, objectID string) (slot int, found bool) {
	sat := ctx.Topology.Get(ctx.SatelliteID)
	if sat == nil {
		return -1, false
	}
	for _, slot := range probeOrder {
		nid, ok := sat.Neighbor(slot)
		if !ok || nid == cluster.NoNeighbor {
			continue
		}
		ok2, err := ctx.Neighbors.Check(slot, objectID)
		if err != nil {
			glog.Warningf("sat[%d]: neighbor slot %d unreachable during CHK %s: %v", ctx.SatelliteID, slot, objectID, err)
			continue
		}
		if ok2 {
			return slot, true
		}
	}
	return -1, false
}

// oneHopPolicy: Local if in cache; else probe neighbors; Remote on first
// hit; else Miss. Admit always on miss; on remote hit, admit only if the
// id is already in the seen set (spec §9 Open Question — the unbounded
// "seen" set is here a bounded cuckoo filter). Every handled request adds
// its id to the seen set at once, so an earlier request in the same epoch
// counts as "seen"; the set does not distinguish epochs.
type oneHopPolicy struct{}

func (oneHopPolicy) Handle(ctx *Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	for i, r := range reqs {
		var o Outcome
		o.Request = r
		o.NeighborSlot, o.OwnerID = -1, -1

		switch {
		case ctx.Cache.Contains(r.ObjectID):
			o.Tag = TagLocal
			o.Admit = true
		default:
			if slot, found := probeNeighbors(ctx, r.ObjectID); found {
				o.Tag = TagRemote
				o.NeighborSlot = slot
				o.Admit = ctx.Seen.Lookup([]byte(r.ObjectID))
			} else {
				o.Tag = TagMiss
				o.Admit = true
			}
		}
		ctx.Seen.InsertUnique([]byte(r.ObjectID))
		out[i] = o
	}
	return out
}

// oneHopNoBloomPolicy: same neighbor search, but always admits on any
// non-local outcome (spec §4.6).
type oneHopNoBloomPolicy struct{}

func (oneHopNoBloomPolicy) Handle(ctx *Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	for i, r := range reqs {
		var o Outcome
		o.Request = r
		o.NeighborSlot, o.OwnerID = -1, -1
		o.Admit = true

		switch {
		case ctx.Cache.Contains(r.ObjectID):
			o.Tag = TagLocal
		default:
			if slot, found := probeNeighbors(ctx, r.ObjectID); found {
				o.Tag = TagRemote
				o.NeighborSlot = slot
			} else {
				o.Tag = TagMiss
			}
		}
		out[i] = o
	}
	return out
}
