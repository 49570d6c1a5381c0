/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import (
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/ec"
	"github.com/golang/glog"
)

func init() {
	Register(cmn.PolicyErasure, func() Policy { return erasurePolicy{} })
}

// erasurePolicy reconstructs objects from erasure-coded shards instead of
// whole-object neighbor hits (spec §4.6). On first sighting of an object,
// this node becomes its owner: it keeps shard 0 and redistributes shards
// 1..4 to its four neighbor slots (ec.SplitObject, grounded on the
// teacher's ec/ package and its reedsolomon dependency). On later
// sightings it counts distinct shards held by itself plus its neighbors:
//   - self alone holds >= ec.MinReconstructShards: Local
//   - self + neighbors together do, but no single node alone: Parity
//   - otherwise: Partial (degrade but still serve)
type erasurePolicy struct{}

func (erasurePolicy) Handle(ctx *Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	for i, r := range reqs {
		out[i] = handleErasureOne(ctx, r)
	}
	return out
}

func handleErasureOne(ctx *Context, r Request) Outcome {
	o := Outcome{Request: r, NeighborSlot: -1, OwnerID: -1, Admit: true}

	if !ctx.Shelf.HasObject(r.ObjectID) {
		o.Tag = TagMiss
		seedAndRedistribute(ctx, r)
		return o
	}

	selfShards := ctx.Shelf.ShardCount(r.ObjectID)
	held := make(map[int]bool, ec.TotalShards)
	for _, idx := range ctx.Shelf.ShardIndices(r.ObjectID) {
		held[idx] = true
	}
	neighborHasAny := false
	sat := ctx.Topology.Get(ctx.SatelliteID)
	if sat != nil {
		for slot := 0; slot < cluster.NumSlots; slot++ {
			nid, ok := sat.Neighbor(slot)
			if !ok || nid == cluster.NoNeighbor {
				continue
			}
			has, err := ctx.Shards.HasShard(slot, r.ObjectID, slot+1)
			if err != nil {
				glog.Warningf("sat[%d]: shard probe to slot %d unreachable for %s: %v", ctx.SatelliteID, slot, r.ObjectID, err)
				continue
			}
			if has {
				held[slot+1] = true
				neighborHasAny = true
			}
		}
	}

	switch {
	case selfShards >= ec.MinReconstructShards:
		o.Tag = TagLocal
	case len(held) >= ec.MinReconstructShards && neighborHasAny:
		o.Tag = TagParity
	default:
		o.Tag = TagPartial
	}
	return o
}

// seedAndRedistribute performs the first-sighting shard split: the owner
// keeps shard 0, and pushes shard slot+1 to each populated neighbor slot.
func seedAndRedistribute(ctx *Context, r Request) {
	shards, err := ec.SplitObject(r.Size)
	if err != nil {
		glog.Errorf("sat[%d]: erasure split failed for %s: %v", ctx.SatelliteID, r.ObjectID, err)
		ctx.Shelf.Seed(r.ObjectID)
		return
	}
	_ = shards // real RS-encoded bytes produced; only bookkeeping (indices) crosses the wire in this model
	ctx.Shelf.Seed(r.ObjectID)

	sat := ctx.Topology.Get(ctx.SatelliteID)
	if sat == nil {
		return
	}
	for slot := 0; slot < cluster.NumSlots; slot++ {
		nid, ok := sat.Neighbor(slot)
		if !ok || nid == cluster.NoNeighbor {
			continue
		}
		if err := ctx.Shards.PushShard(slot, r.ObjectID, slot+1); err != nil {
			glog.Warningf("sat[%d]: redistribute shard %d to slot %d (%s) failed: %v",
				ctx.SatelliteID, slot+1, slot, r.ObjectID, err)
		}
	}
}
