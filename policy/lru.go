/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import "github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"

func init() {
	Register(cmn.PolicyLRU, func() Policy { return lruPolicy{} })
	Register(cmn.PolicyLRUOnDemand, func() Policy { return lruOnDemandPolicy{} })
}

// lruPolicy is pure local LRU: no neighbor traffic at all (spec §4.6).
type lruPolicy struct{}

func (lruPolicy) Handle(ctx *Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	for i, r := range reqs {
		tag := TagMiss
		if ctx.Cache.Contains(r.ObjectID) {
			tag = TagLocal
		}
		out[i] = Outcome{Request: r, Tag: tag, NeighborSlot: -1, OwnerID: -1, Admit: true}
	}
	return out
}

// lruOnDemandPolicy additionally probes one-hop neighbors on a local miss;
// a neighbor hit counts as a hit and avoids uplink (spec §4.6) — this is
// the "on-demand neighbor recovery" mode named in the purpose/scope (§1).
type lruOnDemandPolicy struct{}

func (lruOnDemandPolicy) Handle(ctx *Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	for i, r := range reqs {
		var o Outcome
		o.Request = r
		o.NeighborSlot, o.OwnerID = -1, -1
		o.Admit = true

		if ctx.Cache.Contains(r.ObjectID) {
			o.Tag = TagLocal
		} else if slot, found := probeNeighbors(ctx, r.ObjectID); found {
			o.Tag = TagRemote
			o.NeighborSlot = slot
		} else {
			o.Tag = TagMiss
		}
		out[i] = o
	}
	return out
}
