/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import "github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"

func init() {
	Register(cmn.PolicyLocalOnly, func() Policy { return localOnlyPolicy{} })
}

// localOnlyPolicy never consults neighbors: Local iff in cache, else Miss;
// admit always (spec §4.6).
type localOnlyPolicy struct{}

func (localOnlyPolicy) Handle(ctx *Context, reqs []Request) []Outcome {
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
