/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import (
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/OneOfOne/xxhash"
	"github.com/golang/glog"
)

func init() {
	Register(cmn.PolicyHashCheck, func() Policy { return hashCheckPolicy{} })
}

// hashCheckPolicy deterministically routes an object to one of
// cmn.NumColorBuckets color buckets, finds that color's owner satellite
// via a depth-bounded BFS from this node (cached for the run), and
// forwards the request record to the owner for recording (spec §4.6).
type hashCheckPolicy struct{}

func (hashCheckPolicy) Handle(ctx *Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	for i, r := range reqs {
		out[i] = handleHashCheckOne(ctx, r)
	}
	return out
}

func handleHashCheckOne(ctx *Context, r Request) Outcome {
	o := Outcome{Request: r, NeighborSlot: -1, OwnerID: -1, Admit: true}

	baseColor := int(xxhash.ChecksumString32(r.ObjectID)) % cmn.NumColorBuckets
	if baseColor < 0 {
		baseColor += cmn.NumColorBuckets
	}

	owner := -1
	for step := 0; step < cmn.NumColorBuckets; step++ {
		color := (baseColor + step) % cmn.NumColorBuckets
		if o, ok := ctx.resolveColorOwner(color); ok {
			owner = o
			break
		}
	}

	if owner == -1 {
		// spec §9 Open Question: leave unresolved, log at debug, do not guess.
		if glog.V(4) {
			glog.Infof("sat[%d]: hash_check found no color owner for %s (base color %d) within depth %d",
				ctx.SatelliteID, r.ObjectID, baseColor, cmn.HashCheckMaxDepth)
		}
		o.Tag = TagMiss
		return o
	}

	if owner == ctx.SatelliteID {
		if ctx.Cache.Contains(r.ObjectID) {
			o.Tag = TagLocal
		} else {
			o.Tag = TagMiss
		}
		return o
	}

	if err := ctx.Forward.Forward(owner, r); err != nil {
		glog.Warningf("sat[%d]: hash_check forward to owner %d failed for %s: %v", ctx.SatelliteID, owner, r.ObjectID, err)
		o.Tag = TagMiss
		return o
	}
	o.Tag = TagForward
	o.OwnerID = owner
	o.Admit = false // recording happens at the owner; this node doesn't cache it
	return o
}

// resolveColorOwner returns the satellite id owning color, discovering and
// caching it via BFS (depth <= cmn.HashCheckMaxDepth) on first use.
func (ctx *Context) resolveColorOwner(color int) (int, bool) {
	if owner, ok := ctx.colorTable[color]; ok {
		return owner, owner != -1
	}
	owner := bfsFindColorOwner(ctx.Topology, ctx.SatelliteID, color)
	ctx.colorTable[color] = owner
	return owner, owner != -1
}

// bfsFindColorOwner searches outward from start, depth-bounded, for the
// first satellite whose digest (cluster.Satellite.Digest(), the same
// identity hash the teacher's Snode.Digest() contributes to placement
// decisions) falls in color. Returns -1 if none is found within the depth
// cutoff (spec §9: "stops expanding at depth 4; whether color discovery
// should continue beyond depth 4 ... is unspecified ... do not guess").
func bfsFindColorOwner(topo *cluster.Topology, start, color int) int {
	if colorOf(topo, start) == color {
		return start
	}
	visited := map[int]bool{start: true}
	frontier := []int{start}
	for depth := 1; depth <= cmn.HashCheckMaxDepth; depth++ {
		var next []int
		for _, id := range frontier {
			for _, nid := range topo.NeighborIDs(id) {
				if visited[nid] {
					continue
				}
				visited[nid] = true
				if colorOf(topo, nid) == color {
					return nid
				}
				next = append(next, nid)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return -1
}

// colorOf returns a satellite's color bucket, derived from its digest
// rather than its raw id so the bucket assignment doesn't just mirror
// id%NumColorBuckets. Returns -1 for an id absent from the topology.
func colorOf(topo *cluster.Topology, id int) int {
	sat := topo.Get(id)
	if sat == nil {
		return -1
	}
	return int(sat.Digest() % cmn.NumColorBuckets)
}
