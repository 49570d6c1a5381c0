/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package groundstation

import (
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
)

// NeighborProbe checks one-hop ISL membership, the same contract
// policy.NeighborOracle uses for the one_hop request-handling policy, kept
// as its own interface here so the prefetch loop doesn't depend on the
// policy package.
type NeighborProbe interface {
	Check(slot int, objectID string) (bool, error)
}

// probeOrder matches the one_hop policy's fixed search order (spec §4.6):
// West, East, South, North.
var probeOrder = [cluster.NumSlots]int{3, 2, 1, 0}

// Class is the per-candidate prefetch outcome (spec §4.5).
type Class string

const (
	ClassInCache Class = "in_cache"
	ClassISL     Class = "isl"
	ClassUplink  Class = "uplink"
	ClassSkip    Class = "skip"
)

// Outcome is one candidate's prefetch decision.
type Outcome struct {
	ObjectID string
	Size     int64
	Class    Class
	Slot     int // -1 unless Class == ClassISL
}

// Run drives the prefetch budget loop (spec §4.5): for each candidate, in
// order, until cumulative ISL+uplink bytes exceed budget: count an
// already-cached id as in_cache (no admission, no budget spent); route
// through the first one-hop neighbor that has it (admit locally, spend
// budget, tag the ISL slot); else admit via uplink if allowed; else skip
// without admitting.
func Run(candidates []cache.Entry, budget int64, allowUplink bool, localCache *cache.ByteLRU, probe NeighborProbe) []Outcome {
	var spent int64
	out := make([]Outcome, 0, len(candidates))

	for _, cand := range candidates {
		if spent > budget {
			break // spec §7 BudgetExhausted: terminate the loop normally
		}
		o := Outcome{ObjectID: cand.ID, Size: cand.Size, Slot: -1}

		switch {
		case localCache.Contains(cand.ID):
			o.Class = ClassInCache
		default:
			if slot, found := probeISL(probe, cand.ID); found {
				o.Class = ClassISL
				o.Slot = slot
				localCache.Admit(cand.ID, cand.Size)
				spent += cand.Size
			} else if allowUplink {
				o.Class = ClassUplink
				localCache.Admit(cand.ID, cand.Size)
				spent += cand.Size
			} else {
				o.Class = ClassSkip
			}
		}
		out = append(out, o)
	}
	return out
}

func probeISL(probe NeighborProbe, objectID string) (slot int, found bool) {
	if probe == nil {
		return -1, false
	}
	for _, slot := range probeOrder {
		ok, err := probe.Check(slot, objectID)
		if err != nil {
			continue // treat an unreachable neighbor as "doesn't have it" (spec §7)
		}
		if ok {
			return slot, true
		}
	}
	return -1, false
}
