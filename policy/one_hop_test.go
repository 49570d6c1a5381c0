/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import (
	"testing"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
)

type fakeNeighbors struct {
	has map[int]map[string]bool
}

func (f fakeNeighbors) Check(slot int, objectID string) (bool, error) {
	return f.has[slot][objectID], nil
}

func newTestTopo(selfID int, neighbors [4]int) *cluster.Topology {
	topo := cluster.NewTopology("test")
	topo.Add(&cluster.Satellite{ID: selfID, Neighbors: neighbors})
	return topo
}

// TestOneHopNeighborHit is the literal scenario from spec §8 S2: a local
// miss that a one-hop neighbor answers is a Remote outcome, not a Miss.
func TestOneHopNeighborHit(t *testing.T) {
	topo := newTestTopo(1, [4]int{cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor, 2})
	c := cache.NewByteLRU(1000)
	neighbors := fakeNeighbors{has: map[int]map[string]bool{cmn.SlotWest: {"obj-1": true}}}
	ctx := NewContext(1, topo, c, neighbors, nil, nil)

	out := oneHopPolicy{}.Handle(ctx, []Request{{ObjectID: "obj-1", Size: 10}})

	if out[0].Tag != TagRemote {
		t.Fatalf("expected Remote, got %s", out[0].Tag)
	}
	if out[0].NeighborSlot != cmn.SlotWest {
		t.Errorf("expected neighbor slot %d, got %d", cmn.SlotWest, out[0].NeighborSlot)
	}
	// Not previously seen, so one_hop must not admit on a remote hit.
	if out[0].Admit {
		t.Errorf("expected no admission on first-seen remote hit")
	}

	// Second time around the same id has been seen, so it is now admitted.
	out2 := oneHopPolicy{}.Handle(ctx, []Request{{ObjectID: "obj-1", Size: 10}})
	if !out2[0].Admit {
		t.Errorf("expected admission on second-seen remote hit")
	}
}
