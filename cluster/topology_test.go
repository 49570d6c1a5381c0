/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cluster

import "testing"

func TestNeighborIDsSkipsEmptySlots(t *testing.T) {
	topo := NewTopology("test-uuid")
	topo.Add(&Satellite{ID: 1, Neighbors: [4]int{NoNeighbor, 2, NoNeighbor, 3}})
	topo.Add(&Satellite{ID: 2})
	topo.Add(&Satellite{ID: 3})

	ids := topo.NeighborIDs(1)
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Fatalf("expected [2 3], got %v", ids)
	}
}

func TestNeighborListNeedNotBeSymmetric(t *testing.T) {
	topo := NewTopology("test-uuid")
	topo.Add(&Satellite{ID: 1, Neighbors: [4]int{NoNeighbor, NoNeighbor, NoNeighbor, 2}})
	topo.Add(&Satellite{ID: 2, Neighbors: [4]int{NoNeighbor, NoNeighbor, NoNeighbor, NoNeighbor}})

	if ids := topo.NeighborIDs(2); len(ids) != 0 {
		t.Fatalf("expected satellite 2 to have no neighbors back, got %v", ids)
	}
}

func TestDigestIsStableAndDistinct(t *testing.T) {
	a := &Satellite{ID: 1}
	b := &Satellite{ID: 2}
	if a.Digest() != a.Digest() {
		t.Fatalf("Digest should be stable across calls")
	}
	if a.Digest() == b.Digest() {
		t.Fatalf("expected distinct digests for distinct ids")
	}
}
