/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"fmt"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/policy"
	"github.com/pkg/errors"
)

// neighborOracle implements policy.NeighborOracle, policy.ShardOracle, and
// policy.ForwardOracle against a node's persistent per-neighbor ISL
// sockets (spec §4.3, §9: "one persistent socket per neighbor ... serialized
// ... behind the per-neighbor mutex" — serialization itself lives in
// transport.Conn, this type only picks the right Conn and speaks the wire
// protocol over it).
type neighborOracle struct {
	n *Node
}

type chkPayload struct {
	ObjectID string `json:"object_id"`
	ShardIdx int    `json:"shard_idx,omitempty"`
}

type pushShardPayload struct {
	ObjectID string `json:"object_id"`
	ShardIdx int    `json:"shard_idx"`
}

type forwardPayload struct {
	ObjectID string `json:"object_id"`
	Size     int64  `json:"size"`
}

// Check probes whole-object membership on the neighbor at slot (the
// one_hop/lru_on_demand CHK round trip, spec §4.4 "Neighbor membership
// probe"). A transport failure is surfaced as err; callers MUST treat it as
// a miss, never a hit (spec §7 PeerUnreachable).
func (o *neighborOracle) Check(slot int, objectID string) (bool, error) {
	conn := o.n.neighborConns[slot]
	if conn == nil {
		return false, errors.Errorf("no ISL connection for slot %d", slot)
	}
	payload := cmn.MustMarshal(chkPayload{ObjectID: objectID})
	_, resp, err := conn.Request(cmn.VerbChk, payload)
	if err != nil {
		o.n.closeNeighbor(slot)
		return false, cmn.PeerUnreachablef(neighborLabel(o.n.topo, o.n.id, slot), err)
	}
	return string(resp) == cmn.TokenFound, nil
}

// HasShard probes erasure-shard possession on the neighbor at slot
// (erasure_no_remote policy's distinct-shard count).
func (o *neighborOracle) HasShard(slot int, objectID string, shardIdx int) (bool, error) {
	conn := o.n.neighborConns[slot]
	if conn == nil {
		return false, errors.Errorf("no ISL connection for slot %d", slot)
	}
	payload := cmn.MustMarshal(chkPayload{ObjectID: objectID, ShardIdx: shardIdx})
	_, resp, err := conn.Request(cmn.VerbChk, payload)
	if err != nil {
		o.n.closeNeighbor(slot)
		return false, cmn.PeerUnreachablef(neighborLabel(o.n.topo, o.n.id, slot), err)
	}
	return string(resp) == cmn.TokenFound, nil
}

// PushShard redistributes one erasure shard to the neighbor at slot
// (erasure_no_remote's "redistribute(suffix=i+1) on each of its four
// neighbors").
func (o *neighborOracle) PushShard(slot int, objectID string, shardIdx int) error {
	conn := o.n.neighborConns[slot]
	if conn == nil {
		return errors.Errorf("no ISL connection for slot %d", slot)
	}
	payload := cmn.MustMarshal(pushShardPayload{ObjectID: objectID, ShardIdx: shardIdx})
	if _, _, err := conn.Request(cmn.VerbPref, payload); err != nil {
		o.n.closeNeighbor(slot)
		return cmn.PeerUnreachablef(neighborLabel(o.n.topo, o.n.id, slot), err)
	}
	return nil
}

// Forward delivers a request record to a remote color-bucket owner
// (hash_check policy). The owner need not be a direct ISL neighbor, so this
// dials (and caches) a dedicated connection by satellite id rather than by
// slot.
func (o *neighborOracle) Forward(ownerID int, req policy.Request) error {
	conn, err := o.n.forwardConn(ownerID)
	if err != nil {
		return err
	}
	payload := cmn.MustMarshal(forwardPayload{ObjectID: req.ObjectID, Size: req.Size})
	if _, _, err := conn.Request(cmn.VerbReq, payload); err != nil {
		o.n.dropForwardConn(ownerID)
		return cmn.PeerUnreachablef(forwardLabel(ownerID), err)
	}
	return nil
}

func neighborLabel(topo *cluster.Topology, selfID, slot int) string {
	sat := topo.Get(selfID)
	if sat == nil {
		return fmt.Sprintf("slot-%d", slot)
	}
	nid, ok := sat.Neighbor(slot)
	if !ok {
		return fmt.Sprintf("slot-%d", slot)
	}
	return forwardLabel(nid)
}

func forwardLabel(id int) string { return fmt.Sprintf("sat-%d", id) }
