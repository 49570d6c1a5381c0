// Package ec implements the shard bookkeeping used by the erasure_no_remote
// request-handling policy (spec §4.6): each object is conceptually split
// into cmn.NumErasureShards fragments, and a node "has" a fragment iff its
// local Bookkeeper recorded that index. Reconstruction feasibility (self,
// delegate, or degrade) is decided by the caller (policy.erasurePolicy);
// this package only tracks who-has-what and produces the actual
// Reed-Solomon-encoded shard bytes when a node first seeds metadata for an
// object, grounded on the teacher's ec/respondxaction.go (the erasure
// coding xaction) and its github.com/klauspost/reedsolomon dependency.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package ec

import (
	"github.com/klauspost/reedsolomon"
)

const (
	dataShards   = 4
	parityShards = 1
	// TotalShards is the shard-suffix range 0..4 (glossary): index 0 is
	// the owning node's own copy, 1..4 are the four redistributed
	// erasure fragments (spec §4.6: "split into 4 shards", one per
	// neighbor slot, plus the owner's own index-0 copy).
	TotalShards = dataShards + parityShards
	// MinReconstructShards is the minimum distinct shard count a node
	// plus its neighbors must hold, combined, to reconstruct an object
	// (spec §4.6: "≥ 3 distinct shards").
	MinReconstructShards = 3
)

// ShardSize approximates the per-shard size the source used:
// ⌈orig/4⌉+1 (spec §4.6) — the 4 here is the redistributed-fragment count
// (dataShards), not TotalShards, which also counts the owner's own copy.
func ShardSize(objSize int64) int {
	return int((objSize+int64(dataShards)-1)/int64(dataShards)) + 1
}

// SplitObject produces TotalShards real Reed-Solomon-encoded fragments for
// an object of the given size. The payload content is synthetic (the core
// never holds actual object bytes — only sizes, per spec §3) but the
// encode/decode math is the genuine library, not a stand-in.
func SplitObject(objSize int64) ([][]byte, error) {
	shardSize := ShardSize(objSize)
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	shards := make([][]byte, TotalShards)
	for i := range shards {
		shards[i] = make([]byte, shardSize)
	}
	for i := 0; i < dataShards; i++ {
		for j := range shards[i] {
			shards[i][j] = byte((i*31 + j) % 256)
		}
	}
	if err := enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Bookkeeper tracks, per object id, which shard indices a single node
// currently holds.
type Bookkeeper struct {
	have map[string]map[int]struct{}
}

func NewBookkeeper() *Bookkeeper {
	return &Bookkeeper{have: make(map[string]map[int]struct{})}
}

// Seed records that this node has just produced the shard set for id for
// the first time: it keeps shard 0 (spec §4.6: "the owning node stores
// shard 0").
func (b *Bookkeeper) Seed(id string) {
	b.AddShard(id, 0)
}

func (b *Bookkeeper) AddShard(id string, idx int) {
	set, ok := b.have[id]
	if !ok {
		set = make(map[int]struct{})
		b.have[id] = set
	}
	set[idx] = struct{}{}
}

func (b *Bookkeeper) HasShard(id string, idx int) bool {
	_, ok := b.have[id][idx]
	return ok
}

func (b *Bookkeeper) HasObject(id string) bool {
	_, ok := b.have[id]
	return ok
}

func (b *Bookkeeper) ShardIndices(id string) []int {
	set := b.have[id]
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	return out
}

func (b *Bookkeeper) ShardCount(id string) int {
	return len(b.have[id])
}
