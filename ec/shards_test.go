/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package ec

import "testing"

func TestSplitObjectProducesRealShards(t *testing.T) {
	shards, err := SplitObject(4000)
	if err != nil {
		t.Fatalf("SplitObject failed: %v", err)
	}
	if len(shards) != TotalShards {
		t.Fatalf("expected %d shards, got %d", TotalShards, len(shards))
	}
	want := ShardSize(4000)
	for i, s := range shards {
		if len(s) != want {
			t.Errorf("shard %d: expected size %d, got %d", i, want, len(s))
		}
	}
}

func TestBookkeeperSeedKeepsShardZero(t *testing.T) {
	b := NewBookkeeper()
	b.Seed("obj-1")
	if !b.HasShard("obj-1", 0) {
		t.Fatalf("expected shard 0 after Seed")
	}
	if b.ShardCount("obj-1") != 1 {
		t.Fatalf("expected 1 shard after Seed, got %d", b.ShardCount("obj-1"))
	}
}

func TestBookkeeperReconstructThreshold(t *testing.T) {
	b := NewBookkeeper()
	b.Seed("obj-1")
	b.AddShard("obj-1", 1)
	if b.ShardCount("obj-1") >= MinReconstructShards {
		t.Fatalf("expected below reconstruct threshold with 2 shards")
	}
	b.AddShard("obj-1", 2)
	if b.ShardCount("obj-1") < MinReconstructShards {
		t.Fatalf("expected reconstruct threshold met with 3 shards")
	}
}
