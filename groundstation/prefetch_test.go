/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package groundstation

import (
	"testing"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
)

type fakeProbe struct {
	has map[string]bool
}

func (f fakeProbe) Check(slot int, objectID string) (bool, error) {
	return f.has[objectID], nil
}

// TestPrefetchS5UplinkDisallowed is the literal scenario from spec §8 S5.
func TestPrefetchS5UplinkDisallowed(t *testing.T) {
	local := cache.NewByteLRU(1000)
	probe := fakeProbe{has: map[string]bool{"B": true}}
	candidates := []cache.Entry{
		{ID: "A", Size: 40},
		{ID: "B", Size: 40},
		{ID: "C", Size: 40},
	}

	out := Run(candidates, 100, false, local, probe)

	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(out))
	}
	if out[0].Class != ClassSkip {
		t.Errorf("A: expected skip, got %s", out[0].Class)
	}
	if out[1].Class != ClassISL {
		t.Errorf("B: expected isl, got %s", out[1].Class)
	}
	if out[2].Class != ClassSkip {
		t.Errorf("C: expected skip, got %s", out[2].Class)
	}
	if !local.Contains("B") || local.ByteSize() != 40 {
		t.Errorf("expected local cache {B:40}, got size=%d contains(B)=%v", local.ByteSize(), local.Contains("B"))
	}
}

func TestPrefetchInCacheDoesNotSpendBudget(t *testing.T) {
	local := cache.NewByteLRU(1000)
	local.Admit("X", 50)
	probe := fakeProbe{}
	out := Run([]cache.Entry{{ID: "X", Size: 50}}, 0, false, local, probe)
	if out[0].Class != ClassInCache {
		t.Errorf("expected in_cache, got %s", out[0].Class)
	}
}

func TestPrefetchUplinkAllowed(t *testing.T) {
	local := cache.NewByteLRU(1000)
	probe := fakeProbe{}
	out := Run([]cache.Entry{{ID: "Z", Size: 10}}, 100, true, local, probe)
	if out[0].Class != ClassUplink {
		t.Errorf("expected uplink, got %s", out[0].Class)
	}
	if !local.Contains("Z") {
		t.Errorf("expected Z admitted locally")
	}
}
