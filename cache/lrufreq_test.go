package cache_test

import (
	"testing"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
)

func TestLRUFreqBucketConsistency(t *testing.T) {
	c := cache.NewLRUFreq(1000)
	c.Admit("A", 10)
	c.Admit("B", 10)
	c.Admit("A", 10) // freq A: 1 -> 2
	c.Admit("A", 10) // freq A: 2 -> 3

	if got := c.Freq("A"); got != 3 {
		t.Fatalf("freq(A) = %d, want 3", got)
	}
	if got := c.Freq("B"); got != 1 {
		t.Fatalf("freq(B) = %d, want 1", got)
	}

	order := c.IterateMostFrequentFirst()
	if len(order) != 2 || order[0].ID != "A" || order[1].ID != "B" {
		t.Fatalf("most-frequent-first = %+v, want [A, B]", order)
	}
}

func TestLRUFreqS6SetFreqOverride(t *testing.T) {
	c := cache.NewLRUFreq(1000)
	c.Admit("X", 10) // freq=1
	c.SetFreq("X", 5)

	if got := c.Freq("X"); got != 5 {
		t.Fatalf("freq(X) = %d, want 5", got)
	}
	order := c.IterateMostFrequentFirst()
	if len(order) != 1 || order[0].ID != "X" {
		t.Fatalf("expected X as sole most-frequent entry, got %+v", order)
	}
}

func TestLRUFreqEvictionIsRecencyNotFrequency(t *testing.T) {
	c := cache.NewLRUFreq(20)
	c.Admit("A", 10)
	c.Admit("A", 10) // A freq=2, most recent
	c.Admit("B", 10) // B freq=1, but more recent than A's first touch
	c.Admit("C", 10) // forces eviction: A (freq 2, least-recent) still evicted over B

	if c.Contains("A") {
		t.Fatal("recency-based eviction should drop A (least-recently-used) regardless of its higher frequency")
	}
	if !c.Contains("B") || !c.Contains("C") {
		t.Fatal("B and C should remain")
	}
}

func TestLRUFreqMostRecentIgnoresFrequency(t *testing.T) {
	c := cache.NewLRUFreq(1000)
	c.Admit("A", 10)
	c.Admit("B", 10)
	c.Admit("A", 10) // A freq bumped, also MRU
	c.Admit("C", 10) // C now MRU

	order := c.IterateMostRecentFirst()
	if len(order) != 3 || order[0].ID != "C" || order[1].ID != "A" || order[2].ID != "B" {
		t.Fatalf("most-recent-first = %+v, want [C, A, B]", order)
	}
}

func TestLRUFreqCapacityInvariant(t *testing.T) {
	c := cache.NewLRUFreq(50)
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		c.Admit(id, 20)
		if c.ByteSize() > c.Capacity() {
			t.Fatalf("byte_size=%d exceeds capacity=%d after admitting %s", c.ByteSize(), c.Capacity(), id)
		}
	}
}

func TestLRUFreqOversizedRejected(t *testing.T) {
	c := cache.NewLRUFreq(50)
	c.Admit("A", 51)
	if c.Contains("A") {
		t.Fatal("object larger than capacity must be rejected")
	}
}
