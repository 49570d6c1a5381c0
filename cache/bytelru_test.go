package cache_test

import (
	"testing"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
)

func TestByteLRUCapacityInvariant(t *testing.T) {
	c := cache.NewByteLRU(100)
	for i, obj := range []struct {
		id   string
		size int64
	}{{"A", 40}, {"B", 40}, {"C", 40}, {"D", 40}} {
		c.Admit(obj.id, obj.size)
		if c.ByteSize() > c.Capacity() {
			t.Fatalf("after admit #%d: byte_size=%d exceeds capacity=%d", i, c.ByteSize(), c.Capacity())
		}
	}
}

func TestByteLRUS1PureLRU(t *testing.T) {
	c := cache.NewByteLRU(100)

	miss := func(id string) bool { return !c.Contains(id) }

	if !miss("A") {
		t.Fatal("expected A absent before first admit")
	}
	c.Admit("A", 40)
	if !miss("B") {
		t.Fatal("expected B absent")
	}
	c.Admit("B", 40)
	if !miss("C") {
		t.Fatal("expected C absent")
	}
	c.Admit("C", 40)

	// (A,10): admitting C (40+40+40 > 100) evicted A, the least-recent
	// entry, so this is a Miss; A(10) then fits beside C and B (90 <= 100).
	if !miss("A") {
		t.Fatal("expected A evicted (Miss) before re-admit")
	}
	c.Admit("A", 10)

	got := c.IterateMostRecentFirst()
	want := []cache.Entry{{ID: "A", Size: 10}, {ID: "C", Size: 40}, {ID: "B", Size: 40}}
	if len(got) != len(want) {
		t.Fatalf("cache order = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cache order = %+v, want %+v", got, want)
		}
	}
	if c.ByteSize() != 90 {
		t.Fatalf("byte_size = %d, want 90", c.ByteSize())
	}
}

func TestByteLRUIdempotenceOnHit(t *testing.T) {
	c := cache.NewByteLRU(100)
	c.Admit("X", 20)
	before, beforeLen := c.ByteSize(), c.Len()
	c.Admit("X", 20)
	c.Admit("X", 20)
	if c.ByteSize() != before || c.Len() != beforeLen {
		t.Fatalf("repeated admit changed size/len: got (%d,%d), want (%d,%d)",
			c.ByteSize(), c.Len(), before, beforeLen)
	}
	if !c.Contains("X") {
		t.Fatal("expected X present")
	}
}

func TestByteLRUReadmitUpdatesSizeAndMovesMRU(t *testing.T) {
	c := cache.NewByteLRU(100)
	c.Admit("A", 40)
	c.Admit("B", 40)
	c.Admit("A", 10) // re-admission: size shrinks, A moves to MRU

	got := c.IterateMostRecentFirst()
	if got[0].ID != "A" || got[0].Size != 10 {
		t.Fatalf("expected A(10) at MRU, got %+v", got[0])
	}
	if c.ByteSize() != 50 {
		t.Fatalf("byte_size = %d, want 50", c.ByteSize())
	}
}

func TestByteLRUBoundaryZeroSizeIsPureTouch(t *testing.T) {
	c := cache.NewByteLRU(100)
	c.Admit("A", 40)
	c.Admit("B", 0)
	if c.Len() != 2 || c.ByteSize() != 40 {
		t.Fatalf("zero-size admit should not evict: len=%d size=%d", c.Len(), c.ByteSize())
	}
}

func TestByteLRUBoundaryExactCapacityEvictsAll(t *testing.T) {
	c := cache.NewByteLRU(100)
	c.Admit("A", 10)
	c.Admit("B", 20)
	c.Admit("C", 100)
	if c.Len() != 1 || !c.Contains("C") || c.ByteSize() != 100 {
		t.Fatalf("exact-capacity admit should leave exactly one entry: len=%d size=%d", c.Len(), c.ByteSize())
	}
}

func TestByteLRUBoundaryOverCapacityRejected(t *testing.T) {
	c := cache.NewByteLRU(100)
	c.Admit("A", 10)
	c.Admit("B", 101)
	if c.Contains("B") {
		t.Fatal("object larger than capacity must be rejected")
	}
	if c.Len() != 1 || c.ByteSize() != 10 {
		t.Fatalf("cache must be unchanged after oversized admit: len=%d size=%d", c.Len(), c.ByteSize())
	}
}

func TestByteLRUEvictOldest(t *testing.T) {
	c := cache.NewByteLRU(100)
	c.Admit("A", 10)
	c.Admit("B", 20)
	id, size, ok := c.EvictOldest()
	if !ok || id != "A" || size != 10 {
		t.Fatalf("EvictOldest = (%q, %d, %v), want (A, 10, true)", id, size, ok)
	}
	if c.Contains("A") {
		t.Fatal("A should be gone after EvictOldest")
	}
}
