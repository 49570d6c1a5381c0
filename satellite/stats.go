/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"fmt"
	"sort"
	"strings"
)

// LatencyKey is one (up2, down2, cost) bucket of the per-epoch latency
// histogram (spec §4.4 step 3, §6): cost is 2 for a hit (local or neighbor)
// and 4 for an uplink miss; down2 carries a +6 offset for anything that
// wasn't a local hit.
type LatencyKey struct {
	Up2   int
	Down2 int
	Cost  int
}

// latencyKeyFor derives the histogram key for one request's outcome, per
// spec §4.4 step 3: (up*2, down*2+{0,6,6}, {2,2,4}) for {local, neighbor,
// uplink} respectively.
func latencyKeyFor(up, down int, outcome outcomeClass) LatencyKey {
	switch outcome {
	case outcomeLocal:
		return LatencyKey{Up2: up * 2, Down2: down*2 + 0, Cost: 2}
	case outcomeNeighbor:
		return LatencyKey{Up2: up * 2, Down2: down*2 + 6, Cost: 2}
	default: // outcomeUplink
		return LatencyKey{Up2: up * 2, Down2: down*2 + 6, Cost: 4}
	}
}

type outcomeClass int

const (
	outcomeLocal outcomeClass = iota
	outcomeNeighbor
	outcomeUplink
)

// Counters accumulates one epoch's worth of request-handling results for one
// satellite (spec §4.4 step 3).
type Counters struct {
	TotalObj, TotalByte       int64
	HitObj, HitByte           int64
	HitObjNeigh, HitByteNeigh int64
	HitObjPref, HitBytePref   int64

	// latUpSum/latDownSum sum the raw up/down latency of every request this
	// epoch, hit or miss (sat.py:110-111: latency_array[0] += latency[0],
	// latency_array[1] += latency[1] unconditionally). latNeighborBonus is
	// the "+3 per neighbor-pair" a neighbor hit adds on top (sat.py:124-125).
	latUpSum, latDownSum, latNeighborBonus int64

	Latency map[LatencyKey]int64
}

func newCounters() Counters {
	return Counters{Latency: make(map[LatencyKey]int64)}
}

// Record folds one request's outcome into the counters. fromPrefetch
// marks a hit that was satisfied out of a previously-prefetched object
// (hit_obj_pref/hit_byte_pref), an orthogonal tally to the local/neighbor
// split (spec §6's [Data] line carries both).
func (c *Counters) Record(size int64, up, down int, cls outcomeClass, fromPrefetch bool) {
	c.TotalObj++
	c.TotalByte += size
	switch cls {
	case outcomeLocal:
		c.HitObj++
		c.HitByte += size
	case outcomeNeighbor:
		c.HitObj++
		c.HitByte += size
		c.HitObjNeigh++
		c.HitByteNeigh += size
	}
	if fromPrefetch && cls == outcomeLocal {
		c.HitObjPref++
		c.HitBytePref += size
	}
	c.latUpSum += int64(up)
	c.latDownSum += int64(down)
	if cls == outcomeNeighbor {
		c.latNeighborBonus += 3
	}
	c.Latency[latencyKeyFor(up, down, cls)]++
}

// lat4 reports the four lat0..lat3 slots of the [Data] line (sat.py:110-111,
// 124-125): l0 is the epoch's total up latency, l1 its total down latency
// plus the neighbor-pair bonus, l2 is unused by this topology's neighbor
// query order, l3 carries the neighbor-pair bonus alone.
func (c *Counters) lat4() (l0, l1, l2, l3 int64) {
	return c.latUpSum, c.latDownSum + c.latNeighborBonus, 0, c.latNeighborBonus
}

// DataLine formats the [Data] log line (spec §6).
func (c *Counters) DataLine(t int64) string {
	l0, l1, l2, l3 := c.lat4()
	return fmt.Sprintf("[Data]: %d, [%d, %d, %d, %d, %d, %d, %d, %d, %d, %d, %d, %d]",
		t, c.TotalObj, c.TotalByte, c.HitObj, c.HitByte, c.HitObjNeigh, c.HitByteNeigh,
		l0, l1, l2, l3, c.HitObjPref, c.HitBytePref)
}

// LatencyLine formats the [Latency] log line (spec §6), with buckets sorted
// for deterministic output across runs (spec §4.6: "iteration order of hash
// maps ... MUST be eliminated").
func (c *Counters) LatencyLine() string {
	keys := make([]LatencyKey, 0, len(c.Latency))
	for k := range c.Latency {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Up2 != keys[j].Up2 {
			return keys[i].Up2 < keys[j].Up2
		}
		if keys[i].Down2 != keys[j].Down2 {
			return keys[i].Down2 < keys[j].Down2
		}
		return keys[i].Cost < keys[j].Cost
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("(%d, %d, %d): %d", k.Up2, k.Down2, k.Cost, c.Latency[k]))
	}
	return "[Latency]: {" + strings.Join(parts, ", ") + "}"
}

// LatencyBucket is one JSON-serializable row of the latency histogram; the
// wire payload can't carry Counters.Latency directly since a struct-keyed
// Go map has no JSON representation.
type LatencyBucket struct {
	Up2   int   `json:"up2"`
	Down2 int   `json:"down2"`
	Cost  int   `json:"cost"`
	Count int64 `json:"count"`
}

// Summary is the wire-safe ACK payload for an epoch tick (spec §4.4 step 5:
// "reply ACK with the counters").
type Summary struct {
	TotalObj     int64 `json:"total_obj"`
	TotalByte    int64 `json:"total_byte"`
	HitObj       int64 `json:"hit_obj"`
	HitByte      int64 `json:"hit_byte"`
	HitObjNeigh  int64 `json:"hit_obj_neigh"`
	HitByteNeigh int64 `json:"hit_byte_neigh"`
	HitObjPref   int64 `json:"hit_obj_pref"`
	HitBytePref  int64 `json:"hit_byte_pref"`

	Latency []LatencyBucket `json:"latency"`
}

func (c *Counters) Summary() Summary {
	sum := Summary{
		TotalObj: c.TotalObj, TotalByte: c.TotalByte,
		HitObj: c.HitObj, HitByte: c.HitByte,
		HitObjNeigh: c.HitObjNeigh, HitByteNeigh: c.HitByteNeigh,
		HitObjPref: c.HitObjPref, HitBytePref: c.HitBytePref,
		Latency: make([]LatencyBucket, 0, len(c.Latency)),
	}
	for k, n := range c.Latency {
		sum.Latency = append(sum.Latency, LatencyBucket{Up2: k.Up2, Down2: k.Down2, Cost: k.Cost, Count: n})
	}
	sort.Slice(sum.Latency, func(i, j int) bool {
		a, b := sum.Latency[i], sum.Latency[j]
		if a.Up2 != b.Up2 {
			return a.Up2 < b.Up2
		}
		if a.Down2 != b.Down2 {
			return a.Down2 < b.Down2
		}
		return a.Cost < b.Cost
	})
	return sum
}

// zeroDataLine is the cold-start [Data] record written at CONF before the
// first epoch tick, seeded with every counter at zero (SPEC_FULL.md §4.4
// supplement).
func zeroDataLine(t int64) string {
	c := newCounters()
	return c.DataLine(t)
}
