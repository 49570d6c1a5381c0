/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/groundstation"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/policy"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// HandleEpoch is the REQS channel's per-tick handler (spec §4.4): pull a
// prefetch list from the closest ground station, replay the trace forward
// through timestamp t, apply the configured policy to every request batch,
// and return the epoch's counters for the ACK and the log lines.
func (n *Node) HandleEpoch(t int64) Counters {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.curTime = t
	n.runPrefetchPull()

	counters := newCounters()
	for {
		line, ok, err := n.trace.ReadLine()
		if err != nil {
			glog.Warningf("satellite %d: trace read error: %v", n.id, err)
			break
		}
		if !ok {
			break
		}
		rec, matched, perr := ParseRecord(line, n.timeOff)
		if perr != nil {
			if glog.V(4) {
				glog.Infof("satellite %d: %v", n.id, perr)
			}
			continue
		}
		if !matched {
			continue // another trace line type; not part of the core's contract (spec §3)
		}
		if rec.Time.Unix() > t {
			n.trace.UnreadLast()
			break
		}
		n.processRecord(rec, &counters)
	}

	n.writeLog(counters.DataLine(t))
	n.writeLog(counters.LatencyLine())
	return counters
}

func (n *Node) processRecord(rec Record, counters *Counters) {
	now := rec.Time.Unix()
	gap := int64(cmn.StaleLocationGap / time.Second)

	if last, seen := n.locationLastServe[rec.UserID]; seen && absInt64(now-last) >= gap {
		n.locationLFU[rec.UserID] = cache.NewLRUFreq(n.cacheCap)
	}
	n.locationLastServe[rec.UserID] = now

	lfu, ok := n.locationLFU[rec.UserID]
	if !ok {
		lfu = cache.NewLRUFreq(n.cacheCap)
		n.locationLFU[rec.UserID] = lfu
	}

	outcomes := n.pol.Handle(n.ctx, rec.Items)
	for _, o := range outcomes {
		if o.Admit {
			n.cache.Admit(o.ObjectID, o.Size)
		}
		lfu.Admit(o.ObjectID, o.Size)
		if n.closestStation != nil {
			n.closestStation.Observe(o.ObjectID, o.Size)
		}
		fromPref := n.prefetched[o.ObjectID]
		counters.Record(o.Size, rec.LatUp, rec.LatDown, classify(o.Tag), fromPref)
	}
}

// runPrefetchPull is the between-epoch ground-station pull (spec §4.5): the
// node enumerates its closest station's recommendation under the
// configured strategy and runs the ISL/uplink budget loop against it,
// admitting into its own cache as groundstation.Run decides. Called with mu
// already held, before this epoch's trace replay (spec §2: "between epochs
// each satellite may pull a prefetch list ... and admit those objects").
func (n *Node) runPrefetchPull() {
	if n.closestStation == nil || n.prefetchBudget <= 0 {
		return
	}
	candidates := n.closestStation.Recommend(n.strategy)
	outcomes := groundstation.Run(candidates, n.prefetchBudget, n.allowUplink, n.cache, n.oracle)

	var uplinkBytes, inCacheBytes int64
	var isl [cluster.NumSlots]int64
	for _, o := range outcomes {
		switch o.Class {
		case groundstation.ClassInCache:
			inCacheBytes += o.Size
		case groundstation.ClassUplink:
			uplinkBytes += o.Size
		case groundstation.ClassISL:
			isl[o.Slot] += o.Size
		}
	}
	n.writeLog(fmt.Sprintf("[Prefetch stat]: [%d, %d, %v]", uplinkBytes, inCacheBytes, isl))
}

func classify(tag policy.Tag) outcomeClass {
	switch tag {
	case policy.TagLocal:
		return outcomeLocal
	case policy.TagRemote, policy.TagParity:
		return outcomeNeighbor
	default: // Miss, Partial, Forward
		return outcomeUplink
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// HandleCheck answers the ISL CHK verb (spec §4.4 "Neighbor membership
// probe"): whole-object membership if shardIdx == 0, erasure-shard
// possession otherwise.
func (n *Node) HandleCheck(objectID string, shardIdx int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if shardIdx == 0 {
		return n.cache.Contains(objectID)
	}
	return n.ctx.Shelf.HasShard(objectID, shardIdx)
}

// HandlePushShard records a shard pushed by a neighbor (erasure_no_remote's
// redistribute step landing on this node).
func (n *Node) HandlePushShard(objectID string, shardIdx int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ctx.Shelf.AddShard(objectID, shardIdx)
}

// HandleForward records a request delivered by hash_check's color-bucket
// routing: this node is the color owner, so the request is recorded as if
// it arrived locally.
func (n *Node) HandleForward(objectID string, size int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.cache.Contains(objectID) {
		n.cache.Admit(objectID, size)
	}
}

// PrefetchItem is one (id, size, freq) triple from a ground station's
// prefetch feed (spec §4.4 PREF payload).
type PrefetchItem struct {
	ObjectID string `json:"id"`
	Size     int64  `json:"size"`
	Freq     int    `json:"freq"`
}

// HandlePrefetch is the PREF receiver (spec §4.4): stale-prefetch reset,
// per-item admission skipping anything already cached, and frequency
// seeding in the user's location_lfu. "Current time" is the node's own
// last-processed epoch tick, not wall-clock time (spec §4.4/§4.6: "the
// replacement policy must be deterministic and independent of wall-clock
// time"), matching the original's self.__cur_time.
func (n *Node) HandlePrefetch(user string, items []PrefetchItem) (accepted, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.curTime
	total = len(items)
	gap := int64(cmn.StaleLocationGap / time.Second)
	if last, seen := n.lastPrefetch[user]; !seen || absInt64(now-last) >= gap {
		n.prefetchMap[user] = nil
	}
	n.lastPrefetch[user] = now

	lfu, ok := n.locationLFU[user]
	if !ok {
		lfu = cache.NewLRUFreq(n.cacheCap)
		n.locationLFU[user] = lfu
	}

	for _, it := range items {
		if n.cache.Contains(it.ObjectID) {
			continue
		}
		n.cache.Admit(it.ObjectID, it.Size)
		lfu.Admit(it.ObjectID, it.Size)
		lfu.SetFreq(it.ObjectID, it.Freq/2+1)
		n.prefetchMap[user] = append(n.prefetchMap[user], it.ObjectID)
		n.prefetched[it.ObjectID] = true
		accepted++
	}
	n.writeLog(fmt.Sprintf("[Prefetch]: user=%s accepted=%d total=%d", user, accepted, total))
	return accepted, total
}

// HandleGet answers the GET verb's test observables (spec §4.3): cache_key
// (comma-joined ids, most-recent-first), cache_capacity, cache_size.
func (n *Node) HandleGet(key string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch key {
	case "cache_capacity":
		return strconv.FormatInt(n.cache.Capacity(), 10), nil
	case "cache_size":
		return strconv.FormatInt(n.cache.ByteSize(), 10), nil
	case "cache_key":
		entries := n.cache.IterateMostRecentFirst()
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		return strings.Join(ids, ","), nil
	default:
		return "", errors.Errorf("unknown observable %q", key)
	}
}
