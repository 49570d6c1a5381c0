// Package groundstation implements the ground-station prefetch recommender
// (spec §4.5): an LRU-Freq seeded from observed traffic, two ordered
// enumeration strategies plus a hybrid interleave, closest-station lookup,
// and the prefetch budget loop a satellite runs against the recommendation.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package groundstation

import (
	"math"
	"sort"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
)

// Station holds one ground station's observed-traffic LRU-Freq (spec §4.5:
// "seeded from observed traffic across the satellites it serves"). It is
// otherwise stateless between epochs with respect to individual satellites
// — every Recommend call is a fresh enumeration over whatever the LFU holds
// at call time.
type Station struct {
	GS  *cluster.GroundStation
	lfu *cache.LRUFreq
}

func NewStation(gs *cluster.GroundStation, capacity int64) *Station {
	return &Station{GS: gs, lfu: cache.NewLRUFreq(capacity)}
}

// Observe folds one served request into the station's traffic model.
func (s *Station) Observe(objectID string, size int64) {
	s.lfu.Admit(objectID, size)
}

// MostAccessed enumerates descending frequency, MRU within a bucket
// (get_most_accessed_items, spec §4.5).
func (s *Station) MostAccessed() []cache.Entry { return s.lfu.IterateMostFrequentFirst() }

// MostRecent enumerates pure MRU order, ignoring frequency
// (get_most_recent_items, spec §4.5).
func (s *Station) MostRecent() []cache.Entry { return s.lfu.IterateMostRecentFirst() }

// Hybrid interleaves MostRecent (even output positions) and MostAccessed
// (odd output positions), deduplicated by id with first occurrence winning
// (SPEC_FULL.md §4.5 supplement).
func (s *Station) Hybrid() []cache.Entry {
	recent := s.MostRecent()
	accessed := s.MostAccessed()
	seen := make(map[string]bool, len(recent))
	out := make([]cache.Entry, 0, len(recent)+len(accessed))

	ri, ai := 0, 0
	useRecent := true
	for ri < len(recent) || ai < len(accessed) {
		if useRecent {
			for ri < len(recent) && seen[recent[ri].ID] {
				ri++
			}
			if ri < len(recent) {
				out = append(out, recent[ri])
				seen[recent[ri].ID] = true
				ri++
			}
		} else {
			for ai < len(accessed) && seen[accessed[ai].ID] {
				ai++
			}
			if ai < len(accessed) {
				out = append(out, accessed[ai])
				seen[accessed[ai].ID] = true
				ai++
			}
		}
		useRecent = !useRecent
	}
	return out
}

// Recommend enumerates the station's feed under the named strategy
// (spec §4.5).
func (s *Station) Recommend(strategy string) []cache.Entry {
	switch strategy {
	case cmn.StrategyMostAccessed:
		return s.MostAccessed()
	case cmn.StrategyMostRecent:
		return s.MostRecent()
	case cmn.StrategyHybrid:
		return s.Hybrid()
	default:
		return nil
	}
}

// Closest returns the ground station minimizing 2-D lat/lon Euclidean
// distance to sat (spec §4.5 "Closest GS"). Ties are broken by ground
// station id ascending (spec §4.6's general float-comparison determinism
// rule, applied here since distance is a float compare).
func Closest(topo *cluster.Topology, sat *cluster.Satellite) (*cluster.GroundStation, bool) {
	ids := make([]string, 0, len(topo.GroundStations))
	for id := range topo.GroundStations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var best *cluster.GroundStation
	bestDist := math.Inf(1)
	for _, id := range ids {
		gs := topo.GroundStations[id]
		d := euclidean(sat.Lat, sat.Lon, gs.Lat, gs.Lon)
		if d < bestDist {
			bestDist = d
			best = gs
		}
	}
	return best, best != nil
}

func euclidean(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
