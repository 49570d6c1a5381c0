/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import "time"

// Wire verbs (see spec §4.3). Every verb is exactly 4 ASCII bytes,
// space-padded.
const (
	VerbConf = "CONF"
	VerbAck  = "ACK "
	VerbReqs = "REQS"
	VerbReq  = "REQ "
	VerbIsl  = "ISL "
	VerbChk  = "CHK "
	VerbPref = "PREF"
	VerbGet  = "GET "
	VerbRegr = "REGR"
	VerbKill = "KILL"
)

// ACK payload tokens for CHK.
const (
	TokenFound    = "FOUND"
	TokenNotFound = "NOT_FOUND"
)

// Request-handling policy names (§4.6), also used as registry keys.
const (
	PolicyLocalOnly     = "local_only"
	PolicyOneHop        = "one_hop"
	PolicyOneHopNoBloom = "one_hop_no_bloom"
	PolicyErasure       = "erasure_no_remote"
	PolicyHashCheck     = "hash_check"
	PolicyLRU           = "lru"
	PolicyLRUOnDemand   = "lru_on_demand"
)

// Ground-station recommendation strategies (§4.5 + SPEC_FULL §4.5).
const (
	StrategyMostAccessed = "most_accessed"
	StrategyMostRecent   = "most_recent"
	StrategyHybrid       = "hybrid"
)

// Neighbor slot ordering: North, South, East, West. -1 means "no neighbor".
const (
	SlotNorth = iota
	SlotSouth
	SlotEast
	SlotWest
	NumSlots
)

const NoNeighbor = -1

// Epoch/timing constants (§4.7, §4.4).
const (
	EpochDelta        = 15 * time.Second
	StaleLocationGap  = 1800 * time.Second
	RegistrationWait  = 10 * time.Second
	DefaultPoolSize   = 30
	NumColorBuckets   = 25 // hash_check's NUM_COLOR
	HashCheckMaxDepth = 4  // hash_check's BFS depth cutoff

	// NumErasureShards is the shard-suffix range 0..4 from the glossary:
	// index 0 is the owner's own copy, 1..4 are the four erasure
	// fragments redistributed one per neighbor slot.
	NumErasureShards = 5
)
