/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cache"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/groundstation"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/policy"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/transport"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Config is the per-satellite CONF payload (spec §4.4).
type Config struct {
	SatelliteID        int               `json:"satellite_id"`
	Topology           *cluster.Topology `json:"topology"`
	TracePath          string            `json:"trace_path"`
	CacheCapBytes      int64             `json:"cache_capacity_bytes"`
	Policy             string            `json:"policy"`
	PrefetchByteBudget int64             `json:"prefetch_byte_budget"`
	AllowUplink        bool              `json:"allow_uplink"`
	PrefetchStrategy   string            `json:"prefetch_strategy"`
	TimeOffset         time.Duration     `json:"-"`
	LogDir             string            `json:"-"`
}

// Node owns one satellite's Byte-LRU, trace, neighbor sockets, policy
// context, and per-user bookkeeping (spec §4.4, §5's single-writer rule: all
// of this is mutated only by the goroutine servicing the REQS channel and
// the ISL acceptor's CHK reader, both of which go through mu).
type Node struct {
	// mu guards the cache, the per-user bookkeeping maps, and curTime: the
	// state genuinely shared between the REQS-channel goroutine and any
	// concurrently accepted ISL/forwarded-request goroutine.
	mu sync.Mutex

	id       int
	topo     *cluster.Topology
	cache    *cache.ByteLRU
	cacheCap int64
	trace    *TraceReader
	timeOff  time.Duration
	curTime  int64
	pol      policy.Policy
	ctx      *policy.Context
	oracle   *neighborOracle

	// connMu guards neighborConns/forwardConns only. It is a distinct lock
	// from mu so that closing or dialing a connection during a blocking ISL
	// round trip (itself invoked while mu is held, e.g. from inside
	// HandleEpoch's policy dispatch) never tries to re-enter mu: sync.Mutex
	// is not reentrant, and oracle calls into closeNeighbor/forwardConn/
	// dropForwardConn happen from the same goroutine that is already
	// holding mu.
	connMu        sync.Mutex
	neighborConns [cluster.NumSlots]*transport.Conn
	forwardConns  map[int]*transport.Conn

	locationLastServe map[string]int64
	locationLFU       map[string]*cache.LRUFreq
	lastPrefetch      map[string]int64
	prefetchMap       map[string][]string
	prefetched        map[string]bool // object ids admitted via prefetch this run

	prefetchBudget int64
	allowUplink    bool
	strategy       string
	stations       map[string]*groundstation.Station
	closestStation *groundstation.Station

	logFile *os.File
}

func NewNode(id int) *Node {
	return &Node{
		id:                id,
		forwardConns:      make(map[int]*transport.Conn),
		locationLastServe: make(map[string]int64),
		locationLFU:       make(map[string]*cache.LRUFreq),
		lastPrefetch:      make(map[string]int64),
		prefetchMap:       make(map[string][]string),
		prefetched:        make(map[string]bool),
		stations:          make(map[string]*groundstation.Station),
	}
}

// Configure applies a CONF message: opens the trace, opens one persistent
// ISL socket to each populated neighbor, initializes the cache, stores the
// topology, and selects the policy (spec §4.4). It is called exactly once,
// before any epoch tick.
func (n *Node) Configure(cfg Config) error {
	if cfg.Topology == nil || cfg.TracePath == "" || cfg.CacheCapBytes <= 0 || cfg.Policy == "" {
		return cmn.ConfigInvalidf("satellite %d: incomplete CONF payload", cfg.SatelliteID)
	}
	trace, err := OpenTrace(cfg.TracePath)
	if err != nil {
		return errors.Wrapf(err, "satellite %d: open trace %s", cfg.SatelliteID, cfg.TracePath)
	}
	pol, err := policy.New(cfg.Policy)
	if err != nil {
		return cmn.ConfigInvalidf("satellite %d: %v", cfg.SatelliteID, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.id = cfg.SatelliteID
	n.topo = cfg.Topology
	n.trace = trace
	n.timeOff = cfg.TimeOffset
	n.cache = cache.NewByteLRU(cfg.CacheCapBytes)
	n.cacheCap = cfg.CacheCapBytes
	n.pol = pol
	n.oracle = &neighborOracle{n: n}
	n.ctx = policy.NewContext(n.id, n.topo, n.cache, n.oracle, n.oracle, n.oracle)
	n.prefetchBudget = cfg.PrefetchByteBudget
	n.allowUplink = cfg.AllowUplink
	n.strategy = cfg.PrefetchStrategy
	if n.strategy == "" {
		n.strategy = cmn.StrategyMostAccessed
	}

	sat := n.topo.Get(n.id)
	if sat == nil {
		return cmn.ConfigInvalidf("satellite %d: not present in topology", n.id)
	}
	n.connMu.Lock()
	for slot := 0; slot < cluster.NumSlots; slot++ {
		nid, ok := sat.Neighbor(slot)
		if !ok || nid == cluster.NoNeighbor {
			continue
		}
		neighborSat := n.topo.Get(nid)
		if neighborSat == nil || neighborSat.Addr == "" {
			glog.Warningf("satellite %d: neighbor %d has no known address yet, ISL slot %d left unconnected", n.id, nid, slot)
			continue
		}
		conn, derr := transport.Dial(neighborSat.Addr)
		if derr != nil {
			glog.Warningf("satellite %d: failed to dial neighbor %d at %s: %v", n.id, nid, neighborSat.Addr, derr)
			continue
		}
		n.neighborConns[slot] = conn
	}
	n.connMu.Unlock()

	// Ground-station recommender (spec §4.5): one Station per ground
	// station in the topology, seeded from this node's own served traffic
	// (an in-process approximation of "observed traffic across the
	// satellites it serves", since ground stations have no separate
	// process or address in this wire protocol). The closest one by
	// lat/lon is fixed for the run, matching the static-position
	// simplification of cluster.Satellite.Lat/Lon.
	n.stations = make(map[string]*groundstation.Station, len(n.topo.GroundStations))
	for id, gs := range n.topo.GroundStations {
		n.stations[id] = groundstation.NewStation(gs, cfg.CacheCapBytes)
	}
	if gs, ok := groundstation.Closest(n.topo, sat); ok {
		n.closestStation = n.stations[gs.ID]
	}

	if cfg.LogDir != "" {
		path := fmt.Sprintf("%s/sat_%d.log", cfg.LogDir, n.id)
		f, lerr := os.Create(path)
		if lerr != nil {
			return errors.Wrapf(lerr, "satellite %d: create log file", n.id)
		}
		n.logFile = f
	}

	// SPEC_FULL.md §4.4 supplement: cold-start zero-record log line.
	n.writeLog(zeroDataLine(0))
	return nil
}

func (n *Node) writeLog(line string) {
	if n.logFile == nil {
		glog.Info(line)
		return
	}
	if _, err := n.logFile.WriteString(line + "\n"); err != nil {
		glog.Warningf("satellite %d: log write failed: %v", n.id, err)
	}
}

func (n *Node) closeNeighbor(slot int) {
	n.connMu.Lock()
	defer n.connMu.Unlock()
	if c := n.neighborConns[slot]; c != nil {
		c.Close()
		n.neighborConns[slot] = nil
	}
}

func (n *Node) forwardConn(ownerID int) (*transport.Conn, error) {
	n.connMu.Lock()
	if c, ok := n.forwardConns[ownerID]; ok {
		n.connMu.Unlock()
		return c, nil
	}
	n.connMu.Unlock()

	sat := n.topo.Get(ownerID)
	if sat == nil || sat.Addr == "" {
		return nil, errors.Errorf("satellite %d: unknown address for owner %d", n.id, ownerID)
	}
	conn, err := transport.Dial(sat.Addr)
	if err != nil {
		return nil, err
	}
	n.connMu.Lock()
	n.forwardConns[ownerID] = conn
	n.connMu.Unlock()
	return conn, nil
}

func (n *Node) dropForwardConn(ownerID int) {
	n.connMu.Lock()
	defer n.connMu.Unlock()
	if c, ok := n.forwardConns[ownerID]; ok {
		c.Close()
		delete(n.forwardConns, ownerID)
	}
}

// Close releases all resources opened at Configure (spec §5: "opened at
// CONF and closed at KILL").
func (n *Node) Close() {
	n.mu.Lock()
	if n.trace != nil {
		n.trace.Close()
	}
	if n.logFile != nil {
		n.logFile.Close()
	}
	n.mu.Unlock()

	n.connMu.Lock()
	defer n.connMu.Unlock()
	for slot, c := range n.neighborConns {
		if c != nil {
			c.Close()
			n.neighborConns[slot] = nil
		}
	}
	for id, c := range n.forwardConns {
		c.Close()
		delete(n.forwardConns, id)
	}
}
