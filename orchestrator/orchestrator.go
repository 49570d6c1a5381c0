/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package orchestrator

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/satellite"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/transport"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Options configures one run (spec §6's CLI positional args plus a few
// process-wiring knobs the reference CLI has no equivalent for, since this
// implementation spawns real OS processes rather than threads).
type Options struct {
	ConfigPath      string
	FovDir          string
	LogDir          string
	CacheCapBytes   int64
	NeighborMapPath string
	SatelliteBin    string // path to the cmd/satellite binary
	Policy          string
	PoolSize        int

	PrefetchBudget   int64
	AllowUplink      bool
	PrefetchStrategy string
}

// Orchestrator boots N satellite processes, exchanges the topology, and
// drives the epoch clock (spec §4.7).
type Orchestrator struct {
	opts Options
	cfg  *EmulationConfig
	topo *cluster.Topology

	regrListener net.Listener
	regrAddr     string

	startUnix int64
	endUnix   int64
	delta     int64

	mu    sync.Mutex
	conns map[int]*transport.Conn // one persistent REQS channel per satellite
	procs map[int]*exec.Cmd
}

func New(opts Options) *Orchestrator {
	if opts.PoolSize <= 0 {
		opts.PoolSize = cmn.DefaultPoolSize
	}
	if opts.Policy == "" {
		opts.Policy = cmn.PolicyLocalOnly
	}
	return &Orchestrator{
		opts:  opts,
		conns: make(map[int]*transport.Conn),
		procs: make(map[int]*exec.Cmd),
	}
}

// Boot parses the config, spawns one satellite process per node, collects
// REGR within a 10-second deadline, broadcasts CONF, and opens the REQS
// channel to every satellite (spec §4.7 steps 1-4).
func (o *Orchestrator) Boot(ctx context.Context) error {
	cfg, err := LoadEmulationConfig(o.opts.ConfigPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	neighborMap, err := LoadNeighborMap(o.opts.NeighborMapPath)
	if err != nil {
		return err
	}

	start, err := cfg.ParseStartTime()
	if err != nil {
		return cmn.ConfigInvalidf("bad simtime.starttime: %v", err)
	}

	o.topo = cluster.NewTopology(uuid.NewString())
	nodes := cfg.Nodes()
	for _, nc := range nodes {
		neighbors := nc.neighborsOf()
		if override, ok := neighborMap[strconv.Itoa(nc.NodeID)]; ok {
			neighbors = override
		}
		o.topo.Add(&cluster.Satellite{
			ID:        nc.NodeID,
			Neighbors: neighbors,
			Trace:     nc.Trace,
			Lat:       nc.Lat,
			Lon:       nc.Lon,
		})
	}
	for _, gsc := range cfg.GroundStations {
		o.topo.GroundStations[gsc.ID] = &cluster.GroundStation{
			ID:  gsc.ID,
			Lat: gsc.Lat,
			Lon: gsc.Lon,
		}
	}

	if err := o.listenForRegistrations(); err != nil {
		return err
	}
	defer o.regrListener.Close()

	offsets := make(map[int]time.Duration, len(nodes))
	for _, nc := range nodes {
		tracePath := nc.Trace
		if o.opts.FovDir != "" && !filepath.IsAbs(tracePath) {
			tracePath = filepath.Join(o.opts.FovDir, tracePath)
		}
		off, err := firstRecordOffset(tracePath, start)
		if err != nil {
			return errors.Wrapf(err, "compute time offset for satellite %d", nc.NodeID)
		}
		offsets[nc.NodeID] = off
	}

	for _, nc := range nodes {
		if err := o.spawnSatellite(nc.NodeID, offsets[nc.NodeID]); err != nil {
			return errors.Wrapf(err, "spawn satellite %d", nc.NodeID)
		}
	}

	regCtx, cancel := context.WithTimeout(ctx, cmn.RegistrationWait)
	defer cancel()
	if err := o.awaitRegistrations(regCtx, len(nodes)); err != nil {
		return err
	}

	end, err := cfg.ParseEndTime()
	if err != nil {
		return cmn.ConfigInvalidf("bad simtime.endtime: %v", err)
	}
	o.startUnix = start.Unix()
	o.endUnix = end.Unix()
	o.delta = int64(cfg.SimTime.Delta)
	if o.delta <= 0 {
		o.delta = int64(cmn.EpochDelta.Seconds())
	}

	for _, nc := range nodes {
		if err := o.configure(nc.NodeID); err != nil {
			return errors.Wrapf(err, "CONF satellite %d", nc.NodeID)
		}
	}
	for _, nc := range nodes {
		if err := o.openReqsChannel(nc.NodeID); err != nil {
			return errors.Wrapf(err, "open REQS channel to satellite %d", nc.NodeID)
		}
	}

	return nil
}

// RunEpochs drives the global epoch clock from simtime.starttime to
// simtime.endtime in simtime.delta steps, each tick fanned out to every
// satellite through a bounded worker pool and gated by g.Wait() as the
// literal epoch barrier (spec §4.7 step 5, §5).
func (o *Orchestrator) RunEpochs(ctx context.Context) error {
	for t := o.startUnix; t < o.endUnix; t += o.delta {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.tick(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// tick fans out one REQ per satellite and waits for every reply before
// returning, the epoch barrier (spec §5: "no satellite may begin epoch t+1
// until every satellite has finished epoch t").
func (o *Orchestrator) tick(ctx context.Context, t int64) error {
	o.mu.Lock()
	conns := make(map[int]*transport.Conn, len(o.conns))
	for id, c := range o.conns {
		conns[id] = c
	}
	o.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.PoolSize)
	payload := cmn.MustMarshal(struct {
		Time int64 `json:"time"`
	}{Time: t})

	for id, conn := range conns {
		id, conn := id, conn
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if _, _, err := conn.Request(cmn.VerbReq, payload); err != nil {
				glog.Warningf("orchestrator: epoch %d: satellite %d unreachable: %v", t, id, err)
				return nil // a dead satellite does not abort the whole epoch
			}
			return nil
		})
	}
	return g.Wait()
}

// firstRecordOffset computes the fixed trace-to-emulation time offset for one
// satellite (spec §3: "a fixed offset computed once at configuration and
// applied to every record read"), taken as start minus the first parsed
// trace record's own timestamp — the same quantity the original computes as
// emulation_start - trace_start from the first trace line.
func firstRecordOffset(tracePath string, start time.Time) (time.Duration, error) {
	tr, err := satellite.OpenTrace(tracePath)
	if err != nil {
		return 0, err
	}
	defer tr.Close()
	for {
		line, ok, err := tr.ReadLine()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, cmn.TraceCorruptf("trace %s: no requests records line", tracePath)
		}
		rec, matched, err := satellite.ParseRecord(line, 0)
		if err != nil {
			continue
		}
		if !matched {
			continue
		}
		return start.Sub(rec.Time), nil
	}
}

func (o *Orchestrator) spawnSatellite(id int, timeOffset time.Duration) error {
	args := []string{
		"-id", strconv.Itoa(id),
		"-orchestrator-addr", o.regrAddr,
		"-log-dir", o.opts.LogDir,
		"-time-offset", strconv.FormatInt(int64(timeOffset/time.Second), 10),
	}
	cmd := exec.Command(o.opts.SatelliteBin, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	o.mu.Lock()
	o.procs[id] = cmd
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) configure(id int) error {
	sat := o.topo.Get(id)
	if sat == nil || sat.Addr == "" {
		return errors.Errorf("satellite %d never registered", id)
	}
	conn, err := transport.Dial(sat.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	tracePath := sat.Trace
	if o.opts.FovDir != "" && !filepath.IsAbs(tracePath) {
		tracePath = filepath.Join(o.opts.FovDir, tracePath)
	}
	payload := cmn.MustMarshal(struct {
		SatelliteID        int               `json:"satellite_id"`
		Topology           *cluster.Topology `json:"topology"`
		TracePath          string            `json:"trace_path"`
		CacheCapBytes      int64             `json:"cache_capacity_bytes"`
		Policy             string            `json:"policy"`
		PrefetchByteBudget int64             `json:"prefetch_byte_budget"`
		AllowUplink        bool              `json:"allow_uplink"`
		PrefetchStrategy   string            `json:"prefetch_strategy"`
	}{
		SatelliteID:        id,
		Topology:           o.topo,
		TracePath:          tracePath,
		CacheCapBytes:      o.opts.CacheCapBytes,
		Policy:             o.opts.Policy,
		PrefetchByteBudget: o.opts.PrefetchBudget,
		AllowUplink:        o.opts.AllowUplink,
		PrefetchStrategy:   o.opts.PrefetchStrategy,
	})
	verb, _, err := conn.Request(cmn.VerbConf, payload)
	if err != nil {
		return err
	}
	if verb != cmn.VerbAck {
		return errors.Errorf("satellite %d: expected ACK for CONF, got %q", id, verb)
	}
	return nil
}

func (o *Orchestrator) openReqsChannel(id int) error {
	sat := o.topo.Get(id)
	if sat == nil || sat.Addr == "" {
		return errors.Errorf("satellite %d never registered", id)
	}
	conn, err := transport.Dial(sat.Addr)
	if err != nil {
		return err
	}
	verb, _, err := conn.Request(cmn.VerbReqs, nil)
	if err != nil {
		conn.Close()
		return err
	}
	if verb != cmn.VerbAck {
		conn.Close()
		return errors.Errorf("satellite %d: expected ACK for REQS, got %q", id, verb)
	}
	o.mu.Lock()
	o.conns[id] = conn
	o.mu.Unlock()
	return nil
}

// KillAll sends KILL to every satellite, best-effort (spec §4.7 step 6).
func (o *Orchestrator) KillAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, conn := range o.conns {
		if err := conn.Send(cmn.VerbKill, nil); err != nil {
			glog.Warningf("orchestrator: KILL to satellite %d failed: %v", id, err)
		}
		conn.Close()
	}
	for id, cmd := range o.procs {
		if cmd.Process != nil {
			if err := cmd.Process.Kill(); err != nil {
				glog.V(4).Infof("orchestrator: process for satellite %d already gone: %v", id, err)
			}
		}
	}
}

func (o *Orchestrator) String() string {
	return fmt.Sprintf("orchestrator[uuid=%s nodes=%d]", o.topo.UUID, len(o.topo.Satellites))
}
