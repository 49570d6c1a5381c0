/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"net"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/transport"
	"github.com/golang/glog"
)

// Server is the satellite process's TCP front end: it listens on an
// ephemeral port, registers with the orchestrator (REGR), and dispatches
// every other verb in the wire protocol (spec §4.3, §4.4) to a Node.
type Server struct {
	node     *Node
	listener net.Listener
	logDir   string
	timeOff  time.Duration
	regrConn *transport.Conn
}

func NewServer(node *Node, logDir string, timeOffset time.Duration) *Server {
	return &Server{node: node, logDir: logDir, timeOff: timeOffset}
}

// Listen opens the ephemeral listening port and returns its address.
func (s *Server) Listen() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	s.listener = ln
	return ln.Addr().String(), nil
}

// Register dials the orchestrator and sends REGR (spec §4.4: "sends REGR
// carrying {port, server_id} to the orchestrator"). No response is expected
// (spec §4.3: "REGR (no response)").
func (s *Server) Register(orchestratorAddr string, serverID int, addr string) error {
	conn, err := transport.Dial(orchestratorAddr)
	if err != nil {
		return err
	}
	s.regrConn = conn
	payload := cmn.MustMarshal(struct {
		Port     string `json:"port"`
		ServerID int    `json:"server_id"`
	}{Port: addr, ServerID: serverID})
	return conn.Send(cmn.VerbRegr, payload)
}

// Serve accepts connections until the listener is closed (by Stop, via
// KILL). Each connection runs in its own goroutine (spec §5: "threads are
// one-per-accepted-connection").
func (s *Server) Serve() {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(nc)
	}
}

// Stop closes the listener and the REGR connection (spec §5/§7: "KILL
// causes the satellite to shut down its listener and drop in-flight
// connections").
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.regrConn != nil {
		s.regrConn.Close()
	}
	s.node.Close()
}

func (s *Server) handleConn(nc net.Conn) {
	defer nc.Close()
	for {
		verb, payload, err := transport.Decode(nc)
		if err != nil {
			return // peer closed or transport error; satellite continues (spec §7)
		}
		switch verb {
		case cmn.VerbConf:
			s.handleConf(nc, payload)
		case cmn.VerbReqs:
			s.handleReqsChannel(nc)
			return
		case cmn.VerbIsl:
			s.handleIslChannel(nc)
			return
		case cmn.VerbChk:
			s.handleChk(nc, payload)
		case cmn.VerbPref:
			s.handlePref(nc, payload)
		case cmn.VerbReq:
			s.handleForwardedRequest(nc, payload)
		case cmn.VerbGet:
			s.handleGet(nc, payload)
		case cmn.VerbKill:
			glog.Infof("satellite %d: received KILL", s.node.id)
			go s.Stop()
			return
		default:
			glog.Warningf("satellite %d: unknown verb %q", s.node.id, verb)
		}
	}
}

func (s *Server) handleConf(nc net.Conn, payload []byte) {
	var cfg Config
	if err := cmn.JSON.Unmarshal(payload, &cfg); err != nil {
		glog.Errorf("satellite: CONF decode failed: %v", err)
		return
	}
	cfg.TimeOffset = s.timeOff
	cfg.LogDir = s.logDir
	if err := s.node.Configure(cfg); err != nil {
		glog.Errorf("satellite %d: CONF failed: %v", cfg.SatelliteID, err)
		return
	}
	s.ack(nc, nil)
}

type reqPayload struct {
	Time int64 `json:"time"`
}

// handleReqsChannel is the long-lived REQS stream (spec §4.3/§4.4): one
// REQ per epoch, each ACKed with the epoch's counters before the next is
// read — this per-connection serialization is what makes the orchestrator's
// Wait() the epoch barrier (spec §5).
func (s *Server) handleReqsChannel(nc net.Conn) {
	s.ack(nc, nil)
	for {
		verb, payload, err := transport.Decode(nc)
		if err != nil {
			return
		}
		if verb == cmn.VerbKill {
			glog.Infof("satellite %d: received KILL on REQS channel", s.node.id)
			go s.Stop()
			return
		}
		if verb != cmn.VerbReq {
			glog.Warningf("satellite %d: expected REQ on REQS channel, got %q", s.node.id, verb)
			continue
		}
		var req reqPayload
		if err := cmn.JSON.Unmarshal(payload, &req); err != nil {
			glog.Errorf("satellite %d: bad REQ payload: %v", s.node.id, err)
			continue
		}
		counters := s.node.HandleEpoch(req.Time)
		s.ack(nc, cmn.MustMarshal(counters.Summary()))
	}
}

// handleIslChannel is the long-lived stream of CHK/PREF from one neighbor
// (spec §4.3/§4.4).
func (s *Server) handleIslChannel(nc net.Conn) {
	s.ack(nc, nil)
	for {
		verb, payload, err := transport.Decode(nc)
		if err != nil {
			return
		}
		switch verb {
		case cmn.VerbChk:
			s.handleChk(nc, payload)
		case cmn.VerbPref:
			s.handlePref(nc, payload)
		default:
			glog.Warningf("satellite %d: unexpected verb %q on ISL channel", s.node.id, verb)
		}
	}
}

func (s *Server) handleChk(nc net.Conn, payload []byte) {
	var req chkPayload
	if err := cmn.JSON.Unmarshal(payload, &req); err != nil {
		glog.Errorf("satellite %d: bad CHK payload: %v", s.node.id, err)
		s.ack(nc, []byte(cmn.TokenNotFound))
		return
	}
	found := s.node.HandleCheck(req.ObjectID, req.ShardIdx)
	if found {
		s.ack(nc, []byte(cmn.TokenFound))
	} else {
		s.ack(nc, []byte(cmn.TokenNotFound))
	}
}

// prefWire is the union of the two things PREF carries on the wire: a
// ground-station/neighbor prefetch list keyed by user, or (repurposing the
// same verb, since the wire protocol's verb set is closed per spec §4.3) an
// erasure shard push from a neighbor's redistribute step. The two shapes
// are disjoint on the wire (object_id only appears in a shard push; user
// only in a prefetch list), so a single decode-and-branch is unambiguous.
type prefWire struct {
	User     string         `json:"user,omitempty"`
	Data     []PrefetchItem `json:"data,omitempty"`
	ObjectID string         `json:"object_id,omitempty"`
	ShardIdx int            `json:"shard_idx,omitempty"`
}

func (s *Server) handlePref(nc net.Conn, payload []byte) {
	var req prefWire
	if err := cmn.JSON.Unmarshal(payload, &req); err != nil {
		glog.Errorf("satellite %d: bad PREF payload: %v", s.node.id, err)
		s.ack(nc, nil)
		return
	}
	if req.ObjectID != "" {
		s.node.HandlePushShard(req.ObjectID, req.ShardIdx)
		s.ack(nc, nil)
		return
	}
	s.node.HandlePrefetch(req.User, req.Data)
	s.ack(nc, nil)
}

// handleForwardedRequest answers a bare top-level REQ — not part of an
// established REQS channel — as a hash_check color-owner delivery (policy
// §4.6): the sender dialed this satellite directly because it was
// discovered to own the object's color bucket.
func (s *Server) handleForwardedRequest(nc net.Conn, payload []byte) {
	var req forwardPayload
	if err := cmn.JSON.Unmarshal(payload, &req); err != nil {
		glog.Errorf("satellite %d: bad forwarded REQ payload: %v", s.node.id, err)
		s.ack(nc, nil)
		return
	}
	s.node.HandleForward(req.ObjectID, req.Size)
	s.ack(nc, nil)
}

func (s *Server) handleGet(nc net.Conn, payload []byte) {
	key := string(payload)
	val, err := s.node.HandleGet(key)
	if err != nil {
		glog.Warningf("satellite %d: GET %q failed: %v", s.node.id, key, err)
		s.ack(nc, nil)
		return
	}
	s.ack(nc, []byte(val))
}

func (s *Server) ack(nc net.Conn, payload []byte) {
	frame, err := transport.Encode(cmn.VerbAck, payload)
	if err != nil {
		glog.Errorf("satellite %d: ACK encode failed: %v", s.node.id, err)
		return
	}
	if _, err := nc.Write(frame); err != nil {
		glog.Warningf("satellite %d: ACK write failed: %v", s.node.id, err)
	}
}
