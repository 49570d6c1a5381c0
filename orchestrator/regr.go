/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package orchestrator

import (
	"context"
	"net"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/transport"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// regrPayload is the REGR body a freshly spawned satellite sends once it is
// listening (spec §4.4: "{port, server_id}").
type regrPayload struct {
	Port     string `json:"port"`
	ServerID int    `json:"server_id"`
}

// listenForRegistrations opens the REGR collection socket. Boot spawns
// satellite processes only after this is listening, so no REGR can race the
// accept loop's startup.
func (o *Orchestrator) listenForRegistrations() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return errors.Wrap(err, "listen for REGR")
	}
	o.regrListener = ln
	o.regrAddr = ln.Addr().String()
	return nil
}

// awaitRegistrations accepts REGR connections until expected satellites have
// registered or cmn.RegistrationWait elapses, whichever comes first (spec §7
// RegistrationTimeout). Each accepted connection is read exactly once, then
// closed; REGR is fire-and-forget (spec §4.3).
func (o *Orchestrator) awaitRegistrations(ctx context.Context, expected int) error {
	done := cmn.NewStopCh()
	var count atomic.Int32

	go func() {
		for {
			nc, err := o.regrListener.Accept()
			if err != nil {
				return // listener closed by caller's defer
			}
			go func() {
				defer nc.Close()
				conn := transport.NewConn(nc)
				verb, payload, err := conn.ReadFrame()
				if err != nil {
					glog.Warningf("orchestrator: bad REGR connection: %v", err)
					return
				}
				if verb != cmn.VerbRegr {
					glog.Warningf("orchestrator: expected REGR, got %q", verb)
					return
				}
				var reg regrPayload
				if err := cmn.JSON.Unmarshal(payload, &reg); err != nil {
					glog.Warningf("orchestrator: malformed REGR payload: %v", err)
					return
				}
				sat := o.topo.Get(reg.ServerID)
				if sat == nil {
					glog.Warningf("orchestrator: REGR from unknown satellite %d", reg.ServerID)
					return
				}
				sat.Addr = reg.Port

				if n := count.Inc(); n >= int32(expected) {
					done.Close()
				}
			}()
		}
	}()

	select {
	case <-done.Listen():
		return nil
	case <-ctx.Done():
		return cmn.RegistrationTimeoutf("registered %d/%d satellites within %s", count.Load(), expected, cmn.RegistrationWait)
	}
}
