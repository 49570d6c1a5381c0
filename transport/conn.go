/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"net"
	"sync"

	"github.com/golang/glog"
)

// Conn wraps one persistent net.Conn and serializes every frame written to
// it behind a single mutex (spec §9: "mandate one persistent socket per
// neighbor opened at CONF; all CHK messages are serialized on it behind the
// per-neighbor mutex"). It is used for both request/response round trips
// (CHK, PREF, GET) and one-way sends (REGR, KILL).
type Conn struct {
	nc net.Conn
	mu sync.Mutex
}

func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Send writes one frame and does not wait for a reply (fire-and-forget:
// REGR, KILL).
func (c *Conn) Send(verb string, payload []byte) error {
	frame, err := Encode(verb, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.nc.Write(frame)
	return err
}

// Request writes one frame and blocks for exactly one reply frame on the
// same connection (CONF->ACK, CHK->ACK, PREF->ACK, GET->ACK). The mutex
// spans both the write and the matching read so a concurrent Request from
// another goroutine on the same Conn cannot interleave its frame between
// this call's request and response.
func (c *Conn) Request(verb string, payload []byte) (respVerb string, respPayload []byte, err error) {
	frame, err := Encode(verb, payload)
	if err != nil {
		return "", nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err = c.nc.Write(frame); err != nil {
		return "", nil, err
	}
	return Decode(c.nc)
}

// ReadFrame blocks for the next frame without taking the write mutex; used
// by a connection's dedicated reader goroutine in a long-lived stream
// (REQS, ISL) where reads and writes interleave under the server's own
// sequencing rather than a request/response pairing.
func (c *Conn) ReadFrame() (verb string, payload []byte, err error) {
	return Decode(c.nc)
}

// WriteFrame writes one frame, taking the write mutex only (paired with
// ReadFrame in a long-lived stream's reader goroutine).
func (c *Conn) WriteFrame(verb string, payload []byte) error {
	frame, err := Encode(verb, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.nc.Write(frame)
	return err
}

func (c *Conn) Close() error {
	return c.nc.Close()
}

func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Dial opens a new persistent connection to addr, logging at V(4) like the
// teacher's connection-setup call sites.
func Dial(addr string) (*Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if glog.V(4) {
		glog.Infof("transport: dialed %s", addr)
	}
	return NewConn(nc), nil
}
