// Package satellite implements the satellite cache node (spec §4.4): one
// Byte-LRU per node, epoch-tick request handling, the neighbor-check and
// prefetch-push verbs, and the per-user stale-location tracking.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"bufio"
	"io"
	"os"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
)

// TraceReader is the buffered, forward-only line reader over a per-satellite
// trace file (spec §9 design note: "implement as a buffered line reader that
// remembers ... the line just returned and supports a single unread_last().
// Do not expose arbitrary seeks"). Rewinding is modeled by buffering the last
// line returned rather than seeking the underlying file, which gives the
// same observable semantics (the next ReadLine call yields the same line
// again) without exposing arbitrary seek.
type TraceReader struct {
	f     *os.File
	r     *bufio.Reader
	last  string
	hasPb bool
	atEOF bool
}

func OpenTrace(path string) (*TraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &TraceReader{f: f, r: bufio.NewReader(f)}, nil
}

// ReadLine returns the next trace line (without its trailing newline). ok is
// false only at EOF.
func (t *TraceReader) ReadLine() (line string, ok bool, err error) {
	if t.hasPb {
		t.hasPb = false
		return t.last, true, nil
	}
	if t.atEOF {
		return "", false, nil
	}
	raw, rerr := t.r.ReadString('\n')
	if rerr != nil && rerr != io.EOF {
		return "", false, rerr
	}
	if rerr == io.EOF {
		t.atEOF = true
		if raw == "" {
			return "", false, nil
		}
	}
	line = trimNewline(raw)
	t.last = line
	return line, true, nil
}

// UnreadLast rewinds exactly one line: the next ReadLine call returns the
// same line again (spec §4.4 step 1: "seek back by exactly that line's byte
// length"; spec §9: "supports a single unread_last()"). Calling it twice in
// a row without an intervening ReadLine is a bug in the caller.
func (t *TraceReader) UnreadLast() {
	cmn.Assert(!t.hasPb, "UnreadLast called twice without an intervening ReadLine")
	t.hasPb = true
}

func (t *TraceReader) Close() error { return t.f.Close() }

func trimNewline(s string) string {
	n := len(s)
	if n > 0 && s[n-1] == '\n' {
		n--
	}
	if n > 0 && s[n-1] == '\r' {
		n--
	}
	return s[:n]
}
