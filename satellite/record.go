/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cmn"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/policy"
)

// timestampLayout matches the "YYYY-MM-DD HH:MM:SS" field present in every
// trace line (spec §6).
const timestampLayout = "2006-01-02 15:04:05"

var (
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
	recordRe    = regexp.MustCompile(`\[Requests Records\]:\s*([^,\[\]]+),\s*\[(-?\d+),\s*(-?\d+)\],\s*\[(.*)\]\s*$`)
	itemRe      = regexp.MustCompile(`\[\s*"?([^",\[\]]+)"?\s*,\s*(\d+)\s*\]`)
)

// Record is one parsed [Requests Records] trace line (spec §3).
type Record struct {
	Time    time.Time
	UserID  string
	LatUp   int
	LatDown int
	Items   []policy.Request
}

// ParseRecord parses one trace line, returning ok=false (no error) for any
// line that isn't a [Requests Records] line (other trace line types exist
// and are ignored per spec §3), and a cmn.ErrTraceCorrupt-wrapped err for a
// line that matches the marker but is malformed (spec §7: "skip and log at
// debug level").
func ParseRecord(line string, timeOffset time.Duration) (rec Record, ok bool, err error) {
	if !strings.Contains(line, "[Requests Records]") {
		return Record{}, false, nil
	}
	ts := timestampRe.FindString(line)
	if ts == "" {
		return Record{}, false, cmn.TraceCorruptf("no timestamp in line: %q", line)
	}
	t, perr := time.Parse(timestampLayout, ts)
	if perr != nil {
		return Record{}, false, cmn.TraceCorruptf("bad timestamp %q: %v", ts, perr)
	}

	m := recordRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false, cmn.TraceCorruptf("malformed records line: %q", line)
	}
	up, uerr := strconv.Atoi(m[2])
	down, derr := strconv.Atoi(m[3])
	if uerr != nil || derr != nil {
		return Record{}, false, cmn.TraceCorruptf("bad latency pair in line: %q", line)
	}

	items := itemRe.FindAllStringSubmatch(m[4], -1)
	if len(items) == 0 {
		return Record{}, false, cmn.TraceCorruptf("no (id,size) pairs in line: %q", line)
	}
	reqs := make([]policy.Request, 0, len(items))
	for _, it := range items {
		size, serr := strconv.ParseInt(it[2], 10, 64)
		if serr != nil {
			return Record{}, false, cmn.TraceCorruptf("bad size %q in line: %q", it[2], line)
		}
		reqs = append(reqs, policy.Request{ObjectID: it[1], Size: size})
	}

	return Record{
		Time:    t.Add(timeOffset),
		UserID:  m[1],
		LatUp:   up,
		LatDown: down,
		Items:   reqs,
	}, true, nil
}
