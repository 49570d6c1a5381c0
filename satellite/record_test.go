/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"testing"
	"time"
)

func TestParseRecordWellFormedLine(t *testing.T) {
	line := `2024-01-01 00:00:10 [Requests Records]: user1, [10, 20], [[obj-1, 100], [obj-2, 200]]`
	rec, ok, err := ParseRecord(line, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true for a well-formed records line")
	}
	if rec.UserID != "user1" {
		t.Errorf("expected user1, got %q", rec.UserID)
	}
	if rec.LatUp != 10 || rec.LatDown != 20 {
		t.Errorf("expected latency (10,20), got (%d,%d)", rec.LatUp, rec.LatDown)
	}
	if len(rec.Items) != 2 || rec.Items[0].ObjectID != "obj-1" || rec.Items[0].Size != 100 {
		t.Fatalf("unexpected items: %+v", rec.Items)
	}
	wantTime, _ := time.Parse(timestampLayout, "2024-01-01 00:00:10")
	if !rec.Time.Equal(wantTime) {
		t.Errorf("expected time %v, got %v", wantTime, rec.Time)
	}
}

func TestParseRecordIgnoresOtherLineTypes(t *testing.T) {
	_, ok, err := ParseRecord("2024-01-01 00:00:10 [Some Other Line]: irrelevant", 0)
	if err != nil {
		t.Fatalf("unexpected error for a non-matching line: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a line that isn't a Requests Records line")
	}
}

func TestParseRecordCorruptLineErrors(t *testing.T) {
	_, ok, err := ParseRecord(`2024-01-01 00:00:10 [Requests Records]: user1, [10, 20], []`, 0)
	if ok {
		t.Fatalf("expected ok=false for a malformed records line")
	}
	if err == nil {
		t.Fatalf("expected an error for a records line with no items")
	}
}

func TestParseRecordAppliesTimeOffset(t *testing.T) {
	rec, ok, err := ParseRecord(`2024-01-01 00:00:10 [Requests Records]: user1, [10, 20], [[obj-1, 100]]`, time.Hour)
	if err != nil || !ok {
		t.Fatalf("unexpected ok=%v err=%v", ok, err)
	}
	base, _ := time.Parse(timestampLayout, "2024-01-01 00:00:10")
	if !rec.Time.Equal(base.Add(time.Hour)) {
		t.Errorf("expected time offset by one hour, got %v", rec.Time)
	}
}
