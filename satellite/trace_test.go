/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package satellite

import (
	"os"
	"testing"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	f, err := os.CreateTemp("", "starcdn-trace-*.txt")
	if err != nil {
		t.Fatalf("create temp trace: %v", err)
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			t.Fatalf("write temp trace: %v", err)
		}
	}
	return f.Name()
}

// TestTraceRewindInvariant is spec §8 invariant 6: a single UnreadLast
// followed by ReadLine must return the exact same line again, after which
// reading continues with the following line and ends with ok=false at EOF.
func TestTraceRewindInvariant(t *testing.T) {
	path := writeLines(t, "line one", "line two", "line three")
	defer os.Remove(path)

	tr, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("OpenTrace: %v", err)
	}
	defer tr.Close()

	l1, ok, err := tr.ReadLine()
	if err != nil || !ok || l1 != "line one" {
		t.Fatalf("unexpected first read: %q ok=%v err=%v", l1, ok, err)
	}

	l2, ok, err := tr.ReadLine()
	if err != nil || !ok || l2 != "line two" {
		t.Fatalf("unexpected second read: %q ok=%v err=%v", l2, ok, err)
	}
	tr.UnreadLast()

	l2Again, ok, err := tr.ReadLine()
	if err != nil || !ok || l2Again != "line two" {
		t.Fatalf("rewind did not replay the same line: %q ok=%v err=%v", l2Again, ok, err)
	}

	l3, ok, err := tr.ReadLine()
	if err != nil || !ok || l3 != "line three" {
		t.Fatalf("unexpected third read: %q ok=%v err=%v", l3, ok, err)
	}

	_, ok, err = tr.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error at EOF: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false at EOF")
	}
}

func TestTraceOpenMissingFile(t *testing.T) {
	if _, err := OpenTrace("/nonexistent/path/for/test"); err == nil {
		t.Fatalf("expected an error opening a missing trace file")
	}
}
