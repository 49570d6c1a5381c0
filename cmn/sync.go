// Package cmn provides shared low-level types and utilities used across the
// satellite, ground-station, and orchestrator packages.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"sync"
)

// StopCh is a specialized channel for stopping things exactly once, used by
// the orchestrator's REGR collection loop to signal "enough satellites have
// registered" from whichever connection-handling goroutine gets there first.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopCh() *StopCh { return &StopCh{ch: make(chan struct{})} }

func (sc *StopCh) Listen() <-chan struct{} { return sc.ch }

func (sc *StopCh) Close() {
	sc.once.Do(func() { close(sc.ch) })
}
