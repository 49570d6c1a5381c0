/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds (see spec §7). Each is a sentinel that call sites can test
// with errors.Is after the wrapping below; wrapping is done with
// github.com/pkg/errors so a stack trace survives from the point of origin
// to the per-connection boundary where it gets logged.
var (
	ErrConfigInvalid               = errors.New("config invalid")
	ErrTraceCorrupt                = errors.New("trace line corrupt")
	ErrPeerUnreachable             = errors.New("peer unreachable")
	ErrCapacityExceededByOneObject = errors.New("object exceeds cache capacity")
	ErrBudgetExhausted             = errors.New("prefetch budget exhausted")
	ErrRegistrationTimeout         = errors.New("satellite registration timeout")
)

// ConfigInvalidf wraps ErrConfigInvalid with a specific message, used to
// reject a malformed emulation config at orchestrator startup.
func ConfigInvalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfigInvalid, format, args...)
}

// TraceCorruptf wraps ErrTraceCorrupt; callers log at debug level and skip
// the offending line rather than aborting the satellite.
func TraceCorruptf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrTraceCorrupt, format, args...)
}

// PeerUnreachablef wraps ErrPeerUnreachable for a failed ISL round trip.
func PeerUnreachablef(neighborID string, cause error) error {
	return errors.Wrapf(ErrPeerUnreachable, "neighbor %s: %v", neighborID, cause)
}

// RegistrationTimeoutf wraps ErrRegistrationTimeout, used when fewer than
// the expected number of satellites have sent REGR within RegistrationWait.
func RegistrationTimeoutf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrRegistrationTimeout, format, args...)
}

// Assert panics with msg if cond is false. Used sparingly, for invariants
// that would indicate a bug in the core rather than bad input.
func Assert(cond bool, msg string) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: %s", msg))
	}
}
