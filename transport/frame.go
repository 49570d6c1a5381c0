// Package transport implements the length-prefixed, 4-byte-verb framed
// protocol (spec §4.3) that wires satellites to each other (ISL) and to the
// orchestrator (REQS, CONF, KILL).
//
// Wire format, network byte order throughout:
//
//	offset 0: 4-byte ASCII verb        (exactly 4 chars, space-padded)
//	offset 4: 4-byte big-endian length
//	offset 8: `length` bytes of payload (UTF-8; JSON or a small ASCII token)
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	verbLen   = 4
	headerLen = verbLen + 4
)

// Encode produces the on-wire byte sequence for (verb, payload). verb must
// be exactly 4 bytes (callers use the cmn.Verb* constants, already
// space-padded).
func Encode(verb string, payload []byte) ([]byte, error) {
	if len(verb) != verbLen {
		return nil, fmt.Errorf("transport: verb %q must be exactly %d bytes", verb, verbLen)
	}
	buf := make([]byte, headerLen+len(payload))
	copy(buf[0:verbLen], verb)
	binary.BigEndian.PutUint32(buf[verbLen:headerLen], uint32(len(payload)))
	copy(buf[headerLen:], payload)
	return buf, nil
}

// Decode reads exactly one frame from r, looping (via io.ReadFull) until
// all `length` payload bytes have been consumed before returning.
func Decode(r io.Reader) (verb string, payload []byte, err error) {
	var header [headerLen]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return "", nil, err
	}
	verb = string(header[0:verbLen])
	length := binary.BigEndian.Uint32(header[verbLen:headerLen])
	if length == 0 {
		return verb, nil, nil
	}
	payload = make([]byte, length)
	if _, err = io.ReadFull(r, payload); err != nil {
		return "", nil, err
	}
	return verb, payload, nil
}
