// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package packet

import "fmt"

// Decoder reassembles packets into complete messages, keeping one
// reassembly buffer per logical stream so a slow SPEECH message never
// blocks COMMAND delivery (spec §4.1, testable property #2).
type Decoder struct {
	buffers    map[StreamID][]byte
	violations int
}

// NewDecoder returns a Decoder with empty reassembly state.
func NewDecoder() *Decoder {
	return &Decoder{buffers: make(map[StreamID][]byte)}
}

// Feed processes one packet. It returns (message, streamID, true, nil) when
// a complete message was just reassembled. On a protocol violation (CONT/END
// with no prior START, SINGLE while mid-sequence) it discards that stream's
// buffer, counts the violation, and returns ok=false with no error — only
// once Violations() crosses a caller-chosen threshold should the connection
// be treated as faulted (spec §4.1: "repeated violations ... reported as
// decoder failure").
func (d *Decoder) Feed(p Packet) (message []byte, stream StreamID, ok bool, err error) {
	buf, inProgress := d.buffers[p.StreamID]

	switch p.Type {
	case TypeSingle:
		if inProgress {
			d.violation(p.StreamID)
			return nil, p.StreamID, false, nil
		}
		return append([]byte(nil), p.Body()...), p.StreamID, true, nil

	case TypeStart:
		d.buffers[p.StreamID] = append([]byte(nil), p.Body()...)
		return nil, p.StreamID, false, nil

	case TypeCont:
		if !inProgress {
			d.violation(p.StreamID)
			return nil, p.StreamID, false, nil
		}
		d.buffers[p.StreamID] = append(buf, p.Body()...)
		return nil, p.StreamID, false, nil

	case TypeEnd:
		if !inProgress {
			d.violation(p.StreamID)
			return nil, p.StreamID, false, nil
		}
		full := append(buf, p.Body()...)
		delete(d.buffers, p.StreamID)
		return full, p.StreamID, true, nil
	}

	return nil, p.StreamID, false, fmt.Errorf("packet: unreachable packet type %d", p.Type)
}

func (d *Decoder) violation(stream StreamID) {
	delete(d.buffers, stream)
	d.violations++
}

// Violations returns the number of reassembly violations observed so far.
func (d *Decoder) Violations() int {
	return d.violations
}

// Reset clears all reassembly state (e.g. on a fresh connection, spec §3
// lifecycle: "next connection starts with empty reassembly buffers").
func (d *Decoder) Reset() {
	d.buffers = make(map[StreamID][]byte)
	d.violations = 0
}
