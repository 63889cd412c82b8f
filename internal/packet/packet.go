// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package packet implements the fixed-size 256-byte wire packet (spec
// §4.1, §6.1) that carries fragmented messages on labeled logical streams
// over the local Message Stream connection.
package packet

import (
	"encoding/binary"
	"fmt"
)

// StreamID labels one of the two logical reassembly lanes multiplexed over
// a single connection.
type StreamID uint8

const (
	StreamSpeech  StreamID = 0
	StreamCommand StreamID = 1
)

func (s StreamID) String() string {
	switch s {
	case StreamSpeech:
		return "SPEECH"
	case StreamCommand:
		return "COMMAND"
	default:
		return fmt.Sprintf("StreamID(%d)", uint8(s))
	}
}

// Type tags a packet's position within its message.
type Type uint8

const (
	TypeStart  Type = 0
	TypeCont   Type = 1
	TypeEnd    Type = 2
	TypeSingle Type = 3
)

func (t Type) valid() bool {
	return t <= TypeSingle
}

// Size is the total wire size of a packet: 1 (stream_id) + 1 (packet_type)
// + 2 (payload_len) + 252 (payload).
const Size = 256

// MaxPayload is the maximum payload a single packet can carry.
const MaxPayload = 252

const headerSize = 4

// Packet is one 256-byte wire unit (spec §6.1).
type Packet struct {
	StreamID   StreamID
	Type       Type
	PayloadLen uint16
	Payload    [MaxPayload]byte
}

// Encode serializes p into exactly Size bytes.
func (p *Packet) Encode() []byte {
	buf := make([]byte, Size)
	buf[0] = byte(p.StreamID)
	buf[1] = byte(p.Type)
	binary.LittleEndian.PutUint16(buf[2:4], p.PayloadLen)
	copy(buf[headerSize:], p.Payload[:])
	return buf
}

// Decode parses exactly Size bytes into a Packet. It returns an error
// (spec §3 invariant 6) if payload_len exceeds 252 or packet_type is
// outside the defined set — callers must close the connection on error.
func Decode(buf []byte) (Packet, error) {
	var p Packet
	if len(buf) != Size {
		return p, fmt.Errorf("packet: expected %d bytes, got %d", Size, len(buf))
	}

	p.StreamID = StreamID(buf[0])
	p.Type = Type(buf[1])
	p.PayloadLen = binary.LittleEndian.Uint16(buf[2:4])

	if !p.Type.valid() {
		return p, fmt.Errorf("packet: invalid packet_type %d", buf[1])
	}
	if p.PayloadLen > MaxPayload {
		return p, fmt.Errorf("packet: payload_len %d exceeds %d", p.PayloadLen, MaxPayload)
	}

	copy(p.Payload[:], buf[headerSize:])
	return p, nil
}

// Body returns the packet's meaningful payload bytes (excluding zero pad).
func (p *Packet) Body() []byte {
	return p.Payload[:p.PayloadLen]
}

// Encode turns (stream_id, payload) into the wire packet sequence per the
// encoder contract in spec §4.1: one SINGLE if payload fits in one packet,
// otherwise START + zero-or-more CONT + END, zero-padding the final slice.
func Encode(stream StreamID, payload []byte) [][]byte {
	if len(payload) <= MaxPayload {
		p := Packet{StreamID: stream, Type: TypeSingle, PayloadLen: uint16(len(payload))}
		copy(p.Payload[:], payload)
		return [][]byte{p.Encode()}
	}

	var out [][]byte
	remaining := payload
	first := true
	for len(remaining) > MaxPayload {
		typ := TypeCont
		if first {
			typ = TypeStart
			first = false
		}
		p := Packet{StreamID: stream, Type: typ, PayloadLen: MaxPayload}
		copy(p.Payload[:], remaining[:MaxPayload])
		out = append(out, p.Encode())
		remaining = remaining[MaxPayload:]
	}

	p := Packet{StreamID: stream, Type: TypeEnd, PayloadLen: uint16(len(remaining))}
	copy(p.Payload[:], remaining)
	out = append(out, p.Encode())
	return out
}
