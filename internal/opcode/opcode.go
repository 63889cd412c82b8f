// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package opcode provides typed wrappers over reassembled message payloads
// (spec §4.3, §6.2): a one-byte opcode tag followed by a variant-specific
// body.
package opcode

import (
	"encoding/binary"
	"fmt"
)

// Code tags the variant carried by a message body.
type Code uint8

const (
	UNK Code = iota
	HELLO
	STRING
	AUDIO
	PLAYBACK_FINISHED
	START_RECORDING
	STOP_RECORDING
	AUDIO_FORMAT
)

func (c Code) String() string {
	switch c {
	case UNK:
		return "UNK"
	case HELLO:
		return "HELLO"
	case STRING:
		return "STRING"
	case AUDIO:
		return "AUDIO"
	case PLAYBACK_FINISHED:
		return "PLAYBACK_FINISHED"
	case START_RECORDING:
		return "START_RECORDING"
	case STOP_RECORDING:
		return "STOP_RECORDING"
	case AUDIO_FORMAT:
		return "AUDIO_FORMAT"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// Frame is a decoded OpCode frame: the tag plus its raw body bytes.
type Frame struct {
	Code Code
	Body []byte
}

// Decode parses a reassembled message into a Frame. An empty message is
// invalid (every message carries at least the one opcode byte).
func Decode(message []byte) (Frame, error) {
	if len(message) == 0 {
		return Frame{}, fmt.Errorf("opcode: empty message")
	}
	return Frame{Code: Code(message[0]), Body: message[1:]}, nil
}

// Encode serializes a Frame back into a single message payload.
func (f Frame) Encode() []byte {
	out := make([]byte, 1+len(f.Body))
	out[0] = byte(f.Code)
	copy(out[1:], f.Body)
	return out
}

// NewHello builds a zero-body HELLO frame.
func NewHello() Frame { return Frame{Code: HELLO} }

// NewPlaybackFinished builds a zero-body PLAYBACK_FINISHED frame.
func NewPlaybackFinished() Frame { return Frame{Code: PLAYBACK_FINISHED} }

// NewStartRecording builds a zero-body START_RECORDING frame.
func NewStartRecording() Frame { return Frame{Code: START_RECORDING} }

// NewStopRecording builds a zero-body STOP_RECORDING frame.
func NewStopRecording() Frame { return Frame{Code: STOP_RECORDING} }

// NewString builds a STRING frame from a UTF-8 string.
func NewString(s string) Frame {
	return Frame{Code: STRING, Body: []byte(s)}
}

// AsString extracts the UTF-8 string body of a STRING frame.
func (f Frame) AsString() (string, error) {
	if f.Code != STRING {
		return "", fmt.Errorf("opcode: frame is %s, not STRING", f.Code)
	}
	return string(f.Body), nil
}

// NewAudio builds an AUDIO frame from little-endian-ordered i16 samples.
func NewAudio(samples []int16) Frame {
	body := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(body[i*2:], uint16(s))
	}
	return Frame{Code: AUDIO, Body: body}
}

// AsAudio decodes an AUDIO frame's body into i16 samples, byte-swapping on
// big-endian hosts (spec §4.3, §9 design note: wire format is always
// little-endian).
func (f Frame) AsAudio() ([]int16, error) {
	if f.Code != AUDIO {
		return nil, fmt.Errorf("opcode: frame is %s, not AUDIO", f.Code)
	}
	if len(f.Body)%2 != 0 {
		return nil, fmt.Errorf("opcode: AUDIO body length %d is not a multiple of 2", len(f.Body))
	}
	n := len(f.Body) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(f.Body[i*2 : i*2+2]))
	}
	return samples, nil
}

// AudioFormat carries the four sample-format fields exchanged at session
// setup (spec §4.3: exactly 16 bytes, little-endian u32 x4).
type AudioFormat struct {
	RecordHz            uint32
	RecordFrameSamples  uint32
	PlaybackHz          uint32
	PlaybackFrameSample uint32
}

// NewAudioFormat builds an AUDIO_FORMAT frame.
func NewAudioFormat(af AudioFormat) Frame {
	body := make([]byte, 16)
	binary.LittleEndian.PutUint32(body[0:4], af.RecordHz)
	binary.LittleEndian.PutUint32(body[4:8], af.RecordFrameSamples)
	binary.LittleEndian.PutUint32(body[8:12], af.PlaybackHz)
	binary.LittleEndian.PutUint32(body[12:16], af.PlaybackFrameSample)
	return Frame{Code: AUDIO_FORMAT, Body: body}
}

// AsAudioFormat decodes an AUDIO_FORMAT frame.
func (f Frame) AsAudioFormat() (AudioFormat, error) {
	if f.Code != AUDIO_FORMAT {
		return AudioFormat{}, fmt.Errorf("opcode: frame is %s, not AUDIO_FORMAT", f.Code)
	}
	if len(f.Body) != 16 {
		return AudioFormat{}, fmt.Errorf("opcode: AUDIO_FORMAT body must be 16 bytes, got %d", len(f.Body))
	}
	return AudioFormat{
		RecordHz:            binary.LittleEndian.Uint32(f.Body[0:4]),
		RecordFrameSamples:  binary.LittleEndian.Uint32(f.Body[4:8]),
		PlaybackHz:          binary.LittleEndian.Uint32(f.Body[8:12]),
		PlaybackFrameSample: binary.LittleEndian.Uint32(f.Body[12:16]),
	}, nil
}
