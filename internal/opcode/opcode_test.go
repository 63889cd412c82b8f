// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	f := NewString("hello")
	msg := f.Encode()

	decoded, err := Decode(msg)
	require.NoError(t, err)
	require.Equal(t, STRING, decoded.Code)

	s, err := decoded.AsString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
}

func TestAudioRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 42}
	f := NewAudio(samples)
	msg := f.Encode()

	decoded, err := Decode(msg)
	require.NoError(t, err)
	require.Equal(t, AUDIO, decoded.Code)

	got, err := decoded.AsAudio()
	require.NoError(t, err)
	require.Equal(t, samples, got)
}

func TestAudioFormatRoundTrip(t *testing.T) {
	af := AudioFormat{RecordHz: 16000, RecordFrameSamples: 320, PlaybackHz: 22050, PlaybackFrameSample: 441}
	f := NewAudioFormat(af)
	require.Len(t, f.Body, 16)

	decoded, err := Decode(f.Encode())
	require.NoError(t, err)
	got, err := decoded.AsAudioFormat()
	require.NoError(t, err)
	require.Equal(t, af, got)
}

func TestZeroBodyOpcodes(t *testing.T) {
	for _, f := range []Frame{NewHello(), NewPlaybackFinished(), NewStartRecording(), NewStopRecording()} {
		msg := f.Encode()
		require.Len(t, msg, 1)
		decoded, err := Decode(msg)
		require.NoError(t, err)
		require.Equal(t, f.Code, decoded.Code)
		require.Empty(t, decoded.Body)
	}
}

func TestDecodeEmptyMessageFails(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)
}

func TestWrongVariantAccessorFails(t *testing.T) {
	f := NewHello()
	_, err := f.AsString()
	require.Error(t, err)
	_, err = f.AsAudio()
	require.Error(t, err)
	_, err = f.AsAudioFormat()
	require.Error(t, err)
}
