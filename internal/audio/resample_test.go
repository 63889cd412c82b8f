// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertIdentity(t *testing.T) {
	in := []int16{1, 2, 3, -4, 5, 100, -100}
	out := Convert(in, 16000, 16000)
	require.Equal(t, in, out)
}

func TestConvertUpsampleProducesMoreSamples(t *testing.T) {
	in := make([]int16, 160) // 10ms @ 16kHz
	for i := range in {
		in[i] = int16(i)
	}
	out := Convert(in, 16000, 48000)
	require.Greater(t, len(out), len(in))
}

func TestConvertDownsampleProducesFewerSamples(t *testing.T) {
	in := make([]int16, 480)
	out := Convert(in, 48000, 16000)
	require.Less(t, len(out), len(in))
}

func TestResamplerResetClearsState(t *testing.T) {
	r := NewResampler(16000, 8000)
	in := make([]int16, 320)
	_ = r.Feed(in)
	require.NotEmpty(t, r.history)
	r.Reset()
	require.Empty(t, r.history)
	require.Zero(t, r.phase)
}
