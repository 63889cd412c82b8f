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

func TestTrackAddAudioAccumulates(t *testing.T) {
	tr := NewTrack(16000, 320, 3200, false)
	tr.AddAudio(make([]int16, 100))
	tr.AddAudio(make([]int16, 500))
	require.Equal(t, 600, tr.SampleCount())
	require.Len(t, tr.Samples(), 600)
}

func TestTrackClearResetsWithoutReallocating(t *testing.T) {
	tr := NewTrack(16000, 320, 3200, false)
	tr.AddAudio(make([]int16, 1000))
	tr.Clear()
	require.Zero(t, tr.SampleCount())
	require.Empty(t, tr.Samples())
}

func TestTrackOverflowDropsNewestSamples(t *testing.T) {
	tr := NewTrack(16000, 320, 1000, false)
	dropped := tr.AddAudio(make([]int16, 900))
	require.Zero(t, dropped)

	dropped = tr.AddAudio(make([]int16, 300))
	require.Equal(t, 200, dropped)
	require.Equal(t, 1000, tr.SampleCount())
}

func TestTrackAllowGrowthIgnoresCapacity(t *testing.T) {
	tr := NewTrack(16000, 320, 100, true)
	dropped := tr.AddAudio(make([]int16, 5000))
	require.Zero(t, dropped)
	require.Equal(t, 5000, tr.SampleCount())
}
