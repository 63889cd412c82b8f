// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package polly

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rapidaai/speechmediator/internal/provider"
	"github.com/stretchr/testify/require"
)

func TestNearestPollyRate(t *testing.T) {
	require.Equal(t, "8000", nearestPollyRate(8000))
	require.Equal(t, "16000", nearestPollyRate(16000))
	require.Equal(t, "22050", nearestPollyRate(22050))
	require.Equal(t, "24000", nearestPollyRate(48000))
}

func TestVoiceForGender(t *testing.T) {
	require.Equal(t, types.VoiceIdMatthew, voiceFor(provider.VoiceGenderMale, "en-US"))
	require.Equal(t, types.VoiceIdJoanna, voiceFor(provider.VoiceGenderFemale, "en-US"))
	require.Equal(t, types.VoiceIdJoanna, voiceFor(provider.VoiceGenderNeutral, "en-US"))
}

func TestTranscribeUnsupported(t *testing.T) {
	a := &Adapter{}
	_, err := a.Transcribe(context.Background(), provider.PCMBlock{Samples: []int16{1}}, "en-US")
	require.ErrorIs(t, err, provider.ErrProviderUnavailable)
}
