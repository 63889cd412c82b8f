// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package google

import (
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/rapidaai/speechmediator/internal/provider"
	"github.com/stretchr/testify/require"
)

func TestToGoogleGender(t *testing.T) {
	require.Equal(t, texttospeechpb.SsmlVoiceGender_FEMALE, toGoogleGender(provider.VoiceGenderFemale))
	require.Equal(t, texttospeechpb.SsmlVoiceGender_MALE, toGoogleGender(provider.VoiceGenderMale))
	require.Equal(t, texttospeechpb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED, toGoogleGender(provider.VoiceGenderNeutral))
}
