// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package azure

import (
	"testing"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/stretchr/testify/require"
)

func TestRawFormatForPicksNearestSupportedRate(t *testing.T) {
	format, hz := rawFormatFor(8000)
	require.Equal(t, speech.Raw16Khz16BitMonoPcm, format)
	require.Equal(t, uint32(16000), hz)

	format, hz = rawFormatFor(16000)
	require.Equal(t, speech.Raw16Khz16BitMonoPcm, format)
	require.Equal(t, uint32(16000), hz)

	format, hz = rawFormatFor(24000)
	require.Equal(t, speech.Raw24Khz16BitMonoPcm, format)
	require.Equal(t, uint32(24000), hz)

	format, hz = rawFormatFor(48000)
	require.Equal(t, speech.Raw24Khz16BitMonoPcm, format)
	require.Equal(t, uint32(24000), hz)
}

func TestSynthesizeLabelsPCMBlockWithBucketedRate(t *testing.T) {
	// Non-bucketed targetHz values (e.g. 22050, 44100) must be labeled
	// with the rate the SDK actually emits, not echoed back verbatim.
	_, hz := rawFormatFor(22050)
	require.Equal(t, uint32(16000), hz)
	_, hz = rawFormatFor(44100)
	require.Equal(t, uint32(24000), hz)
}
