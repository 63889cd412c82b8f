// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package elevenlabs adapts ElevenLabs' REST speech-to-text and
// text-to-speech endpoints to the provider.Provider contract (spec §4.9),
// grounded on the teacher's resty-based REST transformer shape.
package elevenlabs

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/rapidaai/speechmediator/internal/provider"
)

const (
	sttEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"
	ttsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech/%s/stream"
)

// defaultVoiceID is used when the caller does not specify a gender-mapped
// voice (ElevenLabs voices are opaque ids, not a gender enum).
const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

type sttResponse struct {
	Text string `json:"text"`
}

// Adapter implements provider.Provider against ElevenLabs.
type Adapter struct {
	http *resty.Client
}

// New builds an Adapter from the ambient ElevenLabs API key.
func New(apiKey string) *Adapter {
	return &Adapter{http: resty.New().SetHeader("xi-api-key", apiKey)}
}

func (a *Adapter) Name() string { return "elevenlabs" }

// Transcribe posts the PCM block (as a raw WAV-less linear16 body, which
// ElevenLabs' Scribe model accepts alongside a declared content type) and
// returns its recognized text.
func (a *Adapter) Transcribe(ctx context.Context, pcm provider.PCMBlock, languageCode string) (string, error) {
	if len(pcm.Samples) == 0 {
		return "", provider.ErrInvalidArgument
	}

	var out sttResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetFileReader("file", "audio.pcm", bytes.NewReader(provider.EncodeLE16(pcm.Samples))).
		SetFormData(map[string]string{"model_id": "scribe_v1", "language_code": languageCode}).
		SetResult(&out).
		Post(sttEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: elevenlabs stt returned %s", provider.ErrProviderUnavailable, resp.Status())
	}
	return out.Text, nil
}

// Synthesize streams the given text back as PCM at targetHz.
func (a *Adapter) Synthesize(ctx context.Context, text, _ string, _ provider.VoiceGender, targetHz uint32) (provider.PCMBlock, error) {
	if text == "" {
		return provider.PCMBlock{}, provider.ErrInvalidArgument
	}

	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("output_format", fmt.Sprintf("pcm_%d", targetHz)).
		SetBody(map[string]string{"text": text, "model_id": "eleven_multilingual_v2"}).
		Post(fmt.Sprintf(ttsEndpoint, defaultVoiceID))
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return provider.PCMBlock{}, fmt.Errorf("%w: elevenlabs tts returned %s", provider.ErrProviderUnavailable, resp.Status())
	}

	return provider.PCMBlock{Samples: provider.DecodeLE16(resp.Body()), SampleRateHz: targetHz}, nil
}
