// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package deepgram adapts Deepgram's prerecorded transcription SDK and
// speak REST endpoint to the provider.Provider contract (spec §4.9).
package deepgram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/v3/pkg/client/prerecorded"
	"github.com/go-resty/resty/v2"

	"github.com/rapidaai/speechmediator/internal/provider"
)

const speakEndpoint = "https://api.deepgram.com/v1/speak"

// Adapter implements provider.Provider against Deepgram.
type Adapter struct {
	apiKey string
	http   *resty.Client
}

// New builds an Adapter from the ambient Deepgram API key.
func New(apiKey string) *Adapter {
	return &Adapter{
		apiKey: apiKey,
		http:   resty.New().SetHeader("Authorization", "Token "+apiKey),
	}
}

func (a *Adapter) Name() string { return "deepgram" }

// Transcribe submits the PCM block to Deepgram's prerecorded batch API and
// returns the highest-confidence transcript across every channel and
// alternative (ties go to the later one), or "" if none was returned.
func (a *Adapter) Transcribe(ctx context.Context, pcm provider.PCMBlock, languageCode string) (string, error) {
	if len(pcm.Samples) == 0 {
		return "", provider.ErrInvalidArgument
	}

	client := prerecorded.NewWithDefaults()
	client.SetAPIKey(a.apiKey)

	opts := &interfaces.PreRecordedTranscriptionOptions{
		Model:       "nova-2",
		Language:    languageCode,
		SmartFormat: true,
		Punctuate:   true,
	}

	body := bytes.NewReader(provider.EncodeLE16(pcm.Samples))
	resp, err := client.FromStream(ctx, body, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}

	best := ""
	var bestConfidence float64
	for _, channel := range resp.Results.Channels {
		for _, alt := range channel.Alternatives {
			if alt.Confidence >= bestConfidence {
				bestConfidence = alt.Confidence
				best = alt.Transcript
			}
		}
	}
	return best, nil
}

// Synthesize calls Deepgram's speak REST endpoint for raw linear PCM at
// targetHz, the same request-shape used by the teacher's Cartesia/Sarvam
// TTS transformers' REST fallback paths.
func (a *Adapter) Synthesize(ctx context.Context, text, _ string, _ provider.VoiceGender, targetHz uint32) (provider.PCMBlock, error) {
	if text == "" {
		return provider.PCMBlock{}, provider.ErrInvalidArgument
	}

	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"encoding":    "linear16",
			"sample_rate": fmt.Sprintf("%d", targetHz),
		}).
		SetBody(map[string]string{"text": text}).
		Post(speakEndpoint)
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return provider.PCMBlock{}, fmt.Errorf("%w: deepgram speak returned %s", provider.ErrProviderUnavailable, resp.Status())
	}

	return provider.PCMBlock{Samples: provider.DecodeLE16(resp.Body()), SampleRateHz: targetHz}, nil
}
