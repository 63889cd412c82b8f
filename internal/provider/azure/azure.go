// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package azure adapts the Microsoft Cognitive Services Speech SDK to the
// provider.Provider contract (spec §4.9). The SDK's recognizer/synthesizer
// are push-stream and callback based; this adapter wraps each one-shot
// call behind the synchronous interface C8 expects.
package azure

import (
	"context"
	"fmt"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/rapidaai/speechmediator/internal/provider"
)

// Adapter implements provider.Provider against Azure Cognitive Speech.
type Adapter struct {
	subscriptionKey string
	region          string
}

// New builds an Adapter from ambient subscription credentials (spec §4.9).
func New(subscriptionKey, region string) *Adapter {
	return &Adapter{subscriptionKey: subscriptionKey, region: region}
}

func (a *Adapter) Name() string { return "azure" }

// Transcribe pushes audio.Samples through a push-audio-input-stream backed
// recognizer and waits for the single recognized result.
func (a *Adapter) Transcribe(ctx context.Context, pcm provider.PCMBlock, languageCode string) (string, error) {
	if len(pcm.Samples) == 0 {
		return "", provider.ErrInvalidArgument
	}

	cfg, err := speech.NewSpeechConfigFromSubscription(a.subscriptionKey, a.region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer cfg.Close()
	_ = cfg.SetSpeechRecognitionLanguage(languageCode)

	format, err := audio.GetWaveFormatPCM(pcm.SampleRateHz, 16, 1)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer format.Close()

	stream, err := audio.CreatePushAudioInputStreamFromFormat(format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer stream.Close()

	audioCfg, err := audio.NewAudioConfigFromStreamInput(stream)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer audioCfg.Close()

	recognizer, err := speech.NewSpeechRecognizerFromConfig(cfg, audioCfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer recognizer.Close()

	if err := stream.Write(provider.EncodeLE16(pcm.Samples)); err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	stream.Close()

	future := recognizer.RecognizeOnceAsync()
	select {
	case outcome := <-future:
		if outcome.Error != nil {
			return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, outcome.Error)
		}
		return outcome.Result.Text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Synthesize runs a one-shot speech synthesis at the raw PCM output format
// rawFormatFor picks for targetHz. The audio is not resampled: the returned
// block is labeled with the rate the SDK emitted (16000 or 24000), which
// differs from targetHz for any other target.
func (a *Adapter) Synthesize(ctx context.Context, text, languageCode string, gender provider.VoiceGender, targetHz uint32) (provider.PCMBlock, error) {
	if text == "" {
		return provider.PCMBlock{}, provider.ErrInvalidArgument
	}

	cfg, err := speech.NewSpeechConfigFromSubscription(a.subscriptionKey, a.region)
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer cfg.Close()
	_ = cfg.SetSpeechSynthesisLanguage(languageCode)
	format, actualHz := rawFormatFor(targetHz)
	_ = cfg.SetSpeechSynthesisOutputFormat(format)

	synthesizer, err := speech.NewSpeechSynthesizerFromConfig(cfg, nil)
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer synthesizer.Close()

	future := synthesizer.SpeakTextAsync(text)
	select {
	case outcome := <-future:
		if outcome.Error != nil {
			return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, outcome.Error)
		}
		return provider.PCMBlock{Samples: provider.DecodeLE16(outcome.Result.AudioData), SampleRateHz: actualHz}, nil
	case <-ctx.Done():
		return provider.PCMBlock{}, ctx.Err()
	}
}

// rawFormatFor buckets targetHz to the nearest SDK-supported raw PCM output
// format and returns the rate that bucket actually produces — callers must
// label the resulting PCMBlock with this rate, not the requested targetHz,
// for any targetHz that isn't exactly 16000 or 24000.
func rawFormatFor(hz uint32) (format speech.SpeechSynthesisOutputFormat, actualHz uint32) {
	if hz >= 24000 {
		return speech.Raw24Khz16BitMonoPcm, 24000
	}
	return speech.Raw16Khz16BitMonoPcm, 16000
}
