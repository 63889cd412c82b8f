// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package polly adapts AWS Polly to the provider.Provider contract (spec
// §4.9). Polly is synthesis-only; Transcribe always fails with
// ErrProviderUnavailable so the Voice backend's existing failure path
// (log, drop, return to Recording) handles it without a special case.
package polly

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"github.com/rapidaai/speechmediator/internal/provider"
)

// Adapter implements provider.Provider against AWS Polly.
type Adapter struct {
	client *polly.Client
}

// New builds an Adapter. When accessKeyID is empty, credentials come from
// the ambient AWS SDK chain (env/instance role); otherwise the given
// static key pair is used directly (spec §4.9: "ambient credential
// material").
func New(ctx context.Context, region, accessKeyID, secretAccessKey string) (*Adapter, error) {
	optFns := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("polly: loading AWS config: %w", err)
	}
	return &Adapter{client: polly.NewFromConfig(cfg)}, nil
}

func (a *Adapter) Name() string { return "polly" }

// Transcribe is unsupported; Polly offers no speech recognition API.
func (a *Adapter) Transcribe(context.Context, provider.PCMBlock, string) (string, error) {
	return "", fmt.Errorf("%w: polly does not provide transcription", provider.ErrProviderUnavailable)
}

// Synthesize calls Polly's SynthesizeSpeech for raw PCM output at the
// highest Polly-supported sample rate not above targetHz (8000 for any
// target below 16000). The audio is not resampled; the returned block is
// labeled with the rate Polly was asked for.
func (a *Adapter) Synthesize(ctx context.Context, text, languageCode string, gender provider.VoiceGender, targetHz uint32) (provider.PCMBlock, error) {
	if text == "" {
		return provider.PCMBlock{}, provider.ErrInvalidArgument
	}

	rate := nearestPollyRate(targetHz)
	out, err := a.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatPcm,
		VoiceId:      voiceFor(gender, languageCode),
		SampleRate:   aws.String(rate),
	})
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer out.AudioStream.Close()

	body, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}

	samples := provider.DecodeLE16(body)
	samplesHz := uint32(8000)
	if rate == "16000" {
		samplesHz = 16000
	} else if rate == "22050" {
		samplesHz = 22050
	} else if rate == "24000" {
		samplesHz = 24000
	}
	return provider.PCMBlock{Samples: samples, SampleRateHz: samplesHz}, nil
}

func nearestPollyRate(hz uint32) string {
	switch {
	case hz >= 24000:
		return "24000"
	case hz >= 22050:
		return "22050"
	case hz >= 16000:
		return "16000"
	default:
		return "8000"
	}
}

func voiceFor(gender provider.VoiceGender, languageCode string) types.VoiceId {
	_ = languageCode // Polly voice selection is id-based, not language-parameterized here
	if gender == provider.VoiceGenderMale {
		return types.VoiceIdMatthew
	}
	return types.VoiceIdJoanna
}
