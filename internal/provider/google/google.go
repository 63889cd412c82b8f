// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package google adapts Google Cloud Speech-to-Text v2 and Text-to-Speech
// v1 to the provider.Provider contract (spec §4.9), grounded on the
// option-building shape of transformer/google/google.go but collapsed to
// the synchronous batch calls the Voice backend needs instead of that
// file's streaming recognizer configuration.
package google

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/rapidaai/speechmediator/internal/provider"
)

const defaultVoice = "en-US-Chirp-HD-F"

// Adapter implements provider.Provider against Google Cloud Speech/TTS.
type Adapter struct {
	projectID    string
	recognizer   string
	speechClient *speech.Client
	ttsClient    *texttospeech.Client
}

// New builds an Adapter. credentialsJSON is the service-account key body;
// recognizer is the full Speech-to-Text v2 recognizer resource name (spec
// §4.9: "ambient credential material").
func New(ctx context.Context, projectID, recognizer string, credentialsJSON []byte) (*Adapter, error) {
	opts := []option.ClientOption{}
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}

	sc, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: speech client: %w", err)
	}
	tc, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: texttospeech client: %w", err)
	}
	if recognizer == "" {
		recognizer = fmt.Sprintf("projects/%s/locations/global/recognizers/_", projectID)
	}

	return &Adapter{projectID: projectID, recognizer: recognizer, speechClient: sc, ttsClient: tc}, nil
}

func (a *Adapter) Name() string { return "google" }

// Transcribe calls Speech-to-Text v2's batch Recognize and returns the
// highest-confidence alternative across every result (spec §4.9: "global
// argmax over confidence").
func (a *Adapter) Transcribe(ctx context.Context, audio provider.PCMBlock, languageCode string) (string, error) {
	if len(audio.Samples) == 0 {
		return "", provider.ErrInvalidArgument
	}

	req := &speechpb.RecognizeRequest{
		Recognizer: a.recognizer,
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(audio.SampleRateHz),
					AudioChannelCount: 1,
				},
			},
			LanguageCodes: []string{languageCode},
			Model:         "long",
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: provider.EncodeLE16(audio.Samples)},
	}

	resp, err := a.speechClient.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}

	best := ""
	var bestConfidence float32
	for _, result := range resp.GetResults() {
		for _, alt := range result.GetAlternatives() {
			if alt.GetConfidence() >= bestConfidence {
				bestConfidence = alt.GetConfidence()
				best = alt.GetTranscript()
			}
		}
	}
	return best, nil
}

// Synthesize calls Text-to-Speech v1 and returns linear PCM at targetHz.
func (a *Adapter) Synthesize(ctx context.Context, text, languageCode string, gender provider.VoiceGender, targetHz uint32) (provider.PCMBlock, error) {
	if text == "" {
		return provider.PCMBlock{}, provider.ErrInvalidArgument
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{InputSource: &texttospeechpb.SynthesisInput_Text{Text: text}},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         defaultVoice,
			SsmlGender:   toGoogleGender(gender),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: int32(targetHz),
		},
	}

	resp, err := a.ttsClient.SynthesizeSpeech(ctx, req)
	if err != nil {
		return provider.PCMBlock{}, fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}

	return provider.PCMBlock{Samples: provider.DecodeLE16(resp.GetAudioContent()), SampleRateHz: targetHz}, nil
}

func toGoogleGender(g provider.VoiceGender) texttospeechpb.SsmlVoiceGender {
	switch g {
	case provider.VoiceGenderFemale:
		return texttospeechpb.SsmlVoiceGender_FEMALE
	case provider.VoiceGenderMale:
		return texttospeechpb.SsmlVoiceGender_MALE
	default:
		return texttospeechpb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED
	}
}
