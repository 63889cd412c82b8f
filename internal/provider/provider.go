// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package provider defines the STT/TTS Provider Adapter contract (spec
// §4.9, C9): two synchronous operations used by the Voice backend, plus a
// dispatcher selecting among concrete provider implementations the way the
// teacher's integrationServiceClient dispatches by provider name
// (pkg/clients/integration/integration_client.go).
package provider

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for empty audio/text inputs (spec §4.9).
var ErrInvalidArgument = errors.New("provider: invalid argument")

// ErrProviderUnavailable wraps any network/transport failure (spec §7).
var ErrProviderUnavailable = errors.New("provider: unavailable")

// PCMBlock is a mono, signed 16-bit little-endian PCM buffer (spec §3).
type PCMBlock struct {
	Samples      []int16
	SampleRateHz uint32
}

// VoiceGender selects a synthesis voice characteristic.
type VoiceGender string

const (
	VoiceGenderNeutral VoiceGender = "neutral"
	VoiceGenderFemale  VoiceGender = "female"
	VoiceGenderMale    VoiceGender = "male"
)

// Provider is the STT/TTS Provider Adapter contract (C9). Both operations
// are synchronous and use the process's ambient credential material.
type Provider interface {
	// Name identifies this provider for logging/dispatch.
	Name() string

	// Transcribe returns the highest-confidence transcript across all
	// returned alternatives/segments (global argmax over confidence), or ""
	// if no alternative was returned. Empty audio fails with
	// ErrInvalidArgument.
	Transcribe(ctx context.Context, audio PCMBlock, languageCode string) (string, error)

	// Synthesize returns PCM for text, requesting targetHz from the
	// provider. Adapters do not resample: where the provider only offers a
	// different rate (azure, polly), the block is returned at that rate and
	// SampleRateHz records it. Empty text fails with ErrInvalidArgument.
	Synthesize(ctx context.Context, text, languageCode string, gender VoiceGender, targetHz uint32) (PCMBlock, error)
}

// Registry dispatches to a concrete Provider by id, mirroring the switch-
// by-provider-name shape of integrationServiceClient.Chat in the teacher.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a Registry from the given providers, keyed by Name().
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get resolves a provider by id.
func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider: unknown provider id %q", id)
	}
	return p, nil
}

// EncodeLE16 packs samples into little-endian i16 bytes, the wire format
// every concrete adapter exchanges with its SDK/REST transport (spec §6.1
// wire-format convention, reused here for adapter payloads).
func EncodeLE16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodeLE16 unpacks little-endian i16 bytes into samples, truncating any
// trailing odd byte.
func DecodeLE16(body []byte) []int16 {
	n := len(body) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(body[i*2 : i*2+2]))
	}
	return out
}
