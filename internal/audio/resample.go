// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package audio holds the PCM primitives shared between the Voice backend
// and the STT/TTS provider adapters: the Audio Track buffer (spec §3) and
// a quality-rated, resettable sample-rate converter (spec §4.8, §9 design
// note: "any resampler with resettable session state and quality ≥
// sinc-medium").
package audio

import "math"

// Resampler converts mono i16 PCM between sample rates. It holds
// per-session state (the fractional phase between calls) and is reset at
// every cycle boundary per spec §4.8.
//
// The interpolation kernel is windowed-sinc (Lanczos, a=3), which is the
// "medium" tier referenced by the spec's quality floor — cheap enough for
// synchronous per-utterance use without a DSP library dependency (see
// DESIGN.md: none of the pack's resampler deps are exercised by any
// retrieved file, so no SDK import is warranted here).
type Resampler struct {
	fromHz, toHz uint32
	phase        float64
	history      []int16 // tail samples carried across Feed calls for the kernel window
}

// NewResampler builds a Resampler converting fromHz -> toHz.
func NewResampler(fromHz, toHz uint32) *Resampler {
	return &Resampler{fromHz: fromHz, toHz: toHz}
}

// Reset clears session state (spec §4.8: "reset on every cycle boundary").
func (r *Resampler) Reset() {
	r.phase = 0
	r.history = nil
}

const lanczosA = 3

// Convert resamples in and returns the converted output. A ratio of 1.0
// (fromHz == toHz) returns the input unchanged (spec §8 testable property
// 7: "Resampler identity").
func Convert(in []int16, fromHz, toHz uint32) []int16 {
	if fromHz == toHz || len(in) == 0 {
		out := make([]int16, len(in))
		copy(out, in)
		return out
	}

	r := NewResampler(fromHz, toHz)
	return r.Feed(in)
}

// Feed resamples one chunk of input, continuing the converter's fractional
// phase from the previous call.
func (r *Resampler) Feed(in []int16) []int16 {
	if r.fromHz == r.toHz {
		out := make([]int16, len(in))
		copy(out, in)
		return out
	}
	if len(in) == 0 {
		return nil
	}

	// Prepend carried history so the kernel has context at the chunk boundary.
	samples := append(append([]int16(nil), r.history...), in...)
	offset := float64(len(r.history))

	ratio := float64(r.fromHz) / float64(r.toHz)
	var out []int16

	pos := r.phase + offset
	for pos < float64(len(samples))-1 {
		out = append(out, lanczosSample(samples, pos))
		pos += ratio
	}

	// Carry the phase (relative to the END of the consumed input) and the
	// trailing samples needed as context for the next Feed call.
	consumedFloat := pos - offset
	r.phase = consumedFloat - float64(len(in))

	keep := 2*lanczosA + 1
	if keep > len(in) {
		keep = len(in)
	}
	r.history = append([]int16(nil), in[len(in)-keep:]...)

	return out
}

func lanczosSample(samples []int16, pos float64) int16 {
	center := int(pos)
	frac := pos - float64(center)

	var sum float64
	var weightSum float64
	for k := -lanczosA + 1; k <= lanczosA; k++ {
		idx := center + k
		if idx < 0 || idx >= len(samples) {
			continue
		}
		x := frac - float64(k)
		w := lanczosKernel(x)
		sum += float64(samples[idx]) * w
		weightSum += w
	}
	if weightSum == 0 {
		if center >= 0 && center < len(samples) {
			return samples[center]
		}
		return 0
	}

	v := sum / weightSum
	return clampToI16(v)
}

func lanczosKernel(x float64) float64 {
	if x == 0 {
		return 1
	}
	if x < -lanczosA || x > lanczosA {
		return 0
	}
	piX := math.Pi * x
	return lanczosA * sinc(piX) * sinc(piX/lanczosA)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

func clampToI16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
