// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package audio

// Track is the Audio Track entity (spec §3): an ordered sequence of
// fixed-capacity Chunks. Every chunk but the last is completely full; the
// last may be partial; sum(chunk fill) always equals SampleCount(). Used
// for both the rolling record buffer and the synthesis buffer (spec §4.8),
// mirroring the chunked-storage shape of the original AudioTrack.h/.cpp
// (GetBuffer/AddAudio/Clear/GetSampleCount) rather than a single resizable
// slice, so growth and capacity accounting stay explicit.
type Track struct {
	SampleRateHz uint32
	AllowGrowth  bool

	chunkSamples int
	maxSamples   int // only enforced when !AllowGrowth; 0 means unbounded
	chunks       [][]int16
	sampleCount  int
}

// NewTrack builds a Track. chunkSamples bounds each chunk's capacity;
// capacitySamples bounds the track's total size when allowGrowth is false
// (spec §4.8: "sized to record_storage_seconds × sample_rate").
func NewTrack(sampleRateHz uint32, chunkSamples int, capacitySamples int, allowGrowth bool) *Track {
	if chunkSamples <= 0 {
		chunkSamples = 1
	}
	return &Track{
		SampleRateHz: sampleRateHz,
		AllowGrowth:  allowGrowth,
		chunkSamples: chunkSamples,
		maxSamples:   capacitySamples,
	}
}

// Clear drops all chunks without releasing their backing arrays, matching
// AudioTrack's "cleared, not reallocated" lifecycle (spec §3).
func (t *Track) Clear() {
	for i := range t.chunks {
		t.chunks[i] = t.chunks[i][:0]
	}
	t.chunks = t.chunks[:0]
	t.sampleCount = 0
}

// SampleCount returns the total number of samples currently stored.
func (t *Track) SampleCount() int { return t.sampleCount }

// Samples returns the track's contents flattened into one contiguous slice.
func (t *Track) Samples() []int16 {
	out := make([]int16, 0, t.sampleCount)
	for _, c := range t.chunks {
		out = append(out, c...)
	}
	return out
}

// AddAudio appends samples to the track, filling the last chunk before
// allocating new ones. When the track cannot grow and would exceed its
// capacity, the newest samples that don't fit are dropped rather than the
// oldest (spec §4.8: "newest samples are dropped and a warning is logged;
// the recording session is not aborted"). Returns the number of samples
// dropped.
func (t *Track) AddAudio(samples []int16) int {
	if !t.AllowGrowth && t.maxSamples > 0 {
		room := t.maxSamples - t.sampleCount
		if room <= 0 {
			return len(samples)
		}
		if len(samples) > room {
			dropped := len(samples) - room
			samples = samples[:room]
			t.appendSamples(samples)
			return dropped
		}
	}
	t.appendSamples(samples)
	return 0
}

func (t *Track) appendSamples(samples []int16) {
	for len(samples) > 0 {
		last := t.lastChunkWithRoom()
		room := t.chunkSamples - len(last)
		n := len(samples)
		if n > room {
			n = room
		}
		idx := len(t.chunks) - 1
		t.chunks[idx] = append(t.chunks[idx], samples[:n]...)
		samples = samples[n:]
		t.sampleCount += n
	}
}

// lastChunkWithRoom returns the current last chunk, reusing a chunk kept by
// Clear or allocating a fresh one (capacity chunkSamples) if none exists or
// the last is already full.
func (t *Track) lastChunkWithRoom() []int16 {
	if len(t.chunks) == 0 || len(t.chunks[len(t.chunks)-1]) == t.chunkSamples {
		if n := len(t.chunks); n < cap(t.chunks) && cap(t.chunks[:n+1][n]) == t.chunkSamples {
			t.chunks = t.chunks[:n+1]
		} else {
			t.chunks = append(t.chunks, make([]int16, 0, t.chunkSamples))
		}
	}
	return t.chunks[len(t.chunks)-1]
}
