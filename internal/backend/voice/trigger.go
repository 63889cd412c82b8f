// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package voice

import (
	"math"
	"strings"

	"github.com/rapidaai/speechmediator/internal/config"
)

// Matcher recognizes a wake phrase in one inbound PCM block (spec §4.8:
// "an optional local wake-phrase recognizer"). Shaped after the VAD
// engine contract (ProcessChunk/Reset) so a real acoustic model can be
// dropped in behind this interface without touching the gate bookkeeping
// in Backend.
type Matcher interface {
	Match(samples []int16) bool
}

// burstWindowSamples buckets a block into fixed-size windows for onset
// counting. It is deliberately rate-agnostic (Match receives no sample
// rate) — see DESIGN.md for why this stays a coarse placeholder rather
// than a timing-accurate segmenter.
const burstWindowSamples = 160

// energyMatcher has no acoustic model for the configured wordlist, so it
// cannot recognize WHICH phrase was spoken — that remains an open
// question (no acoustic wake-word engine is retrieved anywhere in the
// corpus; see DESIGN.md). What it does wire in is the wordlist's shape:
// it counts RMS-energy onsets ("bursts") in the block and only opens the
// gate once the burst count reaches at least one configured phrase's
// word count, so a single cough or chair creak (one burst) doesn't open
// the gate the way a multi-word phrase's cadence would. With no
// configured phrases it falls back to any single energy burst, matching
// its pre-wordlist behavior.
type energyMatcher struct {
	thresholdRMS float64
	phraseWords  []int
}

// NewEnergyMatcher builds the bundled placeholder Matcher, deriving a
// burst-count floor per configured phrase from wordlist.
func NewEnergyMatcher(wordlist config.TriggerWordlist, thresholdRMS float64) Matcher {
	if thresholdRMS <= 0 {
		thresholdRMS = 1200
	}
	var phraseWords []int
	for _, phrase := range wordlist.Phrases {
		if n := len(strings.Fields(phrase)); n > 0 {
			phraseWords = append(phraseWords, n)
		}
	}
	return &energyMatcher{thresholdRMS: thresholdRMS, phraseWords: phraseWords}
}

func (m *energyMatcher) Match(samples []int16) bool {
	if len(samples) == 0 {
		return false
	}
	bursts := m.countBursts(samples)
	if bursts == 0 {
		return false
	}
	if len(m.phraseWords) == 0 {
		return true
	}
	for _, words := range m.phraseWords {
		if bursts >= words {
			return true
		}
	}
	return false
}

func (m *energyMatcher) countBursts(samples []int16) int {
	bursts := 0
	above := false
	for i := 0; i < len(samples); i += burstWindowSamples {
		end := i + burstWindowSamples
		if end > len(samples) {
			end = len(samples)
		}
		if windowRMS(samples[i:end]) >= m.thresholdRMS {
			if !above {
				bursts++
				above = true
			}
		} else {
			above = false
		}
	}
	return bursts
}

func windowRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}
