// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package voice implements the Voice backend (spec §4.8, C8): the
// record-accumulate-transcribe-synthesize-playback cycle against a local
// audio-device process over a Message Stream, gated by an optional
// trigger-phrase window.
package voice

import (
	"context"
	"math"
	"time"

	"github.com/rapidaai/speechmediator/internal/audio"
	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/config"
	"github.com/rapidaai/speechmediator/internal/eventbridge"
	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/rapidaai/speechmediator/internal/provider"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/rapidaai/speechmediator/internal/stream"
)

// state names the seven cycle states of spec §4.8's table.
type state int

const (
	stateIdle state = iota
	stateRecording
	stateSilenceHold
	stateTranscribing
	stateSynthesizing
	statePlaying
	stateAcknowledged
)

// Config collects the Voice backend's tunables, sourced from AppConfig
// (spec §6.5).
type Config struct {
	RecordingHz          uint32
	PlaybackHz           uint32
	RecordingTimeout     time.Duration
	RecordStorageSeconds int
	PlaybackFrameSamples int
	LanguageCode         string
	VoiceGender          provider.VoiceGender
	TriggerEnabled       bool
	TriggerTimeout       time.Duration
	Wordlist             config.TriggerWordlist
}

// Backend is the voice speech method (C8).
type Backend struct {
	logger   commons.Logger
	stream   *stream.Stream
	bridge   *eventbridge.Bridge
	provider provider.Provider
	cfg      Config
	matcher  Matcher

	record *audio.Track

	state           state
	lastAudio       time.Time
	holdSince       time.Time
	gateOpenUntil   time.Time
	wakeTonePending bool
	pendingAck      *storage.Utterance
}

// New builds a Backend. matcher may be nil; a nil matcher with
// cfg.TriggerEnabled true falls back to the bundled energy-based
// placeholder (see trigger.go).
func New(logger commons.Logger, s *stream.Stream, bridge *eventbridge.Bridge, p provider.Provider, cfg Config, matcher Matcher) *Backend {
	if cfg.TriggerEnabled && matcher == nil {
		matcher = NewEnergyMatcher(cfg.Wordlist, 0)
	}
	chunkSamples := cfg.PlaybackFrameSamples
	if chunkSamples <= 0 {
		chunkSamples = 320
	}
	capacity := int(cfg.RecordingHz) * cfg.RecordStorageSeconds
	return &Backend{
		logger:   logger,
		stream:   s,
		bridge:   bridge,
		provider: p,
		cfg:      cfg,
		matcher:  matcher,
		record:   audio.NewTrack(cfg.RecordingHz, chunkSamples, capacity, false),
		state:    stateIdle,
	}
}

func (b *Backend) Method() backend.Method { return backend.MethodVoice }

// IsViable is true iff the provider adapter and the stream are both usable
// (spec §4.8: "provider is reachable AND the Message Stream is connected").
func (b *Backend) IsViable() bool {
	return b.provider != nil && b.stream.Connected()
}

// Resume enters Recording, per the state table's "Recording | resumed" row.
func (b *Backend) Resume() {
	b.state = stateRecording
	b.lastAudio = time.Now()
	b.logger.Infof("voice: resumed")
}

// Pause returns to Idle; the in-flight recording session, if any, is
// abandoned without an acknowledgement.
func (b *Backend) Pause() {
	b.state = stateIdle
	b.pendingAck = nil
	b.logger.Infof("voice: paused")
}

// Listen drives the record/silence/transcribe half of the cycle (spec
// §4.8).
func (b *Backend) Listen() error {
	if !b.stream.Connected() && b.state == statePlaying {
		// Stream disconnects mid-playback: abort, leave acknowledgement
		// unsent, return to Idle (spec §4.8 failure modes).
		b.pendingAck = nil
		b.state = stateIdle
	}

	now := time.Now()
	for {
		frame, ok := b.stream.TryRecv()
		if !ok {
			break
		}
		b.handleFrame(frame, now)
	}

	switch b.state {
	case stateRecording:
		if now.Sub(b.lastAudio) >= b.cfg.RecordingTimeout {
			b.state = stateSilenceHold
			b.holdSince = now
		}
	case stateSilenceHold:
		if now.Sub(b.lastAudio) >= b.cfg.RecordingTimeout {
			b.transcribe()
		}
	}
	return nil
}

func (b *Backend) handleFrame(frame opcode.Frame, now time.Time) {
	switch frame.Code {
	case opcode.START_RECORDING:
		if b.state == stateIdle {
			b.record.Clear()
			b.state = stateRecording
			b.lastAudio = now
		}

	case opcode.AUDIO:
		if b.state != stateRecording && b.state != stateSilenceHold {
			return
		}
		samples, err := frame.AsAudio()
		if err != nil {
			b.logger.Warnf("voice: discarding malformed AUDIO: %v", err)
			return
		}

		gateOpen := b.triggerGateOpen(samples, now)
		if dropped := b.record.AddAudio(samples); dropped > 0 {
			b.logger.Warnf("voice: record buffer full, dropped %d newest samples", dropped)
		}
		b.lastAudio = now
		if b.state == stateSilenceHold {
			b.state = stateRecording
		}
		if !gateOpen {
			b.wakeTonePending = true
		}

	case opcode.PLAYBACK_FINISHED:
		if b.state == statePlaying {
			b.acknowledgePlayback()
		}
	}
}

// triggerGateOpen reports whether the trigger gate is open for this block,
// updating the gate's deadline on a fresh match (spec §4.8: "re-match
// while open extends the deadline").
func (b *Backend) triggerGateOpen(samples []int16, now time.Time) bool {
	if !b.cfg.TriggerEnabled || b.matcher == nil {
		return true
	}
	if b.matcher.Match(samples) {
		b.gateOpenUntil = now.Add(b.cfg.TriggerTimeout)
		return true
	}
	return now.Before(b.gateOpenUntil)
}

// transcribe dispatches the accumulated record buffer to the provider,
// unless the trigger gate is closed at the moment of dispatch (a gate that
// opened earlier in the cycle and has since timed out counts as closed).
func (b *Backend) transcribe() {
	b.state = stateTranscribing
	defer b.record.Clear()

	if b.cfg.TriggerEnabled && !time.Now().Before(b.gateOpenUntil) && b.matcher != nil {
		b.state = stateRecording
		return
	}

	samples := b.record.Samples()
	if len(samples) == 0 {
		b.state = stateRecording
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := b.provider.Transcribe(ctx, provider.PCMBlock{Samples: samples, SampleRateHz: b.cfg.RecordingHz}, b.cfg.LanguageCode)
	if err != nil {
		b.logger.Warnf("voice: transcribe failed: %v", err)
		b.state = stateRecording
		return
	}
	if text == "" {
		b.state = stateRecording
		return
	}

	id := b.bridge.NextStringID()
	if err := b.bridge.PublishInbound(id, text); err != nil {
		b.logger.Warnf("voice: publish failed: %v", err)
	}
	b.state = stateIdle
}

// Say drives the synthesize/play half of the cycle. Synthesizing may
// interrupt an in-progress Recording (spec §4.8 table: "Recording ... Output
// Storage non-empty").
func (b *Backend) Say(out *storage.Storage) error {
	if b.state == statePlaying || b.state == stateSynthesizing {
		return nil
	}
	if b.state != stateRecording && b.state != stateIdle {
		return nil
	}
	if !out.Available() {
		return nil
	}

	u, err := out.Pop()
	if err != nil {
		return nil
	}

	b.state = stateSynthesizing
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	block, err := b.provider.Synthesize(ctx, u.Text, b.cfg.LanguageCode, b.cfg.VoiceGender, b.cfg.PlaybackHz)
	if err != nil {
		// Provider call fails: log, drop the utterance, return to Recording.
		// No acknowledgement is sent (spec §4.8 failure modes).
		b.logger.Warnf("voice: synthesize failed: %v", err)
		b.state = stateRecording
		return nil
	}

	samples := block.Samples
	if block.SampleRateHz != b.cfg.PlaybackHz {
		// Providers may legitimately return audio at a rate other than
		// cfg.PlaybackHz (e.g. polly.nearestPollyRate); convert against
		// the pair actually in play rather than a fixed session resampler.
		samples = audio.Convert(samples, block.SampleRateHz, b.cfg.PlaybackHz)
	}
	if b.wakeTonePending {
		// Queue the bundled wake tone ahead of the synthesized speech so
		// it plays once, ahead of the utterance it gated (spec §4.8).
		samples = append(wakeToneSamples(b.cfg.PlaybackHz), samples...)
		b.wakeTonePending = false
	}

	frameSize := b.cfg.PlaybackFrameSamples
	if frameSize <= 0 {
		frameSize = len(samples)
	}
	for i := 0; i < len(samples); i += frameSize {
		end := i + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := b.stream.Send(opcode.NewAudio(samples[i:end]).Encode()); err != nil {
			b.logger.Warnf("voice: send failed: %v", err)
			b.state = stateRecording
			return nil
		}
	}

	uCopy := u
	b.pendingAck = &uCopy
	b.state = statePlaying
	return nil
}

// wakeToneFreqHz and wakeToneDurationMS describe the bundled placeholder
// wake tone queued ahead of playback once the trigger gate has fired (spec
// §4.8), standing in for a recorded audio asset (original_source's
// SetPlaybackDefaultAudio()/b_PlayTriggerSound).
const (
	wakeToneFreqHz     = 880.0
	wakeToneDurationMS = 150
	wakeToneAmplitude  = 8000
)

func wakeToneSamples(hz uint32) []int16 {
	n := int(float64(hz) * wakeToneDurationMS / 1000.0)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(hz)
		samples[i] = int16(wakeToneAmplitude * math.Sin(2*math.Pi*wakeToneFreqHz*t))
	}
	return samples
}

func (b *Backend) acknowledgePlayback() {
	if b.pendingAck != nil {
		if err := b.bridge.AcknowledgeOutbound(b.pendingAck.StringID, b.pendingAck.GroupID); err != nil {
			b.logger.Warnf("voice: acknowledge failed: %v", err)
		}
		b.pendingAck = nil
	}
	// Acknowledged has no observation of its own; it exits to Recording
	// immediately (spec §4.8 table).
	b.state = stateRecording
}
