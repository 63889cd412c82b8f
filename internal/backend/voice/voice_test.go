// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rapidaai/speechmediator/internal/commons/commonstest"
	"github.com/rapidaai/speechmediator/internal/eventbridge"
	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/rapidaai/speechmediator/internal/provider"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/rapidaai/speechmediator/internal/stream"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []eventbridge.Event
}

func (p *fakePublisher) Publish(e eventbridge.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) snapshot() []eventbridge.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventbridge.Event(nil), p.events...)
}

type fakeProvider struct {
	transcript string
	synthHz    uint32
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Transcribe(_ context.Context, audio provider.PCMBlock, _ string) (string, error) {
	if len(audio.Samples) == 0 {
		return "", provider.ErrInvalidArgument
	}
	return p.transcript, nil
}

func (p *fakeProvider) Synthesize(_ context.Context, text, _ string, _ provider.VoiceGender, targetHz uint32) (provider.PCMBlock, error) {
	if text == "" {
		return provider.PCMBlock{}, provider.ErrInvalidArgument
	}
	hz := p.synthHz
	if hz == 0 {
		hz = targetHz
	}
	return provider.PCMBlock{Samples: make([]int16, 800), SampleRateHz: hz}, nil
}

func newTestPair(t *testing.T) (server, client *stream.Stream) {
	t.Helper()
	dir := t.TempDir()
	logger := commonstest.NewNoop()

	server, err := stream.New(logger, stream.Options{Role: stream.RoleServer, Channel: "voice", SocketDir: dir, IdleTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(server.Shutdown)

	client, err = stream.New(logger, stream.Options{Role: stream.RoleClient, RemoteAddr: dir + "/mrhpsspeech_voice.sock", IdleTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(client.Shutdown)

	require.Eventually(t, func() bool {
		return server.Connected() && client.Connected()
	}, 3*time.Second, 20*time.Millisecond)
	return server, client
}

func newTestBackend(t *testing.T, p provider.Provider) (*Backend, *stream.Stream, *fakePublisher) {
	server, client := newTestPair(t)
	pub := &fakePublisher{}
	bridge := eventbridge.New(commonstest.NewNoop(), pub, 128)
	cfg := Config{
		RecordingHz:          16000,
		PlaybackHz:           16000,
		RecordingTimeout:     50 * time.Millisecond,
		RecordStorageSeconds: 5,
		PlaybackFrameSamples: 160,
		LanguageCode:         "en-US",
	}
	b := New(commonstest.NewNoop(), server, bridge, p, cfg, nil)
	return b, client, pub
}

func TestVoiceMethodIsVoice(t *testing.T) {
	b, _, _ := newTestBackend(t, &fakeProvider{})
	require.Equal(t, "VOICE", string(b.Method()))
}

func TestVoiceIsViableRequiresProviderAndConnection(t *testing.T) {
	b, _, _ := newTestBackend(t, &fakeProvider{})
	require.True(t, b.IsViable())

	b2 := New(commonstest.NewNoop(), b.stream, b.bridge, nil, b.cfg, nil)
	require.False(t, b2.IsViable())
}

func TestVoiceRecordSilenceTranscribeCyclePublishesInbound(t *testing.T) {
	b, client, pub := newTestBackend(t, &fakeProvider{transcript: "turn on the lights"})
	b.Resume()

	require.NoError(t, client.Send(opcode.NewStartRecording().Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.state == stateRecording
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewAudio(make([]int16, 320)).Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.record.SampleCount() == 320
	}, time.Second, 10*time.Millisecond)

	// Let the silence gap elapse, then drive SilenceHold -> Transcribing.
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, b.Listen())
	require.NoError(t, b.Listen())

	require.Eventually(t, func() bool {
		for _, e := range pub.snapshot() {
			if e.Type == eventbridge.ListenStringEnd && e.Text == "turn on the lights" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestVoiceSayPlaybackAcknowledgesOnFinished(t *testing.T) {
	b, client, pub := newTestBackend(t, &fakeProvider{synthHz: 16000})
	b.Resume()

	out := storage.New(commonstest.NewNoop(), 256)
	out.Add("hello there", 42, 7)

	require.NoError(t, b.Say(out))
	require.Equal(t, statePlaying, b.state)
	require.NotNil(t, b.pendingAck)

	require.Eventually(t, func() bool {
		_, ok := client.TryRecv()
		return ok
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewPlaybackFinished().Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.state == stateRecording
	}, time.Second, 10*time.Millisecond)

	found := false
	for _, e := range pub.snapshot() {
		if e.Type == eventbridge.SayStringPerformed && e.StringID == 42 && e.GroupID == 7 {
			found = true
		}
	}
	require.True(t, found)
}

type failingProvider struct{ fakeProvider }

func (p *failingProvider) Synthesize(context.Context, string, string, provider.VoiceGender, uint32) (provider.PCMBlock, error) {
	return provider.PCMBlock{}, provider.ErrProviderUnavailable
}

type fixedMatcher struct{ open bool }

func (m *fixedMatcher) Match([]int16) bool { return m.open }

func newTestBackendWithTrigger(t *testing.T, matcher Matcher, triggerTimeout time.Duration) (*Backend, *stream.Stream, *fakePublisher) {
	server, client := newTestPair(t)
	pub := &fakePublisher{}
	bridge := eventbridge.New(commonstest.NewNoop(), pub, 128)
	cfg := Config{
		RecordingHz:          16000,
		PlaybackHz:           16000,
		RecordingTimeout:     50 * time.Millisecond,
		RecordStorageSeconds: 5,
		PlaybackFrameSamples: 160,
		LanguageCode:         "en-US",
		TriggerEnabled:       true,
		TriggerTimeout:       triggerTimeout,
	}
	b := New(commonstest.NewNoop(), server, bridge, &fakeProvider{transcript: "turn on the lights"}, cfg, matcher)
	return b, client, pub
}

func TestVoiceTriggerGateClosedSuppressesTranscription(t *testing.T) {
	b, client, pub := newTestBackendWithTrigger(t, &fixedMatcher{open: false}, time.Second)
	b.Resume()

	require.NoError(t, client.Send(opcode.NewStartRecording().Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.state == stateRecording
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewAudio(make([]int16, 320)).Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.record.SampleCount() == 320
	}, time.Second, 10*time.Millisecond)

	time.Sleep(120 * time.Millisecond)
	require.NoError(t, b.Listen())
	require.NoError(t, b.Listen())

	require.Never(t, func() bool {
		for _, e := range pub.snapshot() {
			if e.Type == eventbridge.ListenStringEnd {
				return true
			}
		}
		return false
	}, 200*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, stateRecording, b.state)
}

func TestVoiceTriggerGateOpenDispatchesTranscription(t *testing.T) {
	b, client, pub := newTestBackendWithTrigger(t, &fixedMatcher{open: true}, time.Second)
	b.Resume()

	require.NoError(t, client.Send(opcode.NewStartRecording().Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.state == stateRecording
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewAudio(make([]int16, 320)).Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.record.SampleCount() == 320
	}, time.Second, 10*time.Millisecond)

	time.Sleep(120 * time.Millisecond)
	require.NoError(t, b.Listen())
	require.NoError(t, b.Listen())

	require.Eventually(t, func() bool {
		for _, e := range pub.snapshot() {
			if e.Type == eventbridge.ListenStringEnd && e.Text == "turn on the lights" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestVoiceTriggerGateClosesAfterTimeout(t *testing.T) {
	b, client, pub := newTestBackendWithTrigger(t, &fixedMatcher{open: true}, 30*time.Millisecond)
	b.Resume()

	require.NoError(t, client.Send(opcode.NewStartRecording().Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.state == stateRecording
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewAudio(make([]int16, 320)).Encode()))
	require.Eventually(t, func() bool {
		require.NoError(t, b.Listen())
		return b.record.SampleCount() == 320
	}, time.Second, 10*time.Millisecond)

	// Gate opened on the AUDIO frame above; let its timeout lapse, then
	// let the silence hold elapse so transcribe() runs against a closed gate.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, b.Listen())
	require.NoError(t, b.Listen())

	require.Empty(t, pub.snapshot())
	require.Equal(t, stateRecording, b.state)
}

func TestVoiceSynthesizeFailureDropsUtteranceWithoutAck(t *testing.T) {
	b, _, pub := newTestBackend(t, &failingProvider{})
	b.Resume()

	out := storage.New(commonstest.NewNoop(), 256)
	out.Add("hello there", 1, 1)

	require.NoError(t, b.Say(out))
	require.Equal(t, stateRecording, b.state)
	require.Nil(t, b.pendingAck)
	require.Empty(t, pub.snapshot())
}
