// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package multiplexer

import (
	"sync"
	"testing"
	"time"

	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons/commonstest"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	method  backend.Method
	viable  bool
	resumed bool
	listens int
	says    int
}

func (b *fakeBackend) Method() backend.Method { return b.method }
func (b *fakeBackend) IsViable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viable
}
func (b *fakeBackend) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resumed = true
}
func (b *fakeBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resumed = false
}
func (b *fakeBackend) Listen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listens++
	return nil
}
func (b *fakeBackend) Say(*storage.Storage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.says++
	return nil
}
func (b *fakeBackend) isResumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resumed
}

func TestMultiplexerSelectsFirstViableInPriorityOrder(t *testing.T) {
	out := storage.New(commonstest.NewNoop(), 256)
	m := New(commonstest.NewNoop(), out, 10*time.Millisecond)

	high := &fakeBackend{method: backend.MethodText, viable: true}
	low := &fakeBackend{method: backend.MethodVoice, viable: true}
	m.Add(0, high)
	m.Add(10, low)

	require.True(t, m.tick())
	require.True(t, high.isResumed())
	require.False(t, low.isResumed())
	require.Equal(t, backend.MethodText, m.CurrentMethod())
}

func TestMultiplexerPausesOldAndResumesNewOnSwitch(t *testing.T) {
	out := storage.New(commonstest.NewNoop(), 256)
	m := New(commonstest.NewNoop(), out, 10*time.Millisecond)

	a := &fakeBackend{method: backend.MethodText, viable: true}
	b := &fakeBackend{method: backend.MethodVoice, viable: false}
	m.Add(0, a)
	m.Add(10, b)

	require.True(t, m.tick())
	require.True(t, a.isResumed())

	a.mu.Lock()
	a.viable = false
	a.mu.Unlock()
	b.mu.Lock()
	b.viable = true
	b.mu.Unlock()

	require.True(t, m.tick())
	require.False(t, a.isResumed())
	require.True(t, b.isResumed())
	require.Equal(t, backend.MethodVoice, m.CurrentMethod())
}

func TestMultiplexerNoViableBackendPublishesNone(t *testing.T) {
	out := storage.New(commonstest.NewNoop(), 256)
	m := New(commonstest.NewNoop(), out, 10*time.Millisecond)
	m.Add(0, &fakeBackend{method: backend.MethodText, viable: false})

	require.False(t, m.tick())
	require.Equal(t, backend.MethodNone, m.CurrentMethod())
}

func TestMultiplexerDispatchesListenAndSayOnActiveBackend(t *testing.T) {
	out := storage.New(commonstest.NewNoop(), 256)
	m := New(commonstest.NewNoop(), out, 10*time.Millisecond)
	active := &fakeBackend{method: backend.MethodText, viable: true}
	m.Add(0, active)

	require.True(t, m.tick())
	active.mu.Lock()
	defer active.mu.Unlock()
	require.Equal(t, 1, active.listens)
	require.Equal(t, 1, active.says)
}
